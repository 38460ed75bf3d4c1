package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager()
	ctx := context.Background()

	for i := 0; i < 10000; i++ {
		err := mgr.WithLock(ctx, fmt.Sprintf("POL-%d", i), func(context.Context) error { return nil })
		assert.NoError(t, err)
	}

	assert.Empty(t, mgr.locks, "locks leaked after release")
}
