package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/docmerge/pkg/ports"
	"github.com/aretw0/docmerge/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLocker struct {
	mu       sync.Mutex
	keys     []string
	ttls     []time.Duration
	released int
	fail     error
}

func (l *recordingLocker) Lock(_ context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail != nil {
		return nil, l.fail
	}
	l.keys = append(l.keys, key)
	l.ttls = append(l.ttls, ttl)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.released++
		return nil
	}, nil
}

func TestManager_SerializesSamePolicy(t *testing.T) {
	mgr := session.NewManager()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = mgr.WithLock(ctx, "POL-1", func(context.Context) error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, mgr.Active())
}

func TestManager_DifferentPoliciesRunConcurrently(t *testing.T) {
	mgr := session.NewManager()
	ctx := context.Background()

	entered := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- mgr.WithLock(ctx, "POL-A", func(context.Context) error {
			<-entered
			return nil
		})
	}()

	// POL-B must not wait for POL-A, which only returns once POL-B has run.
	err := mgr.WithLock(ctx, "POL-B", func(context.Context) error {
		close(entered)
		return nil
	})
	require.NoError(t, err)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("POL-A never finished")
	}
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	mgr := session.NewManager(session.WithLocker(locker), session.WithTTL(time.Minute))

	wantErr := errors.New("boom")
	err := mgr.WithLock(context.Background(), "POL-7", func(context.Context) error { return wantErr })

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, []string{"policy:POL-7"}, locker.keys)
	assert.Equal(t, []time.Duration{time.Minute}, locker.ttls)
	assert.Equal(t, 1, locker.released)
}

func TestManager_DistributedLockFailure(t *testing.T) {
	locker := &recordingLocker{fail: errors.New("redis down")}
	mgr := session.NewManager(session.WithLocker(locker))

	called := false
	err := mgr.WithLock(context.Background(), "POL-7", func(context.Context) error {
		called = true
		return nil
	})

	assert.ErrorContains(t, err, "failed to acquire distributed lock")
	assert.False(t, called)
	assert.Equal(t, 0, mgr.Active())
}

func TestManager_EmptyPolicyNotLocked(t *testing.T) {
	locker := &recordingLocker{}
	mgr := session.NewManager(session.WithLocker(locker))

	err := mgr.WithLock(context.Background(), "", func(context.Context) error { return nil })

	assert.NoError(t, err)
	assert.Empty(t, locker.keys)
}
