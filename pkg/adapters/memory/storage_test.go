package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/docmerge/pkg/adapters/memory"
	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/aretw0/docmerge/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_Contract(t *testing.T) {
	storage := memory.NewStorage()
	ports.RunStorageContract(t, storage)
}

func TestMemoryStorage_CopyOnRead(t *testing.T) {
	storage := memory.NewStorage()
	ctx := context.Background()

	f, err := storage.Save(ctx, "a.pdf", domain.FormatPDF, []byte("abc"))
	require.NoError(t, err)

	got, err := storage.Load(ctx, f.Path)
	require.NoError(t, err)
	got[0] = 'z'

	again, err := storage.Load(ctx, f.Path)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
	assert.Equal(t, []string{"a.pdf"}, storage.List())
}
