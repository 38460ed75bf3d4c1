package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/docmerge/internal/adapters/redis"
	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/aretw0/docmerge/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr, backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestRedisStorage_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunStorageContract(t, redis.NewFromClient(client))
}

func TestRedisStorage_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	storage := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	// 1. Save
	_, err := storage.Save(ctx, "CG2010_x.pdf", domain.FormatPDF, []byte("pdf"))
	assert.NoError(t, err)

	// 2. Listed immediately
	names, err := storage.List(ctx)
	assert.NoError(t, err)
	assert.Contains(t, names, "CG2010_x.pdf")

	// 3. Fast forward past the key TTL
	mr.FastForward(2 * time.Second)

	_, err = storage.Load(ctx, "CG2010_x.pdf")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)

	// 4. The index is pruned against wall-clock time
	time.Sleep(1200 * time.Millisecond)

	names, err = storage.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, names)
}

func TestRedisStorage_Prefix(t *testing.T) {
	mr, client := newClient(t)

	storage := redis.NewFromClient(client, redis.WithPrefix("custom:out:"))
	ctx := context.Background()

	_, err := storage.Save(ctx, "IL0017.docx", domain.FormatDOCX, []byte("docx"))
	assert.NoError(t, err)

	assert.True(t, mr.Exists("custom:out:IL0017.docx"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:out:index"), "Expected index with custom prefix to exist")
}
