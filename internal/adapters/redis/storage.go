package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/docmerge/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Storage implements ports.Storage using Redis. Renditions are stored as raw
// bytes under prefix+name and indexed in a sorted set scored by expiry.
type Storage struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Storage)

// WithTTL sets the expiration for stored renditions.
func WithTTL(ttl time.Duration) Option {
	return func(s *Storage) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Storage) {
		s.prefix = prefix
	}
}

// New creates a new Redis storage with options.
func New(address, password string, db int, opts ...Option) *Storage {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis storage from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Storage {
	s := &Storage{
		client: client,
		prefix: "docmerge:output:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Client returns the underlying connection, so other redis adapters can share it.
func (s *Storage) Client() *backend.Client { return s.client }

func (s *Storage) key(name string) string {
	return s.prefix + name
}

func (s *Storage) indexKey() string {
	return s.prefix + "index"
}

// Save stores the rendition and indexes it.
func (s *Storage) Save(ctx context.Context, name string, format domain.Format, data []byte) (domain.StoredFile, error) {
	if name == "" {
		return domain.StoredFile{}, fmt.Errorf("file name cannot be empty")
	}

	pipe := s.client.Pipeline()

	// 1. Save bytes with TTL
	pipe.Set(ctx, s.key(name), data, s.ttl)

	// 2. Add to Index (ZSET), scored by expiry
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: name,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return domain.StoredFile{}, fmt.Errorf("failed to save to redis: %w", err)
	}

	return domain.StoredFile{Format: format, Path: name, FileName: name}, nil
}

// Load retrieves stored bytes by name.
func (s *Storage) Load(ctx context.Context, path string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(path)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	return val, nil
}

// List returns the names of unexpired renditions, pruning the index lazily.
func (s *Storage) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired outputs: %w", err)
	}

	names, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list outputs: %w", err)
	}
	return names, nil
}

// Close closes the redis client.
func (s *Storage) Close() error {
	return s.client.Close()
}
