package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/docmerge/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// ReferenceSource implements ports.ReferenceSource over a JSON document stored in Redis.
// Several engine processes share one copy; Publish replaces it under a lock.
type ReferenceSource struct {
	client *backend.Client
	key    string
	locker *Locker
}

// NewReferenceSource reads and writes reference data at key.
func NewReferenceSource(client *backend.Client, key string) *ReferenceSource {
	if key == "" {
		key = "docmerge:refdata"
	}
	return &ReferenceSource{
		client: client,
		key:    key,
		locker: NewLocker(client, key+":"),
	}
}

// Load fetches and decodes the reference data.
func (s *ReferenceSource) Load(ctx context.Context) (*domain.ReferenceData, error) {
	val, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, fmt.Errorf("reference data not published at %s", s.key)
		}
		return nil, fmt.Errorf("failed to get reference data: %w", err)
	}
	var ref domain.ReferenceData
	if err := json.Unmarshal(val, &ref); err != nil {
		return nil, fmt.Errorf("failed to decode reference data: %w", err)
	}
	return &ref, nil
}

// Publish stores data, serialized against concurrent publishers.
func (s *ReferenceSource) Publish(ctx context.Context, data *domain.ReferenceData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode reference data: %w", err)
	}

	unlock, err := s.locker.Lock(ctx, "publish", 10*time.Second)
	if err != nil {
		return err
	}
	defer func() { _ = unlock(context.WithoutCancel(ctx)) }()

	if err := s.client.Set(ctx, s.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to publish reference data: %w", err)
	}
	return nil
}
