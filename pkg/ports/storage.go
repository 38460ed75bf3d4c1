package ports

import (
	"context"

	"github.com/aretw0/docmerge/pkg/domain"
)

// Storage persists generated output.
type Storage interface {
	// Save stores data under name and returns the resulting location.
	Save(ctx context.Context, name string, format domain.Format, data []byte) (domain.StoredFile, error)

	// Load retrieves previously stored bytes by path.
	Load(ctx context.Context, path string) ([]byte, error)
}

// FieldMapSource is the data service serving field-mapping tables.
type FieldMapSource interface {
	// DefaultFields returns the mapping shared by every form.
	DefaultFields(ctx context.Context) (domain.FieldMap, error)

	// CustomFields returns the per-form overrides. A form without overrides
	// yields an empty map and no error.
	CustomFields(ctx context.Context, formID string) (domain.FieldMap, error)
}

// ReferenceSource loads process-wide reference data.
type ReferenceSource interface {
	Load(ctx context.Context) (*domain.ReferenceData, error)
}
