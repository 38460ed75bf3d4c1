package memory

import (
	"context"

	"github.com/aretw0/docmerge/pkg/domain"
)

// FieldMapSource implements ports.FieldMapSource from in-memory tables.
type FieldMapSource struct {
	defaults map[string]string
	custom   map[string]map[string]string
}

// NewFieldMapSource creates a source. custom is keyed by form ID.
func NewFieldMapSource(defaults map[string]string, custom map[string]map[string]string) *FieldMapSource {
	return &FieldMapSource{defaults: defaults, custom: custom}
}

// DefaultFields returns the shared mapping.
func (s *FieldMapSource) DefaultFields(ctx context.Context) (domain.FieldMap, error) {
	return build(s.defaults), nil
}

// CustomFields returns the overrides for one form.
func (s *FieldMapSource) CustomFields(ctx context.Context, formID string) (domain.FieldMap, error) {
	return build(s.custom[formID]), nil
}

func build(entries map[string]string) domain.FieldMap {
	fm := domain.NewFieldMap()
	for placeholder, id := range entries {
		fm.Set(placeholder, id)
	}
	return fm
}
