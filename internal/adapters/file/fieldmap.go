package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// FieldMapSource implements ports.FieldMapSource over a directory of JSON tables.
// default.json holds the shared mapping and <formID>.json the per-form overrides.
// A table is either an array of {"placeholder", "identifier"} objects or a flat
// object from placeholder to identifier.
type FieldMapSource struct {
	Dir string
}

// NewFieldMapSource creates a source reading from dir.
func NewFieldMapSource(dir string) *FieldMapSource {
	return &FieldMapSource{Dir: dir}
}

// DefaultFields loads default.json. A missing file yields an empty map.
func (s *FieldMapSource) DefaultFields(ctx context.Context) (domain.FieldMap, error) {
	return s.load("default")
}

// CustomFields loads <formID>.json. A missing file yields an empty map.
func (s *FieldMapSource) CustomFields(ctx context.Context, formID string) (domain.FieldMap, error) {
	if formID == "" || filepath.Base(formID) != formID {
		return domain.FieldMap{}, fmt.Errorf("invalid form id %q", formID)
	}
	return s.load(formID)
}

func (s *FieldMapSource) load(name string) (domain.FieldMap, error) {
	path := filepath.Join(s.Dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewFieldMap(), nil
		}
		return domain.FieldMap{}, fmt.Errorf("failed to read field map %s: %w", path, err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.FieldMap{}, fmt.Errorf("failed to parse field map %s: %w", path, err)
	}

	mappings, err := decodeMappings(raw)
	if err != nil {
		return domain.FieldMap{}, fmt.Errorf("field map %s: %w", path, err)
	}
	return domain.NewFieldMap(mappings...), nil
}

func decodeMappings(raw any) ([]domain.FieldMapping, error) {
	switch v := raw.(type) {
	case map[string]any:
		out := make([]domain.FieldMapping, 0, len(v))
		for placeholder, id := range v {
			s, ok := id.(string)
			if !ok {
				return nil, fmt.Errorf("identifier for %q must be a string", placeholder)
			}
			out = append(out, domain.FieldMapping{Placeholder: placeholder, Identifier: s})
		}
		return out, nil
	case []any:
		var out []domain.FieldMapping
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:      &out,
			ErrorUnused: true,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(v); err != nil {
			return nil, err
		}
		return out, nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("unsupported field map shape %T", raw)
}
