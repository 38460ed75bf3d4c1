package file

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/docmerge/pkg/domain"
	"gopkg.in/yaml.v3"
)

// ReferenceSource implements ports.ReferenceSource from a YAML file.
type ReferenceSource struct {
	Path string
}

// NewReferenceSource creates a source reading path.
func NewReferenceSource(path string) *ReferenceSource {
	return &ReferenceSource{Path: path}
}

// Load parses the file on every call. Callers cache through refdata.Cache.
func (s *ReferenceSource) Load(ctx context.Context) (*domain.ReferenceData, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference data: %w", err)
	}
	var ref domain.ReferenceData
	if err := yaml.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("failed to parse reference data %s: %w", s.Path, err)
	}
	return &ref, nil
}
