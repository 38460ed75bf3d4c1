package memory

import (
	"context"

	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/mohae/deepcopy"
)

// ReferenceSource serves fixed reference data.
type ReferenceSource struct {
	data *domain.ReferenceData
}

// NewReferenceSource wraps data. Load returns copies, so callers cannot mutate it.
func NewReferenceSource(data *domain.ReferenceData) *ReferenceSource {
	return &ReferenceSource{data: data}
}

// Load returns a copy of the reference data.
func (s *ReferenceSource) Load(ctx context.Context) (*domain.ReferenceData, error) {
	if s.data == nil {
		return &domain.ReferenceData{}, nil
	}
	return deepcopy.Copy(s.data).(*domain.ReferenceData), nil
}
