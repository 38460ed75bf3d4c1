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

func TestMemoryReferenceSource_Contract(t *testing.T) {
	want := &domain.ReferenceData{
		Carriers: []domain.Carrier{{Code: "ACME", Name: "Acme Specialty", SignatureImage: "sig/acme.png"}},
		States:   []domain.State{{Code: "48", Abbreviation: "TX", Name: "Texas"}},
	}
	ports.RunReferenceSourceContract(t, memory.NewReferenceSource(want), want)
}

func TestMemoryReferenceSource_Isolation(t *testing.T) {
	data := &domain.ReferenceData{States: []domain.State{{Code: "06", Abbreviation: "CA"}}}
	src := memory.NewReferenceSource(data)

	got, err := src.Load(context.Background())
	require.NoError(t, err)
	got.States[0].Abbreviation = "XX"

	abbr, ok := data.StateAbbreviation("06")
	assert.True(t, ok)
	assert.Equal(t, "CA", abbr)
}
