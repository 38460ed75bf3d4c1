package domain_test

import (
	"testing"

	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_Status(t *testing.T) {
	p := &domain.Policy{QuoteNumber: "Q-1"}
	assert.True(t, p.IsQuote())
	assert.False(t, p.IsBound())
	assert.Equal(t, "Q-1", p.Number())

	p.Status, p.PolicyNumber = domain.StatusIssued, "P-1"
	assert.False(t, p.IsQuote())
	assert.True(t, p.IsBound())
	assert.Equal(t, "P-1", p.Number())
}

func TestPolicy_Form(t *testing.T) {
	p := &domain.Policy{Documents: []domain.Document{
		{FormID: "AI", QuantityOrder: 1},
		{FormID: "AI", QuantityOrder: 2},
	}}

	d, ok := p.Form("ai", 0)
	require.True(t, ok)
	assert.Equal(t, 1, d.QuantityOrder)

	d, ok = p.Form("AI", 2)
	require.True(t, ok)
	assert.Equal(t, 2, d.QuantityOrder)

	_, ok = p.Form("AI", 3)
	assert.False(t, ok)
}

func TestPremium_Effective(t *testing.T) {
	agent, uw, zero := 300.0, 200.0, 0.0

	assert.Equal(t, 300.0, domain.Premium{AgentAdjusted: &agent, UnderwriterAdjusted: &uw, Rollup: 100}.Effective())
	assert.Equal(t, 200.0, domain.Premium{AgentAdjusted: &zero, UnderwriterAdjusted: &uw, Rollup: 100}.Effective())
	assert.Equal(t, 100.0, domain.Premium{Rollup: 100}.Effective())
}

func TestReferenceData_Lookups(t *testing.T) {
	ref := &domain.ReferenceData{
		Carriers: []domain.Carrier{{Code: "ACME", Name: "Acme Mutual"}},
		States:   []domain.State{{Code: "48", Abbreviation: "TX"}},
	}

	c, ok := ref.Carrier("ACME")
	assert.True(t, ok)
	assert.Equal(t, "Acme Mutual", c.Name)

	abbr, ok := ref.StateAbbreviation("48")
	assert.True(t, ok)
	assert.Equal(t, "TX", abbr)

	var missing *domain.ReferenceData
	_, ok = missing.Carrier("ACME")
	assert.False(t, ok)
}

func TestFieldMap(t *testing.T) {
	defaults := domain.NewFieldMap(
		domain.FieldMapping{Placeholder: "NamedInsured", Identifier: "Insured.Name"},
		domain.FieldMapping{Placeholder: "Agency", Identifier: "Agency.Name"},
	)
	custom := domain.NewFieldMap(domain.FieldMapping{Placeholder: "agency", Identifier: "Agency.Code"})

	merged := defaults.Overlay(custom)
	assert.Equal(t, "Insured.Name", merged.Identifier("NAMEDINSURED"))
	assert.Equal(t, "Agency.Code", merged.Identifier("Agency"))
	assert.Equal(t, "Unmapped", merged.Identifier("Unmapped"))
	assert.Equal(t, "Agency.Name", defaults.Identifier("Agency"))
	assert.Equal(t, 2, merged.Len())
	assert.Equal(t, "agency", merged.Mappings()[0].Placeholder)
}
