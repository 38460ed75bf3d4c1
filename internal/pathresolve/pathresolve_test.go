package pathresolve_test

import (
	"testing"
	"time"

	"github.com/aretw0/docmerge/internal/pathresolve"
	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePolicy() *domain.Policy {
	adjusted := 900.0
	return &domain.Policy{
		PolicyNumber:  "GL-0001",
		Status:        domain.StatusBound,
		EffectiveDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Insured:       domain.Insured{Name: "Acme Roofing", MailingAddress: domain.Address{City: "Austin", State: "TX"}},
		Premium:       domain.Premium{Rollup: 1250.5, AgentAdjusted: &adjusted},
		Lines: []domain.LineOfBusiness{
			{
				Code:    domain.LineGeneralLiability,
				Premium: domain.Premium{Rollup: 800},
				Coverages: []domain.Coverage{
					{Code: "PREM", Name: "Premises Liability", Limit: 1000000},
				},
				RiskUnits: []domain.RiskUnit{
					{ID: "r1", ClassType: domain.ClassPremises, Description: "Warehouse"},
					{ID: "r2", ClassType: domain.ClassBuilding, Description: "Main office"},
					{ID: "r3", ClassType: domain.ClassBuilding, Description: "Annex"},
				},
			},
		},
		Warranties: []domain.Warranty{{Text: "No roofing above 3 stories"}},
		Taxes:      nil,
	}
}

func TestResolve(t *testing.T) {
	p := samplePolicy()

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"PolicyNumber", "GL-0001", true},
		{"policynumber", "GL-0001", true},
		{"Insured.Name", "Acme Roofing", true},
		{"Insured.MailingAddress.City", "Austin", true},
		{"EffectiveDate", "03/01/2024", true},
		{"ExpirationDate", "", true},
		{"Premium.Rollup", "1250.5", true},
		{"Premium.Effective", "900", true},
		{"Premium.UnderwriterAdjusted", "", false},
		{"IsBound", "true", true},
		{"Number", "GL-0001", true},
		{"GlLine.Premium.Rollup", "800", true},
		{"glline.Coverages.PREM.Limit", "1000000", true},
		{"GlLine.Coverages.0.Name", "Premises Liability", true},
		{"GlLine.Coverages.5.Name", "", false},
		{"GlLine.Building.Description", "Main office", true},
		{"GlLine.Vehicle.Description", "", false},
		{"XsLine.Premium.Rollup", "", false},
		{"Warranties", "1", true},
		{"Taxes", "", true},
		{"Missing", "", false},
		{"Insured..Name", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := pathresolve.Resolve(p, tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_UnexportedFieldsAreHidden(t *testing.T) {
	fm := domain.NewFieldMap(domain.FieldMapping{Placeholder: "a", Identifier: "b"})
	_, ok := pathresolve.Resolve(fm, "entries")
	assert.False(t, ok)

	got, ok := pathresolve.Resolve(fm, "Len")
	assert.True(t, ok)
	assert.Equal(t, "1", got)
}

func TestResolve_Maps(t *testing.T) {
	data := map[string]any{"Carrier": map[string]string{"Name": "Acme"}}
	got, ok := pathresolve.Resolve(data, "carrier.name")
	require.True(t, ok)
	assert.Equal(t, "Acme", got)
}

func TestLookup(t *testing.T) {
	p := samplePolicy()
	v, ok := pathresolve.Lookup(p, "GlLine.Premises")
	require.True(t, ok)
	unit, ok := v.(domain.RiskUnit)
	require.True(t, ok)
	assert.Equal(t, "r1", unit.ID)
}

func TestResolver_DateLayout(t *testing.T) {
	r := pathresolve.New("2006-01-02")
	got, ok := r.Resolve(samplePolicy(), "EffectiveDate")
	require.True(t, ok)
	assert.Equal(t, "2024-03-01", got)
	assert.Equal(t, "12.25", r.Format(12.25))
}
