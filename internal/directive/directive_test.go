package directive_test

import (
	"testing"
	"time"

	"github.com/aretw0/docmerge/internal/directive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Terminals(t *testing.T) {
	tests := []struct {
		id   string
		kind directive.Kind
		args string
	}{
		{"Insured.Name", directive.KindDefault, "Insured.Name"},
		{"_If.GlLine.Premium.Rollup>0", directive.KindIf, "GlLine.Premium.Rollup>0"},
		{"_if.A=5|B=6", directive.KindIf, "A=5|B=6"},
		{"_IfNot.IsRenewal", directive.KindIfNot, "IsRenewal"},
		{"_IfText", directive.KindIfText, ""},
		{"_Premium.Gl", directive.KindPremium, "Gl"},
		{"_Questions.Gl.Building.Q100", directive.KindQuestions, "Gl.Building.Q100"},
		{"_xsRisk.Description", directive.KindXsRisk, "Description"},
		{"_SPECEVENTRISK.Description", directive.KindSpecEventRisk, "Description"},
		{"_Today.Long", directive.KindToday, "Long"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			d, err := directive.Parse(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, d.Kind)
			assert.Equal(t, tt.args, d.Args)
			assert.Empty(t, d.Modifiers)
			assert.False(t, d.Unknown)
		})
	}
}

func TestParse_StackedModifiers(t *testing.T) {
	d, err := directive.Parse("_KeepFirst._EffAfter.20230101._IfQuote._Premium")
	require.NoError(t, err)

	require.Len(t, d.Modifiers, 3)
	assert.Equal(t, directive.ModKeepFirst, d.Modifiers[0].Kind)
	assert.Equal(t, directive.ModEffAfter, d.Modifiers[1].Kind)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), d.Modifiers[1].Cutoff)
	assert.Equal(t, directive.ModIfQuote, d.Modifiers[2].Kind)
	assert.Equal(t, directive.KindPremium, d.Kind)
	assert.Equal(t, "_Premium", d.Name())
}

func TestParse_ModifierOnly(t *testing.T) {
	d, err := directive.Parse("_IfQuote")
	require.NoError(t, err)
	assert.Equal(t, directive.KindKeep, d.Kind)
	assert.Equal(t, "", d.Name())
}

func TestParse_ModifierThenPath(t *testing.T) {
	d, err := directive.Parse("_EffBefore.20240701.Insured.Name")
	require.NoError(t, err)
	require.Len(t, d.Modifiers, 1)
	assert.Equal(t, directive.KindDefault, d.Kind)
	assert.Equal(t, "Insured.Name", d.Args)
}

func TestParse_Unknown(t *testing.T) {
	d, err := directive.Parse("_Bogus.Thing")
	require.NoError(t, err)
	assert.True(t, d.Unknown)
	assert.Equal(t, directive.KindDefault, d.Kind)
	assert.Equal(t, "_Bogus.Thing", d.Args)
}

func TestParse_Errors(t *testing.T) {
	_, err := directive.Parse("_EffBefore.2024-07-01.Insured.Name")
	assert.ErrorContains(t, err, "yyyymmdd")

	_, err = directive.Parse("   ")
	assert.Error(t, err)
}

func TestKinds_Spelling(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range directive.Kinds() {
		s := k.String()
		assert.NotEmpty(t, s)
		assert.NotContains(t, s, "Kind(", "kind %d has no name", int(k))
		assert.False(t, seen[s], "duplicate name %s", s)
		seen[s] = true

		if k == directive.KindDefault || k == directive.KindKeep {
			continue
		}
		d, err := directive.Parse(s)
		require.NoError(t, err)
		assert.Equal(t, k, d.Kind, "round trip of %s", s)
	}
	assert.Contains(t, directive.Names(), "_EffBefore")
}

func TestKind_IsList(t *testing.T) {
	assert.True(t, directive.KindCoverages.IsList())
	assert.True(t, directive.KindList.IsList())
	assert.False(t, directive.KindPremium.IsList())
	assert.False(t, directive.KindDefault.IsList())

	lists := 0
	for _, k := range directive.Kinds() {
		if k.IsList() {
			lists++
		}
	}
	assert.Equal(t, 14, lists)
}
