package validator

import (
	"testing"

	"github.com/aretw0/docmerge/pkg/adapters/memory"
	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLint(t *testing.T) {
	doc := memory.NewDocument("lint", memory.SectionOf(
		memory.Para(memory.Field("Insured.Name", "")),
		memory.Para(memory.Field("_Clauses", "")),
		memory.Para(memory.Field("_Frobnicate.X", "")),
		memory.Para(memory.Field("_EffBefore.2024-01-01._Keep", "")),
		memory.Para(memory.Field("_If", "text")),
		memory.Para(memory.Field("_Today.Weekday", "")),
		memory.Para(memory.Field("Warrants", "")),
		memory.TableOf(memory.RowOf(memory.CellOf(memory.Field("_Coverages", "")))),
	))
	fields := domain.NewFieldMap(domain.FieldMapping{Placeholder: "Warrants", Identifier: "_Warranties"})

	issues := Lint(doc, fields)
	got := make(map[string]Severity, len(issues))
	for _, i := range issues {
		got[i.Placeholder] = i.Severity
	}
	assert.Equal(t, map[string]Severity{
		"Warrants":                    SeverityError,
		"_Clauses":                    SeverityError,
		"_EffBefore.2024-01-01._Keep": SeverityError,
		"_Frobnicate.X":               SeverityWarning,
		"_If":                         SeverityError,
		"_Today.Weekday":              SeverityWarning,
	}, got)

	require.Len(t, issues, 6)
	assert.Equal(t, "Warrants", issues[0].Placeholder)
	assert.Equal(t, "error: _Warranties must sit in a table row (Warrants -> _Warranties)", issues[0].String())
}

func TestValidateTemplate(t *testing.T) {
	good := memory.NewDocument("good", memory.SectionOf(
		memory.Para(memory.Field("_IfBound", "Bound")),
		memory.Para(memory.Field("_Unknown", "")),
	))
	assert.NoError(t, ValidateTemplate(good, domain.FieldMap{}))

	bad := memory.NewDocument("bad", memory.SectionOf(
		memory.Para(memory.Field("_Questions.Gl", "")),
		memory.Para(memory.Field("_IfText", " ")),
	))
	err := ValidateTemplate(bad, domain.FieldMap{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 2 errors")
	assert.Contains(t, err.Error(), "_Questions needs <Line>.<ClassType>.<Code>")
}
