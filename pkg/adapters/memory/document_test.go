package memory_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aretw0/docmerge/pkg/adapters/memory"
	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/aretw0/docmerge/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scheduleDoc() *memory.Document {
	return memory.NewDocument("CG2010",
		memory.SectionOf(
			memory.Para(memory.Text("Insured: "), memory.Field("NamedInsured", "name")),
			memory.TableOf(
				memory.RowOf(memory.CellOf(memory.Text("Name")), memory.CellOf(memory.Text("Address"))),
				memory.RowOf(memory.CellOf(memory.Field("AI_1", "")), memory.CellOf(memory.Field("AIAddr_1", ""))),
			),
		),
	)
}

func TestDocument_ReplaceAndRemove(t *testing.T) {
	doc := scheduleDoc()

	require.NoError(t, doc.ReplaceValue("namedinsured", "Acme Roofing"))
	assert.Contains(t, doc.Text(), "Insured: Acme Roofing")

	require.NoError(t, doc.Remove("NamedInsured"))
	p, ok := doc.Placeholder("NamedInsured")
	require.True(t, ok)
	assert.True(t, p.Removed)
	assert.NotContains(t, doc.Text(), "Acme")

	err := doc.Remove("NamedInsured")
	assert.ErrorIs(t, err, domain.ErrAlreadyRemoved)

	err = doc.ReplaceValue("Missing", "x")
	assert.ErrorIs(t, err, domain.ErrPlaceholderNotFound)
}

func TestDocument_Placeholders(t *testing.T) {
	doc := scheduleDoc()
	names := []string{}
	for _, p := range doc.Placeholders() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"NamedInsured", "AI_1", "AIAddr_1"}, names)
}

func TestDocument_Table(t *testing.T) {
	doc := scheduleDoc()

	_, err := doc.Table("NamedInsured")
	assert.ErrorIs(t, err, domain.ErrNotInTable)

	tbl, err := doc.Table("AI_1")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Rows())

	row, col, ok := tbl.Locate("AIAddr_1")
	require.True(t, ok)
	assert.Equal(t, 1, row)
	assert.Equal(t, 1, col)

	at, err := tbl.CloneRow(1, 2, func(name string) string {
		return strings.TrimSuffix(name, "_1") + "_2"
	})
	require.NoError(t, err)
	assert.Equal(t, 2, at)
	assert.Equal(t, 3, tbl.Rows())
	assert.Equal(t, []string{"AI_2", "AIAddr_2"}, tbl.RowPlaceholders(2))

	require.NoError(t, doc.ReplaceValue("AI_2", "Second"))
	require.NoError(t, tbl.SetCell(1, 0, ports.CellContent{Text: "First"}))
	require.NoError(t, tbl.RemoveRow(0))
	assert.Equal(t, 2, tbl.Rows())
	assert.Equal(t, "First | \nSecond | \n", strings.SplitN(doc.Text(), "\n", 2)[1])
}

func TestDocument_CloneIsIndependent(t *testing.T) {
	doc := scheduleDoc()
	clone := doc.Clone()

	require.NoError(t, clone.ReplaceValue("NamedInsured", "Clone"))
	p, _ := doc.Placeholder("NamedInsured")
	assert.Equal(t, "name", p.Text)
}

func TestDocument_AppendAndLayout(t *testing.T) {
	doc := scheduleDoc()
	other := scheduleDoc()

	require.NoError(t, doc.Append(other, ports.AppendOptions{PageBreak: true, RestartNumbering: true}))
	require.Len(t, doc.Sections(), 2)
	assert.True(t, doc.Sections()[1].PageBreakBefore)
	assert.True(t, doc.Sections()[1].RestartNumbering)
	assert.False(t, doc.Sections()[0].PageBreakBefore)

	assert.Equal(t, 0, doc.PageCount())
	assert.Equal(t, 2, doc.UpdateLayout())
	assert.Equal(t, 2, doc.PageCount())
	assert.Equal(t, 1, doc.LayoutPasses())
}

type foreignDoc struct{ ports.Document }

func TestDocument_AppendForeign(t *testing.T) {
	err := scheduleDoc().Append(foreignDoc{}, ports.AppendOptions{})
	assert.Error(t, err)
}

func TestDocument_FooterAndSave(t *testing.T) {
	doc := scheduleDoc()
	doc.SetWatermark("QUOTE")
	require.NoError(t, doc.UpdateFooter(ports.FooterInfo{Instance: 1, InstanceCount: 3, FormNumber: "CG 20 10"}))
	assert.Len(t, doc.FooterUpdates(), 1)

	out, err := doc.SaveAs(domain.FormatPDF)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "#PDF CG2010\n[watermark: QUOTE]\n"))
	assert.Contains(t, string(out), fmt.Sprintf("-- %s %d/%d --", "", 1, 3))

	_, err = doc.SaveAs("rtf")
	assert.ErrorIs(t, err, domain.ErrUnknownFormat)
}

func TestDocument_InsertImage(t *testing.T) {
	doc := memory.NewDocument("sig", memory.SectionOf(memory.Para(memory.Field("Signature", ""))))
	require.NoError(t, doc.InsertImage("Signature", ports.ImageRef{Source: "sig/acme.png", Alt: "[signature]"}))
	assert.Empty(t, doc.Placeholders())
	assert.Contains(t, doc.Text(), "[signature]")
}
