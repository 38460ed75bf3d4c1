package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/docmerge/internal/adapters/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scheduleTemplate = `
name: CG2010
sections:
  - pages: 2
    footer: CG 20 10 04 13
    blocks:
      - "Named Insured: {{NamedInsured ~ Name of insured}}"
      - "{{#_If.IsRenewal|IsBound ~ This policy renews a prior policy.}}"
      - table:
          - ["Name", "Address"]
          - ["{{AI_1}}", "{{AIAddr_1}}"]
`

func TestParseTemplate(t *testing.T) {
	doc, err := file.ParseTemplate([]byte(scheduleTemplate))
	require.NoError(t, err)
	assert.Equal(t, "CG2010", doc.Name())

	ps := doc.Placeholders()
	require.Len(t, ps, 4)
	assert.Equal(t, "NamedInsured", ps[0].Name)
	assert.Equal(t, "Name of insured", ps[0].Text)
	assert.False(t, ps[0].Block)
	assert.Equal(t, "_If.IsRenewal|IsBound", ps[1].Name)
	assert.True(t, ps[1].Block)

	tbl, err := doc.Table("AIAddr_1")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Rows())

	assert.Equal(t, 2, doc.UpdateLayout())
	assert.Contains(t, doc.Text(), "Named Insured: Name of insured")
}

func TestParseTemplate_DuplicateNames(t *testing.T) {
	doc, err := file.ParseTemplate([]byte(`
name: dup
sections:
  - blocks:
      - "{{Insured.Name}} and again {{Insured.Name}}"
      - "{{insured.name}}"
`))
	require.NoError(t, err)

	var names []string
	for _, p := range doc.Placeholders() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Insured.Name", "Insured.Name__2", "insured.name__3"}, names)
}

func TestLoadTemplate_Errors(t *testing.T) {
	_, err := file.LoadTemplate(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "noname.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sections: []\n"), 0644))
	_, err = file.LoadTemplate(path)
	assert.ErrorContains(t, err, "no name")

	_, err = file.ParseTemplate([]byte("name: x\nsections:\n  - blocks:\n      - table: 3\n"))
	assert.Error(t, err)
}
