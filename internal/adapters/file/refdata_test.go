package file_test

import (
	"path/filepath"
	"testing"

	"github.com/aretw0/docmerge/internal/adapters/file"
	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/aretw0/docmerge/pkg/ports"
)

func TestFileReferenceSource_Contract(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "reference.yaml", `
carriers:
  - code: ACME
    name: Acme Specialty
    signature_image: sig/acme.png
states:
  - code: "48"
    abbreviation: TX
    name: Texas
`)
	want := &domain.ReferenceData{
		Carriers: []domain.Carrier{{Code: "ACME", Name: "Acme Specialty", SignatureImage: "sig/acme.png"}},
		States:   []domain.State{{Code: "48", Abbreviation: "TX", Name: "Texas"}},
	}
	ports.RunReferenceSourceContract(t, file.NewReferenceSource(filepath.Join(dir, "reference.yaml")), want)
}
