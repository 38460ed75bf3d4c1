package ports

import (
	"strings"

	"github.com/aretw0/docmerge/pkg/domain"
)

// Placeholder is a named insertion point (content control / bookmark) in a template.
type Placeholder struct {
	// Name is the physical control name, possibly carrying a "__<n>" uniqueness suffix.
	Name string
	// Text is the control's current content (the template default until replaced).
	Text string
	// Block is true for table-row or multi-run controls, which are removed rather
	// than emptied when they resolve to nothing.
	Block bool
	// Removed is set once, when the control is deleted from the document.
	Removed bool
}

// Identifier returns the logical identifier of the placeholder.
func (p Placeholder) Identifier() string {
	return LogicalName(p.Name)
}

// LogicalName strips the "__<n>" uniqueness suffix documents use to repeat an identifier.
func LogicalName(name string) string {
	i := strings.LastIndex(name, "__")
	if i <= 0 || i+2 >= len(name) {
		return name
	}
	for _, r := range name[i+2:] {
		if r < '0' || r > '9' {
			return name
		}
	}
	return name[:i]
}

// CellContent is what a list directive writes into a table cell.
type CellContent struct {
	Text string
	Link string
}

// FooterInfo carries the pagination totals written into an instance's footer.
type FooterInfo struct {
	Instance      int
	InstanceCount int
	FormNumber    string
}

// AppendOptions controls how one document is appended onto another.
type AppendOptions struct {
	PageBreak        bool
	RestartNumbering bool
}

// ImageRef points at an image resource (e.g. a signature) by location.
type ImageRef struct {
	Source string
	Alt    string
}

// Document is the narrow view of the word-processing engine used by the merge engine.
// Placeholder names are matched case-insensitively.
type Document interface {
	// Name identifies the template the document was parsed from.
	Name() string

	// Placeholders returns a snapshot of all live placeholders in document order.
	Placeholders() []Placeholder

	// Placeholder looks up one placeholder by name.
	Placeholder(name string) (Placeholder, bool)

	// ReplaceValue writes text into the placeholder.
	ReplaceValue(name, value string) error

	// Remove deletes the placeholder. Removing twice returns domain.ErrAlreadyRemoved.
	Remove(name string) error

	// Table returns the table that contains the placeholder, or domain.ErrNotInTable.
	Table(name string) (Table, error)

	// InsertImage replaces the placeholder with an image.
	InsertImage(name string, ref ImageRef) error

	// SetWatermark stamps a watermark on every page.
	SetWatermark(text string)

	// UpdateFooter refreshes footer totals for this instance.
	UpdateFooter(info FooterInfo) error

	// Append concatenates other onto the end of this document.
	Append(other Document, opts AppendOptions) error

	// RefreshStructure recomputes structural indexes after rows were added.
	RefreshStructure()

	// UpdateLayout recomputes page layout and returns the page count.
	UpdateLayout() int

	// PageCount returns the page count of the last layout pass.
	PageCount() int

	// Clone returns an independent deep copy.
	Clone() Document

	// SaveAs renders the document in the given format.
	SaveAs(format domain.Format) ([]byte, error)
}

// Table is the narrow view of one table in a Document.
type Table interface {
	// Rows returns the number of rows.
	Rows() int

	// Columns returns the number of cells in a row.
	Columns(row int) int

	// Locate returns the row and column of the cell holding the placeholder.
	Locate(name string) (row, col int, ok bool)

	// RowPlaceholders lists the live placeholder names in a row, left to right.
	RowPlaceholders(row int) []string

	// CloneRow copies row src and inserts the copy at index at. Every placeholder in the
	// copy is renamed through rename, which must return names unique in the document.
	CloneRow(src, at int, rename func(name string) string) (int, error)

	// SetCell replaces the whole content of a cell.
	SetCell(row, col int, content CellContent) error

	// RemoveRow deletes a row.
	RemoveRow(row int) error
}
