package memory

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/aretw0/docmerge/pkg/ports"
	"github.com/mohae/deepcopy"
)

// Control is a named content control inside a run.
type Control struct {
	Name    string `yaml:"name"`
	Text    string `yaml:"text"`
	Block   bool   `yaml:"block"`
	Removed bool   `yaml:"-"`
}

// Run is a span of text, a hyperlink, an image or a content control.
type Run struct {
	Text    string   `yaml:"text"`
	Link    string   `yaml:"link"`
	Image   string   `yaml:"image"`
	Control *Control `yaml:"control"`
}

// Paragraph is an ordered list of runs.
type Paragraph struct {
	Runs []*Run `yaml:"runs"`
}

// Cell is a table cell.
type Cell struct {
	Paragraphs []*Paragraph `yaml:"paragraphs"`
}

// Row is a table row.
type Row struct {
	Cells []*Cell `yaml:"cells"`
}

// Table is a table block.
type Table struct {
	Rows []*Row `yaml:"rows"`
}

// Block is either a paragraph or a table.
type Block struct {
	Paragraph *Paragraph `yaml:"paragraph"`
	Table     *Table     `yaml:"table"`
}

// Footer holds the pagination totals of a section.
type Footer struct {
	Text          string `yaml:"text"`
	Instance      int    `yaml:"-"`
	InstanceCount int    `yaml:"-"`
	FormNumber    string `yaml:"-"`
}

// Section is a run of pages sharing a footer. Appended documents become new sections.
type Section struct {
	Blocks           []*Block `yaml:"blocks"`
	Pages            int      `yaml:"pages"`
	Footer           Footer   `yaml:"footer"`
	PageBreakBefore  bool     `yaml:"-"`
	RestartNumbering bool     `yaml:"-"`
}

// Document implements ports.Document over an in-memory model.
// It is the reference word-processing collaborator used by tests and the CLI.
type Document struct {
	name          string
	sections      []*Section
	watermark     string
	pageCount     int
	layoutPasses  int
	structPasses  int
	footerUpdates []ports.FooterInfo
}

var _ ports.Document = (*Document)(nil)

// NewDocument creates a document from sections.
func NewDocument(name string, sections ...*Section) *Document {
	return &Document{name: name, sections: sections}
}

// Name identifies the template.
func (d *Document) Name() string { return d.name }

// location addresses one run. Table fields are set for runs inside a table cell.
type location struct {
	run   *Run
	table *Table
	row   int
	col   int
}

// walk visits every run in document order until fn returns false.
func (d *Document) walk(fn func(loc location) bool) {
	for _, s := range d.sections {
		for _, b := range s.Blocks {
			if b.Paragraph != nil {
				for _, r := range b.Paragraph.Runs {
					if !fn(location{run: r}) {
						return
					}
				}
			}
			if b.Table == nil {
				continue
			}
			for ri, row := range b.Table.Rows {
				for ci, cell := range row.Cells {
					for _, p := range cell.Paragraphs {
						for _, r := range p.Runs {
							if !fn(location{run: r, table: b.Table, row: ri, col: ci}) {
								return
							}
						}
					}
				}
			}
		}
	}
}

// find returns the first live control with the name, falling back to a removed one.
func (d *Document) find(name string) (location, bool) {
	var removed *location
	var found *location
	d.walk(func(loc location) bool {
		c := loc.run.Control
		if c == nil || !strings.EqualFold(c.Name, name) {
			return true
		}
		if c.Removed {
			if removed == nil {
				l := loc
				removed = &l
			}
			return true
		}
		found = &loc
		return false
	})
	if found != nil {
		return *found, true
	}
	if removed != nil {
		return *removed, true
	}
	return location{}, false
}

// Placeholders returns live controls in document order.
func (d *Document) Placeholders() []ports.Placeholder {
	var out []ports.Placeholder
	d.walk(func(loc location) bool {
		if c := loc.run.Control; c != nil && !c.Removed {
			out = append(out, toPlaceholder(c))
		}
		return true
	})
	return out
}

// Placeholder looks up a control. Removed controls are reported with Removed set.
func (d *Document) Placeholder(name string) (ports.Placeholder, bool) {
	loc, ok := d.find(name)
	if !ok {
		return ports.Placeholder{}, false
	}
	return toPlaceholder(loc.run.Control), true
}

func toPlaceholder(c *Control) ports.Placeholder {
	return ports.Placeholder{Name: c.Name, Text: c.Text, Block: c.Block, Removed: c.Removed}
}

func (d *Document) live(name string) (location, error) {
	loc, ok := d.find(name)
	if !ok {
		return location{}, fmt.Errorf("%w: %s", domain.ErrPlaceholderNotFound, name)
	}
	if loc.run.Control.Removed {
		return location{}, fmt.Errorf("%w: %s", domain.ErrAlreadyRemoved, name)
	}
	return loc, nil
}

// ReplaceValue writes text into a control.
func (d *Document) ReplaceValue(name, value string) error {
	loc, err := d.live(name)
	if err != nil {
		return err
	}
	loc.run.Control.Text = value
	return nil
}

// Remove marks the control removed. The flag is set at most once.
func (d *Document) Remove(name string) error {
	loc, err := d.live(name)
	if err != nil {
		return err
	}
	loc.run.Control.Removed = true
	return nil
}

// Table returns the table holding the control.
func (d *Document) Table(name string) (ports.Table, error) {
	loc, err := d.live(name)
	if err != nil {
		return nil, err
	}
	if loc.table == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotInTable, name)
	}
	return &tableView{doc: d, table: loc.table}, nil
}

// InsertImage swaps the control for an image run.
func (d *Document) InsertImage(name string, ref ports.ImageRef) error {
	loc, err := d.live(name)
	if err != nil {
		return err
	}
	loc.run.Control = nil
	loc.run.Image = ref.Source
	loc.run.Text = ref.Alt
	return nil
}

// SetWatermark stamps every page.
func (d *Document) SetWatermark(text string) { d.watermark = text }

// Watermark returns the current watermark.
func (d *Document) Watermark() string { return d.watermark }

// UpdateFooter writes pagination totals into every section footer.
func (d *Document) UpdateFooter(info ports.FooterInfo) error {
	for _, s := range d.sections {
		s.Footer.Instance = info.Instance
		s.Footer.InstanceCount = info.InstanceCount
		s.Footer.FormNumber = info.FormNumber
	}
	d.footerUpdates = append(d.footerUpdates, info)
	return nil
}

// FooterUpdates lists every footer update applied to this document.
func (d *Document) FooterUpdates() []ports.FooterInfo { return d.footerUpdates }

// Append copies other's sections onto the end of d.
func (d *Document) Append(other ports.Document, opts ports.AppendOptions) error {
	src, ok := other.(*Document)
	if !ok {
		return fmt.Errorf("memory: cannot append %T", other)
	}
	sections := deepcopy.Copy(src.sections).([]*Section)
	if len(sections) == 0 {
		return nil
	}
	sections[0].PageBreakBefore = opts.PageBreak
	sections[0].RestartNumbering = opts.RestartNumbering
	d.sections = append(d.sections, sections...)
	return nil
}

// Sections returns the section list; appended instances show up as extra sections.
func (d *Document) Sections() []*Section { return d.sections }

// RefreshStructure recomputes structural indexes.
func (d *Document) RefreshStructure() { d.structPasses++ }

// StructurePasses counts RefreshStructure calls.
func (d *Document) StructurePasses() int { return d.structPasses }

// UpdateLayout recomputes the page count.
func (d *Document) UpdateLayout() int {
	pages := 0
	for _, s := range d.sections {
		pages += max(s.Pages, 1)
	}
	d.pageCount = pages
	d.layoutPasses++
	return pages
}

// LayoutPasses counts UpdateLayout calls.
func (d *Document) LayoutPasses() int { return d.layoutPasses }

// PageCount returns the page count of the last layout pass.
func (d *Document) PageCount() int { return d.pageCount }

// Clone returns an independent deep copy. Pass counters are not carried over.
func (d *Document) Clone() ports.Document {
	return &Document{
		name:      d.name,
		sections:  deepcopy.Copy(d.sections).([]*Section),
		watermark: d.watermark,
		pageCount: d.pageCount,
	}
}

// SaveAs renders a plain-text rendition tagged with the format.
func (d *Document) SaveAs(format domain.Format) ([]byte, error) {
	if _, err := domain.ParseFormat(string(format)); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "#%s %s\n", strings.ToUpper(string(format)), d.name)
	if d.watermark != "" {
		fmt.Fprintf(&buf, "[watermark: %s]\n", d.watermark)
	}
	buf.WriteString(d.Text())
	return buf.Bytes(), nil
}

// Text renders the visible content: controls show their text, removed controls vanish.
func (d *Document) Text() string {
	var b strings.Builder
	for i, s := range d.sections {
		if i > 0 && s.PageBreakBefore {
			b.WriteString("\f")
		}
		for _, blk := range s.Blocks {
			if blk.Paragraph != nil {
				b.WriteString(renderParagraph(blk.Paragraph))
				b.WriteString("\n")
			}
			if blk.Table == nil {
				continue
			}
			for _, row := range blk.Table.Rows {
				cells := make([]string, len(row.Cells))
				for ci, cell := range row.Cells {
					var parts []string
					for _, p := range cell.Paragraphs {
						parts = append(parts, renderParagraph(p))
					}
					cells[ci] = strings.Join(parts, " ")
				}
				b.WriteString(strings.Join(cells, " | "))
				b.WriteString("\n")
			}
		}
		if s.Footer.Text != "" || s.Footer.InstanceCount > 0 {
			fmt.Fprintf(&b, "-- %s %d/%d --\n", s.Footer.Text, s.Footer.Instance, s.Footer.InstanceCount)
		}
	}
	return b.String()
}

func renderParagraph(p *Paragraph) string {
	var b strings.Builder
	for _, r := range p.Runs {
		switch {
		case r.Control != nil:
			if !r.Control.Removed {
				b.WriteString(r.Control.Text)
			}
		default:
			b.WriteString(r.Text)
		}
	}
	return b.String()
}

// tableView exposes one table through ports.Table.
type tableView struct {
	doc   *Document
	table *Table
}

func (t *tableView) Rows() int { return len(t.table.Rows) }

func (t *tableView) Columns(row int) int {
	if row < 0 || row >= len(t.table.Rows) {
		return 0
	}
	return len(t.table.Rows[row].Cells)
}

func (t *tableView) Locate(name string) (int, int, bool) {
	for ri, row := range t.table.Rows {
		for ci, cell := range row.Cells {
			for _, p := range cell.Paragraphs {
				for _, r := range p.Runs {
					if c := r.Control; c != nil && !c.Removed && strings.EqualFold(c.Name, name) {
						return ri, ci, true
					}
				}
			}
		}
	}
	return 0, 0, false
}

func (t *tableView) RowPlaceholders(row int) []string {
	if row < 0 || row >= len(t.table.Rows) {
		return nil
	}
	var out []string
	for _, cell := range t.table.Rows[row].Cells {
		for _, p := range cell.Paragraphs {
			for _, r := range p.Runs {
				if c := r.Control; c != nil && !c.Removed {
					out = append(out, c.Name)
				}
			}
		}
	}
	return out
}

func (t *tableView) CloneRow(src, at int, rename func(string) string) (int, error) {
	if src < 0 || src >= len(t.table.Rows) {
		return 0, fmt.Errorf("memory: clone row %d out of range (%d rows)", src, len(t.table.Rows))
	}
	if at < 0 || at > len(t.table.Rows) {
		return 0, fmt.Errorf("memory: insert position %d out of range (%d rows)", at, len(t.table.Rows))
	}
	row := deepcopy.Copy(t.table.Rows[src]).(*Row)
	for _, cell := range row.Cells {
		for _, p := range cell.Paragraphs {
			for _, r := range p.Runs {
				if r.Control != nil && rename != nil {
					r.Control.Name = rename(r.Control.Name)
				}
			}
		}
	}
	rows := make([]*Row, 0, len(t.table.Rows)+1)
	rows = append(rows, t.table.Rows[:at]...)
	rows = append(rows, row)
	rows = append(rows, t.table.Rows[at:]...)
	t.table.Rows = rows
	return at, nil
}

func (t *tableView) SetCell(row, col int, content ports.CellContent) error {
	if row < 0 || row >= len(t.table.Rows) {
		return fmt.Errorf("memory: row %d out of range", row)
	}
	cells := t.table.Rows[row].Cells
	if col < 0 || col >= len(cells) {
		return fmt.Errorf("memory: column %d out of range", col)
	}
	cells[col].Paragraphs = []*Paragraph{{Runs: []*Run{{Text: content.Text, Link: content.Link}}}}
	return nil
}

func (t *tableView) RemoveRow(row int) error {
	if row < 0 || row >= len(t.table.Rows) {
		return fmt.Errorf("memory: row %d out of range", row)
	}
	t.table.Rows = append(t.table.Rows[:row], t.table.Rows[row+1:]...)
	return nil
}
