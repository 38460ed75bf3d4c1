package merge

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/aretw0/docmerge/pkg/ports"
	"github.com/dustin/go-humanize"
)

// row is one table row written by a list directive, left to right from the
// placeholder's cell.
type row []ports.CellContent

func text(values ...string) row {
	r := make(row, len(values))
	for i, v := range values {
		r[i] = ports.CellContent{Text: v}
	}
	return r
}

// fill writes rows into the placeholder's table. The placeholder's row is
// cloned once per extra item; zero items removes it. Controls sharing the row
// are kept only in the first row.
func (c *call) fill(rows []row) (domain.PlaceholderOutcome, error) {
	tbl, err := c.doc.Table(c.p.Name)
	if err != nil {
		if errors.Is(err, domain.ErrNotInTable) {
			return domain.OutcomeFailed, &domain.TemplateStructureError{
				Placeholder: c.p.Name,
				Reason:      c.dir.Name() + " must sit inside a table row",
				Err:         err,
			}
		}
		return domain.OutcomeFailed, err
	}
	at, col, ok := tbl.Locate(c.p.Name)
	if !ok {
		return domain.OutcomeFailed, &domain.TemplateStructureError{
			Placeholder: c.p.Name,
			Reason:      "placeholder not found in its own table",
		}
	}

	if len(rows) == 0 {
		if err := tbl.RemoveRow(at); err != nil {
			return domain.OutcomeFailed, err
		}
		return domain.OutcomeRemoved, nil
	}

	for i := 1; i < len(rows); i++ {
		if _, err := tbl.CloneRow(at, at+i, c.uniqueName); err != nil {
			return domain.OutcomeFailed, fmt.Errorf("clone row %d: %w", at, err)
		}
	}
	if len(rows) > 1 {
		c.doc.RefreshStructure()
	}

	for i, r := range rows {
		width := tbl.Columns(at + i)
		for j, cell := range r {
			if col+j >= width {
				break
			}
			if err := tbl.SetCell(at+i, col+j, cell); err != nil {
				return domain.OutcomeFailed, err
			}
		}
	}

	// Other controls copied into cloned rows were never dispatched.
	for i := 1; i < len(rows); i++ {
		for _, name := range tbl.RowPlaceholders(at + i) {
			if err := c.doc.Remove(name); err != nil && !errors.Is(err, domain.ErrAlreadyRemoved) {
				return domain.OutcomeFailed, err
			}
		}
	}
	return domain.OutcomeResolved, nil
}

// uniqueName renames a control copied into a cloned row.
func (c *call) uniqueName(name string) string {
	base := ports.LogicalName(name)
	for n := 2; ; n++ {
		candidate := base + "__" + strconv.Itoa(n)
		if _, taken := c.doc.Placeholder(candidate); !taken {
			return candidate
		}
	}
}

// lines returns the line named by the directive argument, or every line.
func (c *call) lines() []*domain.LineOfBusiness {
	p := c.form.Policy
	if c.dir.Args != "" {
		if l, ok := c.line(c.dir.Args); ok {
			return []*domain.LineOfBusiness{l}
		}
		c.unresolved(c.dir.Args)
		return nil
	}
	out := make([]*domain.LineOfBusiness, 0, len(p.Lines))
	for i := range p.Lines {
		out = append(out, &p.Lines[i])
	}
	return out
}

func (c *call) fixedLine(code domain.LineCode) *domain.LineOfBusiness {
	l, ok := c.form.Policy.Line(code)
	if !ok {
		c.unresolved(string(code) + "Line")
		return nil
	}
	return l
}

func byOrder[T any](items []T, order func(T) int) []T {
	out := append([]T(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return order(out[i]) < order(out[j]) })
	return out
}

func (c *call) clauses() (domain.PlaceholderOutcome, error) {
	var rows []row
	for _, l := range c.lines() {
		for _, cl := range byOrder(l.Clauses, func(x domain.Clause) int { return x.Order }) {
			if cl.Selected {
				rows = append(rows, text(cl.Title, c.d.sanitizer.Text(cl.Text)))
			}
		}
	}
	return c.fill(rows)
}

func (c *call) coverages() (domain.PlaceholderOutcome, error) {
	var rows []row
	for _, l := range c.lines() {
		for _, cv := range byOrder(l.Coverages, func(x domain.Coverage) int { return x.Order }) {
			if cv.Included {
				rows = append(rows, text(cv.Name, money(cv.Limit), money(cv.Deductible), money(cv.Premium)))
			}
		}
	}
	return c.fill(rows)
}

func (c *call) coverageOptions() (domain.PlaceholderOutcome, error) {
	var rows []row
	for _, l := range c.lines() {
		for _, cv := range byOrder(l.Coverages, func(x domain.Coverage) int { return x.Order }) {
			if !cv.Included {
				continue
			}
			for _, o := range byOrder(cv.Options, func(x domain.CoverageOption) int { return x.Order }) {
				if o.Selected {
					rows = append(rows, text(cv.Name, o.Name, o.Value))
				}
			}
		}
	}
	return c.fill(rows)
}

func (c *call) documents() (domain.PlaceholderOutcome, error) {
	return c.documentList(func(domain.Document) bool { return true })
}

func (c *call) supplementalDocuments() (domain.PlaceholderOutcome, error) {
	return c.documentList(func(d domain.Document) bool { return d.IsSupplemental })
}

func (c *call) nonSupplementalDocuments() (domain.PlaceholderOutcome, error) {
	return c.documentList(func(d domain.Document) bool { return !d.IsSupplemental })
}

// documentList writes form number and linked title for each visible attached form.
func (c *call) documentList(keep func(domain.Document) bool) (domain.PlaceholderOutcome, error) {
	var rows []row
	for _, d := range byOrder(c.form.Policy.Documents, func(x domain.Document) int { return x.Order }) {
		if d.Hidden || !keep(d) {
			continue
		}
		rows = append(rows, row{
			{Text: formNumber(d)},
			{Text: d.Title, Link: d.URL},
		})
	}
	return c.fill(rows)
}

// formNumber renders "CG 00 01 04 13" from the form number and its MMYY edition.
func formNumber(d domain.Document) string {
	ed := strings.TrimSpace(d.Edition)
	if len(ed) == 4 {
		ed = ed[:2] + " " + ed[2:]
	}
	return strings.TrimSpace(d.FormNumber + " " + ed)
}

func (c *call) exposures() (domain.PlaceholderOutcome, error) {
	var rows []row
	for _, l := range c.lines() {
		for _, u := range l.RiskUnits {
			for _, e := range byOrder(u.Exposures, func(x domain.Exposure) int { return x.Order }) {
				rate := ""
				if e.Rate != 0 {
					rate = c.d.resolver.Format(e.Rate)
				}
				rows = append(rows, text(u.Description, e.Basis, humanize.Commaf(e.Amount), rate))
			}
		}
	}
	return c.fill(rows)
}

func (c *call) imItems() (domain.PlaceholderOutcome, error) {
	var rows []row
	if l := c.fixedLine(domain.LineInlandMarine); l != nil {
		for _, u := range l.RiskUnits {
			rows = append(rows, text(u.Description, money(u.Value)))
		}
	}
	return c.fill(rows)
}

func (c *call) property() (domain.PlaceholderOutcome, error) {
	var rows []row
	if l := c.fixedLine(domain.LineProperty); l != nil {
		for _, u := range l.RiskUnits {
			rows = append(rows, text(u.Description, oneLine(address(c.displayAddress(u.Address))), money(u.Value)))
		}
	}
	return c.fill(rows)
}

func (c *call) layers() (domain.PlaceholderOutcome, error) {
	var rows []row
	if l := c.fixedLine(domain.LineExcess); l != nil {
		for _, ly := range byOrder(l.Layers, func(x domain.Layer) int { return x.Number }) {
			rows = append(rows, text(strconv.Itoa(ly.Number), c.carrierName(ly.Carrier), money(ly.Limit), money(ly.Attachment), money(ly.Premium)))
		}
	}
	return c.fill(rows)
}

func (c *call) underlyingCoverage() (domain.PlaceholderOutcome, error) {
	var rows []row
	if l := c.fixedLine(domain.LineExcess); l != nil {
		for _, u := range byOrder(l.UnderlyingCoverages, func(x domain.UnderlyingCoverage) int { return x.Order }) {
			rows = append(rows, text(u.Type, c.carrierName(u.Carrier), u.PolicyNumber, u.Limits))
		}
	}
	return c.fill(rows)
}

func (c *call) carrierName(code string) string {
	if cr, ok := c.form.Reference.Carrier(code); ok && cr.Name != "" {
		return cr.Name
	}
	return code
}

// subjectivities serves _List.
func (c *call) subjectivities() (domain.PlaceholderOutcome, error) {
	var rows []row
	for _, s := range byOrder(c.form.Policy.Subjectivities, func(x domain.Subjectivity) int { return x.Order }) {
		rows = append(rows, text(c.d.sanitizer.Text(s.Text)))
	}
	return c.fill(rows)
}

func (c *call) warranties() (domain.PlaceholderOutcome, error) {
	var rows []row
	for _, w := range byOrder(c.form.Policy.Warranties, func(x domain.Warranty) int { return x.Order }) {
		rows = append(rows, text(c.d.sanitizer.Text(w.Text)))
	}
	return c.fill(rows)
}

func (c *call) taxes() (domain.PlaceholderOutcome, error) {
	var rows []row
	for _, t := range c.form.Policy.Taxes {
		if t.Amount != 0 {
			rows = append(rows, text(t.Name, money(t.Amount)))
		}
	}
	return c.fill(rows)
}
