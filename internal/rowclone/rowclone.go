// Package rowclone grows a schedule table to fit an arbitrary number of
// grouped question rows.
//
// Schedule placeholders are named "<Column>_<row>". The first column locates
// each row. When the data needs more rows than the template carries, an
// interior row is cloned and its placeholders renamed to the next free row
// number; rows the data does not need are emptied.
package rowclone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/docmerge/internal/logging"
	"github.com/aretw0/docmerge/internal/merge"
	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/aretw0/docmerge/pkg/ports"
)

// Group is one data row: the values of one grouping number keyed by column.
type Group struct {
	Number int
	Values map[string]string
}

// Value returns the value of a column, matched case-insensitively.
func (g Group) Value(column string) (string, bool) {
	v, ok := g.Values[strings.ToLower(column)]
	return v, ok
}

// Schedule is the data for one table.
type Schedule struct {
	Columns []string
	Groups  []Group
}

// FromQuestions builds schedules from grouped questions without a row
// maximum. Columns are the questions' merge-field names in first-seen order;
// each value goes through the working-question rule, whose override siblings
// are searched among all of qs. Questions whose first
// column shares a table are expected to share a schedule, so one schedule is
// returned for all of them.
func FromQuestions(qs []domain.Question) Schedule {
	var rows []domain.Question
	for _, q := range qs {
		if q.Grouped() && q.MaximumMultipleRowCount == 0 {
			rows = append(rows, q)
		}
	}
	domain.SortByGrouping(rows)

	var s Schedule
	seen := make(map[string]bool)
	byNumber := make(map[int]int)
	for _, q := range rows {
		idx, ok := byNumber[q.MultipleRowGroupingNumber]
		if !ok {
			idx = len(s.Groups)
			byNumber[q.MultipleRowGroupingNumber] = idx
			s.Groups = append(s.Groups, Group{Number: q.MultipleRowGroupingNumber, Values: make(map[string]string)})
		}
		w, ok := domain.WorkingQuestion(q, qs)
		for _, col := range q.Aliases() {
			key := strings.ToLower(col)
			if !seen[key] {
				seen[key] = true
				s.Columns = append(s.Columns, col)
			}
			if ok {
				s.Groups[idx].Values[key] = w.Answer
			}
		}
	}
	return s
}

// Cell is one schedule cell about to be filled.
type Cell struct {
	Group       int
	Column      string
	Placeholder string
	Value       string
}

// CellFunc runs before a cell is filled. Returning false skips the default
// fill, e.g. because the callback wrote display text itself.
type CellFunc func(doc ports.Document, cell Cell) bool

// RowFunc runs once per data row before its cells are filled.
type RowFunc func(tbl ports.Table, row int, group Group)

// Cloner fills schedule tables.
type Cloner struct {
	logger *slog.Logger
	hooks  domain.MergeHooks
	onRow  RowFunc
	onCell CellFunc
}

// Option configures a Cloner.
type Option func(*Cloner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cloner) { c.logger = logger }
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.MergeHooks) Option {
	return func(c *Cloner) { c.hooks = hooks }
}

// WithRowFunc sets the per-row callback.
func WithRowFunc(fn RowFunc) Option {
	return func(c *Cloner) { c.onRow = fn }
}

// WithCellFunc sets the per-cell callback.
func WithCellFunc(fn CellFunc) Option {
	return func(c *Cloner) { c.onCell = fn }
}

// New creates a Cloner.
func New(opts ...Option) *Cloner {
	c := &Cloner{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// With returns a copy of c with opts applied.
func (c *Cloner) With(opts ...Option) *Cloner {
	cp := *c
	for _, opt := range opts {
		opt(&cp)
	}
	return &cp
}

// Fill grows the schedule table of doc to len(s.Groups) rows and writes the
// values. It returns the number of rows added.
func (c *Cloner) Fill(ctx context.Context, doc ports.Document, formID string, s Schedule) (int, error) {
	if len(s.Columns) == 0 || len(s.Groups) == 0 {
		return 0, nil
	}
	columns := make(map[string]string, len(s.Columns))
	for _, col := range s.Columns {
		columns[strings.ToLower(col)] = col
	}
	first := s.Columns[0]

	// 1. Locate the table through the first column's first row
	anchor := first + "_1"
	tbl, err := doc.Table(anchor)
	if err != nil {
		return 0, &domain.TemplateStructureError{
			FormID:      formID,
			Placeholder: anchor,
			Reason:      "schedule table not found",
			Err:         err,
		}
	}

	rows := scan(tbl, columns)
	if len(rows) == 0 {
		return 0, &domain.TemplateStructureError{FormID: formID, Placeholder: anchor, Reason: "schedule has no rows"}
	}

	// 2. Clone an interior row for every missing one
	added := 0
	if need := len(s.Groups) - len(rows); need > 0 {
		src := rows[cloneSource(len(rows))]
		for _, col := range s.Columns {
			if _, ok := src.names[strings.ToLower(col)]; !ok {
				return 0, &domain.TemplateStructureError{
					FormID:      formID,
					Placeholder: src.names[strings.ToLower(first)],
					Reason:      fmt.Sprintf("clone source row lacks column %s", col),
				}
			}
		}
		next := maxRowNumber(rows) + 1
		for i := 0; i < need; i++ {
			n := next + i
			rename := func(name string) string {
				if col, _, ok := merge.ScheduleName(name); ok {
					if _, known := columns[strings.ToLower(col)]; known {
						return col + "_" + strconv.Itoa(n)
					}
				}
				return uniqueName(doc, name)
			}
			if _, err := tbl.CloneRow(src.index+i, src.index+i+1, rename); err != nil {
				return added, fmt.Errorf("clone schedule row: %w", err)
			}
			added++
		}

		// 3. Structure must be current before looking up the new rows
		doc.RefreshStructure()
		if tbl, err = doc.Table(anchor); err != nil {
			return added, err
		}
		rows = scan(tbl, columns)
		c.logger.Debug("schedule rows cloned", "form", formID, "added", added, "rows", len(rows))
		if c.hooks.OnRowsCloned != nil {
			c.hooks.OnRowsCloned(ctx, &domain.RowsClonedEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventRowsCloned, FormID: formID},
				Rows:      added,
			})
		}
	}

	// 4. Fill rows in grouping order; unused template rows are emptied
	for k, r := range rows {
		if k >= len(s.Groups) {
			for _, name := range r.names {
				if err := doc.Remove(name); err != nil && !errors.Is(err, domain.ErrAlreadyRemoved) {
					return added, err
				}
			}
			continue
		}
		g := s.Groups[k]
		if c.onRow != nil {
			c.onRow(tbl, r.index, g)
		}
		for _, col := range s.Columns {
			name, ok := r.names[strings.ToLower(col)]
			if !ok {
				continue
			}
			v, ok := g.Value(col)
			if !ok {
				continue
			}
			cell := Cell{Group: g.Number, Column: col, Placeholder: name, Value: v}
			if c.onCell != nil && !c.onCell(doc, cell) {
				continue
			}
			if err := doc.ReplaceValue(name, v); err != nil {
				return added, err
			}
		}
	}
	return added, nil
}

// scheduleRow is one physical table row holding schedule placeholders.
type scheduleRow struct {
	index  int
	number int
	names  map[string]string
}

// scan lists the rows carrying schedule placeholders in physical order.
func scan(tbl ports.Table, columns map[string]string) []scheduleRow {
	var out []scheduleRow
	for i := 0; i < tbl.Rows(); i++ {
		r := scheduleRow{index: i, names: make(map[string]string)}
		for _, name := range tbl.RowPlaceholders(i) {
			col, n, ok := merge.ScheduleName(name)
			if !ok {
				continue
			}
			key := strings.ToLower(col)
			if _, known := columns[key]; !known {
				continue
			}
			r.names[key] = name
			if n > r.number {
				r.number = n
			}
		}
		if len(r.names) > 0 {
			out = append(out, r)
		}
	}
	return out
}

// cloneSource picks the row copied for growth: the second-to-last of three or
// more rows, otherwise the last.
func cloneSource(rows int) int {
	if rows >= 3 {
		return rows - 2
	}
	return rows - 1
}

func maxRowNumber(rows []scheduleRow) int {
	m := 0
	for _, r := range rows {
		if r.number > m {
			m = r.number
		}
	}
	return m
}

func uniqueName(doc ports.Document, name string) string {
	base := ports.LogicalName(name)
	for n := 2; ; n++ {
		candidate := base + "__" + strconv.Itoa(n)
		if _, taken := doc.Placeholder(candidate); !taken {
			return candidate
		}
	}
}

// StateAbbreviations returns a CellFunc that writes state abbreviations
// instead of raw state codes for the named columns. Without names, every
// column whose name contains "state" is converted.
func StateAbbreviations(ref *domain.ReferenceData, columns ...string) CellFunc {
	want := make(map[string]bool, len(columns))
	for _, c := range columns {
		want[strings.ToLower(c)] = true
	}
	match := func(col string) bool {
		col = strings.ToLower(col)
		if len(want) == 0 {
			return strings.Contains(col, "state")
		}
		return want[col]
	}
	return func(doc ports.Document, cell Cell) bool {
		if !match(cell.Column) {
			return true
		}
		abbr, ok := ref.StateAbbreviation(cell.Value)
		if !ok {
			return true
		}
		return doc.ReplaceValue(cell.Placeholder, abbr) != nil
	}
}
