// Package replicate splits a form's grouped question rows across whole
// document instances when one page template cannot hold them all, and joins
// the instances back into one document.
package replicate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/docmerge/internal/logging"
	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/aretw0/docmerge/pkg/formatters"
	"github.com/aretw0/docmerge/pkg/ports"
)

// Replicator fills replicated question rows.
type Replicator struct {
	logger     *slog.Logger
	hooks      domain.MergeHooks
	formatters *formatters.Registry
}

// Option configures a Replicator.
type Option func(*Replicator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Replicator) { r.logger = logger }
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.MergeHooks) Option {
	return func(r *Replicator) { r.hooks = hooks }
}

// WithFormatters sets the per-form formatter registry.
func WithFormatters(reg *formatters.Registry) Option {
	return func(r *Replicator) { r.formatters = reg }
}

// New creates a Replicator.
func New(opts ...Option) *Replicator {
	r := &Replicator{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Input is one merged form ready for group processing.
type Input struct {
	FormID     string
	FormNumber string
	Edition    string
	// Document is instance 0: merged, with grouped placeholders still holding
	// their template text.
	Document ports.Document
	// Questions are the questions of the form's (form, quantity order) pair.
	Questions []domain.Question
}

// Result is the joined document.
type Result struct {
	Document  ports.Document
	Instances int
	Groups    int
	PageCount int
	// Warnings are recovered problems: a count that fell back to one
	// instance or a formatter that failed.
	Warnings []error
}

// Grouped returns the questions that replicate, sorted by grouping number.
func Grouped(qs []domain.Question) []domain.Question {
	var out []domain.Question
	for _, q := range qs {
		if q.Grouped() && q.MaximumMultipleRowCount > 0 {
			out = append(out, q)
		}
	}
	domain.SortByGrouping(out)
	return out
}

// InstanceCount computes ceil(distinct groups / rows per instance) for every
// question code and returns the largest. Questions must come from Grouped.
// On failure it returns 1 and a *domain.ReplicationCountError.
func InstanceCount(formID string, grouped []domain.Question) (int, error) {
	if len(grouped) == 0 {
		return 1, nil
	}
	type constraint struct {
		max    int
		groups map[int]struct{}
	}
	byCode := make(map[string]*constraint)
	all := make(map[int]struct{})
	smallest := 0
	for _, q := range grouped {
		if q.MaximumMultipleRowCount <= 0 {
			return 1, &domain.ReplicationCountError{FormID: formID, Reason: fmt.Sprintf("question %s has no row maximum", q.Code)}
		}
		code := strings.ToLower(q.Code)
		c, ok := byCode[code]
		if !ok {
			c = &constraint{max: q.MaximumMultipleRowCount, groups: make(map[int]struct{})}
			byCode[code] = c
		}
		if c.max != q.MaximumMultipleRowCount {
			return 1, &domain.ReplicationCountError{
				FormID: formID,
				Reason: fmt.Sprintf("question %s has row maximums %d and %d", q.Code, c.max, q.MaximumMultipleRowCount),
			}
		}
		c.groups[q.MultipleRowGroupingNumber] = struct{}{}
		all[q.MultipleRowGroupingNumber] = struct{}{}
		if smallest == 0 || q.MaximumMultipleRowCount < smallest {
			smallest = q.MaximumMultipleRowCount
		}
	}

	n := 1
	for _, c := range byCode {
		if k := ceilDiv(len(c.groups), c.max); k > n {
			n = k
		}
	}
	// Groups are placed by the smallest maximum; make room for all of them.
	if k := ceilDiv(len(all), smallest); k > n {
		n = k
	}
	return n, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// Slot places a grouping number in an instance.
type Slot struct {
	Instance int
	Item     int
}

// Assign maps each grouping number, in first-seen order, to an instance and a
// row slot: contiguous blocks of rowsPerInstance numbers share an instance.
func Assign(grouped []domain.Question, rowsPerInstance int) map[int]Slot {
	out := make(map[int]Slot)
	ordinal := 0
	for _, g := range domain.GroupingNumbers(grouped) {
		ordinal++
		out[g] = Slot{Instance: ceilDiv(ordinal, rowsPerInstance) - 1, Item: (ordinal - 1) % rowsPerInstance}
	}
	return out
}

func rowsPerInstance(grouped []domain.Question) int {
	m := 0
	for _, q := range grouped {
		if m == 0 || q.MaximumMultipleRowCount < m {
			m = q.MaximumMultipleRowCount
		}
	}
	if m <= 0 {
		m = 1
	}
	return m
}

// Replicate fills grouped rows across as many instances as the data needs,
// updates footers, appends the instances onto instance 0 and lays the result
// out once.
func (r *Replicator) Replicate(ctx context.Context, in Input) (Result, error) {
	res := Result{Document: in.Document, Instances: 1}
	logger := r.logger.With("form", in.FormID)

	// 1. Grouped questions, by grouping number
	grouped := Grouped(in.Questions)
	res.Groups = len(domain.GroupingNumbers(grouped))

	// 2. Instance count, before any cloning
	count, err := InstanceCount(in.FormID, grouped)
	if err != nil {
		logger.Warn("instance count failed, using one instance", "error", err)
		res.Warnings = append(res.Warnings, err)
		count = 1
	}
	res.Instances = count

	// 3. Instances 1..N-1 start from the pre-group-merge snapshot
	docs := make([]ports.Document, count)
	docs[0] = in.Document
	if count > 1 {
		snapshot := in.Document.Clone()
		for i := 1; i < count; i++ {
			docs[i] = snapshot.Clone()
		}
	}

	// 4. and 5. Place each group and write its working questions
	per := rowsPerInstance(grouped)
	if count == 1 {
		per = max(per, res.Groups)
	}
	slots := Assign(grouped, per)
	for _, q := range grouped {
		s := slots[q.MultipleRowGroupingNumber]
		if s.Instance >= count {
			s.Instance = count - 1
		}
		if warn := r.write(ctx, docs[s.Instance], in, q, s); warn != nil {
			res.Warnings = append(res.Warnings, warn)
		}
	}

	if r.hooks.OnInstances != nil {
		r.hooks.OnInstances(ctx, &domain.InstancesEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventInstances, FormID: in.FormID},
			Instances: count,
			Groups:    res.Groups,
		})
	}

	// 6. Footers, append, layout
	for i, d := range docs {
		info := ports.FooterInfo{Instance: i + 1, InstanceCount: count, FormNumber: in.FormNumber}
		if err := d.UpdateFooter(info); err != nil {
			return res, fmt.Errorf("update footer of instance %d: %w", i+1, err)
		}
	}
	for i := 1; i < count; i++ {
		if err := docs[0].Append(docs[i], ports.AppendOptions{PageBreak: true, RestartNumbering: true}); err != nil {
			return res, fmt.Errorf("append instance %d: %w", i+1, err)
		}
	}
	res.PageCount = docs[0].UpdateLayout()
	logger.Debug("form replicated", "instances", count, "groups", res.Groups, "pages", res.PageCount)
	return res, nil
}

// write fills one question's placeholder in its instance. Missing working
// questions and missing placeholders leave the template text in place.
// Override siblings come from all of the form's questions: they usually
// carry no merge field of their own.
func (r *Replicator) write(ctx context.Context, doc ports.Document, in Input, q domain.Question, s Slot) error {
	w, ok := domain.WorkingQuestion(q, in.Questions)
	if !ok {
		return nil
	}
	alias, ok := q.Alias(s.Item)
	if !ok {
		r.logger.Debug("no alias for row slot", "form", in.FormID, "question", q.Code, "item", s.Item)
		return nil
	}

	var warn error
	v, err := r.formatters.Format(ctx, in.Edition, formatters.Input{
		FormNumber: in.FormNumber,
		Question:   w,
		Value:      w.Answer,
		Instance:   s.Instance,
		Item:       s.Item,
	})
	if err != nil {
		r.logger.Warn("formatter failed, writing raw value", "form", in.FormID, "question", q.Code, "error", err)
		warn = err
	}
	if v == "" {
		return warn
	}

	if err := doc.ReplaceValue(alias, v); err != nil {
		if errors.Is(err, domain.ErrPlaceholderNotFound) || errors.Is(err, domain.ErrAlreadyRemoved) {
			r.logger.Debug("replicated placeholder missing", "form", in.FormID, "placeholder", alias)
			return warn
		}
		return errors.Join(warn, err)
	}
	return warn
}
