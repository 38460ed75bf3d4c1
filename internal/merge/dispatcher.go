// Package merge resolves the placeholders of one template against a policy.
//
// The Dispatcher walks a snapshot of the template's placeholders once. Each
// identifier is mapped through the form's field map, parsed into a directive,
// passed through its modifiers and handed to the terminal's handler, which
// writes a value, removes the placeholder or fills its table. Placeholders
// owned by grouped questions are deferred to the row cloner and replicator.
package merge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/docmerge/internal/directive"
	"github.com/aretw0/docmerge/internal/logging"
	"github.com/aretw0/docmerge/internal/pathresolve"
	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/aretw0/docmerge/pkg/ports"
)

// DefaultMinimumPremiumSuffix marks a minimum premium.
const DefaultMinimumPremiumSuffix = " MP"

// Default layouts for _Today.
const (
	DefaultShortDate = pathresolve.DefaultDateLayout
	DefaultLongDate  = "January 2, 2006"
	isoDate          = "2006-01-02"
)

type handler func(c *call) (domain.PlaceholderOutcome, error)

// Dispatcher is stateless between forms and safe for concurrent use; all
// per-form state lives in Run.
type Dispatcher struct {
	resolver  *pathresolve.Resolver
	logger    *slog.Logger
	hooks     domain.MergeHooks
	now       func() time.Time
	minSuffix string
	longDate  string
	renewal   *RenewalText
	sanitizer *Sanitizer
	refdata   *domain.ReferenceData
	handlers  map[directive.Kind]handler
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.MergeHooks) Option {
	return func(d *Dispatcher) {
		d.hooks = hooks
	}
}

// WithClock replaces time.Now for _Today.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// WithMinimumPremiumSuffix sets the text appended to minimum premiums.
func WithMinimumPremiumSuffix(suffix string) Option {
	return func(d *Dispatcher) {
		d.minSuffix = suffix
	}
}

// WithDateLayouts sets the short layout (paths and _Today.Short) and the long
// layout (_Today.Long). Empty values keep the defaults.
func WithDateLayouts(short, long string) Option {
	return func(d *Dispatcher) {
		if short != "" {
			d.resolver = pathresolve.New(short)
		}
		if long != "" {
			d.longDate = long
		}
	}
}

// WithReferenceData supplies carrier names and state abbreviations for display.
func WithReferenceData(data *domain.ReferenceData) Option {
	return func(d *Dispatcher) {
		d.refdata = data
	}
}

// WithRenewalText sets the _PolicyRenewalText renderer.
func WithRenewalText(r *RenewalText) Option {
	return func(d *Dispatcher) {
		d.renewal = r
	}
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		resolver:  pathresolve.New(DefaultShortDate),
		logger:    logging.NewNop(),
		now:       time.Now,
		minSuffix: DefaultMinimumPremiumSuffix,
		longDate:  DefaultLongDate,
		sanitizer: NewSanitizer(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.renewal == nil {
		d.renewal, _ = NewRenewalText(DefaultRenewalTemplate, DefaultNewBusinessTemplate)
	}
	d.handlers = map[directive.Kind]handler{
		directive.KindDefault:                  (*call).resolveDefault,
		directive.KindKeep:                     (*call).keep,
		directive.KindIf:                       (*call).ifExpr,
		directive.KindIfNot:                    (*call).ifNotExpr,
		directive.KindIfText:                   (*call).ifText,
		directive.KindIfBound:                  (*call).ifBound,
		directive.KindIfRenewal:                (*call).ifRenewal,
		directive.KindClauses:                  (*call).clauses,
		directive.KindCoverageOptions:          (*call).coverageOptions,
		directive.KindCoverages:                (*call).coverages,
		directive.KindDocuments:                (*call).documents,
		directive.KindSupplementalDocuments:    (*call).supplementalDocuments,
		directive.KindNonSupplementalDocuments: (*call).nonSupplementalDocuments,
		directive.KindExposures:                (*call).exposures,
		directive.KindImItems:                  (*call).imItems,
		directive.KindImRisk:                   (*call).imRisk,
		directive.KindLayers:                   (*call).layers,
		directive.KindList:                     (*call).subjectivities,
		directive.KindMailingAddress:           (*call).mailingAddress,
		directive.KindPolicyDuration:           (*call).policyDuration,
		directive.KindPolicyRenewalText:        (*call).policyRenewalText,
		directive.KindPremium:                  (*call).premium,
		directive.KindProperty:                 (*call).property,
		directive.KindQuestions:                (*call).questions,
		directive.KindTaxes:                    (*call).taxes,
		directive.KindToday:                    (*call).today,
		directive.KindUnderlyingCoverage:       (*call).underlyingCoverage,
		directive.KindWarranties:               (*call).warranties,
		directive.KindXsRisk:                   (*call).xsRisk,
		directive.KindSpecEventRisk:            (*call).specEventRisk,
	}
	return d
}

// Handles reports whether a terminal kind has a handler.
func (d *Dispatcher) Handles(k directive.Kind) bool {
	_, ok := d.handlers[k]
	return ok
}

// Resolver returns the path resolver used for values and conditions.
func (d *Dispatcher) Resolver() *pathresolve.Resolver { return d.resolver }

// Form is what one template is merged against. A non-nil Reference
// overrides the dispatcher's reference data for this form.
type Form struct {
	ID        string
	Policy    *domain.Policy
	Document  *domain.Document
	FieldMap  domain.FieldMap
	Deferral  Deferral
	Reference *domain.ReferenceData
}

// NewRun creates the per-form state, with conditions resolving against the form's policy.
func (d *Dispatcher) NewRun(form Form) *Run {
	return NewRun(form.ID, func(path string) (string, bool) {
		return d.resolver.Resolve(form.Policy, path)
	})
}

// Dispatch resolves every placeholder of doc exactly once. Non-fatal problems
// are recorded in run; a *domain.TemplateStructureError aborts the form.
func (d *Dispatcher) Dispatch(ctx context.Context, doc ports.Document, form Form, run *Run) error {
	if form.Policy == nil {
		return fmt.Errorf("form %s: no policy", form.ID)
	}
	logger := d.logger.With("form", form.ID)
	if form.Reference == nil {
		form.Reference = d.refdata
	}

	snapshot := doc.Placeholders()
	byLogical := make(map[string][]string)
	for _, p := range snapshot {
		key := strings.ToLower(p.Identifier())
		byLogical[key] = append(byLogical[key], p.Name)
	}

	for _, p := range snapshot {
		cur, ok := doc.Placeholder(p.Name)
		if !ok || cur.Removed {
			continue
		}

		c := &call{
			d:          d,
			ctx:        ctx,
			doc:        doc,
			form:       form,
			run:        run,
			p:          cur,
			identifier: form.FieldMap.Identifier(cur.Identifier()),
			siblings:   byLogical[strings.ToLower(cur.Identifier())],
			logger:     logger,
		}
		outcome, err := c.dispatch()

		var tse *domain.TemplateStructureError
		switch {
		case errors.As(err, &tse):
			tse.FormID = form.ID
			d.emit(ctx, form.ID, cur.Name, c.dir, domain.OutcomeFailed)
			return err
		case err != nil:
			logger.Warn("placeholder failed", "placeholder", cur.Name, "identifier", c.identifier, "error", err)
			run.AddError(fmt.Errorf("placeholder %s: %w", cur.Name, err))
			outcome = domain.OutcomeFailed
		}
		d.emit(ctx, form.ID, cur.Name, c.dir, outcome)
	}
	return nil
}

func (d *Dispatcher) emit(ctx context.Context, formID, name string, dir directive.Directive, outcome domain.PlaceholderOutcome) {
	if d.hooks.OnPlaceholder == nil {
		return
	}
	d.hooks.OnPlaceholder(ctx, &domain.PlaceholderEvent{
		EventBase: domain.EventBase{
			Timestamp: time.Now(),
			Type:      domain.EventPlaceholder,
			FormID:    formID,
		},
		Placeholder: name,
		Directive:   dir.Kind.String(),
		Outcome:     outcome,
	})
}

// call is one placeholder being dispatched.
type call struct {
	d          *Dispatcher
	ctx        context.Context
	doc        ports.Document
	form       Form
	run        *Run
	p          ports.Placeholder
	identifier string
	dir        directive.Directive
	siblings   []string
	logger     *slog.Logger
}

func (c *call) dispatch() (domain.PlaceholderOutcome, error) {
	// 1. Grouped question fields wait for the replicator or the row cloner
	if c.form.Deferral.Match(c.p.Name) || c.form.Deferral.Match(c.p.Identifier()) {
		c.run.deferName(c.p.Name)
		return domain.OutcomeDeferred, nil
	}

	// 2. Parse
	dir, err := directive.Parse(c.identifier)
	if err != nil {
		return domain.OutcomeFailed, err
	}
	c.dir = dir
	if dir.Unknown {
		c.logger.Debug("unknown directive, resolving as path", "placeholder", c.p.Name, "identifier", c.identifier)
	}

	// 3. Modifiers, outermost first
	for _, m := range dir.Modifiers {
		if !c.keepFor(m) {
			return c.remove()
		}
	}

	// 4. Terminal
	h, ok := c.d.handlers[dir.Kind]
	if !ok {
		return domain.OutcomeFailed, fmt.Errorf("no handler for %s", dir.Kind)
	}
	return h(c)
}

func (c *call) keepFor(m directive.Modifier) bool {
	switch m.Kind {
	case directive.ModIfQuote:
		return c.form.Policy.IsQuote()
	case directive.ModKeepFirst:
		return len(c.siblings) == 0 || strings.EqualFold(c.siblings[0], c.p.Name)
	case directive.ModKeepLast:
		return len(c.siblings) == 0 || strings.EqualFold(c.siblings[len(c.siblings)-1], c.p.Name)
	case directive.ModEffBefore:
		return c.form.Policy.EffectiveDate.Before(m.Cutoff)
	case directive.ModEffAfter:
		return !c.form.Policy.EffectiveDate.Before(m.Cutoff)
	}
	return true
}

func (c *call) lookup(path string) (string, bool) {
	return c.d.resolver.Resolve(c.form.Policy, path)
}

func (c *call) remove() (domain.PlaceholderOutcome, error) {
	if err := c.doc.Remove(c.p.Name); err != nil && !errors.Is(err, domain.ErrAlreadyRemoved) {
		return domain.OutcomeFailed, err
	}
	return domain.OutcomeRemoved, nil
}

func (c *call) replace(v string) (domain.PlaceholderOutcome, error) {
	if err := c.doc.ReplaceValue(c.p.Name, v); err != nil {
		return domain.OutcomeFailed, err
	}
	return domain.OutcomeResolved, nil
}

// write applies default resolution: empty or non-positive values remove block
// controls; "$00" and "00%" template text degrade to "$0" and "0%".
func (c *call) write(v string) (domain.PlaceholderOutcome, error) {
	if c.p.Block && (v == "" || nonPositive(v)) {
		return c.remove()
	}
	if v == "" {
		switch strings.TrimSpace(c.p.Text) {
		case "$00":
			v = "$0"
		case "00%":
			v = "0%"
		}
	}
	return c.replace(v)
}

// unresolved records a recovered resolution failure.
func (c *call) unresolved(path string) {
	c.run.unresolvedPath(c.identifier, path)
	c.logger.Debug("unresolved path", "placeholder", c.p.Name, "identifier", c.identifier, "path", path)
}
