package docmerge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/docmerge/internal/directive"
	"github.com/aretw0/docmerge/internal/generate"
	"github.com/aretw0/docmerge/internal/logging"
	"github.com/aretw0/docmerge/internal/merge"
	"github.com/aretw0/docmerge/internal/replicate"
	"github.com/aretw0/docmerge/internal/rowclone"
	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/aretw0/docmerge/pkg/formatters"
	"github.com/aretw0/docmerge/pkg/ports"
	"github.com/aretw0/docmerge/pkg/refdata"
	"github.com/aretw0/docmerge/pkg/session"
)

// Form is one form of a batch: the policy form it renders and its template.
// The template is cloned before merging and never modified.
type Form struct {
	ID            string
	QuantityOrder int
	Template      ports.Document
}

// Engine is the high-level entry point for the docmerge library.
// It wires the merge pipeline and provides a simplified API for consumers.
type Engine struct {
	generator  *generate.Generator
	formatters *formatters.Registry
	refdata    *refdata.Cache
	logger     *slog.Logger
	hooks      domain.MergeHooks

	fields   ports.FieldMapSource
	storage  ports.Storage
	formats  []domain.Format
	workers  int
	specimen bool
	newName  func(formID string) string

	now         func() time.Time
	minSuffix   *string
	shortDate   string
	longDate    string
	renewalText string
	newBusiness string
	refSource   ports.ReferenceSource
	locks       *session.Manager
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMergeHooks registers observability hooks. Use observability.Combine to
// register several sets.
func WithMergeHooks(hooks domain.MergeHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithFieldMaps sets the field-mapping data service.
func WithFieldMaps(src ports.FieldMapSource) Option {
	return func(e *Engine) {
		e.fields = src
	}
}

// WithReferenceData sets the reference-data source. It is read once per
// engine and never refreshed.
func WithReferenceData(src ports.ReferenceSource) Option {
	return func(e *Engine) {
		e.refSource = src
	}
}

// WithStorage enables export of every merged form.
func WithStorage(s ports.Storage) Option {
	return func(e *Engine) {
		e.storage = s
	}
}

// WithFormats sets the export formats (default: pdf).
func WithFormats(formats ...domain.Format) Option {
	return func(e *Engine) {
		e.formats = formats
	}
}

// WithExportWorkers bounds concurrent exports per form.
func WithExportWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithSpecimen stamps SPECIMEN on forms of bound policies.
func WithSpecimen(on bool) Option {
	return func(e *Engine) {
		e.specimen = on
	}
}

// WithFileNames replaces the generated file-name function.
func WithFileNames(fn func(formID string) string) Option {
	return func(e *Engine) {
		e.newName = fn
	}
}

// WithFormatter registers a custom formatter for a form number, optionally
// scoped to an edition ("" for all editions).
func WithFormatter(formNumber, edition string, fn formatters.Formatter) Option {
	return func(e *Engine) {
		e.formatters.Register(formNumber, edition, fn)
	}
}

// WithClock sets the time source used by _Today.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithMinimumPremiumSuffix sets the text appended to minimum premiums.
func WithMinimumPremiumSuffix(suffix string) Option {
	return func(e *Engine) {
		e.minSuffix = &suffix
	}
}

// WithDateLayouts sets the Go layouts of _Today.Short and _Today.Long.
func WithDateLayouts(short, long string) Option {
	return func(e *Engine) {
		e.shortDate, e.longDate = short, long
	}
}

// WithRenewalText sets the pongo2 templates of _PolicyRenewalText. Empty
// strings keep the defaults.
func WithRenewalText(renewal, newBusiness string) Option {
	return func(e *Engine) {
		e.renewalText, e.newBusiness = renewal, newBusiness
	}
}

// WithPolicyLocks serializes batches that target the same policy number.
func WithPolicyLocks(m *session.Manager) Option {
	return func(e *Engine) {
		e.locks = m
	}
}

// New initializes a new Engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{formatters: formatters.NewRegistry()}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.refSource != nil {
		e.refdata = refdata.NewCache(e.refSource)
	}

	dispatcherOpts := []merge.Option{
		merge.WithLogger(e.logger),
		merge.WithHooks(e.hooks),
		merge.WithDateLayouts(e.shortDate, e.longDate),
	}
	if e.now != nil {
		dispatcherOpts = append(dispatcherOpts, merge.WithClock(e.now))
	}
	if e.minSuffix != nil {
		dispatcherOpts = append(dispatcherOpts, merge.WithMinimumPremiumSuffix(*e.minSuffix))
	}
	if e.renewalText != "" || e.newBusiness != "" {
		renewal := e.renewalText
		if renewal == "" {
			renewal = merge.DefaultRenewalTemplate
		}
		newBusiness := e.newBusiness
		if newBusiness == "" {
			newBusiness = merge.DefaultNewBusinessTemplate
		}
		rt, err := merge.NewRenewalText(renewal, newBusiness)
		if err != nil {
			return nil, fmt.Errorf("renewal text: %w", err)
		}
		dispatcherOpts = append(dispatcherOpts, merge.WithRenewalText(rt))
	}

	genOpts := []generate.Option{
		generate.WithLogger(e.logger),
		generate.WithHooks(e.hooks),
		generate.WithDispatcher(merge.NewDispatcher(dispatcherOpts...)),
		generate.WithReplicator(replicate.New(
			replicate.WithLogger(e.logger),
			replicate.WithHooks(e.hooks),
			replicate.WithFormatters(e.formatters),
		)),
		generate.WithFieldMaps(e.fields),
		generate.WithSpecimen(e.specimen),
		generate.WithWorkers(e.workers),
	}
	if e.refdata != nil {
		genOpts = append(genOpts, generate.WithReferenceData(e.refdata))
	}
	if e.storage != nil {
		genOpts = append(genOpts, generate.WithStorage(e.storage))
	}
	if len(e.formats) > 0 {
		genOpts = append(genOpts, generate.WithFormats(e.formats...))
	}
	if e.newName != nil {
		genOpts = append(genOpts, generate.WithNameFunc(e.newName))
	}
	genOpts = append(genOpts, generate.WithRowOptions(
		rowclone.WithLogger(e.logger),
		rowclone.WithHooks(e.hooks),
	))
	e.generator = generate.New(genOpts...)

	return e, nil
}

// Generate merges every form of the batch for one policy. Per-form failures
// are reported on the matching FormResult; the returned error is a batch
// failure (storage or cancellation), in which case the results cover the
// forms processed so far.
func (e *Engine) Generate(ctx context.Context, policy *domain.Policy, forms ...Form) ([]domain.FormResult, error) {
	req := generate.Request{Policy: policy, Forms: make([]generate.FormRequest, len(forms))}
	for i, f := range forms {
		req.Forms[i] = generate.FormRequest{FormID: f.ID, QuantityOrder: f.QuantityOrder, Template: f.Template}
	}
	if e.locks == nil || policy == nil {
		return e.generator.Generate(ctx, req)
	}

	var results []domain.FormResult
	err := e.locks.WithLock(ctx, policy.Number(), func(ctx context.Context) error {
		var err error
		results, err = e.generator.Generate(ctx, req)
		return err
	})
	return results, err
}

// Formatters returns the engine's formatter registry.
func (e *Engine) Formatters() *formatters.Registry {
	return e.formatters
}

// Directives lists the terminal directive names the engine understands.
func Directives() []string {
	return directive.Names()
}
