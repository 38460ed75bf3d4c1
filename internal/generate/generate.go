// Package generate runs the per-form merge pipeline over a batch of forms.
//
// For each form: clone the template, build the field map, insert the carrier
// signature, stamp the watermark, dispatch every placeholder, fill row
// schedules, replicate grouped rows across instances, then export the result
// in every configured format. A failure inside one form (including a panic)
// is recorded on that form's result and the batch moves on; storage failures
// abort the batch.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/aretw0/docmerge/internal/logging"
	"github.com/aretw0/docmerge/internal/merge"
	"github.com/aretw0/docmerge/internal/replicate"
	"github.com/aretw0/docmerge/internal/rowclone"
	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/aretw0/docmerge/pkg/ports"
	"github.com/google/uuid"
)

// SignaturePlaceholder receives the carrier signatory's image.
const SignaturePlaceholder = "CarrierSignature"

// Watermarks.
const (
	QuoteWatermark    = "QUOTE"
	SpecimenWatermark = "SPECIMEN"
)

// FormRequest names one form of the policy and its template.
type FormRequest struct {
	FormID        string
	QuantityOrder int
	Template      ports.Document
}

// Request is one batch.
type Request struct {
	Policy *domain.Policy
	Forms  []FormRequest
}

// Generator runs batches. It is safe for concurrent use; every form gets its
// own merge.Run.
type Generator struct {
	logger     *slog.Logger
	hooks      domain.MergeHooks
	dispatcher *merge.Dispatcher
	rows       *rowclone.Cloner
	customRows bool
	rowOpts    []rowclone.Option
	replicator *replicate.Replicator
	fields     ports.FieldMapSource
	refdata    ports.ReferenceSource
	storage    ports.Storage
	formats    []domain.Format
	workers    int
	specimen   bool
	newName    func(formID string) string
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// WithHooks registers form-level hooks. Component hooks are configured on
// the components themselves.
func WithHooks(hooks domain.MergeHooks) Option {
	return func(g *Generator) { g.hooks = hooks }
}

// WithDispatcher replaces the default dispatcher.
func WithDispatcher(d *merge.Dispatcher) Option {
	return func(g *Generator) { g.dispatcher = d }
}

// WithRowCloner replaces the default row cloner.
func WithRowCloner(c *rowclone.Cloner) Option {
	return func(g *Generator) {
		g.rows = c
		g.customRows = true
	}
}

// WithRowOptions configures the default row cloner. It has no effect when
// WithRowCloner is used.
func WithRowOptions(opts ...rowclone.Option) Option {
	return func(g *Generator) { g.rowOpts = append(g.rowOpts, opts...) }
}

// WithReplicator replaces the default replicator.
func WithReplicator(r *replicate.Replicator) Option {
	return func(g *Generator) { g.replicator = r }
}

// WithFieldMaps sets the field-mapping data service.
func WithFieldMaps(src ports.FieldMapSource) Option {
	return func(g *Generator) { g.fields = src }
}

// WithReferenceData sets the reference-data source used for signatures.
func WithReferenceData(src ports.ReferenceSource) Option {
	return func(g *Generator) { g.refdata = src }
}

// WithStorage enables export. Without storage, forms are merged but not saved.
func WithStorage(s ports.Storage) Option {
	return func(g *Generator) { g.storage = s }
}

// WithFormats sets the export formats.
func WithFormats(formats ...domain.Format) Option {
	return func(g *Generator) { g.formats = formats }
}

// WithWorkers bounds concurrent exports per form. Zero runs every format at once.
func WithWorkers(n int) Option {
	return func(g *Generator) { g.workers = n }
}

// WithSpecimen stamps SPECIMEN on forms of bound policies.
func WithSpecimen(on bool) Option {
	return func(g *Generator) { g.specimen = on }
}

// WithNameFunc replaces the generated file-name function.
func WithNameFunc(fn func(formID string) string) Option {
	return func(g *Generator) { g.newName = fn }
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		logger:  logging.NewNop(),
		formats: []domain.Format{domain.FormatPDF},
		newName: func(formID string) string { return formID + "_" + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.dispatcher == nil {
		g.dispatcher = merge.NewDispatcher(merge.WithLogger(g.logger))
	}
	if g.rows == nil {
		g.rows = rowclone.New(append([]rowclone.Option{rowclone.WithLogger(g.logger)}, g.rowOpts...)...)
	}
	if g.replicator == nil {
		g.replicator = replicate.New(replicate.WithLogger(g.logger))
	}
	return g
}

// Generate merges every form of the batch. Results are returned in request
// order even when an error aborts the batch part way.
func (g *Generator) Generate(ctx context.Context, req Request) ([]domain.FormResult, error) {
	if req.Policy == nil {
		return nil, errors.New("generate: no policy")
	}
	results := make([]domain.FormResult, 0, len(req.Forms))
	for _, f := range req.Forms {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := g.generateForm(ctx, req.Policy, f)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// generateForm returns an error only for batch-level failures.
func (g *Generator) generateForm(ctx context.Context, p *domain.Policy, f FormRequest) (res domain.FormResult, batchErr error) {
	start := time.Now()
	res.FormID = f.FormID
	logger := g.logger.With("form", f.FormID)

	if g.hooks.OnFormStart != nil {
		g.hooks.OnFormStart(ctx, &domain.FormEvent{EventBase: g.event(f.FormID, domain.EventFormStart)})
	}
	defer func() {
		if g.hooks.OnFormComplete != nil {
			e := &domain.FormEvent{
				EventBase: g.event(f.FormID, domain.EventFormComplete),
				PageCount: res.PageCount,
				Duration:  time.Since(start),
				Errors:    len(res.Errors),
			}
			g.hooks.OnFormComplete(ctx, e)
		}
	}()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("form panicked", "panic", rec, "stack", string(debug.Stack()))
			res.Errors = append(res.Errors, fmt.Sprintf("internal error: %v", rec))
		}
	}()

	doc, err := g.merge(ctx, p, f, &res, logger)
	if err != nil {
		logger.Warn("form failed", "error", err)
		res.Errors = append(res.Errors, err.Error())
		return res, nil
	}

	if g.storage == nil {
		return res, nil
	}
	res.GeneratedFileName = g.newName(f.FormID)
	files, err := g.export(ctx, doc, res.GeneratedFileName)
	res.Files = files
	if err != nil {
		return res, fmt.Errorf("export %s: %w", f.FormID, err)
	}
	return res, nil
}

func (g *Generator) event(formID string, t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, FormID: formID}
}

// merge runs the pipeline up to the joined, laid-out document. Recovered
// problems are appended to res; the returned error is fatal for the form.
func (g *Generator) merge(ctx context.Context, p *domain.Policy, f FormRequest, res *domain.FormResult, logger *slog.Logger) (ports.Document, error) {
	// 1. The form as attached to the policy
	attached, ok := p.Form(f.FormID, f.QuantityOrder)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFormNotFound, f.FormID)
	}
	if f.Template == nil {
		return nil, fmt.Errorf("form %s: no template", f.FormID)
	}
	doc := f.Template.Clone()

	// 2. Default field map overlaid by the form's custom map
	fields, err := g.fieldMap(ctx, f.FormID)
	if err != nil {
		return nil, err
	}

	// 3. Signature and watermark land before any snapshot is taken
	ref, err := g.referenceData(ctx)
	if err != nil {
		return nil, err
	}
	g.sign(doc, p, ref, logger)
	switch {
	case p.IsQuote():
		doc.SetWatermark(QuoteWatermark)
	case g.specimen:
		doc.SetWatermark(SpecimenWatermark)
	}

	// 4. Dispatch
	form := merge.Form{
		ID:        f.FormID,
		Policy:    p,
		Document:  attached,
		FieldMap:  fields,
		Deferral:  merge.NewDeferral(attached.Questions),
		Reference: ref,
	}
	run := g.dispatcher.NewRun(form)
	if err := g.dispatcher.Dispatch(ctx, doc, form, run); err != nil {
		return nil, err
	}
	for _, e := range run.Errors() {
		res.Errors = append(res.Errors, e.Error())
	}
	if n := len(run.Unresolved()); n > 0 {
		logger.Debug("unresolved paths", "count", n)
	}

	// 5. Row schedules; state codes display as abbreviations unless the
	// caller supplied its own cloner
	if s := rowclone.FromQuestions(attached.Questions); len(s.Columns) > 0 {
		rows := g.rows
		if !g.customRows && ref != nil {
			rows = rows.With(rowclone.WithCellFunc(rowclone.StateAbbreviations(ref)))
		}
		if _, err := rows.Fill(ctx, doc, f.FormID, s); err != nil {
			return nil, err
		}
	}

	// 6. Replication, footers and the single layout pass
	out, err := g.replicator.Replicate(ctx, replicate.Input{
		FormID:     f.FormID,
		FormNumber: attached.FormNumber,
		Edition:    attached.Edition,
		Document:   doc,
		Questions:  attached.Questions,
	})
	if err != nil {
		return nil, err
	}
	for _, w := range out.Warnings {
		logger.Debug("recovered", "error", w)
	}
	res.PageCount = out.PageCount
	res.Instances = out.Instances
	return out.Document, nil
}

func (g *Generator) fieldMap(ctx context.Context, formID string) (domain.FieldMap, error) {
	if g.fields == nil {
		return domain.FieldMap{}, nil
	}
	defaults, err := g.fields.DefaultFields(ctx)
	if err != nil {
		return domain.FieldMap{}, fmt.Errorf("default field map: %w", err)
	}
	custom, err := g.fields.CustomFields(ctx, formID)
	if err != nil {
		return domain.FieldMap{}, fmt.Errorf("custom field map: %w", err)
	}
	return defaults.Overlay(custom), nil
}

func (g *Generator) referenceData(ctx context.Context) (*domain.ReferenceData, error) {
	if g.refdata == nil {
		return nil, nil
	}
	return g.refdata.Load(ctx)
}

// sign swaps the signature placeholder for the carrier signatory's image, or
// removes it when there is none.
func (g *Generator) sign(doc ports.Document, p *domain.Policy, ref *domain.ReferenceData, logger *slog.Logger) {
	ph, ok := doc.Placeholder(SignaturePlaceholder)
	if !ok || ph.Removed {
		return
	}
	carrier, ok := ref.Carrier(p.Carrier)
	if !ok || carrier.SignatureImage == "" {
		_ = doc.Remove(SignaturePlaceholder)
		return
	}
	if err := doc.InsertImage(SignaturePlaceholder, ports.ImageRef{Source: carrier.SignatureImage, Alt: carrier.Signatory}); err != nil {
		logger.Warn("signature not inserted", "carrier", carrier.Code, "error", err)
	}
}
