package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/docmerge/pkg/domain"
)

// LoggingHooks logs form boundaries at info and placeholder decisions at debug.
func LoggingHooks(logger *slog.Logger) domain.MergeHooks {
	return domain.MergeHooks{
		OnFormStart: func(_ context.Context, e *domain.FormEvent) {
			logger.Info("form_start", "form", e.FormID)
		},
		OnFormComplete: func(_ context.Context, e *domain.FormEvent) {
			logger.Info("form_complete",
				"form", e.FormID,
				"pages", e.PageCount,
				"errors", e.Errors,
				"duration", e.Duration,
			)
		},
		OnPlaceholder: func(_ context.Context, e *domain.PlaceholderEvent) {
			logger.Debug("placeholder",
				"form", e.FormID,
				"placeholder", e.Placeholder,
				"directive", e.Directive,
				"outcome", e.Outcome,
			)
		},
		OnInstances: func(_ context.Context, e *domain.InstancesEvent) {
			logger.Debug("instances", "form", e.FormID, "instances", e.Instances, "groups", e.Groups)
		},
		OnRowsCloned: func(_ context.Context, e *domain.RowsClonedEvent) {
			logger.Debug("rows_cloned", "form", e.FormID, "rows", e.Rows)
		},
	}
}

// Combine returns hooks that call each set in order. Nil callbacks are skipped.
func Combine(sets ...domain.MergeHooks) domain.MergeHooks {
	var out domain.MergeHooks
	for _, h := range sets {
		out.OnFormStart = chain(out.OnFormStart, h.OnFormStart)
		out.OnFormComplete = chain(out.OnFormComplete, h.OnFormComplete)
		out.OnPlaceholder = chain(out.OnPlaceholder, h.OnPlaceholder)
		out.OnInstances = chain(out.OnInstances, h.OnInstances)
		out.OnRowsCloned = chain(out.OnRowsCloned, h.OnRowsCloned)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
