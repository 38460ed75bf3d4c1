package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/aretw0/docmerge/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsHooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	h := m.Hooks()
	ctx := context.Background()

	h.OnPlaceholder(ctx, &domain.PlaceholderEvent{Directive: "_If", Outcome: domain.OutcomeRemoved})
	h.OnPlaceholder(ctx, &domain.PlaceholderEvent{Directive: "_If", Outcome: domain.OutcomeRemoved})
	h.OnRowsCloned(ctx, &domain.RowsClonedEvent{Rows: 3})
	h.OnInstances(ctx, &domain.InstancesEvent{Instances: 3})
	h.OnFormComplete(ctx, &domain.FormEvent{Errors: 1, Duration: time.Second})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Placeholders.WithLabelValues("_If", "removed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RowsCloned))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Forms.WithLabelValues("error")))

	count, err := testutil.GatherAndCount(reg, "docmerge_form_instances")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCombine(t *testing.T) {
	var calls []string
	a := domain.MergeHooks{OnFormStart: func(context.Context, *domain.FormEvent) { calls = append(calls, "a") }}
	b := domain.MergeHooks{
		OnFormStart:  func(context.Context, *domain.FormEvent) { calls = append(calls, "b") },
		OnRowsCloned: func(context.Context, *domain.RowsClonedEvent) { calls = append(calls, "rows") },
	}

	h := observability.Combine(a, domain.MergeHooks{}, b)
	h.OnFormStart(context.Background(), &domain.FormEvent{})
	h.OnRowsCloned(context.Background(), &domain.RowsClonedEvent{})

	assert.Equal(t, []string{"a", "b", "rows"}, calls)
	assert.Nil(t, h.OnPlaceholder)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := observability.LoggingHooks(logger)

	h.OnFormComplete(context.Background(), &domain.FormEvent{EventBase: domain.EventBase{FormID: "CG0001"}, PageCount: 2})
	assert.Contains(t, buf.String(), "form_complete")
	assert.Contains(t, buf.String(), "form=CG0001")
	assert.Contains(t, buf.String(), "pages=2")
}
