package docmerge_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/docmerge"
	"github.com/aretw0/docmerge/internal/adapters/redis"
	"github.com/aretw0/docmerge/pkg/adapters/memory"
	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/aretw0/docmerge/pkg/formatters"
	"github.com/aretw0/docmerge/pkg/observability"
	"github.com/aretw0/docmerge/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func locationsPolicy() *domain.Policy {
	return &domain.Policy{
		PolicyNumber: "GL-0001",
		Status:       domain.StatusBound,
		Carrier:      "ACME",
		Premium:      domain.Premium{Rollup: 400, Minimum: 500, IsMinimum: true},
		Documents: []domain.Document{{
			FormID:     "LOCS",
			FormNumber: "CG 20 10",
			Questions: []domain.Question{
				{Code: "LOC", Answer: "north", MergeFieldName: "Loc", MultipleRowGroupingNumber: 1, MaximumMultipleRowCount: 1},
				{Code: "LOC", Answer: "south", MergeFieldName: "Loc", MultipleRowGroupingNumber: 2, MaximumMultipleRowCount: 1},
			},
		}},
	}
}

func locationsTemplate() *memory.Document {
	page := memory.SectionOf(
		memory.Para(memory.Text("Premium "), memory.Field("_Premium", "")),
		memory.Para(memory.Field("Loc", "-")),
	)
	page.Footer.Text = "CG 20 10"
	return memory.NewDocument("locs", page)
}

func TestEngine_Generate(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	store := memory.NewStorage()

	eng, err := docmerge.New(
		docmerge.WithStorage(store),
		docmerge.WithFileNames(func(formID string) string { return formID }),
		docmerge.WithMinimumPremiumSuffix(" (min)"),
		docmerge.WithMergeHooks(metrics.Hooks()),
		docmerge.WithFormatter("CG 20 10", "", func(_ context.Context, in formatters.Input) (string, error) {
			return fmt.Sprintf("%s#%d", strings.ToUpper(in.Value), in.Instance+1), nil
		}),
	)
	require.NoError(t, err)

	ctx := context.Background()
	results, err := eng.Generate(ctx, locationsPolicy(), docmerge.Form{ID: "LOCS", Template: locationsTemplate()})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Errors)
	assert.Equal(t, 2, results[0].Instances)
	assert.Equal(t, 2, results[0].PageCount)

	data, err := store.Load(ctx, "LOCS.pdf")
	require.NoError(t, err)
	want := "#PDF locs\n" +
		"Premium $500 (min)\nNORTH#1\n-- CG 20 10 1/2 --\n" +
		"\fPremium $500 (min)\nSOUTH#2\n-- CG 20 10 2/2 --\n"
	assert.Equal(t, want, string(data))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Forms.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Placeholders.WithLabelValues("_Premium", "resolved")))
}

type countingSource struct {
	loads atomic.Int32
}

func (s *countingSource) Load(context.Context) (*domain.ReferenceData, error) {
	s.loads.Add(1)
	return &domain.ReferenceData{
		Carriers: []domain.Carrier{{Code: "ACME", Signatory: "Jane Doe", SignatureImage: "sig.png"}},
	}, nil
}

func TestEngine_ReferenceDataLoadedOnce(t *testing.T) {
	src := &countingSource{}
	eng, err := docmerge.New(docmerge.WithReferenceData(src))
	require.NoError(t, err)

	tpl := func() *memory.Document {
		return memory.NewDocument("sig", memory.SectionOf(memory.Para(memory.Field("CarrierSignature", ""))))
	}
	p := locationsPolicy()
	p.Documents = append(p.Documents, domain.Document{FormID: "SIG"})

	for range 3 {
		results, err := eng.Generate(context.Background(), p, docmerge.Form{ID: "SIG", Template: tpl()})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Empty(t, results[0].Errors)
	}
	assert.Equal(t, int32(1), src.loads.Load())
}

func TestNew_InvalidRenewalText(t *testing.T) {
	_, err := docmerge.New(docmerge.WithRenewalText("{{ prior ", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "renewal text")
}

func TestDirectives(t *testing.T) {
	names := docmerge.Directives()
	assert.Contains(t, names, "_If")
	assert.Contains(t, names, "_Premium")
	assert.Contains(t, names, "_IfQuote")
}

func TestEngine_PolicyLocks(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locks := session.NewManager(session.WithLocker(redis.NewLocker(client, "test:")))
	eng, err := docmerge.New(
		docmerge.WithPolicyLocks(locks),
		docmerge.WithStorage(memory.NewStorage()),
	)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := eng.Generate(context.Background(), locationsPolicy(), docmerge.Form{ID: "LOCS", Template: locationsTemplate()})
			assert.NoError(t, err)
			assert.Len(t, results, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, locks.Active())
	assert.False(t, mr.Exists("test:lock:policy:GL-0001"))
}
