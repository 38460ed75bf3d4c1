package generate_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/docmerge/internal/generate"
	"github.com/aretw0/docmerge/pkg/adapters/memory"
	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/aretw0/docmerge/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func locationQuestions(n int) []domain.Question {
	var qs []domain.Question
	for g := 1; g <= n; g++ {
		qs = append(qs, domain.Question{
			Code:                      "LOC",
			Answer:                    fmt.Sprintf("loc %d", g),
			MergeFieldName:            "LocName1,LocName2,LocName3",
			MultipleRowGroupingNumber: g,
			MaximumMultipleRowCount:   3,
		})
	}
	return qs
}

func testPolicy() *domain.Policy {
	return &domain.Policy{
		PolicyNumber:  "GL-0001",
		Status:        domain.StatusBound,
		Carrier:       "ACME",
		EffectiveDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Insured:       domain.Insured{Name: "Acme Roofing"},
		Documents: []domain.Document{
			{FormID: "LOCS", FormNumber: "CG 20 10", Edition: "0413", Title: "Locations", Questions: locationQuestions(7)},
			{FormID: "DEC", FormNumber: "CG DS 01", Title: "Declarations"},
		},
	}
}

func locationTemplate() *memory.Document {
	return memory.NewDocument("locations", memory.SectionOf(
		memory.Para(memory.Field("NamedInsured", "")),
		memory.Para(memory.Field(generate.SignaturePlaceholder, "")),
		memory.Para(memory.Field("LocName1", "-")),
		memory.Para(memory.Field("LocName2", "-")),
		memory.Para(memory.Field("LocName3", "-")),
	))
}

func decTemplate() *memory.Document {
	return memory.NewDocument("dec", memory.SectionOf(
		memory.Para(memory.Text("Policy "), memory.Field("PolicyNumber", "")),
	))
}

func reference() ports.ReferenceSource {
	return memory.NewReferenceSource(&domain.ReferenceData{
		Carriers: []domain.Carrier{{Code: "ACME", Name: "Acme Insurance", Signatory: "Jane Doe", SignatureImage: "sig/acme.png"}},
		States:   []domain.State{{Code: "48", Abbreviation: "TX"}},
	})
}

func fixedName(formID string) string { return formID + "_test" }

func TestGenerate_EndToEnd(t *testing.T) {
	store := memory.NewStorage()
	fields := memory.NewFieldMapSource(map[string]string{"NamedInsured": "Insured.Name"}, nil)
	var completed []*domain.FormEvent
	g := generate.New(
		generate.WithStorage(store),
		generate.WithFieldMaps(fields),
		generate.WithReferenceData(reference()),
		generate.WithFormats(domain.FormatPDF, domain.FormatDOCX),
		generate.WithWorkers(1),
		generate.WithNameFunc(fixedName),
		generate.WithHooks(domain.MergeHooks{
			OnFormComplete: func(_ context.Context, e *domain.FormEvent) { completed = append(completed, e) },
		}),
	)
	tpl := locationTemplate()

	results, err := g.Generate(context.Background(), generate.Request{
		Policy: testPolicy(),
		Forms:  []generate.FormRequest{{FormID: "LOCS", Template: tpl}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	assert.Empty(t, res.Errors)
	assert.Equal(t, "LOCS_test", res.GeneratedFileName)
	assert.Equal(t, 3, res.PageCount)
	assert.Equal(t, 3, res.Instances)
	require.Len(t, res.Files, 2)
	assert.Equal(t, domain.FormatPDF, res.Files[0].Format)
	assert.Equal(t, "LOCS_test.pdf", res.Files[0].FileName)
	assert.Equal(t, "LOCS_test.docx", res.Files[1].FileName)

	data, err := store.Load(context.Background(), "LOCS_test.pdf")
	require.NoError(t, err)
	out := string(data)
	assert.True(t, strings.HasPrefix(out, "#PDF locations\n"))
	assert.Equal(t, 3, strings.Count(out, "Acme Roofing"))
	assert.Equal(t, 3, strings.Count(out, "Jane Doe"))
	for i := 1; i <= 7; i++ {
		assert.Contains(t, out, fmt.Sprintf("loc %d\n", i))
	}
	assert.NotContains(t, out, "watermark")

	assert.Equal(t, "-\n", strings.SplitAfter(tpl.Text(), "\n")[2], "template must not be modified")
	require.Len(t, completed, 1)
	assert.Equal(t, 3, completed[0].PageCount)
}

func TestGenerate_PerFormErrorsDoNotStopBatch(t *testing.T) {
	broken := memory.NewDocument("broken", memory.SectionOf(memory.Para(memory.Field("_Clauses", ""))))
	g := generate.New(generate.WithStorage(memory.NewStorage()), generate.WithNameFunc(fixedName))

	results, err := g.Generate(context.Background(), generate.Request{
		Policy: testPolicy(),
		Forms: []generate.FormRequest{
			{FormID: "MISSING", Template: decTemplate()},
			{FormID: "LOCS", Template: broken},
			{FormID: "DEC", Template: decTemplate()},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.Len(t, results[0].Errors, 1)
	assert.Contains(t, results[0].Errors[0], domain.ErrFormNotFound.Error())
	require.Len(t, results[1].Errors, 1)
	assert.Contains(t, results[1].Errors[0], "template structure")
	assert.Empty(t, results[2].Errors)
	assert.Equal(t, 1, results[2].PageCount)
}

type panicky struct{ *memory.Document }

func (panicky) Clone() ports.Document { panic("corrupt template") }

func TestGenerate_RecoversPanics(t *testing.T) {
	g := generate.New()
	results, err := g.Generate(context.Background(), generate.Request{
		Policy: testPolicy(),
		Forms: []generate.FormRequest{
			{FormID: "LOCS", Template: panicky{locationTemplate()}},
			{FormID: "DEC", Template: decTemplate()},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Len(t, results[0].Errors, 1)
	assert.Contains(t, results[0].Errors[0], "corrupt template")
	assert.Empty(t, results[1].Errors)
}

type failingStorage struct{}

func (failingStorage) Save(context.Context, string, domain.Format, []byte) (domain.StoredFile, error) {
	return domain.StoredFile{}, errors.New("bucket unavailable")
}

func (failingStorage) Load(context.Context, string) ([]byte, error) {
	return nil, domain.ErrFileNotFound
}

func TestGenerate_StorageFailureAbortsBatch(t *testing.T) {
	g := generate.New(generate.WithStorage(failingStorage{}), generate.WithNameFunc(fixedName))
	results, err := g.Generate(context.Background(), generate.Request{
		Policy: testPolicy(),
		Forms: []generate.FormRequest{
			{FormID: "DEC", Template: decTemplate()},
			{FormID: "LOCS", Template: locationTemplate()},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")
	assert.Len(t, results, 1)
}

func TestGenerate_Watermarks(t *testing.T) {
	store := memory.NewStorage()
	quote := testPolicy()
	quote.Status = domain.StatusQuote

	g := generate.New(generate.WithStorage(store), generate.WithNameFunc(fixedName), generate.WithSpecimen(true))
	_, err := g.Generate(context.Background(), generate.Request{Policy: quote, Forms: []generate.FormRequest{{FormID: "DEC", Template: decTemplate()}}})
	require.NoError(t, err)
	data, err := store.Load(context.Background(), "DEC_test.pdf")
	require.NoError(t, err)
	assert.Contains(t, string(data), "[watermark: QUOTE]\n")

	_, err = g.Generate(context.Background(), generate.Request{Policy: testPolicy(), Forms: []generate.FormRequest{{FormID: "DEC", Template: decTemplate()}}})
	require.NoError(t, err)
	data, err = store.Load(context.Background(), "DEC_test.pdf")
	require.NoError(t, err)
	assert.Contains(t, string(data), "[watermark: SPECIMEN]\n")
}

func TestGenerate_ScheduleUsesStateAbbreviations(t *testing.T) {
	p := testPolicy()
	p.Documents = append(p.Documents, domain.Document{
		FormID: "SCHED",
		Questions: []domain.Question{
			{Code: "ST", MergeFieldName: "LocState", MultipleRowGroupingNumber: 1, Answer: "48"},
			{Code: "ST", MergeFieldName: "LocState", MultipleRowGroupingNumber: 2, Answer: "48"},
			{Code: "ST", MergeFieldName: "LocState", MultipleRowGroupingNumber: 3, Answer: "99"},
		},
	})
	tpl := memory.NewDocument("schedule", memory.SectionOf(memory.TableOf(
		memory.RowOf(memory.CellOf(memory.Text("State"))),
		memory.RowOf(memory.CellOf(memory.Field("LocState_1", ""))),
	)))
	store := memory.NewStorage()
	g := generate.New(generate.WithStorage(store), generate.WithReferenceData(reference()), generate.WithNameFunc(fixedName))

	results, err := g.Generate(context.Background(), generate.Request{Policy: p, Forms: []generate.FormRequest{{FormID: "SCHED", Template: tpl}}})
	require.NoError(t, err)
	assert.Empty(t, results[0].Errors)

	data, err := store.Load(context.Background(), "SCHED_test.pdf")
	require.NoError(t, err)
	assert.Contains(t, string(data), "State\nTX\nTX\n99\n")
}

func TestGenerate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := generate.New().Generate(ctx, generate.Request{
		Policy: testPolicy(),
		Forms:  []generate.FormRequest{{FormID: "DEC", Template: decTemplate()}},
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}
