package domain_test

import (
	"testing"

	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestQuestion_Aliases(t *testing.T) {
	q := domain.Question{MergeFieldName: " Loc1, Loc2 ,,Loc3"}
	assert.Equal(t, []string{"Loc1", "Loc2", "Loc3"}, q.Aliases())

	name, ok := q.Alias(1)
	assert.True(t, ok)
	assert.Equal(t, "Loc2", name)

	_, ok = q.Alias(3)
	assert.False(t, ok)

	single := domain.Question{MergeFieldName: "Loc"}
	name, ok = single.Alias(7)
	assert.True(t, ok)
	assert.Equal(t, "Loc", name)

	_, ok = domain.Question{}.Alias(0)
	assert.False(t, ok)
}

func TestQuestion_Grouped(t *testing.T) {
	assert.True(t, domain.Question{MultipleRowGroupingNumber: 1, MergeFieldName: "Loc"}.Grouped())
	assert.False(t, domain.Question{MultipleRowGroupingNumber: 1, MergeFieldName: "  "}.Grouped())
	assert.False(t, domain.Question{MergeFieldName: "Loc"}.Grouped())
}

func TestWorkingQuestion(t *testing.T) {
	base := domain.Question{Code: "ROOF", Answer: "Y", MultipleRowGroupingNumber: 2}

	tests := []struct {
		name     string
		q        domain.Question
		siblings []domain.Question
		wantCode string
		wantOK   bool
	}{
		{
			name:     "no override keeps the question",
			q:        base,
			siblings: []domain.Question{base},
			wantCode: "ROOF",
			wantOK:   true,
		},
		{
			name: "sibling replacement matches the answer",
			q:    base,
			siblings: []domain.Question{
				{Code: "ROOF_Y", ControllingQuestionCode: "roof", AnswerCodeReplacement: "y", MultipleRowGroupingNumber: 2},
			},
			wantCode: "ROOF_Y",
			wantOK:   true,
		},
		{
			name: "sibling in another grouping is ignored",
			q:    base,
			siblings: []domain.Question{
				{Code: "ROOF_Y", ControllingQuestionCode: "ROOF", AnswerCodeReplacement: "Y", MultipleRowGroupingNumber: 3},
			},
			wantCode: "ROOF",
			wantOK:   true,
		},
		{
			name: "own replacement names the sibling",
			q:    domain.Question{Code: "ROOF", AnswerCodeReplacement: "ROOF_ALT", MultipleRowGroupingNumber: 2},
			siblings: []domain.Question{
				{Code: "ROOF_ALT", ControllingQuestionCode: "ROOF", Answer: "metal", MultipleRowGroupingNumber: 2},
			},
			wantCode: "ROOF_ALT",
			wantOK:   true,
		},
		{
			name: "sibling with the same code is never chosen",
			q:    domain.Question{Code: "ROOF", AnswerCodeReplacement: "ROOF", MultipleRowGroupingNumber: 2},
			siblings: []domain.Question{
				{Code: "ROOF", ControllingQuestionCode: "ROOF", Answer: "x", MultipleRowGroupingNumber: 2},
			},
			wantOK: false,
		},
		{
			name:   "blank answer without override has nothing to show",
			q:      domain.Question{Code: "ROOF", Answer: "  ", MultipleRowGroupingNumber: 2},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := domain.WorkingQuestion(tt.q, tt.siblings)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantCode, got.Code)
			}
		})
	}
}

func TestSortByGrouping(t *testing.T) {
	qs := []domain.Question{
		{Code: "c", MultipleRowGroupingNumber: 2, Order: 1},
		{Code: "a", MultipleRowGroupingNumber: 1, Order: 2},
		{Code: "b", MultipleRowGroupingNumber: 1, Order: 1},
		{Code: "d", MultipleRowGroupingNumber: 2, Order: 1},
	}
	domain.SortByGrouping(qs)

	var codes []string
	for _, q := range qs {
		codes = append(codes, q.Code)
	}
	assert.Equal(t, []string{"b", "a", "c", "d"}, codes)
	assert.Equal(t, []int{1, 2}, domain.GroupingNumbers(qs))
}
