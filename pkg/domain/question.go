package domain

import (
	"sort"
	"strings"
)

// Question is an underwriting answer. Questions with a positive
// MultipleRowGroupingNumber form one repeating row per grouping number.
type Question struct {
	Code   string `json:"code" yaml:"code"`
	Text   string `json:"text,omitempty" yaml:"text,omitempty"`
	Answer string `json:"answer" yaml:"answer"`
	Order  int    `json:"order,omitempty" yaml:"order,omitempty"`

	// MergeFieldName names the template placeholder fed by this question. It may hold
	// several comma-separated aliases, one per row slot of a page instance.
	MergeFieldName string `json:"merge_field_name,omitempty" yaml:"merge_field_name,omitempty"`

	// ControllingQuestionCode points at the question this one may override.
	ControllingQuestionCode string `json:"controlling_question_code,omitempty" yaml:"controlling_question_code,omitempty"`

	MultipleRowGroupingNumber int `json:"multiple_row_grouping_number,omitempty" yaml:"multiple_row_grouping_number,omitempty"`
	MaximumMultipleRowCount   int `json:"maximum_multiple_row_count,omitempty" yaml:"maximum_multiple_row_count,omitempty"`

	AnswerCodeReplacement string `json:"answer_code_replacement,omitempty" yaml:"answer_code_replacement,omitempty"`
}

// Grouped reports whether the question belongs to a repeating row.
func (q Question) Grouped() bool {
	return q.MultipleRowGroupingNumber > 0 && strings.TrimSpace(q.MergeFieldName) != ""
}

// Aliases splits MergeFieldName into its comma-separated placeholder names.
func (q Question) Aliases() []string {
	var out []string
	for _, a := range strings.Split(q.MergeFieldName, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Alias returns the placeholder name serving the given 0-based row slot.
// A single name serves every slot.
func (q Question) Alias(item int) (string, bool) {
	aliases := q.Aliases()
	switch {
	case len(aliases) == 0:
		return "", false
	case len(aliases) == 1:
		return aliases[0], true
	case item < 0 || item >= len(aliases):
		return "", false
	}
	return aliases[item], true
}

// WorkingQuestion applies the sibling-override rule: a sibling in the same grouping whose
// ControllingQuestionCode points back at q replaces it, chosen first by a literal match of
// q's answer against the sibling's AnswerCodeReplacement, then by q's own
// AnswerCodeReplacement naming the sibling's code. A sibling with q's code is never chosen.
// The second result is false when there is nothing to display.
func WorkingQuestion(q Question, siblings []Question) (Question, bool) {
	var candidates []Question
	for _, s := range siblings {
		if s.MultipleRowGroupingNumber != q.MultipleRowGroupingNumber {
			continue
		}
		if strings.EqualFold(s.Code, q.Code) {
			continue
		}
		if strings.EqualFold(s.ControllingQuestionCode, q.Code) {
			candidates = append(candidates, s)
		}
	}

	answer := strings.TrimSpace(q.Answer)
	if answer != "" {
		for _, c := range candidates {
			if c.AnswerCodeReplacement != "" && strings.EqualFold(c.AnswerCodeReplacement, answer) {
				return c, true
			}
		}
	}
	if q.AnswerCodeReplacement != "" {
		for _, c := range candidates {
			if strings.EqualFold(c.Code, q.AnswerCodeReplacement) {
				return c, true
			}
		}
	}

	if answer == "" {
		return Question{}, false
	}
	return q, true
}

// SortByGrouping orders questions by grouping number, then Order, keeping input order for ties.
func SortByGrouping(qs []Question) {
	sort.SliceStable(qs, func(i, j int) bool {
		if qs[i].MultipleRowGroupingNumber != qs[j].MultipleRowGroupingNumber {
			return qs[i].MultipleRowGroupingNumber < qs[j].MultipleRowGroupingNumber
		}
		return qs[i].Order < qs[j].Order
	})
}

// GroupingNumbers returns the distinct grouping numbers of qs in first-seen order.
func GroupingNumbers(qs []Question) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, q := range qs {
		if _, ok := seen[q.MultipleRowGroupingNumber]; ok {
			continue
		}
		seen[q.MultipleRowGroupingNumber] = struct{}{}
		out = append(out, q.MultipleRowGroupingNumber)
	}
	return out
}
