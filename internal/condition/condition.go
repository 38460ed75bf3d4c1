// Package condition evaluates the boolean expressions carried by conditional
// placeholders.
//
// A term is an optional leading "!" followed by either a bare operand (a truthy
// test) or a comparison "left<op>right" where op is the first "=", ">" or "<"
// found anywhere in the term. A "!" directly before the operator negates the
// comparison too, so "!5>3", "5!>3" and "NOT(5>3)" are the same test.
// Terms join with "|" into OR-groups, and OR-groups join with "&". Each
// OR-group is tested on its own: a group's result does not narrow which terms
// of the next group may satisfy it.
//
// The left operand is a number literal or a policy path; the right operand is
// always a literal. "=null" tests for absence.
package condition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/spf13/cast"
)

// Lookup resolves a policy path to its string value. ok is false when the path
// does not resolve.
type Lookup func(path string) (value string, ok bool)

// Evaluator evaluates expressions against one lookup and memoizes results per key.
// It belongs to a single generation run and is not safe for concurrent use.
type Evaluator struct {
	lookup Lookup
	memo   map[string]bool
}

// New creates an Evaluator with an empty memo.
func New(lookup Lookup) *Evaluator {
	return &Evaluator{lookup: lookup, memo: make(map[string]bool)}
}

// Eval evaluates expr, returning the memoized result when key was seen before.
// Failed evaluations are not memoized.
func (e *Evaluator) Eval(key, expr string) (bool, error) {
	if v, ok := e.memo[key]; ok {
		return v, nil
	}
	v, err := Evaluate(expr, e.lookup)
	if err != nil {
		return false, err
	}
	e.memo[key] = v
	return v, nil
}

// Memoized reports how many results are cached.
func (e *Evaluator) Memoized() int { return len(e.memo) }

// Evaluate evaluates expr without memoization.
func Evaluate(expr string, lookup Lookup) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return false, &domain.ConditionError{Expression: expr, Reason: "empty expression"}
	}

	// An expression holds while every &-group holds. A group holds on its first
	// true term; the terms after it are not evaluated.
	for _, group := range strings.Split(expr, "&") {
		held := false
		for _, term := range strings.Split(group, "|") {
			ok, err := evalTerm(term, lookup)
			if err != nil {
				return false, err
			}
			if ok {
				held = true
				break
			}
		}
		if !held {
			return false, nil
		}
	}
	return true, nil
}

func evalTerm(raw string, lookup Lookup) (bool, error) {
	term := strings.TrimSpace(raw)
	negate := false
	if strings.HasPrefix(term, "!") {
		negate = true
		term = strings.TrimSpace(term[1:])
	}
	if term == "" {
		return false, &domain.ConditionError{Expression: raw, Reason: "empty term"}
	}

	i := strings.IndexAny(term, "=><")
	if i < 0 {
		v, ok := operand(term, lookup)
		return truthy(v, ok) != negate, nil
	}

	op := term[i]
	left := strings.TrimSpace(term[:i])
	right := unquote(strings.TrimSpace(term[i+1:]))
	if strings.HasSuffix(left, "!") {
		negate = !negate
		left = strings.TrimSpace(left[:len(left)-1])
	}
	if left == "" {
		return false, &domain.ConditionError{Expression: raw, Reason: "missing left operand"}
	}

	v, ok := operand(left, lookup)

	var result bool
	switch op {
	case '=':
		result = equal(v, ok, right)
	case '>', '<':
		l, err := number(v)
		if err != nil {
			return false, &domain.ConditionError{Expression: raw, Reason: fmt.Sprintf("left operand %q is not numeric", v)}
		}
		r, err := number(right)
		if err != nil {
			return false, &domain.ConditionError{Expression: raw, Reason: fmt.Sprintf("right operand %q is not numeric", right)}
		}
		if op == '>' {
			result = l > r
		} else {
			result = l < r
		}
	}
	return result != negate, nil
}

// operand resolves a left operand: numbers are literals, anything else is a path.
func operand(s string, lookup Lookup) (string, bool) {
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return s, true
	}
	if lookup == nil {
		return "", false
	}
	return lookup(s)
}

func equal(v string, ok bool, right string) bool {
	if strings.EqualFold(right, "null") {
		return !ok || v == ""
	}
	if !ok {
		return false
	}
	l, lerr := number(v)
	r, rerr := number(right)
	if lerr == nil && rerr == nil {
		return l == r
	}
	return strings.EqualFold(strings.TrimSpace(v), right)
}

func truthy(v string, ok bool) bool {
	v = strings.TrimSpace(v)
	if !ok || v == "" || strings.EqualFold(v, "false") || strings.EqualFold(v, "no") {
		return false
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f != 0
	}
	return true
}

func number(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	return cast.ToFloat64E(s)
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
