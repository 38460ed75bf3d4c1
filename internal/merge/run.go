package merge

import (
	"sort"
	"strings"

	"github.com/aretw0/docmerge/internal/condition"
	"github.com/aretw0/docmerge/pkg/domain"
)

// Run holds the mutable state of one form's generation: the value memo, the
// condition memo, the placeholders left for the replicator and the errors
// collected so far. A Run is created per form and never shared.
type Run struct {
	FormID string

	values     map[string]string
	conditions *condition.Evaluator
	deferred   map[string]struct{}
	errs       []error
	unresolved []*domain.DataResolutionError
}

// NewRun creates an empty run whose conditions resolve paths through lookup.
func NewRun(formID string, lookup condition.Lookup) *Run {
	return &Run{
		FormID:     formID,
		values:     make(map[string]string),
		conditions: condition.New(lookup),
		deferred:   make(map[string]struct{}),
	}
}

// value returns the memoized value for identifier, computing it on first use.
// The key is the identifier as written, lower-cased.
func (r *Run) value(identifier string, compute func() string) string {
	key := strings.ToLower(identifier)
	if v, ok := r.values[key]; ok {
		return v
	}
	v := compute()
	r.values[key] = v
	return v
}

// Value returns a memoized value and whether it was computed in this run.
func (r *Run) Value(identifier string) (string, bool) {
	v, ok := r.values[strings.ToLower(identifier)]
	return v, ok
}

func (r *Run) deferName(name string) {
	r.deferred[strings.ToLower(name)] = struct{}{}
}

// Deferred lists placeholder names left for group processing, sorted.
func (r *Run) Deferred() []string {
	out := make([]string, 0, len(r.deferred))
	for n := range r.deferred {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// AddError records a non-fatal error against the form.
func (r *Run) AddError(err error) {
	if err != nil {
		r.errs = append(r.errs, err)
	}
}

// Errors returns the errors recorded so far.
func (r *Run) Errors() []error { return r.errs }

func (r *Run) unresolvedPath(identifier, path string) {
	r.unresolved = append(r.unresolved, &domain.DataResolutionError{Identifier: identifier, Path: path})
}

// Unresolved lists the paths that resolved to nothing. They are recovered
// silently and kept only for diagnostics.
func (r *Run) Unresolved() []*domain.DataResolutionError { return r.unresolved }
