// Package formatters holds per-form value formatters for replicated
// question rows.
//
// A formatter is registered under a form number and an optional MMYY
// edition. Lookups try the edition-specific key first, then the form-wide
// key, and cache the outcome (hits and misses) for the process lifetime.
package formatters

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/aretw0/docmerge/pkg/domain"
)

// Input is the value about to be written into one replicated placeholder.
type Input struct {
	FormNumber string
	Question   domain.Question
	Value      string
	// Instance is the 0-based document instance, Item the 0-based row slot within it.
	Instance int
	Item     int
}

// Formatter turns a working question's answer into display text.
type Formatter func(ctx context.Context, in Input) (string, error)

// Registry maps (form number, edition) to formatters.
type Registry struct {
	mu         sync.RWMutex
	formatters map[string]Formatter
	cache      map[string]entry
}

type entry struct {
	name string
	fn   Formatter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		formatters: make(map[string]Formatter),
		cache:      make(map[string]entry),
	}
}

// Key builds the registry key "Format_<form>[_<edition>]". Form numbers are
// reduced to letters and digits, so "CG 20 10" and "CG2010" share a key.
func Key(formNumber, edition string) string {
	k := "Format_" + compact(formNumber)
	if e := compact(edition); e != "" {
		k += "_" + e
	}
	return k
}

func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return -1
	}, s)
}

// Register adds a formatter. An empty edition registers the form-wide formatter.
// Registering replaces any previous formatter for the key and resets the lookup cache.
func (r *Registry) Register(formNumber, edition string, fn Formatter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formatters[Key(formNumber, edition)] = fn
	r.cache = make(map[string]entry)
}

// Lookup returns the formatter for a form and edition and the key it was found under.
func (r *Registry) Lookup(formNumber, edition string) (Formatter, string, bool) {
	if r == nil {
		return nil, "", false
	}
	ck := Key(formNumber, edition)

	r.mu.RLock()
	e, ok := r.cache[ck]
	r.mu.RUnlock()
	if ok {
		return e.fn, e.name, e.fn != nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.cache[ck]; ok {
		return e.fn, e.name, e.fn != nil
	}
	for _, k := range []string{ck, Key(formNumber, "")} {
		if fn, ok := r.formatters[k]; ok {
			e = entry{name: k, fn: fn}
			break
		}
	}
	r.cache[ck] = e
	return e.fn, e.name, e.fn != nil
}

// Format applies the registered formatter. Without one, in.Value is
// returned unchanged; a failing formatter yields the raw value and a
// *domain.FormatterInvocationError.
func (r *Registry) Format(ctx context.Context, edition string, in Input) (string, error) {
	fn, name, ok := r.Lookup(in.FormNumber, edition)
	if !ok {
		return in.Value, nil
	}
	out, err := invoke(ctx, fn, in)
	if err != nil {
		return in.Value, &domain.FormatterInvocationError{Formatter: name, Err: err}
	}
	return out, nil
}

func invoke(ctx context.Context, fn Formatter, in Input) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn(ctx, in)
}

// Names lists the registered keys.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.formatters))
	for k := range r.formatters {
		out = append(out, k)
	}
	return out
}
