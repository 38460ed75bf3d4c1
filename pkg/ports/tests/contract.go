package tests

import (
	"context"
	"testing"

	"github.com/aretw0/docmerge/pkg/ports"
)

// FieldMapSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.FieldMapSource.
// defaults is the expected default mapping; custom maps a form ID to its expected overrides.
func FieldMapSourceContractTest(t *testing.T, src ports.FieldMapSource, defaults map[string]string, custom map[string]map[string]string) {
	t.Helper()
	ctx := context.Background()

	// 1. Default fields
	t.Run("DefaultFields", func(t *testing.T) {
		fm, err := src.DefaultFields(ctx)
		if err != nil {
			t.Fatalf("unexpected error loading default fields: %v", err)
		}
		if fm.Len() != len(defaults) {
			t.Errorf("default map size mismatch. got %d, want %d", fm.Len(), len(defaults))
		}
		for placeholder, want := range defaults {
			if got := fm.Identifier(placeholder); got != want {
				t.Errorf("default mapping for %s. got %q, want %q", placeholder, got, want)
			}
		}
	})

	// 2. Custom fields per form
	t.Run("CustomFields", func(t *testing.T) {
		for formID, mappings := range custom {
			fm, err := src.CustomFields(ctx, formID)
			if err != nil {
				t.Fatalf("unexpected error loading custom fields for %s: %v", formID, err)
			}
			for placeholder, want := range mappings {
				if got := fm.Identifier(placeholder); got != want {
					t.Errorf("custom mapping for %s/%s. got %q, want %q", formID, placeholder, got, want)
				}
			}
		}
	})

	// 3. Form without overrides
	t.Run("CustomFields_None", func(t *testing.T) {
		fm, err := src.CustomFields(ctx, "form-without-overrides")
		if err != nil {
			t.Fatalf("expected no error for form without overrides, got %v", err)
		}
		if fm.Len() != 0 {
			t.Errorf("expected empty map, got %d entries", fm.Len())
		}
	})
}
