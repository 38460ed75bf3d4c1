package domain

import (
	"sort"
	"strings"
)

// FieldMapping maps one template placeholder to a directive identifier.
type FieldMapping struct {
	Placeholder string `json:"placeholder" yaml:"placeholder" mapstructure:"placeholder"`
	Identifier  string `json:"identifier" yaml:"identifier" mapstructure:"identifier"`
}

// FieldMap translates placeholder names into identifiers. Regulatory forms use plain
// names ("NamedInsured") that a mapping table points at policy paths or directives.
type FieldMap struct {
	entries map[string]string
}

// NewFieldMap builds a FieldMap; later mappings win.
func NewFieldMap(mappings ...FieldMapping) FieldMap {
	m := FieldMap{entries: make(map[string]string, len(mappings))}
	for _, f := range mappings {
		m.Set(f.Placeholder, f.Identifier)
	}
	return m
}

// Set adds or replaces a mapping.
func (m *FieldMap) Set(placeholder, identifier string) {
	placeholder = strings.ToLower(strings.TrimSpace(placeholder))
	if placeholder == "" {
		return
	}
	if m.entries == nil {
		m.entries = make(map[string]string)
	}
	m.entries[placeholder] = strings.TrimSpace(identifier)
}

// Overlay returns a new map with custom entries applied on top of m.
func (m FieldMap) Overlay(custom FieldMap) FieldMap {
	out := FieldMap{entries: make(map[string]string, len(m.entries)+len(custom.entries))}
	for k, v := range m.entries {
		out.entries[k] = v
	}
	for k, v := range custom.entries {
		out.entries[k] = v
	}
	return out
}

// Identifier returns the mapped identifier for name, or name itself.
func (m FieldMap) Identifier(name string) string {
	if id, ok := m.entries[strings.ToLower(name)]; ok && id != "" {
		return id
	}
	return name
}

// Len returns the number of mappings.
func (m FieldMap) Len() int { return len(m.entries) }

// Mappings returns the entries sorted by placeholder name.
func (m FieldMap) Mappings() []FieldMapping {
	out := make([]FieldMapping, 0, len(m.entries))
	for k, v := range m.entries {
		out = append(out, FieldMapping{Placeholder: k, Identifier: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Placeholder < out[j].Placeholder })
	return out
}
