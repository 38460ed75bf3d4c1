// Package directive parses placeholder identifiers into a closed set of
// directives.
//
// An identifier is a chain of dot-separated segments. Leading modifier
// segments (_IfQuote, _KeepFirst, _KeepLast, _EffBefore.<yyyymmdd>,
// _EffAfter.<yyyymmdd>) are collected in order; the first segment that is not
// a modifier names the terminal directive and everything after it is the
// terminal's argument. Identifiers that do not start with "_" are plain policy
// paths.
package directive

import (
	"fmt"
	"strings"
	"time"
)

// Kind is a terminal directive.
type Kind int

const (
	KindDefault Kind = iota
	KindKeep
	KindIf
	KindIfNot
	KindIfText
	KindIfBound
	KindIfRenewal
	KindClauses
	KindCoverageOptions
	KindCoverages
	KindDocuments
	KindSupplementalDocuments
	KindNonSupplementalDocuments
	KindExposures
	KindImItems
	KindImRisk
	KindLayers
	KindList
	KindMailingAddress
	KindPolicyDuration
	KindPolicyRenewalText
	KindPremium
	KindProperty
	KindQuestions
	KindTaxes
	KindToday
	KindUnderlyingCoverage
	KindWarranties
	KindXsRisk
	KindSpecEventRisk

	kindCount
)

// kindNames holds the identifier spelling of each terminal. KindDefault and
// KindKeep have no spelling.
var kindNames = [kindCount]string{
	KindDefault:                  "",
	KindKeep:                     "",
	KindIf:                       "_If",
	KindIfNot:                    "_IfNot",
	KindIfText:                   "_IfText",
	KindIfBound:                  "_IfBound",
	KindIfRenewal:                "_IfRenewal",
	KindClauses:                  "_Clauses",
	KindCoverageOptions:          "_CoverageOptions",
	KindCoverages:                "_Coverages",
	KindDocuments:                "_Documents",
	KindSupplementalDocuments:    "_SupplementalDocuments",
	KindNonSupplementalDocuments: "_NonSupplementalDocuments",
	KindExposures:                "_Exposures",
	KindImItems:                  "_ImItems",
	KindImRisk:                   "_ImRisk",
	KindLayers:                   "_Layers",
	KindList:                     "_List",
	KindMailingAddress:           "_MailingAddress",
	KindPolicyDuration:           "_PolicyDuration",
	KindPolicyRenewalText:        "_PolicyRenewalText",
	KindPremium:                  "_Premium",
	KindProperty:                 "_Property",
	KindQuestions:                "_Questions",
	KindTaxes:                    "_Taxes",
	KindToday:                    "_Today",
	KindUnderlyingCoverage:       "_UnderlyingCoverage",
	KindWarranties:               "_Warranties",
	KindXsRisk:                   "_xsRisk",
	KindSpecEventRisk:            "_specEventRisk",
}

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, kindCount)
	for k, name := range kindNames {
		if name != "" {
			m[strings.ToLower(name)] = Kind(k)
		}
	}
	return m
}()

// Kinds returns every terminal kind.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := KindDefault; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

func (k Kind) String() string {
	switch {
	case k == KindDefault:
		return "default"
	case k == KindKeep:
		return "keep"
	case k > KindKeep && k < kindCount:
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsList reports whether the terminal fills a table row per item.
func (k Kind) IsList() bool {
	switch k {
	case KindClauses, KindCoverageOptions, KindCoverages, KindDocuments,
		KindSupplementalDocuments, KindNonSupplementalDocuments, KindExposures,
		KindImItems, KindLayers, KindList, KindProperty, KindTaxes,
		KindUnderlyingCoverage, KindWarranties:
		return true
	}
	return false
}

// Names lists the spelled terminal and modifier names, terminals first.
func Names() []string {
	var out []string
	for _, n := range kindNames {
		if n != "" {
			out = append(out, n)
		}
	}
	for _, n := range modifierNames {
		out = append(out, n)
	}
	return out
}

// ModifierKind is a directive that acts on the placeholder and then hands the
// rest of the identifier on.
type ModifierKind int

const (
	ModIfQuote ModifierKind = iota
	ModKeepFirst
	ModKeepLast
	ModEffBefore
	ModEffAfter

	modifierCount
)

var modifierNames = [modifierCount]string{
	ModIfQuote:   "_IfQuote",
	ModKeepFirst: "_KeepFirst",
	ModKeepLast:  "_KeepLast",
	ModEffBefore: "_EffBefore",
	ModEffAfter:  "_EffAfter",
}

func (m ModifierKind) String() string {
	if m >= 0 && m < modifierCount {
		return modifierNames[m]
	}
	return fmt.Sprintf("ModifierKind(%d)", int(m))
}

// Modifier is one parsed modifier. Cutoff is set for _EffBefore and _EffAfter.
type Modifier struct {
	Kind   ModifierKind
	Cutoff time.Time
}

// CutoffLayout is the date layout of _EffBefore and _EffAfter arguments.
const CutoffLayout = "20060102"

// Directive is a parsed identifier.
type Directive struct {
	// Raw is the identifier as written.
	Raw       string
	Modifiers []Modifier
	Kind      Kind
	// Args is the text after the terminal name: a path, an expression or a selector.
	Args string
	// Unknown is set when the terminal segment looks like a directive ("_X") but
	// is not part of the vocabulary. Such identifiers resolve as plain paths.
	Unknown bool
}

// Name returns the terminal's spelling, or "" for plain paths.
func (d Directive) Name() string {
	if d.Kind > KindKeep && d.Kind < kindCount {
		return kindNames[d.Kind]
	}
	return ""
}

// Parse parses an identifier. It fails only on malformed modifier arguments.
func Parse(identifier string) (Directive, error) {
	d := Directive{Raw: identifier}
	rest := strings.TrimSpace(identifier)

	for {
		name, args := cut(rest)
		mod, ok := modifierByName(name)
		if !ok {
			break
		}
		m := Modifier{Kind: mod}
		if mod == ModEffBefore || mod == ModEffAfter {
			var date string
			date, args = cut(args)
			t, err := time.Parse(CutoffLayout, date)
			if err != nil {
				return d, fmt.Errorf("directive %s: invalid cutoff %q: expected yyyymmdd", name, date)
			}
			m.Cutoff = t
		}
		d.Modifiers = append(d.Modifiers, m)
		rest = args
	}

	if rest == "" {
		if len(d.Modifiers) == 0 {
			return d, fmt.Errorf("empty identifier")
		}
		d.Kind = KindKeep
		return d, nil
	}

	name, args := cut(rest)
	if !strings.HasPrefix(name, "_") {
		d.Kind = KindDefault
		d.Args = rest
		return d, nil
	}
	if k, ok := kindByName[strings.ToLower(name)]; ok {
		d.Kind = k
		d.Args = args
		return d, nil
	}
	d.Kind = KindDefault
	d.Args = rest
	d.Unknown = true
	return d, nil
}

func cut(s string) (head, tail string) {
	head, tail, _ = strings.Cut(s, ".")
	return strings.TrimSpace(head), strings.TrimSpace(tail)
}

func modifierByName(name string) (ModifierKind, bool) {
	for i, n := range modifierNames {
		if strings.EqualFold(n, name) {
			return ModifierKind(i), true
		}
	}
	return 0, false
}
