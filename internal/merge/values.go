package merge

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/dustin/go-humanize"
	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"
)

// money renders an amount as "$1,250" or "$1,250.50". Zero renders as "".
func money(v float64) string {
	if v == 0 {
		return ""
	}
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	if v == math.Trunc(v) {
		return sign + "$" + humanize.Comma(int64(v))
	}
	return sign + "$" + humanize.FormatFloat("#,###.##", v)
}

// address renders a postal address on up to three lines.
func address(a domain.Address) string {
	if a.IsZero() {
		return ""
	}
	var lines []string
	for _, l := range []string{a.Line1, a.Line2} {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	last := strings.TrimSpace(a.City)
	if a.State != "" {
		if last != "" {
			last += ", "
		}
		last += a.State
	}
	if a.Zip != "" {
		last = strings.TrimSpace(last + " " + a.Zip)
	}
	if last != "" {
		lines = append(lines, last)
	}
	return strings.Join(lines, "\n")
}

// oneLine joins a multi-line address with commas.
func oneLine(s string) string {
	return strings.ReplaceAll(s, "\n", ", ")
}

// Sanitizer strips markup from underwriter free text before it is written into
// a document. Entities are decoded after stripping so "&amp;" reads as "&".
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer returns a sanitizer that removes every tag.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Text strips tags and decodes entities.
func (s *Sanitizer) Text(in string) string {
	if !strings.ContainsAny(in, "<&") {
		return strings.TrimSpace(in)
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in)))
}

// Default renewal wording. Templates receive the policy as "policy" plus the
// convenience values "number", "prior" and "effective".
const (
	DefaultRenewalTemplate     = "This policy is a renewal of policy {{ prior }}."
	DefaultNewBusinessTemplate = ""
)

// RenewalText renders _PolicyRenewalText.
type RenewalText struct {
	renewal     *pongo2.Template
	newBusiness *pongo2.Template
}

// NewRenewalText compiles the renewal and new-business templates.
// Empty sources render as "".
func NewRenewalText(renewal, newBusiness string) (*RenewalText, error) {
	r := &RenewalText{}
	var err error
	if r.renewal, err = compile(renewal); err != nil {
		return nil, fmt.Errorf("renewal template: %w", err)
	}
	if r.newBusiness, err = compile(newBusiness); err != nil {
		return nil, fmt.Errorf("new business template: %w", err)
	}
	return r, nil
}

func compile(src string) (*pongo2.Template, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	return pongo2.FromString(src)
}

// Render picks the template by the policy's renewal flag.
func (r *RenewalText) Render(p *domain.Policy, effective string) (string, error) {
	tpl := r.newBusiness
	if p.IsRenewal {
		tpl = r.renewal
	}
	if tpl == nil {
		return "", nil
	}
	out, err := tpl.Execute(pongo2.Context{
		"policy":    p,
		"number":    p.Number(),
		"prior":     p.PriorPolicyNumber,
		"effective": effective,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
