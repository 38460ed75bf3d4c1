// Package validator lints template placeholders against the directive
// vocabulary before a template is put into service.
package validator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/docmerge/internal/directive"
	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/aretw0/docmerge/pkg/ports"
)

// Severity ranks an issue. Errors make a template unusable; warnings merge
// but probably not as intended.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding on one placeholder.
type Issue struct {
	Placeholder string   `json:"placeholder"`
	Identifier  string   `json:"identifier"`
	Severity    Severity `json:"severity"`
	Message     string   `json:"message"`
}

func (i Issue) String() string {
	if i.Identifier != ports.LogicalName(i.Placeholder) {
		return fmt.Sprintf("%s: %s (%s -> %s)", i.Severity, i.Message, i.Placeholder, i.Identifier)
	}
	return fmt.Sprintf("%s: %s (%s)", i.Severity, i.Message, i.Placeholder)
}

var todayArgs = map[string]bool{"": true, "short": true, "long": true, "iso": true}

// Lint inspects every live placeholder of doc. Identifiers go through fields
// first, as they do during a merge. Issues are sorted by placeholder name.
func Lint(doc ports.Document, fields domain.FieldMap) []Issue {
	var issues []Issue

	for _, p := range doc.Placeholders() {
		if p.Removed {
			continue
		}
		id := fields.Identifier(p.Identifier())
		report := func(sev Severity, format string, args ...any) {
			issues = append(issues, Issue{
				Placeholder: p.Name,
				Identifier:  id,
				Severity:    sev,
				Message:     fmt.Sprintf(format, args...),
			})
		}

		// 1. Syntax
		dir, err := directive.Parse(id)
		if err != nil {
			report(SeverityError, "%v", err)
			continue
		}
		if dir.Unknown {
			name, _, _ := strings.Cut(dir.Args, ".")
			report(SeverityWarning, "unknown directive %s resolves as a policy path", name)
			continue
		}

		// 2. Arguments
		switch dir.Kind {
		case directive.KindIf, directive.KindIfNot:
			if dir.Args == "" {
				report(SeverityError, "%s needs an expression", dir.Name())
			}
		case directive.KindQuestions:
			if len(strings.Split(dir.Args, ".")) < 3 {
				report(SeverityError, "%s needs <Line>.<ClassType>.<Code>", dir.Name())
			}
		case directive.KindToday:
			if !todayArgs[strings.ToLower(dir.Args)] {
				report(SeverityWarning, "%s format %q is not short, long or iso", dir.Name(), dir.Args)
			}
		case directive.KindIfText:
			if strings.TrimSpace(p.Text) == "" {
				report(SeverityError, "%s needs an expression in the control text", dir.Name())
			}
		}

		// 3. Structure
		if dir.Kind.IsList() {
			if _, err := doc.Table(p.Name); errors.Is(err, domain.ErrNotInTable) {
				report(SeverityError, "%s must sit in a table row", dir.Name())
			}
		}
	}

	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Placeholder < issues[j].Placeholder })
	return issues
}

// ValidateTemplate returns an error listing every error-severity issue, or
// nil when the template is usable.
func ValidateTemplate(doc ports.Document, fields domain.FieldMap) error {
	var msgs []string
	for _, i := range Lint(doc, fields) {
		if i.Severity == SeverityError {
			msgs = append(msgs, i.String())
		}
	}
	if len(msgs) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(msgs), strings.Join(msgs, "\n- "))
	}
	return nil
}
