package merge

import (
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/docmerge/internal/condition"
	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/spf13/cast"
)

func nonPositive(v string) bool {
	f, err := cast.ToFloat64E(strings.TrimSpace(v))
	return err == nil && f <= 0
}

// resolveDefault evaluates the identifier as a dotted policy path.
func (c *call) resolveDefault() (domain.PlaceholderOutcome, error) {
	path := c.dir.Args
	v := c.run.value(c.identifier, func() string {
		s, ok := c.lookup(path)
		if !ok {
			c.unresolved(path)
		}
		return s
	})
	return c.write(v)
}

// keep leaves the template text in place once every modifier passed.
func (c *call) keep() (domain.PlaceholderOutcome, error) {
	return c.replace(c.p.Text)
}

func (c *call) ifExpr() (domain.PlaceholderOutcome, error) {
	ok, err := c.run.conditions.Eval(c.identifier, c.dir.Args)
	if err != nil {
		return domain.OutcomeFailed, err
	}
	return c.choose(ok)
}

func (c *call) ifNotExpr() (domain.PlaceholderOutcome, error) {
	ok, err := c.run.conditions.Eval(c.identifier, c.dir.Args)
	if err != nil {
		return domain.OutcomeFailed, err
	}
	return c.choose(!ok)
}

// ifText reads "expr:true:false" from the control's own text.
func (c *call) ifText() (domain.PlaceholderOutcome, error) {
	parts := condition.Split(c.p.Text)
	expr := strings.TrimSpace(parts[0])
	ok, err := c.run.conditions.Eval(c.identifier+"\x00"+c.p.Text, expr)
	if err != nil {
		return domain.OutcomeFailed, err
	}
	if len(parts) == 1 {
		if !ok {
			return c.remove()
		}
		return c.replace("")
	}
	if ok {
		return c.branch(parts[1])
	}
	return c.branch(strings.Join(parts[2:], ":"))
}

func (c *call) ifBound() (domain.PlaceholderOutcome, error) {
	return c.choose(c.form.Policy.IsBound())
}

func (c *call) ifRenewal() (domain.PlaceholderOutcome, error) {
	return c.choose(c.form.Policy.IsRenewal)
}

// choose applies a condition to the control's text. Text in "true:false"
// form selects a branch; plain text is kept when the condition holds and
// removed otherwise.
func (c *call) choose(holds bool) (domain.PlaceholderOutcome, error) {
	whenTrue, whenFalse, twoWay := condition.Branches(c.p.Text)
	if twoWay {
		if holds {
			return c.branch(whenTrue)
		}
		return c.branch(whenFalse)
	}
	if !holds {
		return c.remove()
	}
	if strings.HasPrefix(whenTrue, "_") {
		return c.branch(whenTrue)
	}
	return c.replace(whenTrue)
}

// branch writes a selected branch, removing the placeholder when it is empty.
func (c *call) branch(b string) (domain.PlaceholderOutcome, error) {
	v := condition.ResolveBranch(b, c.lookup)
	if v == "" {
		return c.remove()
	}
	return c.replace(v)
}

// premium applies the adjusted-premium fallback chain of the policy or of one line.
func (c *call) premium() (domain.PlaceholderOutcome, error) {
	v := c.run.value(c.identifier, func() string {
		prem := c.form.Policy.Premium
		if c.dir.Args != "" {
			line, ok := c.line(c.dir.Args)
			if !ok {
				c.unresolved(c.dir.Args)
				return ""
			}
			prem = line.Premium
		}
		amount := prem.Effective()
		if prem.IsMinimum && prem.Minimum > amount {
			amount = prem.Minimum
		}
		if amount <= 0 {
			return ""
		}
		s := money(amount)
		if prem.IsMinimum {
			s += c.d.minSuffix
		}
		return s
	})
	return c.write(v)
}

func (c *call) today() (domain.PlaceholderOutcome, error) {
	v := c.run.value(c.identifier, func() string {
		now := c.d.now()
		switch strings.ToLower(c.dir.Args) {
		case "long":
			return now.Format(c.d.longDate)
		case "iso":
			return now.Format(isoDate)
		case "", "short":
		default:
			c.unresolved(c.dir.Args)
		}
		return c.d.resolver.Format(now)
	})
	return c.write(v)
}

// policyDuration is the term length in days.
func (c *call) policyDuration() (domain.PlaceholderOutcome, error) {
	v := c.run.value(c.identifier, func() string {
		p := c.form.Policy
		if p.EffectiveDate.IsZero() || p.ExpirationDate.IsZero() {
			c.unresolved("ExpirationDate")
			return ""
		}
		days := math.Round(p.ExpirationDate.Sub(p.EffectiveDate).Hours() / 24)
		return strconv.Itoa(int(days))
	})
	return c.write(v)
}

func (c *call) mailingAddress() (domain.PlaceholderOutcome, error) {
	v := c.run.value(c.identifier, func() string {
		p := c.form.Policy
		switch strings.ToLower(c.dir.Args) {
		case "", "insured":
			return address(c.displayAddress(p.Insured.MailingAddress))
		case "agency":
			return address(c.displayAddress(p.Agency.Address))
		}
		c.unresolved(c.dir.Args)
		return ""
	})
	return c.write(v)
}

// displayAddress swaps a state code for its abbreviation when reference data knows it.
func (c *call) displayAddress(a domain.Address) domain.Address {
	if abbr, ok := c.form.Reference.StateAbbreviation(a.State); ok {
		a.State = abbr
	}
	return a
}

func (c *call) policyRenewalText() (domain.PlaceholderOutcome, error) {
	p := c.form.Policy
	out, err := c.d.renewal.Render(p, c.d.resolver.Format(p.EffectiveDate))
	if err != nil {
		return domain.OutcomeFailed, err
	}
	return c.write(out)
}

// questions answers "<Line>.<Code>" or "<Line>.<ClassType>.<Code>" through
// the working-question rule.
func (c *call) questions() (domain.PlaceholderOutcome, error) {
	v := c.run.value(c.identifier, func() string {
		parts := strings.Split(c.dir.Args, ".")
		if len(parts) < 2 || len(parts) > 3 {
			c.unresolved(c.dir.Args)
			return ""
		}
		line, ok := c.line(parts[0])
		if !ok {
			c.unresolved(c.dir.Args)
			return ""
		}
		qs, code := line.Questions, parts[len(parts)-1]
		if len(parts) == 3 {
			class, ok := domain.ParseClassType(parts[1])
			if !ok {
				c.unresolved(c.dir.Args)
				return ""
			}
			unit, ok := line.RiskUnit(class)
			if !ok {
				c.unresolved(c.dir.Args)
				return ""
			}
			qs = unit.Questions
		}
		for _, q := range qs {
			if !strings.EqualFold(q.Code, code) {
				continue
			}
			if w, ok := domain.WorkingQuestion(q, qs); ok {
				return w.Answer
			}
			return ""
		}
		c.unresolved(c.dir.Args)
		return ""
	})
	return c.write(v)
}

func (c *call) imRisk() (domain.PlaceholderOutcome, error) {
	return c.risk(domain.LineInlandMarine, "")
}

func (c *call) xsRisk() (domain.PlaceholderOutcome, error) {
	return c.risk(domain.LineExcess, "")
}

func (c *call) specEventRisk() (domain.PlaceholderOutcome, error) {
	return c.risk(domain.LineSpecialEvent, domain.ClassEvent)
}

// risk resolves a path against the first risk unit of a line, preferring the
// given class when set. An empty path reads the unit's description.
func (c *call) risk(code domain.LineCode, prefer domain.ClassType) (domain.PlaceholderOutcome, error) {
	v := c.run.value(c.identifier, func() string {
		line, ok := c.form.Policy.Line(code)
		if !ok || len(line.RiskUnits) == 0 {
			c.unresolved(c.identifier)
			return ""
		}
		unit := &line.RiskUnits[0]
		if prefer != "" {
			if u, ok := line.RiskUnit(prefer); ok {
				unit = u
			}
		}
		path := c.dir.Args
		if path == "" {
			path = "Description"
		}
		s, ok := c.d.resolver.Resolve(unit, path)
		if !ok {
			c.unresolved(path)
		}
		return s
	})
	return c.write(v)
}

// line finds a line by code ("Gl") or segment ("GlLine").
func (c *call) line(name string) (*domain.LineOfBusiness, bool) {
	code, ok := domain.ParseLineSegment(name)
	if !ok {
		if code, ok = domain.ParseLineCode(name); !ok {
			return nil, false
		}
	}
	return c.form.Policy.Line(code)
}
