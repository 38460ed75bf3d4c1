package domain

import (
	"strings"
	"time"
)

// Policy is the read-only snapshot a generation pass merges against.
// Nothing in the engine mutates it.
type Policy struct {
	PolicyNumber      string       `json:"policy_number" yaml:"policy_number"`
	QuoteNumber       string       `json:"quote_number" yaml:"quote_number"`
	Status            PolicyStatus `json:"status" yaml:"status"`
	IsRenewal         bool         `json:"is_renewal" yaml:"is_renewal"`
	PriorPolicyNumber string       `json:"prior_policy_number,omitempty" yaml:"prior_policy_number,omitempty"`
	EffectiveDate     time.Time    `json:"effective_date" yaml:"effective_date"`
	ExpirationDate    time.Time    `json:"expiration_date" yaml:"expiration_date"`

	// Carrier is the carrier code, resolved against reference data for display.
	Carrier string  `json:"carrier" yaml:"carrier"`
	Insured Insured `json:"insured" yaml:"insured"`
	Agency  Agency  `json:"agency" yaml:"agency"`
	Premium Premium `json:"premium" yaml:"premium"`

	Lines          []LineOfBusiness `json:"lines" yaml:"lines"`
	Documents      []Document       `json:"documents" yaml:"documents"`
	Subjectivities []Subjectivity   `json:"subjectivities,omitempty" yaml:"subjectivities,omitempty"`
	Warranties     []Warranty       `json:"warranties,omitempty" yaml:"warranties,omitempty"`
	Taxes          []Tax            `json:"taxes,omitempty" yaml:"taxes,omitempty"`
	Questions      []Question       `json:"questions,omitempty" yaml:"questions,omitempty"`
}

// IsQuote reports whether the policy has not been bound yet.
func (p *Policy) IsQuote() bool {
	return p.Status == "" || p.Status == StatusQuote
}

// IsBound reports whether the policy is bound or issued.
func (p *Policy) IsBound() bool {
	return p.Status == StatusBound || p.Status == StatusIssued
}

// Number returns the policy number, or the quote number while quoting.
func (p *Policy) Number() string {
	if p.PolicyNumber != "" {
		return p.PolicyNumber
	}
	return p.QuoteNumber
}

// Line returns the line of business with the given code.
func (p *Policy) Line(code LineCode) (*LineOfBusiness, bool) {
	for i := range p.Lines {
		if p.Lines[i].Code == code {
			return &p.Lines[i], true
		}
	}
	return nil, false
}

// Form returns the attached document matching formID and quantity order.
// A zero quantity order matches the first attachment of the form.
func (p *Policy) Form(formID string, quantityOrder int) (*Document, bool) {
	for i := range p.Documents {
		d := &p.Documents[i]
		if !strings.EqualFold(d.FormID, formID) {
			continue
		}
		if quantityOrder == 0 || d.QuantityOrder == quantityOrder {
			return d, true
		}
	}
	return nil, false
}

// Insured is the named insured.
type Insured struct {
	Name           string  `json:"name" yaml:"name"`
	DBA            string  `json:"dba,omitempty" yaml:"dba,omitempty"`
	MailingAddress Address `json:"mailing_address" yaml:"mailing_address"`
}

// Agency is the producing agency.
type Agency struct {
	Name    string  `json:"name" yaml:"name"`
	Code    string  `json:"code" yaml:"code"`
	Address Address `json:"address" yaml:"address"`
}

// Address is a postal address.
type Address struct {
	Line1 string `json:"line1" yaml:"line1"`
	Line2 string `json:"line2,omitempty" yaml:"line2,omitempty"`
	City  string `json:"city" yaml:"city"`
	State string `json:"state" yaml:"state"`
	Zip   string `json:"zip" yaml:"zip"`
}

// IsZero reports whether no address line, city or zip is set.
func (a Address) IsZero() bool {
	return a.Line1 == "" && a.Line2 == "" && a.City == "" && a.Zip == ""
}

// Premium carries the premium figures in fallback order.
// Nil adjusted amounts mean "not adjusted".
type Premium struct {
	AgentAdjusted       *float64 `json:"agent_adjusted,omitempty" yaml:"agent_adjusted,omitempty"`
	UnderwriterAdjusted *float64 `json:"underwriter_adjusted,omitempty" yaml:"underwriter_adjusted,omitempty"`
	Rollup              float64  `json:"rollup" yaml:"rollup"`
	Minimum             float64  `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	IsMinimum           bool     `json:"is_minimum,omitempty" yaml:"is_minimum,omitempty"`
}

// Effective applies the fallback chain agent-adjusted, underwriter-adjusted, rollup.
func (p Premium) Effective() float64 {
	if p.AgentAdjusted != nil && *p.AgentAdjusted > 0 {
		return *p.AgentAdjusted
	}
	if p.UnderwriterAdjusted != nil && *p.UnderwriterAdjusted > 0 {
		return *p.UnderwriterAdjusted
	}
	return p.Rollup
}

// LineOfBusiness is one line (GL, XS, IM...) with its own sub-graph.
type LineOfBusiness struct {
	Code                LineCode             `json:"code" yaml:"code"`
	Premium             Premium              `json:"premium" yaml:"premium"`
	Coverages           []Coverage           `json:"coverages,omitempty" yaml:"coverages,omitempty"`
	Clauses             []Clause             `json:"clauses,omitempty" yaml:"clauses,omitempty"`
	RiskUnits           []RiskUnit           `json:"risk_units,omitempty" yaml:"risk_units,omitempty"`
	Layers              []Layer              `json:"layers,omitempty" yaml:"layers,omitempty"`
	UnderlyingCoverages []UnderlyingCoverage `json:"underlying_coverages,omitempty" yaml:"underlying_coverages,omitempty"`
	Questions           []Question           `json:"questions,omitempty" yaml:"questions,omitempty"`
}

// RiskUnit returns the first risk unit of the given class.
func (l *LineOfBusiness) RiskUnit(class ClassType) (*RiskUnit, bool) {
	for i := range l.RiskUnits {
		if l.RiskUnits[i].ClassType == class {
			return &l.RiskUnits[i], true
		}
	}
	return nil, false
}

// Coverage is a coverage part with optional selectable options.
type Coverage struct {
	Code       string           `json:"code" yaml:"code"`
	Name       string           `json:"name" yaml:"name"`
	Limit      float64          `json:"limit,omitempty" yaml:"limit,omitempty"`
	Deductible float64          `json:"deductible,omitempty" yaml:"deductible,omitempty"`
	Premium    float64          `json:"premium,omitempty" yaml:"premium,omitempty"`
	Order      int              `json:"order" yaml:"order"`
	Included   bool             `json:"included" yaml:"included"`
	Options    []CoverageOption `json:"options,omitempty" yaml:"options,omitempty"`
}

// CoverageOption is a selectable option on a coverage.
type CoverageOption struct {
	Code     string `json:"code" yaml:"code"`
	Name     string `json:"name" yaml:"name"`
	Value    string `json:"value,omitempty" yaml:"value,omitempty"`
	Order    int    `json:"order" yaml:"order"`
	Selected bool   `json:"selected" yaml:"selected"`
}

// Clause is a manuscript or filed clause attached to a line.
type Clause struct {
	Code     string `json:"code" yaml:"code"`
	Title    string `json:"title" yaml:"title"`
	Text     string `json:"text,omitempty" yaml:"text,omitempty"`
	Order    int    `json:"order" yaml:"order"`
	Selected bool   `json:"selected" yaml:"selected"`
}

// RiskUnit is an insured item (building, event, equipment...).
type RiskUnit struct {
	ID          string     `json:"id" yaml:"id"`
	ClassType   ClassType  `json:"class_type" yaml:"class_type"`
	Description string     `json:"description" yaml:"description"`
	Address     Address    `json:"address,omitempty" yaml:"address,omitempty"`
	Value       float64    `json:"value,omitempty" yaml:"value,omitempty"`
	Premium     float64    `json:"premium,omitempty" yaml:"premium,omitempty"`
	Questions   []Question `json:"questions,omitempty" yaml:"questions,omitempty"`
	Exposures   []Exposure `json:"exposures,omitempty" yaml:"exposures,omitempty"`
}

// Exposure is a rating basis on a risk unit.
type Exposure struct {
	Basis  string  `json:"basis" yaml:"basis"`
	Amount float64 `json:"amount" yaml:"amount"`
	Rate   float64 `json:"rate,omitempty" yaml:"rate,omitempty"`
	Order  int     `json:"order" yaml:"order"`
}

// Layer is an excess layer in the tower.
type Layer struct {
	Number     int     `json:"number" yaml:"number"`
	Carrier    string  `json:"carrier" yaml:"carrier"`
	Limit      float64 `json:"limit" yaml:"limit"`
	Attachment float64 `json:"attachment" yaml:"attachment"`
	Premium    float64 `json:"premium,omitempty" yaml:"premium,omitempty"`
}

// UnderlyingCoverage is a scheduled underlying policy of an excess line.
type UnderlyingCoverage struct {
	Type         string `json:"type" yaml:"type"`
	Carrier      string `json:"carrier" yaml:"carrier"`
	PolicyNumber string `json:"policy_number" yaml:"policy_number"`
	Limits       string `json:"limits" yaml:"limits"`
	Order        int    `json:"order" yaml:"order"`
}

// Document is a form attached to the policy. The same form may be attached
// several times, distinguished by QuantityOrder.
type Document struct {
	FormID         string     `json:"form_id" yaml:"form_id"`
	FormNumber     string     `json:"form_number" yaml:"form_number"`
	Edition        string     `json:"edition,omitempty" yaml:"edition,omitempty"` // MMYY
	Title          string     `json:"title" yaml:"title"`
	URL            string     `json:"url,omitempty" yaml:"url,omitempty"`
	Order          int        `json:"order" yaml:"order"`
	QuantityOrder  int        `json:"quantity_order,omitempty" yaml:"quantity_order,omitempty"`
	IsSupplemental bool       `json:"is_supplemental,omitempty" yaml:"is_supplemental,omitempty"`
	Hidden         bool       `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Questions      []Question `json:"questions,omitempty" yaml:"questions,omitempty"`
}

// Subjectivity is a condition the insured must satisfy before binding.
type Subjectivity struct {
	Text  string `json:"text" yaml:"text"`
	Order int    `json:"order" yaml:"order"`
}

// Warranty is a warranty statement on the policy.
type Warranty struct {
	Text  string `json:"text" yaml:"text"`
	Order int    `json:"order" yaml:"order"`
}

// Tax is a tax or surcharge line.
type Tax struct {
	Name   string  `json:"name" yaml:"name"`
	State  string  `json:"state,omitempty" yaml:"state,omitempty"`
	Amount float64 `json:"amount" yaml:"amount"`
}
