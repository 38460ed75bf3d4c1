package domain

// StoredFile is one exported rendition of a generated form.
type StoredFile struct {
	Format   Format `json:"format"`
	Path     string `json:"path"`
	FileName string `json:"file_name"`
}

// FormResult is the per-form outcome of a batch.
type FormResult struct {
	FormID            string       `json:"form_id"`
	GeneratedFileName string       `json:"generated_file_name,omitempty"`
	PageCount         int          `json:"page_count"`
	Instances         int          `json:"instances,omitempty"`
	Files             []StoredFile `json:"files,omitempty"`
	Errors            []string     `json:"errors,omitempty"`
}

// Failed reports whether any error was recorded for the form.
func (r FormResult) Failed() bool { return len(r.Errors) > 0 }

// Carrier is reference data for an insurance carrier.
type Carrier struct {
	Code           string `json:"code" yaml:"code" mapstructure:"code"`
	Name           string `json:"name" yaml:"name" mapstructure:"name"`
	NAIC           string `json:"naic,omitempty" yaml:"naic,omitempty" mapstructure:"naic"`
	Signatory      string `json:"signatory,omitempty" yaml:"signatory,omitempty" mapstructure:"signatory"`
	SignatureImage string `json:"signature_image,omitempty" yaml:"signature_image,omitempty" mapstructure:"signature_image"`
}

// State maps a state code to its display abbreviation.
type State struct {
	Code         string `json:"code" yaml:"code" mapstructure:"code"`
	Abbreviation string `json:"abbreviation" yaml:"abbreviation" mapstructure:"abbreviation"`
	Name         string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
}

// ReferenceData is process-wide lookup data, loaded once and never refreshed.
type ReferenceData struct {
	Carriers []Carrier `json:"carriers" yaml:"carriers" mapstructure:"carriers"`
	States   []State   `json:"states" yaml:"states" mapstructure:"states"`
}

// Carrier finds a carrier by code.
func (r *ReferenceData) Carrier(code string) (Carrier, bool) {
	if r == nil {
		return Carrier{}, false
	}
	for _, c := range r.Carriers {
		if c.Code == code {
			return c, true
		}
	}
	return Carrier{}, false
}

// StateAbbreviation maps a state code to its abbreviation.
func (r *ReferenceData) StateAbbreviation(code string) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, s := range r.States {
		if s.Code == code {
			return s.Abbreviation, true
		}
	}
	return "", false
}
