package domain

import (
	"errors"
	"fmt"
)

// ErrPlaceholderNotFound is returned when a document has no placeholder with the requested name.
var ErrPlaceholderNotFound = errors.New("placeholder not found")

// ErrAlreadyRemoved is returned when a placeholder is removed a second time.
var ErrAlreadyRemoved = errors.New("placeholder already removed")

// ErrNotInTable is returned when a placeholder that must live inside a table does not.
var ErrNotInTable = errors.New("placeholder is not inside a table")

// ErrUnknownFormat is returned for output formats the document engine cannot produce.
var ErrUnknownFormat = errors.New("unknown output format")

// ErrFormNotFound is returned when a batch names a form the policy does not carry.
var ErrFormNotFound = errors.New("form not found on policy")

// ErrFormatterNotFound is returned when no formatter is registered for a form.
var ErrFormatterNotFound = errors.New("formatter not found")

// ErrFileNotFound is returned by storage when no output exists at a path.
var ErrFileNotFound = errors.New("stored file not found")

// TemplateStructureError is fatal for the form being generated: the template does not
// have the shape a directive requires (e.g. a list placeholder outside its table).
type TemplateStructureError struct {
	FormID      string
	Placeholder string
	Reason      string
	Err         error
}

func (e *TemplateStructureError) Error() string {
	msg := fmt.Sprintf("template structure: placeholder %q: %s", e.Placeholder, e.Reason)
	if e.FormID != "" {
		msg = fmt.Sprintf("form %s: %s", e.FormID, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TemplateStructureError) Unwrap() error { return e.Err }

// DataResolutionError records a path or question that could not be resolved.
// It is always recovered: the placeholder is emptied or removed.
type DataResolutionError struct {
	Identifier string
	Path       string
}

func (e *DataResolutionError) Error() string {
	return fmt.Sprintf("unresolved path %q (identifier %q)", e.Path, e.Identifier)
}

// FormatterInvocationError records a per-form formatter that failed.
// The raw value is written instead.
type FormatterInvocationError struct {
	Formatter string
	Err       error
}

func (e *FormatterInvocationError) Error() string {
	return fmt.Sprintf("formatter %s failed: %v", e.Formatter, e.Err)
}

func (e *FormatterInvocationError) Unwrap() error { return e.Err }

// ReplicationCountError records an instance count that could not be computed.
// The form falls back to a single instance.
type ReplicationCountError struct {
	FormID string
	Reason string
}

func (e *ReplicationCountError) Error() string {
	return fmt.Sprintf("form %s: cannot compute instance count: %s", e.FormID, e.Reason)
}

// ConditionError is fatal for a single control: an ordering comparison received
// an operand that is not numeric, or the expression is malformed.
type ConditionError struct {
	Expression string
	Reason     string
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("condition %q: %s", e.Expression, e.Reason)
}
