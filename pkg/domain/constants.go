package domain

import (
	"fmt"
	"strings"
)

// LineCode identifies a line of business on a policy.
// Paths address a line with a "<Code>Line" segment, e.g. "GlLine".
type LineCode string

const (
	LineGeneralLiability LineCode = "Gl"
	LineExcess           LineCode = "Xs"
	LineInlandMarine     LineCode = "Im"
	LineProperty         LineCode = "Pr"
	LineSpecialEvent     LineCode = "SpecEvent"
	LineAuto             LineCode = "Auto"
)

// LineCodes lists every known line in canonical order.
var LineCodes = []LineCode{
	LineGeneralLiability,
	LineExcess,
	LineInlandMarine,
	LineProperty,
	LineSpecialEvent,
	LineAuto,
}

// ParseLineCode matches a code case-insensitively ("gl", "GL" and "Gl" are equal).
func ParseLineCode(s string) (LineCode, bool) {
	for _, c := range LineCodes {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// ParseLineSegment recognises a path segment of the form "<Code>Line".
func ParseLineSegment(segment string) (LineCode, bool) {
	if len(segment) <= len("Line") || !strings.EqualFold(segment[len(segment)-4:], "line") {
		return "", false
	}
	return ParseLineCode(segment[:len(segment)-4])
}

// ClassType is the enumerated class of a risk unit.
type ClassType string

const (
	ClassBuilding      ClassType = "Building"
	ClassPremises      ClassType = "Premises"
	ClassLocation      ClassType = "Location"
	ClassEquipment     ClassType = "Equipment"
	ClassEvent         ClassType = "Event"
	ClassVehicle       ClassType = "Vehicle"
	ClassScheduledItem ClassType = "ScheduledItem"
	ClassContractor    ClassType = "Contractor"
)

var classTypes = []ClassType{
	ClassBuilding,
	ClassPremises,
	ClassLocation,
	ClassEquipment,
	ClassEvent,
	ClassVehicle,
	ClassScheduledItem,
	ClassContractor,
}

// ParseClassType matches a class type case-insensitively.
func ParseClassType(s string) (ClassType, bool) {
	for _, c := range classTypes {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// PolicyStatus is the lifecycle stage of a policy.
type PolicyStatus string

const (
	StatusQuote  PolicyStatus = "quote"
	StatusBound  PolicyStatus = "bound"
	StatusIssued PolicyStatus = "issued"
)

// Format is an output format supported by the word-processing collaborator.
type Format string

const (
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
	FormatPNG  Format = "png"
	FormatTIFF Format = "tiff"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatDOCX, FormatPDF, FormatPNG, FormatTIFF:
		return f, nil
	case "tif":
		return FormatTIFF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}
