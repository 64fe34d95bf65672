package domain

import "strings"

// DocType is the kind of medical document a care plan was extracted from.
type DocType string

const (
	DocTypeLabReport    DocType = "Lab Report"
	DocTypeDietChart    DocType = "Diet Chart"
	DocTypePrescription DocType = "Prescription"
)

// DefaultDocType is used when the model reports a type outside the taxonomy.
const DefaultDocType = DocTypePrescription

// ParseDocType matches s against the taxonomy ignoring case, spaces, dashes
// and underscores.
func ParseDocType(s string) (DocType, bool) {
	switch squash(s) {
	case "labreport", "lab", "labresult", "labresults", "bloodreport", "testreport":
		return DocTypeLabReport, true
	case "dietchart", "diet", "dietplan", "mealplan":
		return DocTypeDietChart, true
	case "prescription", "rx":
		return DocTypePrescription, true
	}
	return DefaultDocType, false
}

// MedicationType classifies a care-plan entry.
type MedicationType string

const (
	MedicationTablet MedicationType = "Tablet"
	MedicationSyrup  MedicationType = "Syrup"
	MedicationFood   MedicationType = "Food"
	MedicationOther  MedicationType = "Other"
)

// ParseMedicationType coerces a free-form type to the closed set; anything
// unrecognised becomes Other.
func ParseMedicationType(s string) MedicationType {
	v := squash(s)
	switch {
	case v == "":
		return MedicationOther
	case strings.HasPrefix(v, "tab"), strings.HasPrefix(v, "capsule"), strings.HasPrefix(v, "pill"):
		return MedicationTablet
	case strings.HasPrefix(v, "syrup"), strings.HasPrefix(v, "suspension"), strings.HasPrefix(v, "liquid"), strings.HasPrefix(v, "drops"):
		return MedicationSyrup
	case strings.HasPrefix(v, "food"), strings.HasPrefix(v, "meal"), strings.HasPrefix(v, "drink"), strings.HasPrefix(v, "beverage"):
		return MedicationFood
	}
	return MedicationOther
}

// Slot is a time-of-day bucket of the schedule.
type Slot string

const (
	SlotMorning   Slot = "morning"
	SlotAfternoon Slot = "afternoon"
	SlotNight     Slot = "night"
)

// Slots lists the slots in display order.
var Slots = []Slot{SlotMorning, SlotAfternoon, SlotNight}

// ParseSlot validates a slot name.
func ParseSlot(s string) (Slot, bool) {
	switch Slot(strings.ToLower(strings.TrimSpace(s))) {
	case SlotMorning:
		return SlotMorning, true
	case SlotAfternoon:
		return SlotAfternoon, true
	case SlotNight:
		return SlotNight, true
	}
	return "", false
}

// Role is the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the two conversation roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// DocumentFormat is the sniffed kind of an uploaded file.
type DocumentFormat string

const (
	FormatImage DocumentFormat = "image"
	FormatPDF   DocumentFormat = "pdf"
)

// AllowedContentTypes maps detected MIME types to the document format they
// are processed as.
var AllowedContentTypes = map[string]DocumentFormat{
	"application/pdf": FormatPDF,
	"image/jpeg":      FormatImage,
	"image/png":       FormatImage,
	"image/gif":       FormatImage,
	"image/webp":      FormatImage,
}

// ExportFormat selects the schedule export encoding.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportXLSX ExportFormat = "xlsx"
)

func squash(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}
