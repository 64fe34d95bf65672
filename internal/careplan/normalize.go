package careplan

import (
	"fmt"
	"strings"

	"carepilot/internal/domain"
)

// Warning is an advisory contract violation found while normalizing. It
// never blocks a plan from being used.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	WarnUnknownDocType    = "UNKNOWN_DOC_TYPE"
	WarnLabReportHasMeds  = "LAB_REPORT_HAS_MEDICATIONS"
	WarnUnknownMedication = "UNKNOWN_MEDICATION_TYPE"
)

// Err wraps the warning as a normalization error for logging.
func (w Warning) Err() error {
	return domain.NormalizationError(w.Code + ": " + w.Message)
}

// Normalize coerces a draft into a CarePlan: nil collections become empty,
// a missing patient name becomes the Unknown sentinel, and out-of-taxonomy
// document or medication types are mapped to safe defaults. Contract
// violations are reported as warnings; the data is kept as extracted.
func Normalize(d *Draft) (*domain.CarePlan, []Warning) {
	if d == nil {
		d = &Draft{}
	}
	var warnings []Warning

	plan := &domain.CarePlan{
		PatientName: strings.TrimSpace(d.PatientName),
		Summary:     strings.TrimSpace(d.Summary),
		FollowUp:    strings.TrimSpace(d.FollowUp),
		Medications: make([]domain.MedicationEntry, 0, len(d.Medications)),
		RedFlags:    cleanList(d.RedFlags),
		DietaryTips: cleanList(d.DietaryTips),
	}
	if plan.PatientName == "" {
		plan.PatientName = domain.UnknownPatient
	}

	docType, ok := domain.ParseDocType(d.DocType)
	if !ok {
		warnings = append(warnings, Warning{
			Code:    WarnUnknownDocType,
			Message: fmt.Sprintf("docType %q coerced to %q", d.DocType, docType),
		})
	}
	plan.DocType = docType

	for _, m := range d.Medications {
		entryType := domain.ParseMedicationType(m.Type)
		if entryType == domain.MedicationOther && m.Type != "" && !strings.EqualFold(strings.TrimSpace(m.Type), string(domain.MedicationOther)) {
			warnings = append(warnings, Warning{
				Code:    WarnUnknownMedication,
				Message: fmt.Sprintf("type %q of %q coerced to Other", m.Type, m.Name),
			})
		}
		plan.Medications = append(plan.Medications, domain.MedicationEntry{
			Name:        strings.TrimSpace(m.Name),
			Dosage:      strings.TrimSpace(m.Dosage),
			Instruction: strings.TrimSpace(m.Instruction),
			Purpose:     strings.TrimSpace(m.Purpose),
			Type:        entryType,
			Schedule: domain.Schedule{
				Morning:   bool(m.Schedule.Morning),
				Afternoon: bool(m.Schedule.Afternoon),
				Night:     bool(m.Schedule.Night),
			},
		})
	}

	if plan.DocType == domain.DocTypeLabReport && len(plan.Medications) > 0 {
		warnings = append(warnings, Warning{
			Code:    WarnLabReportHasMeds,
			Message: fmt.Sprintf("lab report lists %d medication entries", len(plan.Medications)),
		})
	}

	return plan, warnings
}

// cleanList trims items and drops blanks; the result is never nil.
func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
