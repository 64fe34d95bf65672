// Package careplan owns the care-plan record: turning a parsed extraction
// into a normalized plan and deriving the time-of-day view from it.
package careplan

import (
	"encoding/json"
	"strings"
)

// Draft is the loosely typed shape of an extraction response. Fields the
// model omitted or set to null stay at their zero value until Normalize.
type Draft struct {
	PatientName string            `json:"patientName"`
	DocType     string            `json:"docType"`
	Summary     string            `json:"summary"`
	Medications []MedicationDraft `json:"medications"`
	RedFlags    []string          `json:"redFlags"`
	DietaryTips []string          `json:"dietaryTips"`
	FollowUp    string            `json:"followUp"`
}

// MedicationDraft is one entry of a Draft.
type MedicationDraft struct {
	Name        string        `json:"name"`
	Dosage      string        `json:"dosage"`
	Schedule    ScheduleDraft `json:"schedule"`
	Instruction string        `json:"instruction"`
	Type        string        `json:"type"`
	Purpose     string        `json:"purpose"`
}

// ScheduleDraft holds the slot flags as reported by the model.
type ScheduleDraft struct {
	Morning   Flag `json:"morning"`
	Afternoon Flag `json:"afternoon"`
	Night     Flag `json:"night"`
}

// Flag is a boolean that also accepts the string and numeric spellings
// models sometimes emit ("true", "yes", 1). Anything else is false.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes", "y", "1":
			*f = true
		default:
			*f = false
		}
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = n != 0
		return nil
	}
	*f = false
	return nil
}
