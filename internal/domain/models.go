package domain

import (
	"encoding/base64"
	"time"
)

// UnknownPatient is the sentinel used when no patient name is legible.
const UnknownPatient = "Unknown"

// Schedule marks the daily slots an entry applies to. Flags are independent.
type Schedule struct {
	Morning   bool `json:"morning"`
	Afternoon bool `json:"afternoon"`
	Night     bool `json:"night"`
}

// In reports whether the schedule covers slot.
func (s Schedule) In(slot Slot) bool {
	switch slot {
	case SlotMorning:
		return s.Morning
	case SlotAfternoon:
		return s.Afternoon
	case SlotNight:
		return s.Night
	}
	return false
}

// MedicationEntry is one item of the care plan: a drug, supplement or food.
type MedicationEntry struct {
	Name        string         `json:"name"`
	Dosage      string         `json:"dosage"`
	Schedule    Schedule       `json:"schedule"`
	Instruction string         `json:"instruction"`
	Type        MedicationType `json:"type"`
	Purpose     string         `json:"purpose"`
}

// CarePlan is the normalized result of extracting one document.
// Array fields are never nil once the plan has been normalized.
type CarePlan struct {
	PatientName string            `json:"patientName"`
	DocType     DocType           `json:"docType"`
	Summary     string            `json:"summary"`
	Medications []MedicationEntry `json:"medications"`
	RedFlags    []string          `json:"redFlags"`
	DietaryTips []string          `json:"dietaryTips"`
	FollowUp    string            `json:"followUp"`
}

// SlotView groups the care plan's entries by time of day.
type SlotView struct {
	Morning   []MedicationEntry `json:"morning"`
	Afternoon []MedicationEntry `json:"afternoon"`
	Night     []MedicationEntry `json:"night"`
}

// Get returns the bucket for slot.
func (v SlotView) Get(slot Slot) []MedicationEntry {
	switch slot {
	case SlotMorning:
		return v.Morning
	case SlotAfternoon:
		return v.Afternoon
	case SlotNight:
		return v.Night
	}
	return nil
}

// ConversationTurn is one message of a grounded conversation.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompositePayload is the single bounded raster sent for extraction.
type CompositePayload struct {
	Data      []byte `json:"-"`
	MediaType string `json:"media_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Pages     int    `json:"pages"`
}

// DataURI encodes the payload as a data: URL.
func (p CompositePayload) DataURI() string {
	return "data:" + p.MediaType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// AdherenceCheckIn records whether the doses of one slot were taken on a
// given day of the plan.
type AdherenceCheckIn struct {
	Day        int       `json:"day"`
	Slot       Slot      `json:"slot"`
	Taken      bool      `json:"taken"`
	RecordedAt time.Time `json:"recorded_at"`
}
