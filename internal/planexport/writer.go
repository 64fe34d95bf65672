// Package planexport renders a care plan's schedule as CSV or XLSX.
package planexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"carepilot/internal/careplan"
	"carepilot/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the schedule header row.
var columns = []string{
	"Slot",
	"Name",
	"Dosage",
	"Type",
	"Instruction",
	"Purpose",
}

// Writer wraps csv.Writer for exporting a schedule as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteSchedule writes one row per slot occupancy, slots in day order.
func (w *Writer) WriteSchedule(view domain.SlotView) error {
	for _, slot := range domain.Slots {
		entries := view.Get(slot)
		for i := range entries {
			if err := w.csv.Write(entryToRow(slot, &entries[i])); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// WriteCSV writes a complete CSV export of plan (BOM, header, rows) to out.
func WriteCSV(out io.Writer, plan *domain.CarePlan) error {
	if _, err := out.Write(BOM); err != nil {
		return err
	}
	w := NewWriter(out)
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if err := w.WriteSchedule(careplan.BySlot(plan)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func entryToRow(slot domain.Slot, m *domain.MedicationEntry) []string {
	return []string{
		slotLabel(slot),
		m.Name,
		m.Dosage,
		string(m.Type),
		m.Instruction,
		m.Purpose,
	}
}

func slotLabel(slot domain.Slot) string {
	s := string(slot)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: care_plan_{patient}_{YYYY-MM-DD}.{ext}
func BuildFilename(patientName string, format domain.ExportFormat, now time.Time) string {
	name := "care_plan"
	if p := SanitizeFilename(patientName); p != "" && patientName != domain.UnknownPatient {
		name += "_" + p
	}
	return fmt.Sprintf("%s_%s.%s", name, now.Format("2006-01-02"), format)
}
