package careplan

import "carepilot/internal/domain"

// BySlot groups entries by the slots they are scheduled in. An entry with
// several flags appears in several buckets; one with none appears in none.
// Order within a bucket follows the plan.
func BySlot(plan *domain.CarePlan) domain.SlotView {
	view := domain.SlotView{
		Morning:   []domain.MedicationEntry{},
		Afternoon: []domain.MedicationEntry{},
		Night:     []domain.MedicationEntry{},
	}
	if plan == nil {
		return view
	}
	for _, m := range plan.Medications {
		if m.Schedule.Morning {
			view.Morning = append(view.Morning, m)
		}
		if m.Schedule.Afternoon {
			view.Afternoon = append(view.Afternoon, m)
		}
		if m.Schedule.Night {
			view.Night = append(view.Night, m)
		}
	}
	return view
}

// Unscheduled returns entries that no slot covers.
func Unscheduled(plan *domain.CarePlan) []domain.MedicationEntry {
	out := []domain.MedicationEntry{}
	if plan == nil {
		return out
	}
	for _, m := range plan.Medications {
		if !m.Schedule.Morning && !m.Schedule.Afternoon && !m.Schedule.Night {
			out = append(out, m)
		}
	}
	return out
}
