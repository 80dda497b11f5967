// internal/schedule/materialize.go
package schedule

import (
	"time"

	"github.com/coldpilot/coldpilot-backend/internal/model"
)

// Assignment is one (prospect, day, slot) placement. SendAt is the slot
// resolved against the day and time window at minute granularity.
type Assignment struct {
	ProspectID    int
	ScheduledDate time.Time
	ScheduledSlot int
	SendAt        time.Time
}

// Materialize walks eligible days in order and assigns prospects FIFO: day
// n takes up to capacity(n) prospects from the front of the list, spreading
// them evenly across the time window. Deterministic for identical inputs;
// every prospect gets exactly one assignment and no day exceeds its
// capacity.
func Materialize(prospectIDs []int, capacity CapacityFunc, cal *Calendar, window model.TimeWindow) []Assignment {
	out := make([]Assignment, 0, len(prospectIDs))
	iter := cal.Iter()

	for dayIdx := 0; len(prospectIDs) > 0; dayIdx++ {
		day := iter()
		dayCap := capacity(dayIdx)
		if dayCap <= 0 {
			continue
		}

		n := dayCap
		if len(prospectIDs) < n {
			n = len(prospectIDs)
		}

		for slot := 0; slot < n; slot++ {
			// Slot i of a c-capacity day lands at start + i*(end-start)/c,
			// floored to the minute.
			offset := int(window.Start) + slot*window.Duration()/dayCap
			sendAt := day.Add(time.Duration(offset) * time.Minute)

			out = append(out, Assignment{
				ProspectID:    prospectIDs[slot],
				ScheduledDate: day,
				ScheduledSlot: slot,
				SendAt:        sendAt,
			})
		}
		prospectIDs = prospectIDs[n:]
	}

	return out
}

// ProjectedCompletion returns the date of the last assignment, or the zero
// time for an empty queue.
func ProjectedCompletion(assignments []Assignment) time.Time {
	if len(assignments) == 0 {
		return time.Time{}
	}
	return assignments[len(assignments)-1].ScheduledDate
}
