// internal/schedule/calendar.go
package schedule

import (
	"time"

	appErrors "github.com/coldpilot/coldpilot-backend/internal/errors"
	"github.com/coldpilot/coldpilot-backend/internal/model"
)

// Calendar resolves eligible send-days from a weekday mask, a blocked-date
// set and a start date. It holds no cursor: every walk starts from the
// start date, so the Nth eligible day is a pure function of the inputs.
type Calendar struct {
	start   time.Time
	days    map[time.Weekday]bool
	blocked map[string]bool
}

// NewCalendar builds a calendar from a validated config. An empty weekday
// set would stall every walk forever, so it is rejected here as well even
// though config construction already forbids it.
func NewCalendar(start time.Time, daysOfWeek map[time.Weekday]bool, blockedDates map[string]bool) (*Calendar, error) {
	if len(daysOfWeek) == 0 {
		return nil, appErrors.NewInvalidConfig("days_of_week", "must not be empty")
	}
	y, m, d := start.Date()
	return &Calendar{
		start:   time.Date(y, m, d, 0, 0, 0, 0, start.Location()),
		days:    daysOfWeek,
		blocked: blockedDates,
	}, nil
}

// NewCalendarFromConfig is a convenience wrapper over NewCalendar.
func NewCalendarFromConfig(cfg *model.ScheduleConfig) (*Calendar, error) {
	return NewCalendar(cfg.StartDate, cfg.DaysOfWeek, cfg.BlockedDates)
}

func (c *Calendar) eligible(d time.Time) bool {
	return c.days[d.Weekday()] && !c.blocked[d.Format("2006-01-02")]
}

// Iter returns a fresh walker over eligible days in strictly increasing
// order, starting at the start date. Each call restarts from the beginning.
func (c *Calendar) Iter() func() time.Time {
	next := c.start
	return func() time.Time {
		for {
			d := next
			next = next.AddDate(0, 0, 1)
			if c.eligible(d) {
				return d
			}
		}
	}
}

// EligibleDay returns the Nth eligible day (zero-based). Pure and
// restartable; no shared cursor with Iter.
func (c *Calendar) EligibleDay(n int) time.Time {
	iter := c.Iter()
	d := iter()
	for i := 0; i < n; i++ {
		d = iter()
	}
	return d
}
