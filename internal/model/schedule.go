// internal/model/schedule.go
package model

import (
	"time"

	appErrors "github.com/coldpilot/coldpilot-backend/internal/errors"
)

// ClockTime is a local wall-clock time expressed as minutes since midnight.
type ClockTime int

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

// ParseClockTime parses "HH:MM".
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, appErrors.NewInvalidConfig("time_window", "must be HH:MM")
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

// TimeWindow is the daily interval sends are distributed across.
type TimeWindow struct {
	Start ClockTime
	End   ClockTime
}

// Duration returns the window length in minutes.
func (w TimeWindow) Duration() int { return int(w.End - w.Start) }

// WarmupConfig is the progressive ramp: capacity starts at StartLimit and
// grows by Increment every DaysPerStep eligible days until TargetLimit.
type WarmupConfig struct {
	StartLimit  int
	Increment   int
	DaysPerStep int
	TargetLimit int
}

// ScheduleConfig is the validated, immutable input to a scheduling run.
// Invariants hold from construction on; code downstream never re-checks them.
type ScheduleConfig struct {
	StartDate    time.Time
	DailyLimit   int
	TimeWindow   TimeWindow
	DaysOfWeek   map[time.Weekday]bool
	BlockedDates map[string]bool // keyed YYYY-MM-DD
	Warmup       *WarmupConfig
	CredentialID int
}

// NewScheduleConfig validates every configuration invariant up front and
// returns an immutable value. All violations come back as ErrInvalidConfig.
func NewScheduleConfig(startDate time.Time, dailyLimit int, window TimeWindow, daysOfWeek []time.Weekday, blockedDates []time.Time, warmup *WarmupConfig, credentialID int) (*ScheduleConfig, error) {
	if dailyLimit < 1 || dailyLimit > 50 {
		return nil, appErrors.NewInvalidConfig("daily_limit", "must be between 1 and 50")
	}
	if window.Start >= window.End {
		return nil, appErrors.NewInvalidConfig("time_window", "start must be before end")
	}
	if len(daysOfWeek) == 0 {
		return nil, appErrors.NewInvalidConfig("days_of_week", "must not be empty")
	}
	if warmup != nil {
		if warmup.TargetLimit != dailyLimit {
			return nil, appErrors.NewInvalidConfig("warmup_target_limit", "must equal daily_limit")
		}
		if warmup.StartLimit < 1 || warmup.StartLimit > warmup.TargetLimit {
			return nil, appErrors.NewInvalidConfig("warmup_start_limit", "must be between 1 and target limit")
		}
		if warmup.Increment < 1 {
			return nil, appErrors.NewInvalidConfig("warmup_increment", "must be at least 1")
		}
		if warmup.DaysPerStep < 1 {
			return nil, appErrors.NewInvalidConfig("warmup_days_per_step", "must be at least 1")
		}
	}

	days := make(map[time.Weekday]bool, len(daysOfWeek))
	for _, d := range daysOfWeek {
		days[d] = true
	}
	blocked := make(map[string]bool, len(blockedDates))
	for _, d := range blockedDates {
		blocked[d.Format("2006-01-02")] = true
	}

	y, m, d := startDate.Date()

	return &ScheduleConfig{
		StartDate:    time.Date(y, m, d, 0, 0, 0, 0, startDate.Location()),
		DailyLimit:   dailyLimit,
		TimeWindow:   window,
		DaysOfWeek:   days,
		BlockedDates: blocked,
		Warmup:       warmup,
		CredentialID: credentialID,
	}, nil
}

// SendSchedule is one committed scheduling run.
type SendSchedule struct {
	ID                  string     `db:"id" json:"id"` // uuid
	CampaignID          int        `db:"campaign_id" json:"campaign_id"`
	CredentialID        int        `db:"smtp_credential_id" json:"smtp_credential_id"`
	ConfigJSON          []byte     `db:"config" json:"-"`
	QueuedCount         int        `db:"queued_count" json:"queued_count"`
	ProjectedCompletion time.Time  `db:"projected_completion" json:"projected_completion"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	CancelledAt         *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
}
