// internal/service/schedule_service.go
package service

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/coldpilot/coldpilot-backend/internal/errors"
	"github.com/coldpilot/coldpilot-backend/internal/metrics"
	"github.com/coldpilot/coldpilot-backend/internal/model"
	"github.com/coldpilot/coldpilot-backend/internal/repository"
	"github.com/coldpilot/coldpilot-backend/internal/schedule"
)

// ScheduleRequest is the wire shape of a scheduling run. Shape checks live
// in the validate tags; semantic invariants (window ordering, warm-up
// target equality) are enforced by model.NewScheduleConfig.
type ScheduleRequest struct {
	CampaignID        int      `json:"-"`
	StartDate         string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	DailyLimit        int      `json:"daily_limit" validate:"required,min=1,max=50"`
	TimeWindowStart   string   `json:"time_window_start" validate:"required"`
	TimeWindowEnd     string   `json:"time_window_end" validate:"required"`
	DaysOfWeek        []string `json:"days_of_week" validate:"required,min=1,dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	SMTPCredentialID  int      `json:"smtp_configuration_id" validate:"required"`
	ExcludeHolidays   bool     `json:"exclude_holidays"`
	BlockedDates      []string `json:"blocked_dates" validate:"dive,datetime=2006-01-02"`
	EnableWarmup      bool     `json:"enable_warmup"`
	WarmupStartLimit  int      `json:"warmup_start_limit"`
	WarmupIncrement   int      `json:"warmup_increment"`
	WarmupDaysPerStep int      `json:"warmup_days_per_step"`
	WarmupTargetLimit int      `json:"warmup_target_limit"`

	// Optional: defaults to every prospect linked to the campaign, in link
	// order.
	ProspectIDs []int `json:"prospect_ids"`
}

// ScheduleSummary is what a committed run reports back.
type ScheduleSummary struct {
	ScheduleID              string    `json:"schedule_id"`
	QueuedCount             int       `json:"queued_count"`
	ProjectedCompletionDate time.Time `json:"projected_completion_date"`
}

// ScheduleService is the orchestrator: it validates the config, builds the
// capacity timeline, checks quota, materializes the queue and commits it as
// one transaction. Any failure rejects the whole run.
type ScheduleService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ScheduleRepo repository.ScheduleRepositoryInterface
	LinkRepo     repository.LinkRepositoryInterface
	SMTPRepo     repository.SMTPCredentialRepositoryInterface
	HolidayRepo  repository.HolidayRepositoryInterface
	Quota        *QuotaService
	Metrics      *metrics.Metrics
}

var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// buildConfig turns the wire request into a validated ScheduleConfig,
// resolving holidays into the blocked-date set when asked.
func (s *ScheduleService) buildConfig(req ScheduleRequest) (*model.ScheduleConfig, error) {
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, appErrors.NewInvalidConfig("start_date", "must be YYYY-MM-DD")
	}

	windowStart, err := model.ParseClockTime(req.TimeWindowStart)
	if err != nil {
		return nil, err
	}
	windowEnd, err := model.ParseClockTime(req.TimeWindowEnd)
	if err != nil {
		return nil, err
	}

	days := make([]time.Weekday, 0, len(req.DaysOfWeek))
	for _, name := range req.DaysOfWeek {
		d, ok := weekdayNames[name]
		if !ok {
			return nil, appErrors.NewInvalidConfig("days_of_week", "unknown weekday "+name)
		}
		days = append(days, d)
	}

	blocked := make([]time.Time, 0, len(req.BlockedDates))
	for _, raw := range req.BlockedDates {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, appErrors.NewInvalidConfig("blocked_dates", "must be YYYY-MM-DD")
		}
		blocked = append(blocked, d)
	}
	if req.ExcludeHolidays {
		holidays, err := s.HolidayRepo.ListFrom(startDate)
		if err != nil {
			return nil, err
		}
		blocked = append(blocked, holidays...)
	}

	var warmup *model.WarmupConfig
	if req.EnableWarmup {
		warmup = &model.WarmupConfig{
			StartLimit:  req.WarmupStartLimit,
			Increment:   req.WarmupIncrement,
			DaysPerStep: req.WarmupDaysPerStep,
			TargetLimit: req.WarmupTargetLimit,
		}
	}

	return model.NewScheduleConfig(startDate, req.DailyLimit, model.TimeWindow{Start: windowStart, End: windowEnd}, days, blocked, warmup, req.SMTPCredentialID)
}

// CreateSchedule runs the full pipeline. All-or-nothing: nothing is
// persisted unless every step passes.
func (s *ScheduleService) CreateSchedule(req ScheduleRequest) (*ScheduleSummary, error) {
	campaign, err := s.CampaignRepo.GetByID(req.CampaignID)
	if err != nil {
		return nil, err
	}

	cred, err := s.SMTPRepo.GetActive(campaign.AccountID, req.SMTPCredentialID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, appErrors.ErrNoActiveSMTP
	}

	cfg, err := s.buildConfig(req)
	if err != nil {
		return nil, err
	}

	prospectIDs := req.ProspectIDs
	if len(prospectIDs) == 0 {
		links, err := s.LinkRepo.ListByCampaign(req.CampaignID)
		if err != nil {
			return nil, err
		}
		for _, l := range links {
			prospectIDs = append(prospectIDs, l.ProspectID)
		}
	}
	if len(prospectIDs) == 0 {
		return nil, appErrors.NewInvalidConfig("prospect_ids", "campaign has no prospects to schedule")
	}

	// Worst-case projection: warm-up still delivers every prospect
	// eventually, so the whole batch must fit the remaining allowance.
	if err := s.Quota.CheckAndReserve(campaign.AccountID, len(prospectIDs)); err != nil {
		return nil, err
	}

	cal, err := schedule.NewCalendarFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	assignments := schedule.Materialize(prospectIDs, schedule.CapacityForConfig(cfg), cal, cfg.TimeWindow)

	configJSON, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	sched := &model.SendSchedule{
		ID:                  uuid.NewString(),
		CampaignID:          req.CampaignID,
		CredentialID:        cred.ID,
		ConfigJSON:          configJSON,
		QueuedCount:         len(assignments),
		ProjectedCompletion: schedule.ProjectedCompletion(assignments),
	}

	items := make([]model.SendQueueItem, len(assignments))
	for i, a := range assignments {
		items[i] = model.SendQueueItem{
			ScheduleID:    sched.ID,
			CampaignID:    req.CampaignID,
			ProspectID:    a.ProspectID,
			ScheduledDate: a.ScheduledDate,
			ScheduledSlot: a.ScheduledSlot,
			SendAt:        a.SendAt,
			Status:        model.QueueItemQueued,
		}
	}

	if err := s.ScheduleRepo.CommitRun(sched, items); err != nil {
		return nil, err
	}

	if err := s.CampaignRepo.UpdateStatus(req.CampaignID, "scheduled"); err != nil {
		// The run is committed; a stale campaign status is recoverable.
		log.Println("⚠️ failed to update campaign status:", err)
	}

	s.Metrics.IncScheduleCreated()

	return &ScheduleSummary{
		ScheduleID:              sched.ID,
		QueuedCount:             sched.QueuedCount,
		ProjectedCompletionDate: sched.ProjectedCompletion,
	}, nil
}

// CancelSchedule cancels the active schedule and its not-yet-reached queue
// items. Quota already consumed by past sends stays consumed.
func (s *ScheduleService) CancelSchedule(campaignID int) (int, error) {
	if _, err := s.CampaignRepo.GetByID(campaignID); err != nil {
		return 0, err
	}
	cancelled, err := s.ScheduleRepo.CancelSchedule(campaignID, time.Now())
	if err != nil {
		return 0, err
	}
	if cancelled > 0 {
		if err := s.CampaignRepo.UpdateStatus(campaignID, "draft"); err != nil {
			log.Println("⚠️ failed to update campaign status:", err)
		}
	}
	return cancelled, nil
}

// GetActiveSchedule exposes the current run for display.
func (s *ScheduleService) GetActiveSchedule(campaignID int) (*model.SendSchedule, error) {
	return s.ScheduleRepo.GetActiveSchedule(campaignID)
}
