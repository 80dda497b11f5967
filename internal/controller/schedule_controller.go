// internal/controller/schedule_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coldpilot/coldpilot-backend/internal/delivery"
	"github.com/coldpilot/coldpilot-backend/internal/service"
)

type ScheduleController struct {
	ScheduleService *service.ScheduleService
	QuotaService    *service.QuotaService
	validator       *validator.Validate
}

func NewScheduleController(scheduleService *service.ScheduleService, quotaService *service.QuotaService) *ScheduleController {
	return &ScheduleController{
		ScheduleService: scheduleService,
		QuotaService:    quotaService,
		validator:       validator.New(),
	}
}

// CreateSchedule commits a scheduling run for a campaign. All-or-nothing.
func (c *ScheduleController) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	campaignID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	var req service.ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	req.CampaignID = campaignID

	if err := c.validator.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_config",
			"message": err.Error(),
		})
		return
	}

	summary, err := c.ScheduleService.CreateSchedule(req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, summary)
}

// GetSchedule returns the active scheduling run, if any.
func (c *ScheduleController) GetSchedule(w http.ResponseWriter, r *http.Request) {
	campaignID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	sched, err := c.ScheduleService.GetActiveSchedule(campaignID)
	if err != nil {
		writeError(w, err)
		return
	}
	if sched == nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": "not_found", "message": "no active schedule"})
		return
	}

	writeJSON(w, http.StatusOK, sched)
}

// CancelSchedule cancels the active schedule and future queue items.
func (c *ScheduleController) CancelSchedule(w http.ResponseWriter, r *http.Request) {
	campaignID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	cancelled, err := c.ScheduleService.CancelSchedule(campaignID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"cancelled": cancelled})
}

// GetQuota returns the account's cold-email counter.
func (c *ScheduleController) GetQuota(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.Atoi(chi.URLParam(r, "accountID"))
	if err != nil {
		http.Error(w, "invalid account id", http.StatusBadRequest)
		return
	}

	q, err := c.QuotaService.GetQuota(accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, q)
}

// ListSMTPPresets serves the provider preset catalog.
func (c *ScheduleController) ListSMTPPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"presets": delivery.Presets()})
}
