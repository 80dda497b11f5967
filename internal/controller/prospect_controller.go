// internal/controller/prospect_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coldpilot/coldpilot-backend/internal/model"
	"github.com/coldpilot/coldpilot-backend/internal/service"
)

// ProspectController exposes the prospect linkage, generation, delivery and
// status endpoints of a campaign.
type ProspectController struct {
	EmailService *service.EmailService
	validator    *validator.Validate
}

func NewProspectController(emailService *service.EmailService) *ProspectController {
	return &ProspectController{
		EmailService: emailService,
		validator:    validator.New(),
	}
}

func campaignIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

type prospectIDsRequest struct {
	ProspectIDs []int `json:"prospect_ids" validate:"required,min=1,dive,min=1"`
}

func (c *ProspectController) AddProspects(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaignIDParam(w, r)
	if !ok {
		return
	}

	var body prospectIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := c.validator.Struct(body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_config",
			"message": err.Error(),
		})
		return
	}

	added, err := c.EmailService.AddProspects(campaignID, body.ProspectIDs)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"added": added})
}

func (c *ProspectController) UnlinkProspect(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	prospectID, err := strconv.Atoi(chi.URLParam(r, "prospectID"))
	if err != nil {
		http.Error(w, "invalid prospect id", http.StatusBadRequest)
		return
	}

	if err := c.EmailService.UnlinkProspect(campaignID, prospectID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"unlinked": true})
}

// ListProspects returns links joined with prospect rows; clients poll this
// to track per-prospect status.
func (c *ProspectController) ListProspects(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaignIDParam(w, r)
	if !ok {
		return
	}

	views, err := c.EmailService.ListProspects(campaignID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": views})
}

// GenerateEmails kicks off on-demand generation for a batch of prospects.
// Per-item outcomes are reported; the batch itself never fails wholesale.
func (c *ProspectController) GenerateEmails(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaignIDParam(w, r)
	if !ok {
		return
	}

	var body prospectIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := c.validator.Struct(body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_config",
			"message": err.Error(),
		})
		return
	}

	result, err := c.EmailService.GenerateEmails(r.Context(), campaignID, body.ProspectIDs)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type sendEmailsRequest struct {
	ProspectIDs  []int `json:"prospect_ids" validate:"required,min=1,dive,min=1"`
	CredentialID int   `json:"smtp_configuration_id" validate:"required,min=1"`
}

// SendEmails delivers already-generated emails immediately, outside any
// schedule. Quota still applies.
func (c *ProspectController) SendEmails(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaignIDParam(w, r)
	if !ok {
		return
	}

	var body sendEmailsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := c.validator.Struct(body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_config",
			"message": err.Error(),
		})
		return
	}

	result, err := c.EmailService.SendEmails(r.Context(), campaignID, body.ProspectIDs, body.CredentialID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type overrideStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OverrideStatus is the manual correction endpoint. It bypasses the
// transition graph and records the change with manual provenance.
func (c *ProspectController) OverrideStatus(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	prospectID, err := strconv.Atoi(chi.URLParam(r, "prospectID"))
	if err != nil {
		http.Error(w, "invalid prospect id", http.StatusBadRequest)
		return
	}

	var body overrideStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := c.validator.Struct(body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_config",
			"message": err.Error(),
		})
		return
	}

	if err := c.EmailService.OverrideStatus(r.Context(), campaignID, prospectID, model.EmailStatus(body.Status)); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": body.Status})
}

type deliveryEventRequest struct {
	CampaignID int    `json:"campaign_id" validate:"required,min=1"`
	ProspectID int    `json:"prospect_id" validate:"required,min=1"`
	Event      string `json:"event" validate:"required,oneof=open click reply hard_bounce"`
}

// ReportDeliveryEvent ingests provider webhooks (opens, clicks, replies,
// hard bounces) and feeds them through the state machine.
func (c *ProspectController) ReportDeliveryEvent(w http.ResponseWriter, r *http.Request) {
	var body deliveryEventRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := c.validator.Struct(body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "invalid_config",
			"message": err.Error(),
		})
		return
	}

	err := c.EmailService.ReportDeliveryEvent(r.Context(), body.CampaignID, body.ProspectID, model.StatusEvent(body.Event))
	if err != nil {
		// Rejected transitions are acknowledged so providers don't retry.
		writeJSON(w, http.StatusOK, map[string]interface{}{"accepted": false, "reason": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"accepted": true})
}

// ListTransitions exposes the append-only status transition log.
func (c *ProspectController) ListTransitions(w http.ResponseWriter, r *http.Request) {
	campaignID, ok := campaignIDParam(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	transitions, err := c.EmailService.ListTransitions(campaignID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": transitions})
}
