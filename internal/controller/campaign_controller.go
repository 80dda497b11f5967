// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/coldpilot/coldpilot-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
	validator       *validator.Validate
}

func NewCampaignController(campaignService *service.CampaignService) *CampaignController {
	return &CampaignController{
		CampaignService: campaignService,
		validator:       validator.New(),
	}
}

type createCampaignRequest struct {
	AccountID    int    `json:"account_id" validate:"required,min=1"`
	Name         string `json:"name" validate:"required"`
	Prompt       string `json:"prompt"`
	BaseTemplate string `json:"base_template"`
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body createCampaignRequest
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

	campaign, err := c.CampaignService.CreateCampaign(body.AccountID, body.Name, body.Prompt, body.BaseTemplate)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	accountID, _ := strconv.Atoi(r.URL.Query().Get("account_id"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	campaigns, pagination, err := c.CampaignService.ListCampaigns(accountID, page, pageSize, status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination, // contains total_count, total_pages, page, page_size
	})
}

// GetCampaignDetails returns the campaign joined with its per-status link
// counts and the active schedule, if any.
func (c *CampaignController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	details, err := c.CampaignService.GetCampaignDetailsWithStats(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}
