// internal/service/campaign_service.go
package service

import (
	"log"
	"time"

	"github.com/coldpilot/coldpilot-backend/internal/model"
	"github.com/coldpilot/coldpilot-backend/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	LinkRepo     repository.LinkRepositoryInterface
	ScheduleRepo repository.ScheduleRepositoryInterface
}

type CampaignDetails struct {
	ID           int                 `json:"id"`
	AccountID    int                 `json:"account_id"`
	Name         string              `json:"name"`
	Status       string              `json:"status"`
	Prompt       string              `json:"prompt"`
	BaseTemplate string              `json:"base_template"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    *time.Time          `json:"updated_at"`
	Stats        map[string]int      `json:"stats"`
	Schedule     *model.SendSchedule `json:"schedule,omitempty"`
}

func (s *CampaignService) CreateCampaign(accountID int, name, prompt, baseTemplate string) (*model.Campaign, error) {
	c := &model.Campaign{
		AccountID:    accountID,
		Name:         name,
		Prompt:       prompt,
		BaseTemplate: baseTemplate,
		Status:       "draft",
	}

	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}

	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(accountID, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(accountID, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// GetCampaignDetails fetches a campaign by ID
func (s *CampaignService) GetCampaignDetails(id int) (*model.Campaign, error) {
	return s.CampaignRepo.GetByID(id)
}

// GetCampaignDetailsWithStats joins the campaign with its per-status link
// counts and the active schedule, for the campaign detail view.
func (s *CampaignService) GetCampaignDetailsWithStats(campaignID int) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	stats, err := s.LinkRepo.CountByStatus(campaignID)
	if err != nil {
		return nil, err
	}

	sched, err := s.ScheduleRepo.GetActiveSchedule(campaignID)
	if err != nil {
		log.Println("⚠️ failed to fetch active schedule:", err)
	}

	return &CampaignDetails{
		ID:           campaign.ID,
		AccountID:    campaign.AccountID,
		Name:         campaign.Name,
		Status:       campaign.Status,
		Prompt:       campaign.Prompt,
		BaseTemplate: campaign.BaseTemplate,
		CreatedAt:    campaign.CreatedAt,
		UpdatedAt:    campaign.UpdatedAt,
		Stats:        stats,
		Schedule:     sched,
	}, nil
}
