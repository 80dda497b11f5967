// internal/service/quota_service.go
package service

import (
	appErrors "github.com/coldpilot/coldpilot-backend/internal/errors"
	"github.com/coldpilot/coldpilot-backend/internal/metrics"
	"github.com/coldpilot/coldpilot-backend/internal/model"
	"github.com/coldpilot/coldpilot-backend/internal/repository"
)

// QuotaService gates every commitment of future sends against the
// account's remaining cold-email allowance. Checks only project;
// consumption happens one-by-one at confirmed send success.
type QuotaService struct {
	QuotaRepo repository.QuotaRepositoryInterface
	Metrics   *metrics.Metrics
}

// CheckAndReserve validates that requestedCount sends fit into the
// remaining allowance. Warm-up only stretches delivery over time, so the
// worst-case projection is simply the full batch size.
func (s *QuotaService) CheckAndReserve(accountID, requestedCount int) error {
	q, err := s.QuotaRepo.Get(accountID, model.ResourceColdEmails)
	if err != nil {
		return err
	}
	if q == nil {
		// No quota row means the account was never provisioned.
		s.Metrics.IncQuotaRejection()
		return appErrors.NewInsufficientQuota(requestedCount, 0)
	}
	if requestedCount > q.Available() {
		s.Metrics.IncQuotaRejection()
		return appErrors.NewInsufficientQuota(requestedCount, q.Available())
	}
	return nil
}

// ConsumeOne charges a single confirmed send. The repository guards
// used < limit in the same statement, so racing senders cannot overrun.
func (s *QuotaService) ConsumeOne(accountID int) error {
	ok, err := s.QuotaRepo.ConsumeOne(accountID, model.ResourceColdEmails)
	if err != nil {
		return err
	}
	if !ok {
		s.Metrics.IncQuotaRejection()
		return appErrors.NewInsufficientQuota(1, 0)
	}
	return nil
}

// GetQuota returns the current counter for display.
func (s *QuotaService) GetQuota(accountID int) (*model.Quota, error) {
	q, err := s.QuotaRepo.Get(accountID, model.ResourceColdEmails)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return &model.Quota{AccountID: accountID, Resource: model.ResourceColdEmails}, nil
	}
	return q, nil
}
