// internal/service/email_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/coldpilot/coldpilot-backend/internal/delivery"
	appErrors "github.com/coldpilot/coldpilot-backend/internal/errors"
	"github.com/coldpilot/coldpilot-backend/internal/events"
	"github.com/coldpilot/coldpilot-backend/internal/generation"
	"github.com/coldpilot/coldpilot-backend/internal/metrics"
	"github.com/coldpilot/coldpilot-backend/internal/model"
	"github.com/coldpilot/coldpilot-backend/internal/repository"
)

// maxSendAttempts bounds delivery retries on transient failures before the
// prospect is parked as bounced.
const maxSendAttempts = 3

// BatchItemResult is one prospect's outcome within a batch operation.
// Batches are never all-or-nothing: callers get the full per-item picture.
type BatchItemResult struct {
	ProspectID int    `json:"prospect_id"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

type BatchResult struct {
	Requested int               `json:"requested"`
	Succeeded int               `json:"succeeded"`
	Results   []BatchItemResult `json:"results"`
}

func (r *BatchResult) add(prospectID int, err error) {
	item := BatchItemResult{ProspectID: prospectID, OK: err == nil}
	if err != nil {
		item.Error = err.Error()
	} else {
		r.Succeeded++
	}
	r.Results = append(r.Results, item)
}

// ProspectView is a link joined with its prospect, the polling read model.
type ProspectView struct {
	Prospect model.Prospect             `json:"prospect"`
	Link     model.CampaignProspectLink `json:"link"`
}

// EmailService drives prospects through generation and delivery. Every
// status move goes through the link repository's compare-and-swap, so
// racing batch actions and the drain worker cannot double-process.
type EmailService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ProspectRepo repository.ProspectRepositoryInterface
	LinkRepo     repository.LinkRepositoryInterface
	ScheduleRepo repository.ScheduleRepositoryInterface
	SMTPRepo     repository.SMTPCredentialRepositoryInterface
	Quota        *QuotaService
	Generator    generation.Generator
	Sender       delivery.Sender
	Events       events.Publisher
	Metrics      *metrics.Metrics
}

func (s *EmailService) publish(ctx context.Context, campaignID, prospectID int, from, to model.EmailStatus, provenance string) {
	s.Metrics.IncTransition(string(to), provenance)
	err := s.Events.PublishTransition(ctx, events.TransitionEvent{
		CampaignID: campaignID,
		ProspectID: prospectID,
		From:       from,
		To:         to,
		Provenance: provenance,
		At:         time.Now(),
	})
	if err != nil {
		// Best effort only; pollers still see the committed transition.
		log.Println("⚠️ failed to publish transition event:", err)
	}
}

// AddProspects links prospects to a campaign in the initial not_generated
// state. When the campaign has an active schedule the incremental count is
// re-checked against the remaining allowance first.
func (s *EmailService) AddProspects(campaignID int, prospectIDs []int) (int, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return 0, err
	}

	newIDs := []int{}
	for _, id := range prospectIDs {
		link, err := s.LinkRepo.GetLink(campaignID, id)
		if err != nil {
			return 0, err
		}
		if link == nil {
			newIDs = append(newIDs, id)
		}
	}

	active, err := s.ScheduleRepo.GetActiveSchedule(campaignID)
	if err != nil {
		return 0, err
	}
	if active != nil && len(newIDs) > 0 {
		if err := s.Quota.CheckAndReserve(campaign.AccountID, len(newIDs)); err != nil {
			return 0, err
		}
	}

	added := 0
	for _, id := range newIDs {
		created, err := s.LinkRepo.CreateIfMissing(campaignID, id)
		if err != nil {
			return added, err
		}
		if created {
			added++
		}
	}
	return added, nil
}

// UnlinkProspect removes a prospect from a campaign. Explicit only.
func (s *EmailService) UnlinkProspect(campaignID, prospectID int) error {
	return s.LinkRepo.Unlink(campaignID, prospectID)
}

// ListProspects returns links joined with prospect data, for polling.
func (s *EmailService) ListProspects(campaignID int) ([]ProspectView, error) {
	links, err := s.LinkRepo.ListByCampaign(campaignID)
	if err != nil {
		return nil, err
	}

	ids := make([]int, len(links))
	for i, l := range links {
		ids[i] = l.ProspectID
	}
	prospects, err := s.ProspectRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]model.Prospect, len(prospects))
	for _, p := range prospects {
		byID[p.ID] = p
	}

	views := make([]ProspectView, 0, len(links))
	for _, l := range links {
		views = append(views, ProspectView{Prospect: byID[l.ProspectID], Link: l})
	}
	return views, nil
}

// GenerateEmails runs the generation collaborator once per prospect. Fails
// closed per item unless the current status is not_generated. A generation
// failure leaves the status unchanged.
func (s *EmailService) GenerateEmails(ctx context.Context, campaignID int, prospectIDs []int) (*BatchResult, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Requested: len(prospectIDs)}
	for _, prospectID := range prospectIDs {
		result.add(prospectID, s.generateOne(ctx, campaign, prospectID))
	}
	return result, nil
}

func (s *EmailService) generateOne(ctx context.Context, campaign *model.Campaign, prospectID int) error {
	link, err := s.LinkRepo.GetLink(campaign.ID, prospectID)
	if err != nil {
		return err
	}
	if link == nil {
		return appErrors.NewProspectNotFound(prospectID)
	}
	if link.EmailStatus != model.StatusNotGenerated {
		return fmt.Errorf("cannot generate: status is %s", link.EmailStatus)
	}

	prospect, err := s.ProspectRepo.GetByID(prospectID)
	if err != nil {
		return err
	}
	if prospect == nil {
		return appErrors.NewProspectNotFound(prospectID)
	}

	email, err := s.Generator.Generate(ctx, campaign, prospect)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	if err := s.LinkRepo.TransitionToGenerated(campaign.ID, prospectID, email.Subject, email.Body); err != nil {
		if err == appErrors.ErrTransitionConflict {
			// A racing caller generated first; the content is already
			// there, so this is a no-op, not an error to surface.
			log.Printf("⚠️ prospect %d already generated by a concurrent caller", prospectID)
		}
		return err
	}

	s.Metrics.IncGenerated()
	s.publish(ctx, campaign.ID, prospectID, model.StatusNotGenerated, model.StatusGenerated, model.ProvenanceMachine)
	return nil
}

// SendEmails delivers generated emails. Fails closed per item unless the
// current status is generated. Quota is consumed only at confirmed send
// success and checked defensively before each claim.
func (s *EmailService) SendEmails(ctx context.Context, campaignID int, prospectIDs []int, credentialID int) (*BatchResult, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	cred, err := s.SMTPRepo.GetActive(campaign.AccountID, credentialID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, appErrors.ErrNoActiveSMTP
	}

	result := &BatchResult{Requested: len(prospectIDs)}
	for _, prospectID := range prospectIDs {
		result.add(prospectID, s.sendOne(ctx, campaign, cred, prospectID))
	}
	return result, nil
}

func (s *EmailService) sendOne(ctx context.Context, campaign *model.Campaign, cred *model.SMTPCredential, prospectID int) error {
	link, err := s.LinkRepo.GetLink(campaign.ID, prospectID)
	if err != nil {
		return err
	}
	if link == nil {
		return appErrors.NewProspectNotFound(prospectID)
	}
	if link.EmailStatus != model.StatusGenerated {
		return fmt.Errorf("cannot send: status is %s", link.EmailStatus)
	}

	// Another campaign may have drained the allowance since scheduling;
	// skip rather than force through.
	if err := s.Quota.CheckAndReserve(campaign.AccountID, 1); err != nil {
		return err
	}

	prospect, err := s.ProspectRepo.GetByID(prospectID)
	if err != nil {
		return err
	}
	if prospect == nil {
		return appErrors.NewProspectNotFound(prospectID)
	}

	// Claim the prospect before delivering so racing senders cannot both
	// proceed. The loser of the swap no-ops.
	if err := s.LinkRepo.TransitionStatus(campaign.ID, prospectID, model.StatusGenerated, model.StatusSent); err != nil {
		if err == appErrors.ErrTransitionConflict {
			log.Printf("⚠️ prospect %d already claimed by a concurrent sender", prospectID)
		}
		return err
	}

	email := delivery.OutboundEmail{
		To:      prospect.Email,
		ToName:  prospect.FirstName + " " + prospect.LastName,
		Subject: link.GeneratedSubject,
		Body:    link.GeneratedBody,
	}

	var sendErr error
	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		sendErr = s.Sender.Send(ctx, cred, email)
		if sendErr == nil || delivery.IsHardFailure(sendErr) {
			break
		}
		log.Printf("⚠️ send attempt %d/%d failed for prospect %d: %v", attempt, maxSendAttempts, prospectID, sendErr)
		time.Sleep(time.Duration(attempt*500) * time.Millisecond)
	}

	if sendErr != nil {
		// Hard failure or exhausted retries: terminal bounced, never an
		// indefinite loop.
		if err := s.LinkRepo.TransitionStatus(campaign.ID, prospectID, model.StatusSent, model.StatusBounced); err != nil {
			log.Println("⚠️ failed to mark bounce:", err)
		} else {
			s.Metrics.IncBounced()
			s.publish(ctx, campaign.ID, prospectID, model.StatusSent, model.StatusBounced, model.ProvenanceMachine)
		}
		return fmt.Errorf("delivery failed: %w", sendErr)
	}

	if err := s.Quota.ConsumeOne(campaign.AccountID); err != nil {
		log.Println("⚠️ send succeeded but quota charge failed:", err)
	}

	s.Metrics.IncSent()
	s.publish(ctx, campaign.ID, prospectID, model.StatusGenerated, model.StatusSent, model.ProvenanceMachine)
	return nil
}

// OverrideStatus is the manual escape hatch. It bypasses the transition
// graph but is audited with manual provenance, distinct from machine
// transitions.
func (s *EmailService) OverrideStatus(ctx context.Context, campaignID, prospectID int, newStatus model.EmailStatus) error {
	if !model.ValidStatus(newStatus) {
		return fmt.Errorf("unknown status %q", newStatus)
	}
	from, err := s.LinkRepo.OverrideStatus(campaignID, prospectID, newStatus)
	if err != nil {
		return err
	}
	log.Printf("manual status override: campaign=%d prospect=%d %s -> %s", campaignID, prospectID, from, newStatus)
	s.publish(ctx, campaignID, prospectID, from, newStatus, model.ProvenanceManual)
	return nil
}

// ReportDeliveryEvent feeds a collaborator-reported engagement or bounce
// event through the state machine. Illegal transitions are rejected as
// no-ops with a warning, not merged.
func (s *EmailService) ReportDeliveryEvent(ctx context.Context, campaignID, prospectID int, event model.StatusEvent) error {
	link, err := s.LinkRepo.GetLink(campaignID, prospectID)
	if err != nil {
		return err
	}
	if link == nil {
		return appErrors.NewProspectNotFound(prospectID)
	}

	next, err := model.Transition(link.EmailStatus, event)
	if err != nil {
		log.Printf("⚠️ rejected transition: campaign=%d prospect=%d status=%s event=%s", campaignID, prospectID, link.EmailStatus, event)
		return err
	}

	if err := s.LinkRepo.TransitionStatus(campaignID, prospectID, link.EmailStatus, next); err != nil {
		return err
	}
	if next == model.StatusBounced {
		s.Metrics.IncBounced()
	}
	s.publish(ctx, campaignID, prospectID, link.EmailStatus, next, model.ProvenanceMachine)
	return nil
}

// ListTransitions exposes the append-only transition log.
func (s *EmailService) ListTransitions(campaignID, limit int) ([]model.StatusTransition, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return s.LinkRepo.ListTransitions(campaignID, limit)
}
