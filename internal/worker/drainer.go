// internal/worker/drainer.go
package worker

import (
	"context"
	"log"
	"time"

	appErrors "github.com/coldpilot/coldpilot-backend/internal/errors"
	"github.com/coldpilot/coldpilot-backend/internal/metrics"
	"github.com/coldpilot/coldpilot-backend/internal/model"
	"github.com/coldpilot/coldpilot-backend/internal/repository"
	"github.com/coldpilot/coldpilot-backend/internal/service"
)

// maxItemAttempts bounds how often one queue item is reprocessed before it
// is parked. Generation failures park with the generation_failed flag;
// delivery failures are already terminal (bounced) inside the send path.
const maxItemAttempts = 3

// Drainer processes due send-queue items: generation first, then delivery,
// each driving a status transition through the email service.
type Drainer struct {
	ScheduleRepo repository.ScheduleRepositoryInterface
	CampaignRepo repository.CampaignRepositoryInterface
	LinkRepo     repository.LinkRepositoryInterface
	Emails       *service.EmailService
	Quota        *service.QuotaService
	Metrics      *metrics.Metrics
	BatchSize    int
}

// ClaimDue claims up to BatchSize queued items whose send time has arrived.
// The claim marks them dispatched, so concurrent pollers never overlap.
func (d *Drainer) ClaimDue(now time.Time) ([]model.SendQueueItem, error) {
	batch := d.BatchSize
	if batch <= 0 {
		batch = 50
	}
	return d.ScheduleRepo.ClaimDue(now, batch)
}

// ProcessItem drives one claimed item to a terminal queue state. Returned
// errors are transient (infrastructure) and safe to retry via the broker;
// all domain outcomes are absorbed into item/link state.
func (d *Drainer) ProcessItem(ctx context.Context, itemID int) error {
	item, err := d.ScheduleRepo.GetItemByID(itemID)
	if err != nil {
		return err
	}
	if item == nil {
		log.Println("⚠️ queue item not found:", itemID)
		return nil
	}
	if item.Status != model.QueueItemDispatched && item.Status != model.QueueItemQueued {
		return nil // already processed or cancelled
	}

	sched, err := d.ScheduleRepo.GetActiveSchedule(item.CampaignID)
	if err != nil {
		return err
	}
	if sched == nil || sched.ID != item.ScheduleID {
		// The schedule was cancelled or superseded after dispatch.
		return d.ScheduleRepo.MarkItem(item.ID, model.QueueItemCancelled, "")
	}

	campaign, err := d.CampaignRepo.GetByID(item.CampaignID)
	if err != nil {
		return err
	}

	link, err := d.LinkRepo.GetLink(item.CampaignID, item.ProspectID)
	if err != nil {
		return err
	}
	if link == nil {
		return d.ScheduleRepo.MarkItem(item.ID, model.QueueItemFailed, "prospect not linked")
	}

	if link.EmailStatus == model.StatusNotGenerated {
		if link.GenerationFailed {
			return d.ScheduleRepo.MarkItem(item.ID, model.QueueItemFailed, link.LastError)
		}
		if done, err := d.generate(ctx, item); err != nil || done {
			return err
		}
		link, err = d.LinkRepo.GetLink(item.CampaignID, item.ProspectID)
		if err != nil {
			return err
		}
	}

	switch link.EmailStatus {
	case model.StatusGenerated:
		if err := d.send(ctx, campaign, sched, item); err != nil {
			return err
		}
	default:
		// Already sent (or manually moved past generated) by another actor.
		if err := d.ScheduleRepo.MarkItem(item.ID, model.QueueItemDone, ""); err != nil {
			return err
		}
	}

	d.Metrics.IncDrained()
	return nil
}

// generate runs the generation step. Returns done=true when the item
// reached a terminal or requeued state and send must not proceed.
func (d *Drainer) generate(ctx context.Context, item *model.SendQueueItem) (bool, error) {
	res, err := d.Emails.GenerateEmails(ctx, item.CampaignID, []int{item.ProspectID})
	if err != nil {
		return false, err
	}
	if res.Succeeded == 1 {
		return false, nil
	}

	reason := "generation failed"
	if len(res.Results) > 0 && res.Results[0].Error != "" {
		reason = res.Results[0].Error
	}

	attempts, err := d.ScheduleRepo.IncrementAttempt(item.ID)
	if err != nil {
		return false, err
	}
	if attempts >= maxItemAttempts {
		if err := d.LinkRepo.MarkGenerationFailed(item.CampaignID, item.ProspectID, reason); err != nil {
			return false, err
		}
		return true, d.ScheduleRepo.MarkItem(item.ID, model.QueueItemFailed, reason)
	}

	// Leave the status untouched and retry on a later poll.
	return true, d.ScheduleRepo.MarkItem(item.ID, model.QueueItemQueued, reason)
}

func (d *Drainer) send(ctx context.Context, campaign *model.Campaign, sched *model.SendSchedule, item *model.SendQueueItem) error {
	// Defensive check: another campaign may have consumed the allowance
	// since this item was scheduled. Skip, don't force through.
	if err := d.Quota.CheckAndReserve(campaign.AccountID, 1); err != nil {
		if qe, ok := appErrors.IsInsufficientQuota(err); ok {
			log.Printf("⚠️ quota exhausted, skipping item %d (available=%d)", item.ID, qe.Available)
			return d.ScheduleRepo.MarkItem(item.ID, model.QueueItemSkipped, qe.Error())
		}
		return err
	}

	res, err := d.Emails.SendEmails(ctx, item.CampaignID, []int{item.ProspectID}, sched.CredentialID)
	if err != nil {
		return err
	}
	if res.Succeeded == 1 {
		return d.ScheduleRepo.MarkItem(item.ID, model.QueueItemDone, "")
	}

	reason := "delivery failed"
	if len(res.Results) > 0 && res.Results[0].Error != "" {
		reason = res.Results[0].Error
	}
	return d.ScheduleRepo.MarkItem(item.ID, model.QueueItemFailed, reason)
}
