package repository

import (
	"database/sql"
	"time"

	"github.com/coldpilot/coldpilot-backend/internal/model"
)

type ScheduleRepositoryInterface interface {
	// CommitRun persists a scheduling run as one transaction: any previous
	// active schedule for the campaign is cancelled, the new schedule row
	// and all queue items are inserted, and links are initialized to
	// not_generated where missing. Nothing persists if any step fails.
	CommitRun(sched *model.SendSchedule, items []model.SendQueueItem) error

	GetActiveSchedule(campaignID int) (*model.SendSchedule, error)

	// CancelSchedule cancels the active schedule and its future queue items.
	// Past sends (and the quota they consumed) are untouched.
	CancelSchedule(campaignID int, now time.Time) (cancelled int, err error)

	// ClaimDue atomically claims up to limit queued items whose send_at has
	// arrived, marking them dispatched. Safe to call from multiple workers.
	ClaimDue(now time.Time, limit int) ([]model.SendQueueItem, error)

	GetItemByID(id int) (*model.SendQueueItem, error)
	MarkItem(id int, status, lastError string) error
	IncrementAttempt(id int) (int, error)
}

type ScheduleRepository struct {
	DB *sql.DB
}

func (r *ScheduleRepository) CommitRun(sched *model.SendSchedule, items []model.SendQueueItem) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// A new run supersedes the previous one.
	_, err = tx.Exec(`
        UPDATE send_schedules SET cancelled_at=NOW()
        WHERE campaign_id=$1 AND cancelled_at IS NULL
    `, sched.CampaignID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
        UPDATE send_queue_items SET status=$1
        WHERE campaign_id=$2 AND status=$3
    `, model.QueueItemCancelled, sched.CampaignID, model.QueueItemQueued)
	if err != nil {
		return err
	}

	sched.CreatedAt = time.Now()
	_, err = tx.Exec(`
        INSERT INTO send_schedules (id, campaign_id, smtp_credential_id, config, queued_count, projected_completion, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, sched.ID, sched.CampaignID, sched.CredentialID, sched.ConfigJSON, sched.QueuedCount, sched.ProjectedCompletion, sched.CreatedAt)
	if err != nil {
		return err
	}

	insertItem, err := tx.Prepare(`
        INSERT INTO send_queue_items (schedule_id, campaign_id, prospect_id, scheduled_date, scheduled_slot, send_at, status, attempt_count, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, 0, NOW())
    `)
	if err != nil {
		return err
	}
	defer insertItem.Close()

	initLink, err := tx.Prepare(`
        INSERT INTO campaign_prospects (campaign_id, prospect_id, email_status, created_at, updated_at)
        VALUES ($1, $2, 'not_generated', NOW(), NOW())
        ON CONFLICT (campaign_id, prospect_id) DO NOTHING
    `)
	if err != nil {
		return err
	}
	defer initLink.Close()

	for _, item := range items {
		_, err := insertItem.Exec(sched.ID, sched.CampaignID, item.ProspectID, item.ScheduledDate, item.ScheduledSlot, item.SendAt, model.QueueItemQueued)
		if err != nil {
			return err
		}
		// Already-generated prospects keep their status; only missing links
		// are initialized.
		if _, err := initLink.Exec(sched.CampaignID, item.ProspectID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *ScheduleRepository) GetActiveSchedule(campaignID int) (*model.SendSchedule, error) {
	query := `
        SELECT id, campaign_id, smtp_credential_id, config, queued_count, projected_completion, created_at, cancelled_at
        FROM send_schedules
        WHERE campaign_id=$1 AND cancelled_at IS NULL
        ORDER BY created_at DESC
        LIMIT 1
    `
	var s model.SendSchedule
	err := r.DB.QueryRow(query, campaignID).Scan(&s.ID, &s.CampaignID, &s.CredentialID, &s.ConfigJSON, &s.QueuedCount, &s.ProjectedCompletion, &s.CreatedAt, &s.CancelledAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *ScheduleRepository) CancelSchedule(campaignID int, now time.Time) (int, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
        UPDATE send_schedules SET cancelled_at=$1
        WHERE campaign_id=$2 AND cancelled_at IS NULL
    `, now, campaignID)
	if err != nil {
		return 0, err
	}

	res, err := tx.Exec(`
        UPDATE send_queue_items SET status=$1
        WHERE campaign_id=$2 AND status=$3 AND send_at > $4
    `, model.QueueItemCancelled, campaignID, model.QueueItemQueued, now)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(n), tx.Commit()
}

// ClaimDue uses FOR UPDATE SKIP LOCKED so concurrent pollers never claim
// the same item twice.
func (r *ScheduleRepository) ClaimDue(now time.Time, limit int) ([]model.SendQueueItem, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
        SELECT id, schedule_id, campaign_id, prospect_id, scheduled_date, scheduled_slot, send_at, status, attempt_count, last_error, created_at
        FROM send_queue_items
        WHERE status=$1 AND send_at <= $2
        ORDER BY send_at
        LIMIT $3
        FOR UPDATE SKIP LOCKED
    `, model.QueueItemQueued, now, limit)
	if err != nil {
		return nil, err
	}

	items := []model.SendQueueItem{}
	for rows.Next() {
		var it model.SendQueueItem
		if err := rows.Scan(&it.ID, &it.ScheduleID, &it.CampaignID, &it.ProspectID, &it.ScheduledDate, &it.ScheduledSlot, &it.SendAt, &it.Status, &it.AttemptCount, &it.LastError, &it.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, it)
	}
	rows.Close()

	for i := range items {
		if _, err := tx.Exec(`UPDATE send_queue_items SET status=$1 WHERE id=$2`, model.QueueItemDispatched, items[i].ID); err != nil {
			return nil, err
		}
		items[i].Status = model.QueueItemDispatched
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ScheduleRepository) GetItemByID(id int) (*model.SendQueueItem, error) {
	query := `
        SELECT id, schedule_id, campaign_id, prospect_id, scheduled_date, scheduled_slot, send_at, status, attempt_count, last_error, created_at
        FROM send_queue_items
        WHERE id=$1
    `
	var it model.SendQueueItem
	err := r.DB.QueryRow(query, id).Scan(&it.ID, &it.ScheduleID, &it.CampaignID, &it.ProspectID, &it.ScheduledDate, &it.ScheduledSlot, &it.SendAt, &it.Status, &it.AttemptCount, &it.LastError, &it.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &it, nil
}

func (r *ScheduleRepository) MarkItem(id int, status, lastError string) error {
	_, err := r.DB.Exec(`UPDATE send_queue_items SET status=$1, last_error=$2 WHERE id=$3`, status, lastError, id)
	return err
}

func (r *ScheduleRepository) IncrementAttempt(id int) (int, error) {
	var attempts int
	err := r.DB.QueryRow(`
        UPDATE send_queue_items SET attempt_count=attempt_count+1 WHERE id=$1
        RETURNING attempt_count
    `, id).Scan(&attempts)
	return attempts, err
}

var _ ScheduleRepositoryInterface = (*ScheduleRepository)(nil)
