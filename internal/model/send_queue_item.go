// internal/model/send_queue_item.go
package model

import "time"

// Queue item states. queued items whose send_at has passed are claimed by
// the drainer (dispatched), then finished (done) or parked (skipped, failed).
// cancelled is set by schedule deletion for not-yet-reached items.
const (
	QueueItemQueued     = "queued"
	QueueItemDispatched = "dispatched"
	QueueItemDone       = "done"
	QueueItemSkipped    = "skipped"
	QueueItemFailed     = "failed"
	QueueItemCancelled  = "cancelled"
)

// SendQueueItem is one (prospect, date, slot) assignment produced by a
// scheduling run. Date and slot are immutable after creation; rescheduling
// means a new run.
type SendQueueItem struct {
	ID            int       `db:"id" json:"id"`
	ScheduleID    string    `db:"schedule_id" json:"schedule_id"`
	CampaignID    int       `db:"campaign_id" json:"campaign_id"`
	ProspectID    int       `db:"prospect_id" json:"prospect_id"`
	ScheduledDate time.Time `db:"scheduled_date" json:"scheduled_date"`
	ScheduledSlot int       `db:"scheduled_slot" json:"scheduled_slot"`
	SendAt        time.Time `db:"send_at" json:"send_at"`
	Status        string    `db:"status" json:"status"`
	AttemptCount  int       `db:"attempt_count" json:"attempt_count"`
	LastError     string    `db:"last_error" json:"last_error,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
