// internal/model/link.go
package model

import "time"

// CampaignProspectLink is the long-lived join between a campaign and a
// prospect. It carries the authoritative email status and the generated
// content. Removal is an explicit unlink, never a side effect.
type CampaignProspectLink struct {
	ID               int         `db:"id" json:"id"`
	CampaignID       int         `db:"campaign_id" json:"campaign_id"`
	ProspectID       int         `db:"prospect_id" json:"prospect_id"`
	EmailStatus      EmailStatus `db:"email_status" json:"email_status"`
	GeneratedSubject string      `db:"generated_subject" json:"generated_subject"`
	GeneratedBody    string      `db:"generated_body" json:"generated_body"`
	GenerationFailed bool        `db:"generation_failed" json:"generation_failed"`
	LastError        string      `db:"last_error" json:"last_error,omitempty"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updated_at"`
}

// StatusTransition is one row of the append-only transition log. Consumers
// fold the log into current state; rows are never updated in place.
type StatusTransition struct {
	ID         int         `db:"id" json:"id"`
	CampaignID int         `db:"campaign_id" json:"campaign_id"`
	ProspectID int         `db:"prospect_id" json:"prospect_id"`
	FromStatus EmailStatus `db:"from_status" json:"from_status"`
	ToStatus   EmailStatus `db:"to_status" json:"to_status"`
	Provenance string      `db:"provenance" json:"provenance"` // machine, manual
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
}
