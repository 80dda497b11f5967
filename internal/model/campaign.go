// internal/model/campaign.go
package model

import "time"

type Campaign struct {
	ID           int        `db:"id" json:"id"`
	AccountID    int        `db:"account_id" json:"account_id"`
	Name         string     `db:"name" json:"name"`
	Status       string     `db:"status" json:"status"` // draft, scheduled, sending, completed
	Prompt       string     `db:"prompt" json:"prompt"`
	BaseTemplate string     `db:"base_template" json:"base_template"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
