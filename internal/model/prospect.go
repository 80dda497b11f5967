// internal/model/prospect.go
package model

import "time"

type Prospect struct {
	ID        int       `db:"id" json:"id"`
	AccountID int       `db:"account_id" json:"account_id"`
	Email     string    `db:"email" json:"email"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Company   string    `db:"company" json:"company"`
	Title     string    `db:"title" json:"title"`
	Location  string    `db:"location" json:"location"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
