// internal/model/smtp_credential.go
package model

import "time"

type SMTPCredential struct {
	ID        int       `db:"id" json:"id"`
	AccountID int       `db:"account_id" json:"account_id"`
	Name      string    `db:"name" json:"name"`
	Provider  string    `db:"provider" json:"provider"` // sendgrid, gmail, outlook, ...
	Host      string    `db:"host" json:"host"`
	Port      int       `db:"port" json:"port"`
	Username  string    `db:"username" json:"username"`
	FromEmail string    `db:"from_email" json:"from_email"`
	FromName  string    `db:"from_name" json:"from_name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
