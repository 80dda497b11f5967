package repository

import (
	"database/sql"

	"github.com/coldpilot/coldpilot-backend/internal/model"
)

type SMTPCredentialRepositoryInterface interface {
	GetActive(accountID, id int) (*model.SMTPCredential, error)
	ListActive(accountID int) ([]model.SMTPCredential, error)
}

type SMTPCredentialRepository struct {
	DB *sql.DB
}

const credentialColumns = `id, account_id, name, provider, host, port, username, from_email, from_name, active, created_at`

func (r *SMTPCredentialRepository) GetActive(accountID, id int) (*model.SMTPCredential, error) {
	query := `SELECT ` + credentialColumns + ` FROM smtp_credentials WHERE id=$1 AND account_id=$2 AND active`
	var c model.SMTPCredential
	err := r.DB.QueryRow(query, id, accountID).Scan(&c.ID, &c.AccountID, &c.Name, &c.Provider, &c.Host, &c.Port, &c.Username, &c.FromEmail, &c.FromName, &c.Active, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *SMTPCredentialRepository) ListActive(accountID int) ([]model.SMTPCredential, error) {
	query := `SELECT ` + credentialColumns + ` FROM smtp_credentials WHERE account_id=$1 AND active ORDER BY id`
	rows, err := r.DB.Query(query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	creds := []model.SMTPCredential{}
	for rows.Next() {
		var c model.SMTPCredential
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Name, &c.Provider, &c.Host, &c.Port, &c.Username, &c.FromEmail, &c.FromName, &c.Active, &c.CreatedAt); err != nil {
			return nil, err
		}
		creds = append(creds, c)
	}
	return creds, nil
}

var _ SMTPCredentialRepositoryInterface = (*SMTPCredentialRepository)(nil)
