package repository

import (
	"database/sql"

	"github.com/coldpilot/coldpilot-backend/internal/model"
	"github.com/lib/pq"
)

// ProspectRepositoryInterface defines methods used by services
type ProspectRepositoryInterface interface {
	GetByID(id int) (*model.Prospect, error)
	ListByIDs(ids []int) ([]model.Prospect, error)
}

// ProspectRepository is the concrete implementation
type ProspectRepository struct {
	DB *sql.DB
}

// GetByID fetches a prospect by ID
func (r *ProspectRepository) GetByID(id int) (*model.Prospect, error) {
	query := `
        SELECT id, account_id, email, first_name, last_name, company, title, location, created_at
        FROM prospects
        WHERE id = $1
    `
	row := r.DB.QueryRow(query, id)

	var p model.Prospect
	if err := row.Scan(&p.ID, &p.AccountID, &p.Email, &p.FirstName, &p.LastName, &p.Company, &p.Title, &p.Location, &p.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &p, nil
}

// ListByIDs fetches the given prospects, preserving no particular order.
func (r *ProspectRepository) ListByIDs(ids []int) ([]model.Prospect, error) {
	query := `
        SELECT id, account_id, email, first_name, last_name, company, title, location, created_at
        FROM prospects
        WHERE id = ANY($1)
    `
	rows, err := r.DB.Query(query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prospects := []model.Prospect{}
	for rows.Next() {
		var p model.Prospect
		if err := rows.Scan(&p.ID, &p.AccountID, &p.Email, &p.FirstName, &p.LastName, &p.Company, &p.Title, &p.Location, &p.CreatedAt); err != nil {
			return nil, err
		}
		prospects = append(prospects, p)
	}
	return prospects, nil
}

var _ ProspectRepositoryInterface = (*ProspectRepository)(nil)
