package repository

import (
	"database/sql"

	appErrors "github.com/coldpilot/coldpilot-backend/internal/errors"
	"github.com/coldpilot/coldpilot-backend/internal/model"
)

type LinkRepositoryInterface interface {
	GetLink(campaignID, prospectID int) (*model.CampaignProspectLink, error)
	CreateIfMissing(campaignID, prospectID int) (created bool, err error)
	ListByCampaign(campaignID int) ([]model.CampaignProspectLink, error)
	CountByStatus(campaignID int) (map[string]int, error)
	Unlink(campaignID, prospectID int) error

	// Machine-driven transitions. All are compare-and-swap on the current
	// status and return appErrors.ErrTransitionConflict when another actor
	// got there first.
	TransitionStatus(campaignID, prospectID int, from, to model.EmailStatus) error
	TransitionToGenerated(campaignID, prospectID int, subject, body string) error
	MarkGenerationFailed(campaignID, prospectID int, lastError string) error

	// OverrideStatus bypasses the transition graph. The caller is the manual
	// escape hatch only; the write is logged with manual provenance.
	OverrideStatus(campaignID, prospectID int, to model.EmailStatus) (from model.EmailStatus, err error)

	ListTransitions(campaignID int, limit int) ([]model.StatusTransition, error)
}

type LinkRepository struct {
	DB *sql.DB
}

const linkColumns = `id, campaign_id, prospect_id, email_status, generated_subject, generated_body, generation_failed, last_error, created_at, updated_at`

func scanLink(row interface{ Scan(...interface{}) error }) (*model.CampaignProspectLink, error) {
	var l model.CampaignProspectLink
	err := row.Scan(&l.ID, &l.CampaignID, &l.ProspectID, &l.EmailStatus, &l.GeneratedSubject, &l.GeneratedBody, &l.GenerationFailed, &l.LastError, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LinkRepository) GetLink(campaignID, prospectID int) (*model.CampaignProspectLink, error) {
	query := `SELECT ` + linkColumns + ` FROM campaign_prospects WHERE campaign_id=$1 AND prospect_id=$2`
	l, err := scanLink(r.DB.QueryRow(query, campaignID, prospectID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

// CreateIfMissing inserts the link in its initial not_generated state.
// Idempotent: an existing link is left untouched.
func (r *LinkRepository) CreateIfMissing(campaignID, prospectID int) (bool, error) {
	query := `
        INSERT INTO campaign_prospects (campaign_id, prospect_id, email_status, created_at, updated_at)
        VALUES ($1, $2, 'not_generated', NOW(), NOW())
        ON CONFLICT (campaign_id, prospect_id) DO NOTHING
    `
	res, err := r.DB.Exec(query, campaignID, prospectID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *LinkRepository) ListByCampaign(campaignID int) ([]model.CampaignProspectLink, error) {
	query := `SELECT ` + linkColumns + ` FROM campaign_prospects WHERE campaign_id=$1 ORDER BY id`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []model.CampaignProspectLink{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *l)
	}
	return links, nil
}

func (r *LinkRepository) CountByStatus(campaignID int) (map[string]int, error) {
	query := `SELECT email_status, COUNT(*) FROM campaign_prospects WHERE campaign_id=$1 GROUP BY email_status`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
		stats["total"] += count
	}
	return stats, nil
}

// Unlink removes the association. Explicit removal only; nothing else
// deletes links.
func (r *LinkRepository) Unlink(campaignID, prospectID int) error {
	_, err := r.DB.Exec(`DELETE FROM campaign_prospects WHERE campaign_id=$1 AND prospect_id=$2`, campaignID, prospectID)
	return err
}

// TransitionStatus applies one machine edge under compare-and-swap. The
// WHERE clause on the current status is the per-prospect mutual exclusion:
// of two racing callers exactly one matches, the other gets
// ErrTransitionConflict and should re-read and no-op.
func (r *LinkRepository) TransitionStatus(campaignID, prospectID int, from, to model.EmailStatus) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
        UPDATE campaign_prospects
        SET email_status=$1, updated_at=NOW()
        WHERE campaign_id=$2 AND prospect_id=$3 AND email_status=$4
    `, to, campaignID, prospectID, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.ErrTransitionConflict
	}

	if err := insertTransition(tx, campaignID, prospectID, from, to, model.ProvenanceMachine); err != nil {
		return err
	}
	return tx.Commit()
}

// TransitionToGenerated is the generate_success edge plus the generated
// content, applied atomically so a racing generator cannot half-write.
func (r *LinkRepository) TransitionToGenerated(campaignID, prospectID int, subject, body string) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
        UPDATE campaign_prospects
        SET email_status='generated', generated_subject=$1, generated_body=$2, generation_failed=FALSE, last_error='', updated_at=NOW()
        WHERE campaign_id=$3 AND prospect_id=$4 AND email_status='not_generated'
    `, subject, body, campaignID, prospectID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.ErrTransitionConflict
	}

	if err := insertTransition(tx, campaignID, prospectID, model.StatusNotGenerated, model.StatusGenerated, model.ProvenanceMachine); err != nil {
		return err
	}
	return tx.Commit()
}

// MarkGenerationFailed parks the link after exhausted generation retries.
// The status stays not_generated so a manual retry remains possible.
func (r *LinkRepository) MarkGenerationFailed(campaignID, prospectID int, lastError string) error {
	_, err := r.DB.Exec(`
        UPDATE campaign_prospects
        SET generation_failed=TRUE, last_error=$1, updated_at=NOW()
        WHERE campaign_id=$2 AND prospect_id=$3
    `, lastError, campaignID, prospectID)
	return err
}

func (r *LinkRepository) OverrideStatus(campaignID, prospectID int, to model.EmailStatus) (model.EmailStatus, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var from model.EmailStatus
	err = tx.QueryRow(`
        SELECT email_status FROM campaign_prospects
        WHERE campaign_id=$1 AND prospect_id=$2
        FOR UPDATE
    `, campaignID, prospectID).Scan(&from)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", appErrors.NewProspectNotFound(prospectID)
		}
		return "", err
	}

	_, err = tx.Exec(`
        UPDATE campaign_prospects SET email_status=$1, updated_at=NOW()
        WHERE campaign_id=$2 AND prospect_id=$3
    `, to, campaignID, prospectID)
	if err != nil {
		return "", err
	}

	if err := insertTransition(tx, campaignID, prospectID, from, to, model.ProvenanceManual); err != nil {
		return "", err
	}
	return from, tx.Commit()
}

func (r *LinkRepository) ListTransitions(campaignID int, limit int) ([]model.StatusTransition, error) {
	query := `
        SELECT id, campaign_id, prospect_id, from_status, to_status, provenance, created_at
        FROM status_transitions
        WHERE campaign_id=$1
        ORDER BY id DESC
        LIMIT $2
    `
	rows, err := r.DB.Query(query, campaignID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.StatusTransition{}
	for rows.Next() {
		var t model.StatusTransition
		if err := rows.Scan(&t.ID, &t.CampaignID, &t.ProspectID, &t.FromStatus, &t.ToStatus, &t.Provenance, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func insertTransition(tx *sql.Tx, campaignID, prospectID int, from, to model.EmailStatus, provenance string) error {
	_, err := tx.Exec(`
        INSERT INTO status_transitions (campaign_id, prospect_id, from_status, to_status, provenance, created_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
    `, campaignID, prospectID, from, to, provenance)
	return err
}

var _ LinkRepositoryInterface = (*LinkRepository)(nil)
