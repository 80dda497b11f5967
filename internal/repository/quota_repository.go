package repository

import (
	"database/sql"

	"github.com/coldpilot/coldpilot-backend/internal/model"
)

type QuotaRepositoryInterface interface {
	Get(accountID int, resource string) (*model.Quota, error)

	// ConsumeOne increments used by one, guarded by used < limit in the
	// same statement so concurrent senders can never overrun the cap.
	// Returns false when the allowance is already exhausted.
	ConsumeOne(accountID int, resource string) (bool, error)
}

type QuotaRepository struct {
	DB *sql.DB
}

func (r *QuotaRepository) Get(accountID int, resource string) (*model.Quota, error) {
	query := `SELECT account_id, resource, used, "limit" FROM quotas WHERE account_id=$1 AND resource=$2`
	var q model.Quota
	err := r.DB.QueryRow(query, accountID, resource).Scan(&q.AccountID, &q.Resource, &q.Used, &q.Limit)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (r *QuotaRepository) ConsumeOne(accountID int, resource string) (bool, error) {
	res, err := r.DB.Exec(`
        UPDATE quotas SET used=used+1
        WHERE account_id=$1 AND resource=$2 AND used < "limit"
    `, accountID, resource)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var _ QuotaRepositoryInterface = (*QuotaRepository)(nil)
