package repository

import (
	"database/sql"
	"time"
)

type HolidayRepositoryInterface interface {
	// ListFrom returns holiday dates on or after the given date.
	ListFrom(from time.Time) ([]time.Time, error)
}

type HolidayRepository struct {
	DB *sql.DB
}

func (r *HolidayRepository) ListFrom(from time.Time) ([]time.Time, error) {
	rows, err := r.DB.Query(`SELECT holiday_date FROM holidays WHERE holiday_date >= $1 ORDER BY holiday_date`, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dates := []time.Time{}
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

var _ HolidayRepositoryInterface = (*HolidayRepository)(nil)
