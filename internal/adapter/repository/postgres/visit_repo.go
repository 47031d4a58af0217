package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/simaogato/dcaflow-backend/internal/domain"
)

// visitRepository implements domain.VisitRepository
type visitRepository struct {
	db *DB
}

// NewVisitRepository creates a new daily visit repository
func NewVisitRepository(db *DB) domain.VisitRepository {
	return &visitRepository{db: db}
}

// Record adds a page view, and a unique visit when unique is set, to the day's counters
func (r *visitRepository) Record(ctx context.Context, day time.Time, unique bool) error {
	uniqueInc := 0
	if unique {
		uniqueInc = 1
	}

	query := `
		INSERT INTO daily_visits (date, page_views, unique_visits)
		VALUES ($1, 1, $2)
		ON CONFLICT (date) DO UPDATE SET
			page_views = daily_visits.page_views + 1,
			unique_visits = daily_visits.unique_visits + EXCLUDED.unique_visits
	`

	if _, err := r.db.ExecContext(ctx, query, domain.Day(day), uniqueInc); err != nil {
		return fmt.Errorf("failed to record visit: %w", err)
	}
	return nil
}

// Range retrieves the stored daily counters between from and to inclusive
func (r *visitRepository) Range(ctx context.Context, from, to time.Time) ([]domain.DailyVisits, error) {
	query := `
		SELECT date, page_views, unique_visits
		FROM daily_visits
		WHERE date BETWEEN $1 AND $2
		ORDER BY date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, domain.Day(from), domain.Day(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list daily visits: %w", err)
	}
	defer rows.Close()

	var visits []domain.DailyVisits
	for rows.Next() {
		var v domain.DailyVisits
		if err := rows.Scan(&v.Date, &v.PageViews, &v.UniqueVisits); err != nil {
			return nil, fmt.Errorf("failed to scan daily visits: %w", err)
		}
		v.Date = domain.Day(v.Date)
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily visits: %w", err)
	}

	return visits, nil
}
