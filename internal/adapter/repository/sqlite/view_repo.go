package sqlite

import (
	"context"
	"fmt"

	"github.com/simaogato/dcaflow-backend/internal/domain"
)

// viewCountRepository implements domain.ViewCountRepository
type viewCountRepository struct {
	db *DB
}

// NewViewCountRepository creates a new ticker view counter repository
func NewViewCountRepository(db *DB) domain.ViewCountRepository {
	return &viewCountRepository{db: db}
}

// Increment adds one view to the ticker in a single statement
func (r *viewCountRepository) Increment(ctx context.Context, ticker string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ticker_views (ticker, view_count) VALUES (?, 1)
		ON CONFLICT (ticker) DO UPDATE SET view_count = view_count + 1
	`, ticker)
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return nil
}

// Top retrieves the most viewed tickers
func (r *viewCountRepository) Top(ctx context.Context, limit int) ([]domain.TickerViews, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ticker, view_count
		FROM ticker_views
		ORDER BY view_count DESC, ticker ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top tickers: %w", err)
	}
	defer rows.Close()

	var top []domain.TickerViews
	for rows.Next() {
		var v domain.TickerViews
		if err := rows.Scan(&v.Ticker, &v.ViewCount); err != nil {
			return nil, fmt.Errorf("failed to scan ticker views: %w", err)
		}
		top = append(top, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ticker views: %w", err)
	}
	return top, nil
}
