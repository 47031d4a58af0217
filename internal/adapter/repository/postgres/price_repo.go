package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simaogato/dcaflow-backend/internal/domain"
)

// priceRepository implements domain.PriceRepository
type priceRepository struct {
	db *DB
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *DB) domain.PriceRepository {
	return &priceRepository{db: db}
}

// SaveBatch inserts price points in one transaction, keeping rows already stored
func (r *priceRepository) SaveBatch(ctx context.Context, points []domain.PricePoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stock_prices (ticker, date, close, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker, date) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare price insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, p := range points {
		if err := p.Validate(); err != nil {
			return 0, fmt.Errorf("invalid price point %s %s: %w", p.Ticker, domain.FormatDate(p.Date), err)
		}
		updatedAt := p.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = time.Now()
		}
		res, err := stmt.ExecContext(ctx, p.Ticker, domain.Day(p.Date), p.Close.String(), updatedAt)
		if err != nil {
			return 0, fmt.Errorf("failed to insert price point: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read affected rows: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit price batch: %w", err)
	}
	return inserted, nil
}

// ListSeries retrieves every price point of a ticker in chronological order
func (r *priceRepository) ListSeries(ctx context.Context, ticker string) ([]domain.PricePoint, error) {
	query := `
		SELECT ticker, date, close, updated_at
		FROM stock_prices
		WHERE ticker = $1
		ORDER BY date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to list prices: %w", err)
	}
	defer rows.Close()

	var series []domain.PricePoint
	for rows.Next() {
		p, err := scanPrice(rows)
		if err != nil {
			return nil, err
		}
		series = append(series, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}

	return series, nil
}

// PriceAsOf retrieves the latest price point dated on or before asOf
func (r *priceRepository) PriceAsOf(ctx context.Context, ticker string, asOf time.Time) (*domain.PricePoint, error) {
	query := `
		SELECT ticker, date, close, updated_at
		FROM stock_prices
		WHERE ticker = $1 AND date <= $2
		ORDER BY date DESC
		LIMIT 1
	`

	p, err := scanPrice(r.db.QueryRowContext(ctx, query, ticker, domain.Day(asOf)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s as of %s: %w", ticker, domain.FormatDate(asOf), domain.ErrPriceNotFound)
		}
		return nil, err
	}
	return p, nil
}

// Latest retrieves the most recent price point of a ticker
func (r *priceRepository) Latest(ctx context.Context, ticker string) (*domain.PricePoint, error) {
	query := `
		SELECT ticker, date, close, updated_at
		FROM stock_prices
		WHERE ticker = $1
		ORDER BY date DESC
		LIMIT 1
	`

	p, err := scanPrice(r.db.QueryRowContext(ctx, query, ticker))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no prices for %s: %w", ticker, domain.ErrPriceNotFound)
		}
		return nil, err
	}
	return p, nil
}

// LastUpdatedAt returns the most recent refresh time of a ticker, nil if never refreshed
func (r *priceRepository) LastUpdatedAt(ctx context.Context, ticker string) (*time.Time, error) {
	var updatedAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(updated_at) FROM stock_prices WHERE ticker = $1`, ticker,
	).Scan(&updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get last update: %w", err)
	}
	if !updatedAt.Valid {
		return nil, nil
	}
	return &updatedAt.Time, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrice(row rowScanner) (*domain.PricePoint, error) {
	var p domain.PricePoint
	var closeStr string

	if err := row.Scan(&p.Ticker, &p.Date, &closeStr, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan price: %w", err)
	}

	// Parse close (NUMERIC)
	closePrice, err := decimal.NewFromString(closeStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse close: %w", err)
	}
	p.Close = closePrice
	p.Date = domain.Day(p.Date)

	return &p, nil
}
