package dashboard

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/munifin/munifin/internal/roles"
)

// Stats summarizes fiscal activity for one fiscal year.
type Stats struct {
	FiscalYear         int             `json:"fiscalYear"`
	TotalBudget        decimal.Decimal `json:"totalBudget"`
	TotalObligated     decimal.Decimal `json:"totalObligated"`
	RemainingBalance   decimal.Decimal `json:"remainingBalance"`
	ActiveItems        int64           `json:"activeItems"`
	PendingObligations int64           `json:"pendingObligations"`
	PostedEntries      int64           `json:"postedEntries"`
	TotalDisbursed     decimal.Decimal `json:"totalDisbursed"`
	TotalCollected     decimal.Decimal `json:"totalCollected"`
}

// Repository reads aggregate figures across modules.
type Repository interface {
	Stats(ctx context.Context, fiscalYear int) (Stats, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) Stats(ctx context.Context, fiscalYear int) (Stats, error) {
	stats := Stats{FiscalYear: fiscalYear}

	err := r.db.QueryRow(ctx, `SELECT
COALESCE(SUM(amount), 0),
COALESCE(SUM(amount - balance), 0),
COALESCE(SUM(balance), 0),
COUNT(*) FILTER (WHERE status='active')
FROM budget_items WHERE fiscal_year=$1 AND status <> 'cancelled'`, fiscalYear).
		Scan(&stats.TotalBudget, &stats.TotalObligated, &stats.RemainingBalance, &stats.ActiveItems)
	if err != nil {
		return Stats{}, err
	}

	err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM budget_obligations o
JOIN budget_items i ON i.id = o.budget_item_id
WHERE i.fiscal_year=$1 AND o.status='pending'`, fiscalYear).Scan(&stats.PendingObligations)
	if err != nil {
		return Stats{}, err
	}

	err = r.db.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries
WHERE status='posted' AND EXTRACT(YEAR FROM entry_date)=$1`, fiscalYear).Scan(&stats.PostedEntries)
	if err != nil {
		return Stats{}, err
	}

	err = r.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM disbursements
WHERE status <> 'cancelled' AND EXTRACT(YEAR FROM disbursement_date)=$1`, fiscalYear).Scan(&stats.TotalDisbursed)
	if err != nil {
		return Stats{}, err
	}

	err = r.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM collections
WHERE status <> 'cancelled' AND EXTRACT(YEAR FROM collection_date)=$1`, fiscalYear).Scan(&stats.TotalCollected)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return Stats{}, err
	}

	return stats, nil
}

// Service exposes dashboard aggregates. Any authenticated role can read them;
// the dashboard shows every module a high-level view.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Stats(ctx context.Context, actor roles.Actor, fiscalYear int) (Stats, error) {
	_ = actor
	return s.repo.Stats(ctx, fiscalYear)
}
