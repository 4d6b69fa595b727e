package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/munifin/munifin/internal/platform/db"
	"github.com/munifin/munifin/internal/shared"
)

// Repository encapsulates DB operations for budget lines and obligations.
type Repository interface {
	GetItem(ctx context.Context, id int64) (BudgetItem, error)
	ListItems(ctx context.Context, req ListItemsRequest) ([]BudgetItem, error)
	CreateItem(ctx context.Context, in CreateItemInput, createdBy int64) (BudgetItem, error)
	GetObligation(ctx context.Context, id int64) (BudgetObligation, error)
	ListObligations(ctx context.Context, req ListObligationsRequest) ([]BudgetObligation, error)
	// SweepDepletions reconciles item status with balance: active items at
	// zero balance become depleted, depleted items with restored balance
	// become active again. Returns the number of rows touched.
	SweepDepletions(ctx context.Context) (int64, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction. The row lock
// taken by GetItemForUpdate is what serializes concurrent obligations against
// the same budget line.
type TxRepository interface {
	GetItemForUpdate(ctx context.Context, id int64) (BudgetItem, error)
	UpdateItemBalance(ctx context.Context, id int64, balance decimal.Decimal) error
	InsertObligation(ctx context.Context, in ObligationInput, number string, createdBy int64) (BudgetObligation, error)
	GetObligationForUpdate(ctx context.Context, id int64) (BudgetObligation, error)
	UpdateObligationStatus(ctx context.Context, id int64, status ObligationStatus) error
	GenerateObligationNumber(ctx context.Context) (string, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

var _ Repository = (*repository)(nil)
var _ TxRepository = (*txRepository)(nil)

const itemColumns = `id, aip_item_id, fiscal_year, account_code, description, amount, balance, status, created_by, created_at, updated_at`
const obligationColumns = `id, budget_item_id, obligation_number, payee, description, amount, obligation_date, status, created_by, created_at, updated_at, processed_by, processed_at`

func (r *repository) GetItem(ctx context.Context, id int64) (BudgetItem, error) {
	row := r.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM budget_items WHERE id=$1`, id)
	return scanItem(row)
}

func (r *repository) ListItems(ctx context.Context, req ListItemsRequest) ([]BudgetItem, error) {
	query := `SELECT ` + itemColumns + ` FROM budget_items`
	args := []any{}
	switch {
	case req.FiscalYear != 0:
		query += ` WHERE fiscal_year=$1`
		args = append(args, req.FiscalYear)
	case req.AIPItemID != 0:
		query += ` WHERE aip_item_id=$1`
		args = append(args, req.AIPItemID)
	}
	query += ` ORDER BY account_code ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BudgetItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) CreateItem(ctx context.Context, in CreateItemInput, createdBy int64) (BudgetItem, error) {
	// Balance starts equal to the allocation.
	row := r.db.QueryRow(ctx, `INSERT INTO budget_items (aip_item_id, fiscal_year, account_code, description, amount, balance, status, created_by)
VALUES ($1,$2,$3,$4,$5,$5,'active',$6) RETURNING `+itemColumns,
		in.AIPItemID, in.FiscalYear, in.AccountCode, in.Description, in.Amount, createdBy)
	return scanItem(row)
}

func (r *repository) GetObligation(ctx context.Context, id int64) (BudgetObligation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+obligationColumns+` FROM budget_obligations WHERE id=$1`, id)
	return scanObligation(row)
}

func (r *repository) ListObligations(ctx context.Context, req ListObligationsRequest) ([]BudgetObligation, error) {
	query := `SELECT ` + obligationColumns + ` FROM budget_obligations`
	args := []any{}
	switch {
	case req.BudgetItemID != 0:
		query += ` WHERE budget_item_id=$1`
		args = append(args, req.BudgetItemID)
	case req.Status != "":
		query += ` WHERE status=$1`
		args = append(args, req.Status)
	}
	query += ` ORDER BY obligation_number DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var obligations []BudgetObligation
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, err
		}
		obligations = append(obligations, o)
	}
	return obligations, rows.Err()
}

func (r *repository) SweepDepletions(ctx context.Context) (int64, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE budget_items SET
status = CASE WHEN balance = 0 THEN 'depleted' ELSE 'active' END,
updated_at = NOW()
WHERE (status='active' AND balance = 0) OR (status='depleted' AND balance > 0)`)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetItemForUpdate(ctx context.Context, id int64) (BudgetItem, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM budget_items WHERE id=$1 FOR UPDATE`, id)
	return scanItem(row)
}

func (r *txRepository) UpdateItemBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE budget_items SET balance=$2, updated_at=NOW() WHERE id=$1`, id, balance)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) InsertObligation(ctx context.Context, in ObligationInput, number string, createdBy int64) (BudgetObligation, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO budget_obligations (budget_item_id, obligation_number, payee, description, amount, obligation_date, status, created_by)
VALUES ($1,$2,$3,$4,$5,$6,'pending',$7) RETURNING `+obligationColumns,
		in.BudgetItemID, number, in.Payee, in.Description, in.Amount, in.ObligationDate, createdBy)
	obligation, err := scanObligation(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return BudgetObligation{}, fmt.Errorf("%w: obligation number %s", shared.ErrDuplicate, number)
		}
		return BudgetObligation{}, err
	}
	return obligation, nil
}

func (r *txRepository) GetObligationForUpdate(ctx context.Context, id int64) (BudgetObligation, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+obligationColumns+` FROM budget_obligations WHERE id=$1 FOR UPDATE`, id)
	return scanObligation(row)
}

func (r *txRepository) UpdateObligationStatus(ctx context.Context, id int64, status ObligationStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE budget_obligations SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) GenerateObligationNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := r.tx.QueryRow(ctx, `SELECT nextval('obligation_number_seq')`).Scan(&seq); err != nil {
		return "", err
	}
	return fmt.Sprintf("OBL-%d-%05d", time.Now().Year(), seq), nil
}

func scanItem(row pgx.Row) (BudgetItem, error) {
	var item BudgetItem
	err := row.Scan(&item.ID, &item.AIPItemID, &item.FiscalYear, &item.AccountCode, &item.Description,
		&item.Amount, &item.Balance, &item.Status, &item.CreatedBy, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BudgetItem{}, fmt.Errorf("%w: budget item", shared.ErrNotFound)
		}
		return BudgetItem{}, err
	}
	return item, nil
}

func scanObligation(row pgx.Row) (BudgetObligation, error) {
	var o BudgetObligation
	err := row.Scan(&o.ID, &o.BudgetItemID, &o.ObligationNumber, &o.Payee, &o.Description,
		&o.Amount, &o.ObligationDate, &o.Status, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
		&o.ProcessedBy, &o.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BudgetObligation{}, fmt.Errorf("%w: obligation", shared.ErrNotFound)
		}
		return BudgetObligation{}, err
	}
	return o, nil
}
