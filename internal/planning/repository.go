package planning

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/munifin/munifin/internal/platform/db"
	"github.com/munifin/munifin/internal/shared"
)

// Repository encapsulates DB operations for plans and their items.
type Repository interface {
	GetAIP(ctx context.Context, id int64) (AIP, error)
	ListAIPs(ctx context.Context, req ListAIPsRequest) ([]AIP, error)
	GetItem(ctx context.Context, id int64) (AIPItem, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional operations on plans.
type TxRepository interface {
	InsertAIP(ctx context.Context, in CreateAIPInput, createdBy int64) (AIP, error)
	GetAIPForUpdate(ctx context.Context, id int64) (AIP, error)
	UpdateAIPStatus(ctx context.Context, id int64, status AIPStatus, approvedBy *int64) error
	UpdateAIPTotal(ctx context.Context, id int64, total decimal.Decimal) error
	InsertItem(ctx context.Context, aipID int64, in ItemInput) (AIPItem, error)
	GetItemForUpdate(ctx context.Context, id int64) (AIPItem, error)
	UpdateItemStatus(ctx context.Context, id int64, status ItemStatus) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

var _ Repository = (*repository)(nil)
var _ TxRepository = (*txRepository)(nil)

const aipColumns = `id, title, fiscal_year, description, status, total_amount, created_by, created_at, updated_at, approved_by, approved_at`
const aipItemColumns = `id, aip_id, reference_code, description, sector, amount, status, created_at, updated_at`

func (r *repository) GetAIP(ctx context.Context, id int64) (AIP, error) {
	row := r.db.QueryRow(ctx, `SELECT `+aipColumns+` FROM aips WHERE id=$1`, id)
	aip, err := scanAIP(row)
	if err != nil {
		return AIP{}, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+aipItemColumns+` FROM aip_items WHERE aip_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return AIP{}, err
	}
	defer rows.Close()
	for rows.Next() {
		item, err := scanAIPItem(rows)
		if err != nil {
			return AIP{}, err
		}
		aip.Items = append(aip.Items, item)
	}
	return aip, rows.Err()
}

func (r *repository) ListAIPs(ctx context.Context, req ListAIPsRequest) ([]AIP, error) {
	query := `SELECT ` + aipColumns + ` FROM aips`
	args := []any{}
	switch {
	case req.FiscalYear != 0:
		query += ` WHERE fiscal_year=$1`
		args = append(args, req.FiscalYear)
	case req.Status != "":
		query += ` WHERE status=$1`
		args = append(args, req.Status)
	}
	query += ` ORDER BY fiscal_year DESC, id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var aips []AIP
	for rows.Next() {
		aip, err := scanAIP(rows)
		if err != nil {
			return nil, err
		}
		aips = append(aips, aip)
	}
	return aips, rows.Err()
}

func (r *repository) GetItem(ctx context.Context, id int64) (AIPItem, error) {
	row := r.db.QueryRow(ctx, `SELECT `+aipItemColumns+` FROM aip_items WHERE id=$1`, id)
	return scanAIPItem(row)
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertAIP(ctx context.Context, in CreateAIPInput, createdBy int64) (AIP, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO aips (title, fiscal_year, description, status, total_amount, created_by)
VALUES ($1,$2,$3,'draft',0,$4) RETURNING `+aipColumns,
		in.Title, in.FiscalYear, in.Description, createdBy)
	return scanAIP(row)
}

func (r *txRepository) GetAIPForUpdate(ctx context.Context, id int64) (AIP, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+aipColumns+` FROM aips WHERE id=$1 FOR UPDATE`, id)
	return scanAIP(row)
}

func (r *txRepository) UpdateAIPStatus(ctx context.Context, id int64, status AIPStatus, approvedBy *int64) error {
	var cmd pgconn.CommandTag
	var err error
	if approvedBy != nil {
		cmd, err = r.tx.Exec(ctx, `UPDATE aips SET status=$2, approved_by=$3, approved_at=NOW(), updated_at=NOW() WHERE id=$1`, id, status, *approvedBy)
	} else {
		cmd, err = r.tx.Exec(ctx, `UPDATE aips SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) UpdateAIPTotal(ctx context.Context, id int64, total decimal.Decimal) error {
	_, err := r.tx.Exec(ctx, `UPDATE aips SET total_amount=$2, updated_at=NOW() WHERE id=$1`, id, total)
	return err
}

func (r *txRepository) InsertItem(ctx context.Context, aipID int64, in ItemInput) (AIPItem, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO aip_items (aip_id, reference_code, description, sector, amount, status)
VALUES ($1,$2,$3,$4,$5,'draft') RETURNING `+aipItemColumns,
		aipID, in.ReferenceCode, in.Description, in.Sector, in.Amount)
	return scanAIPItem(row)
}

func (r *txRepository) GetItemForUpdate(ctx context.Context, id int64) (AIPItem, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+aipItemColumns+` FROM aip_items WHERE id=$1 FOR UPDATE`, id)
	return scanAIPItem(row)
}

func (r *txRepository) UpdateItemStatus(ctx context.Context, id int64, status ItemStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE aip_items SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanAIP(row pgx.Row) (AIP, error) {
	var a AIP
	err := row.Scan(&a.ID, &a.Title, &a.FiscalYear, &a.Description, &a.Status, &a.TotalAmount,
		&a.CreatedBy, &a.CreatedAt, &a.UpdatedAt, &a.ApprovedBy, &a.ApprovedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AIP{}, fmt.Errorf("%w: investment plan", shared.ErrNotFound)
		}
		return AIP{}, err
	}
	return a, nil
}

func scanAIPItem(row pgx.Row) (AIPItem, error) {
	var it AIPItem
	err := row.Scan(&it.ID, &it.AIPID, &it.ReferenceCode, &it.Description, &it.Sector,
		&it.Amount, &it.Status, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AIPItem{}, fmt.Errorf("%w: plan item", shared.ErrNotFound)
		}
		return AIPItem{}, err
	}
	return it, nil
}
