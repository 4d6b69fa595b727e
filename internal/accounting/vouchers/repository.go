package vouchers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/munifin/munifin/internal/platform/db"
	"github.com/munifin/munifin/internal/shared"
)

// Repository encapsulates DB operations for disbursement vouchers.
type Repository interface {
	Get(ctx context.Context, id int64) (Voucher, error)
	List(ctx context.Context, req ListRequest) ([]Voucher, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional operations. Creation locks the backing
// journal entry row so the posted check cannot race a concurrent cancel.
type TxRepository interface {
	Insert(ctx context.Context, in CreateInput, number string, createdBy int64) (Voucher, error)
	GetForUpdate(ctx context.Context, id int64) (Voucher, error)
	UpdateStatus(ctx context.Context, id int64, status VoucherStatus) error
	MarkApproved(ctx context.Context, id, approvedBy int64) error
	GenerateVoucherNumber(ctx context.Context) (string, error)
	GetJournalEntryStatusForUpdate(ctx context.Context, entryID int64) (string, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

var _ Repository = (*repository)(nil)
var _ TxRepository = (*txRepository)(nil)

const voucherColumns = `id, voucher_number, journal_entry_id, payee, particulars, amount, voucher_date, status, created_by, created_at, updated_at, approved_by, approved_at`

func (r *repository) Get(ctx context.Context, id int64) (Voucher, error) {
	row := r.db.QueryRow(ctx, `SELECT `+voucherColumns+` FROM disbursement_vouchers WHERE id=$1`, id)
	return scanVoucher(row)
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM disbursement_vouchers`
	args := []any{}
	switch {
	case req.Status != "":
		query += ` WHERE status=$1`
		args = append(args, req.Status)
	case req.JournalEntryID != 0:
		query += ` WHERE journal_entry_id=$1`
		args = append(args, req.JournalEntryID)
	}
	query += ` ORDER BY voucher_number DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var vouchers []Voucher
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) Insert(ctx context.Context, in CreateInput, number string, createdBy int64) (Voucher, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO disbursement_vouchers (voucher_number, journal_entry_id, payee, particulars, amount, voucher_date, status, created_by)
VALUES ($1,$2,$3,$4,$5,$6,'draft',$7) RETURNING `+voucherColumns,
		number, in.JournalEntryID, in.Payee, in.Particulars, in.Amount, in.VoucherDate, createdBy)
	v, err := scanVoucher(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Voucher{}, fmt.Errorf("%w: voucher number %s", shared.ErrDuplicate, number)
		}
		return Voucher{}, err
	}
	return v, nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Voucher, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+voucherColumns+` FROM disbursement_vouchers WHERE id=$1 FOR UPDATE`, id)
	return scanVoucher(row)
}

func (r *txRepository) UpdateStatus(ctx context.Context, id int64, status VoucherStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE disbursement_vouchers SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) MarkApproved(ctx context.Context, id, approvedBy int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE disbursement_vouchers
SET status='approved', approved_by=$2, approved_at=NOW(), updated_at=NOW()
WHERE id=$1`, id, approvedBy)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) GenerateVoucherNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := r.tx.QueryRow(ctx, `SELECT nextval('voucher_number_seq')`).Scan(&seq); err != nil {
		return "", err
	}
	return fmt.Sprintf("DV-%d-%05d", time.Now().Year(), seq), nil
}

func (r *txRepository) GetJournalEntryStatusForUpdate(ctx context.Context, entryID int64) (string, error) {
	var status string
	err := r.tx.QueryRow(ctx, `SELECT status FROM journal_entries WHERE id=$1 FOR UPDATE`, entryID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: journal entry", shared.ErrNotFound)
		}
		return "", err
	}
	return status, nil
}

func scanVoucher(row pgx.Row) (Voucher, error) {
	var v Voucher
	err := row.Scan(&v.ID, &v.VoucherNumber, &v.JournalEntryID, &v.Payee, &v.Particulars,
		&v.Amount, &v.VoucherDate, &v.Status, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt,
		&v.ApprovedBy, &v.ApprovedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Voucher{}, fmt.Errorf("%w: voucher", shared.ErrNotFound)
		}
		return Voucher{}, err
	}
	return v, nil
}
