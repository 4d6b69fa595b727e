package treasury

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

// Repository encapsulates DB operations for disbursements and collections.
type Repository interface {
	GetDisbursement(ctx context.Context, id int64) (Disbursement, error)
	ListDisbursements(ctx context.Context, req ListDisbursementsRequest) ([]Disbursement, error)
	GetCollection(ctx context.Context, id int64) (Collection, error)
	ListCollections(ctx context.Context, req ListCollectionsRequest) ([]Collection, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional operations. Issuing a disbursement locks
// the voucher row so its paid flip cannot race another issue or a cancel.
type TxRepository interface {
	InsertDisbursement(ctx context.Context, in DisbursementInput, amount decimal.Decimal, createdBy int64) (Disbursement, error)
	GetDisbursementForUpdate(ctx context.Context, id int64) (Disbursement, error)
	UpdateDisbursementStatus(ctx context.Context, id int64, status DisbursementStatus) error
	GetVoucherForUpdate(ctx context.Context, voucherID int64) (string, decimal.Decimal, error)
	UpdateVoucherStatus(ctx context.Context, voucherID int64, status string) error
	InsertCollection(ctx context.Context, in CollectionInput, number string, createdBy int64) (Collection, error)
	GetCollectionForUpdate(ctx context.Context, id int64) (Collection, error)
	UpdateCollectionStatus(ctx context.Context, id int64, status CollectionStatus, depositedAt *time.Time) error
	GenerateReceiptNumber(ctx context.Context) (string, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

var _ Repository = (*repository)(nil)
var _ TxRepository = (*txRepository)(nil)

const disbursementColumns = `id, voucher_id, payment_method, check_number, bank_account, amount, disbursement_date, status, created_by, created_at, updated_at`
const collectionColumns = `id, receipt_number, payer, particulars, collection_type, account_code, amount, collection_date, payment_method, status, created_by, created_at, updated_at, deposited_at`

func (r *repository) GetDisbursement(ctx context.Context, id int64) (Disbursement, error) {
	row := r.db.QueryRow(ctx, `SELECT `+disbursementColumns+` FROM disbursements WHERE id=$1`, id)
	return scanDisbursement(row)
}

func (r *repository) ListDisbursements(ctx context.Context, req ListDisbursementsRequest) ([]Disbursement, error) {
	query := `SELECT ` + disbursementColumns + ` FROM disbursements`
	args := []any{}
	switch {
	case req.VoucherID != 0:
		query += ` WHERE voucher_id=$1`
		args = append(args, req.VoucherID)
	case req.Status != "":
		query += ` WHERE status=$1`
		args = append(args, req.Status)
	}
	query += ` ORDER BY id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Disbursement
	for rows.Next() {
		d, err := scanDisbursement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repository) GetCollection(ctx context.Context, id int64) (Collection, error) {
	row := r.db.QueryRow(ctx, `SELECT `+collectionColumns+` FROM collections WHERE id=$1`, id)
	return scanCollection(row)
}

func (r *repository) ListCollections(ctx context.Context, req ListCollectionsRequest) ([]Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections`
	args := []any{}
	switch {
	case req.Status != "":
		query += ` WHERE status=$1`
		args = append(args, req.Status)
	case req.Type != "":
		query += ` WHERE collection_type=$1`
		args = append(args, req.Type)
	}
	query += ` ORDER BY receipt_number DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertDisbursement(ctx context.Context, in DisbursementInput, amount decimal.Decimal, createdBy int64) (Disbursement, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO disbursements (voucher_id, payment_method, check_number, bank_account, amount, disbursement_date, status, created_by)
VALUES ($1,$2,$3,$4,$5,$6,'issued',$7) RETURNING `+disbursementColumns,
		in.VoucherID, in.PaymentMethod, in.CheckNumber, in.BankAccount, amount, in.DisbursementDate, createdBy)
	return scanDisbursement(row)
}

func (r *txRepository) GetDisbursementForUpdate(ctx context.Context, id int64) (Disbursement, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+disbursementColumns+` FROM disbursements WHERE id=$1 FOR UPDATE`, id)
	return scanDisbursement(row)
}

func (r *txRepository) UpdateDisbursementStatus(ctx context.Context, id int64, status DisbursementStatus) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE disbursements SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) GetVoucherForUpdate(ctx context.Context, voucherID int64) (string, decimal.Decimal, error) {
	var status string
	var amount decimal.Decimal
	err := r.tx.QueryRow(ctx, `SELECT status, amount FROM disbursement_vouchers WHERE id=$1 FOR UPDATE`, voucherID).Scan(&status, &amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", decimal.Zero, fmt.Errorf("%w: voucher", shared.ErrNotFound)
		}
		return "", decimal.Zero, err
	}
	return status, amount, nil
}

func (r *txRepository) UpdateVoucherStatus(ctx context.Context, voucherID int64, status string) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE disbursement_vouchers SET status=$2, updated_at=NOW() WHERE id=$1`, voucherID, status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) InsertCollection(ctx context.Context, in CollectionInput, number string, createdBy int64) (Collection, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO collections (receipt_number, payer, particulars, collection_type, account_code, amount, collection_date, payment_method, status, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'recorded',$9) RETURNING `+collectionColumns,
		number, in.Payer, in.Particulars, in.CollectionType, in.AccountCode, in.Amount, in.CollectionDate, in.PaymentMethod, createdBy)
	c, err := scanCollection(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Collection{}, fmt.Errorf("%w: receipt number %s", shared.ErrDuplicate, number)
		}
		return Collection{}, err
	}
	return c, nil
}

func (r *txRepository) GetCollectionForUpdate(ctx context.Context, id int64) (Collection, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+collectionColumns+` FROM collections WHERE id=$1 FOR UPDATE`, id)
	return scanCollection(row)
}

func (r *txRepository) UpdateCollectionStatus(ctx context.Context, id int64, status CollectionStatus, depositedAt *time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE collections SET status=$2, deposited_at=$3, updated_at=NOW() WHERE id=$1`, id, status, depositedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) GenerateReceiptNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := r.tx.QueryRow(ctx, `SELECT nextval('receipt_number_seq')`).Scan(&seq); err != nil {
		return "", err
	}
	return fmt.Sprintf("OR-%d-%05d", time.Now().Year(), seq), nil
}

func scanDisbursement(row pgx.Row) (Disbursement, error) {
	var d Disbursement
	err := row.Scan(&d.ID, &d.VoucherID, &d.PaymentMethod, &d.CheckNumber, &d.BankAccount,
		&d.Amount, &d.DisbursementDate, &d.Status, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Disbursement{}, fmt.Errorf("%w: disbursement", shared.ErrNotFound)
		}
		return Disbursement{}, err
	}
	return d, nil
}

func scanCollection(row pgx.Row) (Collection, error) {
	var c Collection
	err := row.Scan(&c.ID, &c.ReceiptNumber, &c.Payer, &c.Particulars, &c.CollectionType, &c.AccountCode,
		&c.Amount, &c.CollectionDate, &c.PaymentMethod, &c.Status, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
		&c.DepositedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Collection{}, fmt.Errorf("%w: collection", shared.ErrNotFound)
		}
		return Collection{}, err
	}
	return c, nil
}
