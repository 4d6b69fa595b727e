package journals

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

// Repository encapsulates DB operations for journal entries and their lines.
type Repository interface {
	GetEntry(ctx context.Context, id int64) (JournalEntry, error)
	ListEntries(ctx context.Context, req ListEntriesRequest) ([]JournalEntry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional operations. Posting locks both the entry
// and its linked obligation so the status flip and the obligation side effect
// commit or roll back together.
type TxRepository interface {
	InsertEntry(ctx context.Context, in CreateEntryInput, number string, createdBy int64) (JournalEntry, error)
	InsertItem(ctx context.Context, entryID int64, in ItemInput) (JournalItem, error)
	GetEntryForUpdate(ctx context.Context, id int64) (JournalEntry, error)
	ListItems(ctx context.Context, entryID int64) ([]JournalItem, error)
	MarkPosted(ctx context.Context, id int64, totalDebit, totalCredit decimal.Decimal, postedBy int64) error
	MarkCancelled(ctx context.Context, id int64) error
	GenerateEntryNumber(ctx context.Context) (string, error)
	// Obligation side effect, executed inside the posting transaction.
	GetObligationStatusForUpdate(ctx context.Context, obligationID int64) (string, error)
	MarkObligationProcessed(ctx context.Context, obligationID, processedBy int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

var _ Repository = (*repository)(nil)
var _ TxRepository = (*txRepository)(nil)

const entryColumns = `id, entry_number, entry_date, description, obligation_id, status, total_debit, total_credit, created_by, created_at, updated_at, posted_by, posted_at`
const itemColumns = `id, entry_id, account_code, account_name, debit, credit, created_at`

func (r *repository) GetEntry(ctx context.Context, id int64) (JournalEntry, error) {
	row := r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, id)
	entry, err := scanEntry(row)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Items, err = listItems(ctx, r.db, id)
	return entry, err
}

func (r *repository) ListEntries(ctx context.Context, req ListEntriesRequest) ([]JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries`
	args := []any{}
	switch {
	case req.Status != "":
		query += ` WHERE status=$1`
		args = append(args, req.Status)
	case req.ObligationID != 0:
		query += ` WHERE obligation_id=$1`
		args = append(args, req.ObligationID)
	}
	query += ` ORDER BY entry_number DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertEntry(ctx context.Context, in CreateEntryInput, number string, createdBy int64) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (entry_number, entry_date, description, obligation_id, status, total_debit, total_credit, created_by)
VALUES ($1,$2,$3,$4,'draft',0,0,$5) RETURNING `+entryColumns,
		number, in.EntryDate, in.Description, in.ObligationID, createdBy)
	entry, err := scanEntry(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return JournalEntry{}, fmt.Errorf("%w: entry number %s", shared.ErrDuplicate, number)
		}
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertItem(ctx context.Context, entryID int64, in ItemInput) (JournalItem, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_items (entry_id, account_code, account_name, debit, credit)
VALUES ($1,$2,$3,$4,$5) RETURNING `+itemColumns,
		entryID, in.AccountCode, in.AccountName, in.Debit, in.Credit)
	var it JournalItem
	err := row.Scan(&it.ID, &it.EntryID, &it.AccountCode, &it.AccountName, &it.Debit, &it.Credit, &it.CreatedAt)
	if err != nil {
		return JournalItem{}, err
	}
	return it, nil
}

func (r *txRepository) GetEntryForUpdate(ctx context.Context, id int64) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 FOR UPDATE`, id)
	return scanEntry(row)
}

func (r *txRepository) ListItems(ctx context.Context, entryID int64) ([]JournalItem, error) {
	return listItems(ctx, r.tx, entryID)
}

func (r *txRepository) MarkPosted(ctx context.Context, id int64, totalDebit, totalCredit decimal.Decimal, postedBy int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries
SET status='posted', total_debit=$2, total_credit=$3, posted_by=$4, posted_at=NOW(), updated_at=NOW()
WHERE id=$1`, id, totalDebit, totalCredit, postedBy)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) MarkCancelled(ctx context.Context, id int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status='cancelled', updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *txRepository) GenerateEntryNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := r.tx.QueryRow(ctx, `SELECT nextval('journal_entry_number_seq')`).Scan(&seq); err != nil {
		return "", err
	}
	return fmt.Sprintf("JE-%d-%05d", time.Now().Year(), seq), nil
}

// Obligation queries live here rather than in the budget package because the
// posting transaction needs them on the same connection.
func (r *txRepository) GetObligationStatusForUpdate(ctx context.Context, obligationID int64) (string, error) {
	var status string
	err := r.tx.QueryRow(ctx, `SELECT status FROM budget_obligations WHERE id=$1 FOR UPDATE`, obligationID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: obligation", shared.ErrNotFound)
		}
		return "", err
	}
	return status, nil
}

func (r *txRepository) MarkObligationProcessed(ctx context.Context, obligationID, processedBy int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE budget_obligations
SET status='processed', processed_by=$2, processed_at=NOW(), updated_at=NOW()
WHERE id=$1`, obligationID, processedBy)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listItems(ctx context.Context, q queryer, entryID int64) ([]JournalItem, error) {
	rows, err := q.Query(ctx, `SELECT `+itemColumns+` FROM journal_items WHERE entry_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []JournalItem
	for rows.Next() {
		var it JournalItem
		if err := rows.Scan(&it.ID, &it.EntryID, &it.AccountCode, &it.AccountName, &it.Debit, &it.Credit, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.EntryNumber, &e.EntryDate, &e.Description, &e.ObligationID, &e.Status,
		&e.TotalDebit, &e.TotalCredit, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt, &e.PostedBy, &e.PostedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, fmt.Errorf("%w: journal entry", shared.ErrNotFound)
		}
		return JournalEntry{}, err
	}
	return e, nil
}
