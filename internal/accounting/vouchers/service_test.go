package vouchers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/munifin/munifin/internal/roles"
	"github.com/munifin/munifin/internal/shared"
)

type memRepo struct {
	mu       sync.Mutex
	vouchers map[int64]Voucher
	entries  map[int64]string
	nextID   int64
	nextSeq  int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		vouchers: make(map[int64]Voucher),
		entries:  make(map[int64]string),
	}
}

func (m *memRepo) Get(_ context.Context, id int64) (Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vouchers[id]
	if !ok {
		return Voucher{}, shared.ErrNotFound
	}
	return v, nil
}

func (m *memRepo) List(_ context.Context, req ListRequest) ([]Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Voucher
	for _, v := range m.vouchers {
		if req.Status != "" && v.Status != req.Status {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, &memTx{repo: m})
}

type memTx struct {
	repo *memRepo
}

func (t *memTx) Insert(_ context.Context, in CreateInput, number string, createdBy int64) (Voucher, error) {
	t.repo.nextID++
	v := Voucher{
		ID:             t.repo.nextID,
		VoucherNumber:  number,
		JournalEntryID: in.JournalEntryID,
		Payee:          in.Payee,
		Particulars:    in.Particulars,
		Amount:         in.Amount,
		VoucherDate:    in.VoucherDate,
		Status:         StatusDraft,
		CreatedBy:      createdBy,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	t.repo.vouchers[v.ID] = v
	return v, nil
}

func (t *memTx) GetForUpdate(_ context.Context, id int64) (Voucher, error) {
	v, ok := t.repo.vouchers[id]
	if !ok {
		return Voucher{}, shared.ErrNotFound
	}
	return v, nil
}

func (t *memTx) UpdateStatus(_ context.Context, id int64, status VoucherStatus) error {
	v, ok := t.repo.vouchers[id]
	if !ok {
		return shared.ErrNotFound
	}
	v.Status = status
	v.UpdatedAt = time.Now()
	t.repo.vouchers[id] = v
	return nil
}

func (t *memTx) MarkApproved(_ context.Context, id, approvedBy int64) error {
	v, ok := t.repo.vouchers[id]
	if !ok {
		return shared.ErrNotFound
	}
	now := time.Now()
	v.Status = StatusApproved
	v.ApprovedBy = &approvedBy
	v.ApprovedAt = &now
	v.UpdatedAt = now
	t.repo.vouchers[id] = v
	return nil
}

func (t *memTx) GenerateVoucherNumber(_ context.Context) (string, error) {
	t.repo.nextSeq++
	return fmt.Sprintf("DV-%d-%05d", time.Now().Year(), t.repo.nextSeq), nil
}

func (t *memTx) GetJournalEntryStatusForUpdate(_ context.Context, entryID int64) (string, error) {
	status, ok := t.repo.entries[entryID]
	if !ok {
		return "", shared.ErrNotFound
	}
	return status, nil
}

func accountingActor() roles.Actor {
	return roles.Actor{UserID: 7, Role: roles.Role{ID: 3, Name: "Accountant", Module: roles.ModuleAccounting}}
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateAgainstPostedEntry(t *testing.T) {
	repo := newMemRepo()
	repo.entries[10] = "posted"
	svc := NewService(repo, slog.Default())

	v, err := svc.Create(context.Background(), accountingActor(), CreateInput{
		JournalEntryID: 10,
		Payee:          "Acme Supply Co",
		Particulars:    "Office supplies Q1",
		Amount:         money("5000"),
	})
	require.NoError(t, err)
	require.Equal(t, StatusDraft, v.Status)
	require.NotEmpty(t, v.VoucherNumber)
}

func TestCreateAgainstDraftEntryRejected(t *testing.T) {
	repo := newMemRepo()
	repo.entries[10] = "draft"
	svc := NewService(repo, slog.Default())

	_, err := svc.Create(context.Background(), accountingActor(), CreateInput{
		JournalEntryID: 10,
		Payee:          "Acme Supply Co",
		Amount:         money("5000"),
	})
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestApproveSetsAudit(t *testing.T) {
	repo := newMemRepo()
	repo.entries[10] = "posted"
	svc := NewService(repo, slog.Default())
	ctx := context.Background()

	v, err := svc.Create(ctx, accountingActor(), CreateInput{
		JournalEntryID: 10, Payee: "Acme Supply Co", Amount: money("5000"),
	})
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, accountingActor(), v.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	require.Equal(t, int64(7), *approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	_, err = svc.Approve(ctx, accountingActor(), v.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestCancelPaidVoucherRejected(t *testing.T) {
	repo := newMemRepo()
	repo.entries[10] = "posted"
	svc := NewService(repo, slog.Default())
	ctx := context.Background()

	v, err := svc.Create(ctx, accountingActor(), CreateInput{
		JournalEntryID: 10, Payee: "Acme Supply Co", Amount: money("5000"),
	})
	require.NoError(t, err)

	require.NoError(t, repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateStatus(ctx, v.ID, StatusPaid)
	}))

	_, err = svc.Cancel(ctx, accountingActor(), v.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestCreateRejectedForWrongModule(t *testing.T) {
	repo := newMemRepo()
	repo.entries[10] = "posted"
	svc := NewService(repo, slog.Default())

	planner := roles.Actor{UserID: 2, Role: roles.Role{Name: "Planner", Module: roles.ModulePlanning}}
	_, err := svc.Create(context.Background(), planner, CreateInput{
		JournalEntryID: 10, Payee: "Acme Supply Co", Amount: money("100"),
	})
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}
