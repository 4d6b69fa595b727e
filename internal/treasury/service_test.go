package treasury

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

type memVoucher struct {
	status string
	amount decimal.Decimal
}

type memRepo struct {
	mu            sync.Mutex
	disbursements map[int64]Disbursement
	collections   map[int64]Collection
	vouchers      map[int64]*memVoucher
	nextID        int64
	nextSeq       int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		disbursements: make(map[int64]Disbursement),
		collections:   make(map[int64]Collection),
		vouchers:      make(map[int64]*memVoucher),
	}
}

func (m *memRepo) GetDisbursement(_ context.Context, id int64) (Disbursement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.disbursements[id]
	if !ok {
		return Disbursement{}, shared.ErrNotFound
	}
	return d, nil
}

func (m *memRepo) ListDisbursements(_ context.Context, req ListDisbursementsRequest) ([]Disbursement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Disbursement
	for _, d := range m.disbursements {
		if req.Status != "" && d.Status != req.Status {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *memRepo) GetCollection(_ context.Context, id int64) (Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[id]
	if !ok {
		return Collection{}, shared.ErrNotFound
	}
	return c, nil
}

func (m *memRepo) ListCollections(_ context.Context, req ListCollectionsRequest) ([]Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Collection
	for _, c := range m.collections {
		if req.Status != "" && c.Status != req.Status {
			continue
		}
		out = append(out, c)
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

func (t *memTx) InsertDisbursement(_ context.Context, in DisbursementInput, amount decimal.Decimal, createdBy int64) (Disbursement, error) {
	t.repo.nextID++
	d := Disbursement{
		ID:               t.repo.nextID,
		VoucherID:        in.VoucherID,
		PaymentMethod:    in.PaymentMethod,
		CheckNumber:      in.CheckNumber,
		BankAccount:      in.BankAccount,
		Amount:           amount,
		DisbursementDate: in.DisbursementDate,
		Status:           DisbursementStatusIssued,
		CreatedBy:        createdBy,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	t.repo.disbursements[d.ID] = d
	return d, nil
}

func (t *memTx) GetDisbursementForUpdate(_ context.Context, id int64) (Disbursement, error) {
	d, ok := t.repo.disbursements[id]
	if !ok {
		return Disbursement{}, shared.ErrNotFound
	}
	return d, nil
}

func (t *memTx) UpdateDisbursementStatus(_ context.Context, id int64, status DisbursementStatus) error {
	d, ok := t.repo.disbursements[id]
	if !ok {
		return shared.ErrNotFound
	}
	d.Status = status
	d.UpdatedAt = time.Now()
	t.repo.disbursements[id] = d
	return nil
}

func (t *memTx) GetVoucherForUpdate(_ context.Context, voucherID int64) (string, decimal.Decimal, error) {
	v, ok := t.repo.vouchers[voucherID]
	if !ok {
		return "", decimal.Zero, shared.ErrNotFound
	}
	return v.status, v.amount, nil
}

func (t *memTx) UpdateVoucherStatus(_ context.Context, voucherID int64, status string) error {
	v, ok := t.repo.vouchers[voucherID]
	if !ok {
		return shared.ErrNotFound
	}
	v.status = status
	return nil
}

func (t *memTx) InsertCollection(_ context.Context, in CollectionInput, number string, createdBy int64) (Collection, error) {
	for _, c := range t.repo.collections {
		if c.ReceiptNumber == number {
			return Collection{}, shared.ErrDuplicate
		}
	}
	t.repo.nextID++
	c := Collection{
		ID:             t.repo.nextID,
		ReceiptNumber:  number,
		Payer:          in.Payer,
		Particulars:    in.Particulars,
		CollectionType: in.CollectionType,
		AccountCode:    in.AccountCode,
		Amount:         in.Amount,
		CollectionDate: in.CollectionDate,
		PaymentMethod:  in.PaymentMethod,
		Status:         CollectionStatusRecorded,
		CreatedBy:      createdBy,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	t.repo.collections[c.ID] = c
	return c, nil
}

func (t *memTx) GetCollectionForUpdate(_ context.Context, id int64) (Collection, error) {
	c, ok := t.repo.collections[id]
	if !ok {
		return Collection{}, shared.ErrNotFound
	}
	return c, nil
}

func (t *memTx) UpdateCollectionStatus(_ context.Context, id int64, status CollectionStatus, depositedAt *time.Time) error {
	c, ok := t.repo.collections[id]
	if !ok {
		return shared.ErrNotFound
	}
	c.Status = status
	c.DepositedAt = depositedAt
	c.UpdatedAt = time.Now()
	t.repo.collections[id] = c
	return nil
}

func (t *memTx) GenerateReceiptNumber(_ context.Context) (string, error) {
	t.repo.nextSeq++
	return fmt.Sprintf("OR-%d-%05d", time.Now().Year(), t.repo.nextSeq), nil
}

func treasuryActor() roles.Actor {
	return roles.Actor{UserID: 5, Role: roles.Role{ID: 4, Name: "Treasurer", Module: roles.ModuleTreasury}}
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestIssueDisbursementMarksVoucherPaid(t *testing.T) {
	repo := newMemRepo()
	repo.vouchers[30] = &memVoucher{status: "approved", amount: money("7500")}
	svc := NewService(repo, slog.Default())

	d, err := svc.IssueDisbursement(context.Background(), treasuryActor(), DisbursementInput{
		VoucherID:     30,
		PaymentMethod: "check",
		CheckNumber:   "0001234",
	})
	require.NoError(t, err)
	require.Equal(t, DisbursementStatusIssued, d.Status)
	require.True(t, d.Amount.Equal(money("7500")), "payment amount must equal the voucher amount")
	require.Equal(t, "paid", repo.vouchers[30].status)
}

func TestIssueDisbursementRequiresApprovedVoucher(t *testing.T) {
	repo := newMemRepo()
	repo.vouchers[30] = &memVoucher{status: "draft", amount: money("7500")}
	svc := NewService(repo, slog.Default())

	_, err := svc.IssueDisbursement(context.Background(), treasuryActor(), DisbursementInput{
		VoucherID:     30,
		PaymentMethod: "cash",
	})
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	require.Equal(t, "draft", repo.vouchers[30].status)
}

func TestIssueDisbursementTwiceRejected(t *testing.T) {
	repo := newMemRepo()
	repo.vouchers[30] = &memVoucher{status: "approved", amount: money("7500")}
	svc := NewService(repo, slog.Default())
	ctx := context.Background()

	_, err := svc.IssueDisbursement(ctx, treasuryActor(), DisbursementInput{
		VoucherID: 30, PaymentMethod: "cash",
	})
	require.NoError(t, err)

	_, err = svc.IssueDisbursement(ctx, treasuryActor(), DisbursementInput{
		VoucherID: 30, PaymentMethod: "cash",
	})
	require.ErrorIs(t, err, shared.ErrInvalidTransition, "a paid voucher cannot be disbursed again")
}

func TestCancelDisbursementReopensVoucher(t *testing.T) {
	repo := newMemRepo()
	repo.vouchers[30] = &memVoucher{status: "approved", amount: money("7500")}
	svc := NewService(repo, slog.Default())
	ctx := context.Background()

	d, err := svc.IssueDisbursement(ctx, treasuryActor(), DisbursementInput{
		VoucherID: 30, PaymentMethod: "cash",
	})
	require.NoError(t, err)

	cancelled, err := svc.CancelDisbursement(ctx, treasuryActor(), d.ID)
	require.NoError(t, err)
	require.Equal(t, DisbursementStatusCancelled, cancelled.Status)
	require.Equal(t, "approved", repo.vouchers[30].status)
}

func TestClearDisbursementIsFinal(t *testing.T) {
	repo := newMemRepo()
	repo.vouchers[30] = &memVoucher{status: "approved", amount: money("7500")}
	svc := NewService(repo, slog.Default())
	ctx := context.Background()

	d, err := svc.IssueDisbursement(ctx, treasuryActor(), DisbursementInput{
		VoucherID: 30, PaymentMethod: "bank_transfer", BankAccount: "LBP-001",
	})
	require.NoError(t, err)

	cleared, err := svc.ClearDisbursement(ctx, treasuryActor(), d.ID)
	require.NoError(t, err)
	require.Equal(t, DisbursementStatusCleared, cleared.Status)

	_, err = svc.CancelDisbursement(ctx, treasuryActor(), d.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestCheckPaymentRequiresCheckNumber(t *testing.T) {
	repo := newMemRepo()
	repo.vouchers[30] = &memVoucher{status: "approved", amount: money("7500")}
	svc := NewService(repo, slog.Default())

	_, err := svc.IssueDisbursement(context.Background(), treasuryActor(), DisbursementInput{
		VoucherID: 30, PaymentMethod: "check",
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCollectionLifecycle(t *testing.T) {
	svc := NewService(newMemRepo(), slog.Default())
	ctx := context.Background()

	c, err := svc.RecordCollection(ctx, treasuryActor(), CollectionInput{
		Payer:          "Juan Dela Cruz",
		Particulars:    "Business permit fee",
		CollectionType: "permit",
		AccountCode:    "4-02-01-010",
		Amount:         money("1500"),
		PaymentMethod:  "cash",
	})
	require.NoError(t, err)
	require.Equal(t, CollectionStatusRecorded, c.Status)
	require.NotEmpty(t, c.ReceiptNumber)

	deposited, err := svc.DepositCollection(ctx, treasuryActor(), c.ID)
	require.NoError(t, err)
	require.Equal(t, CollectionStatusDeposited, deposited.Status)
	require.NotNil(t, deposited.DepositedAt)

	_, err = svc.CancelCollection(ctx, treasuryActor(), c.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition, "deposited collections are final")
}

func TestDuplicateReceiptNumberRejected(t *testing.T) {
	svc := NewService(newMemRepo(), slog.Default())
	ctx := context.Background()

	_, err := svc.RecordCollection(ctx, treasuryActor(), CollectionInput{
		ReceiptNumber: "OR-2026-00001", Payer: "Juan Dela Cruz", CollectionType: "tax", AccountCode: "4-01-01-010", Amount: money("100"),
	})
	require.NoError(t, err)

	_, err = svc.RecordCollection(ctx, treasuryActor(), CollectionInput{
		ReceiptNumber: "OR-2026-00001", Payer: "Maria Santos", CollectionType: "tax", AccountCode: "4-01-01-010", Amount: money("200"),
	})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestIssueRejectedForWrongModule(t *testing.T) {
	repo := newMemRepo()
	repo.vouchers[30] = &memVoucher{status: "approved", amount: money("7500")}
	svc := NewService(repo, slog.Default())

	accountant := roles.Actor{UserID: 3, Role: roles.Role{Name: "Accountant", Module: roles.ModuleAccounting}}
	_, err := svc.IssueDisbursement(context.Background(), accountant, DisbursementInput{
		VoucherID: 30, PaymentMethod: "cash",
	})
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}
