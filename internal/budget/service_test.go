package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/munifin/munifin/internal/roles"
	"github.com/munifin/munifin/internal/shared"
)

// memRepo is an in-memory Repository. WithTx serializes callers through a
// mutex, mirroring the row lock the SQL implementation takes.
type memRepo struct {
	mu          sync.Mutex
	items       map[int64]BudgetItem
	obligations map[int64]BudgetObligation
	nextItem    int64
	nextOb      int64
	nextSeq     int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		items:       make(map[int64]BudgetItem),
		obligations: make(map[int64]BudgetObligation),
	}
}

func (m *memRepo) GetItem(_ context.Context, id int64) (BudgetItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return BudgetItem{}, shared.ErrNotFound
	}
	return item, nil
}

func (m *memRepo) ListItems(_ context.Context, req ListItemsRequest) ([]BudgetItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []BudgetItem
	for _, item := range m.items {
		if req.FiscalYear != 0 && item.FiscalYear != req.FiscalYear {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (m *memRepo) CreateItem(_ context.Context, in CreateItemInput, createdBy int64) (BudgetItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextItem++
	item := BudgetItem{
		ID:          m.nextItem,
		AIPItemID:   in.AIPItemID,
		FiscalYear:  in.FiscalYear,
		AccountCode: in.AccountCode,
		Description: in.Description,
		Amount:      in.Amount,
		Balance:     in.Amount,
		Status:      ItemStatusActive,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.items[item.ID] = item
	return item, nil
}

func (m *memRepo) GetObligation(_ context.Context, id int64) (BudgetObligation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.obligations[id]
	if !ok {
		return BudgetObligation{}, shared.ErrNotFound
	}
	return o, nil
}

func (m *memRepo) ListObligations(_ context.Context, req ListObligationsRequest) ([]BudgetObligation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []BudgetObligation
	for _, o := range m.obligations {
		if req.BudgetItemID != 0 && o.BudgetItemID != req.BudgetItemID {
			continue
		}
		if req.Status != "" && o.Status != req.Status {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *memRepo) SweepDepletions(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, item := range m.items {
		switch {
		case item.Status == ItemStatusActive && item.Balance.IsZero():
			item.Status = ItemStatusDepleted
		case item.Status == ItemStatusDepleted && item.Balance.IsPositive():
			item.Status = ItemStatusActive
		default:
			continue
		}
		m.items[id] = item
		n++
	}
	return n, nil
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, &memTx{repo: m})
}

type memTx struct {
	repo *memRepo
}

func (t *memTx) GetItemForUpdate(_ context.Context, id int64) (BudgetItem, error) {
	item, ok := t.repo.items[id]
	if !ok {
		return BudgetItem{}, shared.ErrNotFound
	}
	return item, nil
}

func (t *memTx) UpdateItemBalance(_ context.Context, id int64, balance decimal.Decimal) error {
	item, ok := t.repo.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	item.Balance = balance
	item.UpdatedAt = time.Now()
	t.repo.items[id] = item
	return nil
}

func (t *memTx) InsertObligation(_ context.Context, in ObligationInput, number string, createdBy int64) (BudgetObligation, error) {
	for _, o := range t.repo.obligations {
		if o.ObligationNumber == number {
			return BudgetObligation{}, shared.ErrDuplicate
		}
	}
	t.repo.nextOb++
	o := BudgetObligation{
		ID:               t.repo.nextOb,
		BudgetItemID:     in.BudgetItemID,
		ObligationNumber: number,
		Payee:            in.Payee,
		Description:      in.Description,
		Amount:           in.Amount,
		ObligationDate:   in.ObligationDate,
		Status:           ObligationStatusPending,
		CreatedBy:        createdBy,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	t.repo.obligations[o.ID] = o
	return o, nil
}

func (t *memTx) GetObligationForUpdate(_ context.Context, id int64) (BudgetObligation, error) {
	o, ok := t.repo.obligations[id]
	if !ok {
		return BudgetObligation{}, shared.ErrNotFound
	}
	return o, nil
}

func (t *memTx) UpdateObligationStatus(_ context.Context, id int64, status ObligationStatus) error {
	o, ok := t.repo.obligations[id]
	if !ok {
		return shared.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	t.repo.obligations[id] = o
	return nil
}

func (t *memTx) GenerateObligationNumber(_ context.Context) (string, error) {
	t.repo.nextSeq++
	return fmt.Sprintf("OBL-%d-%05d", time.Now().Year(), t.repo.nextSeq), nil
}

func budgetActor() roles.Actor {
	return roles.Actor{UserID: 1, Role: roles.Role{ID: 1, Name: "Budget Officer", Module: roles.ModuleBudget}}
}

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, slog.Default()), repo
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedItem(t *testing.T, svc *Service, amount string) BudgetItem {
	t.Helper()
	item, err := svc.CreateItem(context.Background(), budgetActor(), CreateItemInput{
		FiscalYear:  2026,
		AccountCode: "5-02-03-010",
		Description: "Office supplies",
		Amount:      money(amount),
	})
	require.NoError(t, err)
	return item
}

func TestCreateItemStartsWithFullBalance(t *testing.T) {
	svc, _ := newTestService()
	item := seedItem(t, svc, "100000")
	require.True(t, item.Balance.Equal(item.Amount))
	require.Equal(t, ItemStatusActive, item.Status)
}

func TestObligationsDrawDownBalance(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	item := seedItem(t, svc, "100000")

	first, err := svc.ApplyObligation(ctx, budgetActor(), ObligationInput{
		BudgetItemID: item.ID, Payee: "Acme Supply Co", Amount: money("60000"),
	})
	require.NoError(t, err)
	require.Equal(t, ObligationStatusPending, first.Status)
	require.NotEmpty(t, first.ObligationNumber)

	got, err := svc.GetItem(ctx, budgetActor(), item.ID)
	require.NoError(t, err)
	require.True(t, got.Balance.Equal(money("40000")), "balance %s", got.Balance)

	_, err = svc.ApplyObligation(ctx, budgetActor(), ObligationInput{
		BudgetItemID: item.ID, Payee: "Beta Traders", Amount: money("50000"),
	})
	require.ErrorIs(t, err, shared.ErrInsufficientBalance)

	got, err = svc.GetItem(ctx, budgetActor(), item.ID)
	require.NoError(t, err)
	require.True(t, got.Balance.Equal(money("40000")), "rejected obligation must not move the balance")

	_, err = svc.ApplyObligation(ctx, budgetActor(), ObligationInput{
		BudgetItemID: item.ID, Payee: "Beta Traders", Amount: money("40000"),
	})
	require.NoError(t, err)

	got, err = svc.GetItem(ctx, budgetActor(), item.ID)
	require.NoError(t, err)
	require.True(t, got.Balance.IsZero())
}

func TestConcurrentObligationsNeverOverdraw(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	item := seedItem(t, svc, "1000")

	// 20 workers each try to obligate 100; only 10 can fit.
	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, err := svc.ApplyObligation(ctx, budgetActor(), ObligationInput{
				BudgetItemID: item.ID, Payee: "Vendor", Amount: money("100"),
			})
			if err != nil && !errors.Is(err, shared.ErrInsufficientBalance) {
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	got, err := svc.GetItem(ctx, budgetActor(), item.ID)
	require.NoError(t, err)
	require.False(t, got.Balance.IsNegative())

	obligations, err := repo.ListObligations(ctx, ListObligationsRequest{BudgetItemID: item.ID})
	require.NoError(t, err)
	require.Len(t, obligations, 10)
	require.True(t, totalExposure(obligations).Add(got.Balance).Equal(item.Amount),
		"obligated total plus remaining balance must equal the allocation")
}

func TestCancelObligationRestoresBalance(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	item := seedItem(t, svc, "100000")

	o, err := svc.ApplyObligation(ctx, budgetActor(), ObligationInput{
		BudgetItemID: item.ID, Payee: "Acme Supply Co", Amount: money("60000"),
	})
	require.NoError(t, err)

	cancelled, err := svc.CancelObligation(ctx, budgetActor(), o.ID)
	require.NoError(t, err)
	require.Equal(t, ObligationStatusCancelled, cancelled.Status)

	got, err := svc.GetItem(ctx, budgetActor(), item.ID)
	require.NoError(t, err)
	require.True(t, got.Balance.Equal(item.Amount), "cancel must release the reserved amount")
}

func TestApproveObligationRequiresPending(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	item := seedItem(t, svc, "100000")

	o, err := svc.ApplyObligation(ctx, budgetActor(), ObligationInput{
		BudgetItemID: item.ID, Payee: "Acme Supply Co", Amount: money("60000"),
	})
	require.NoError(t, err)

	approved, err := svc.ApproveObligation(ctx, budgetActor(), o.ID)
	require.NoError(t, err)
	require.Equal(t, ObligationStatusApproved, approved.Status)

	_, err = svc.ApproveObligation(ctx, budgetActor(), o.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestCancelProcessedObligationRejected(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	item := seedItem(t, svc, "100000")

	o, err := svc.ApplyObligation(ctx, budgetActor(), ObligationInput{
		BudgetItemID: item.ID, Payee: "Acme Supply Co", Amount: money("60000"),
	})
	require.NoError(t, err)

	require.NoError(t, repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateObligationStatus(ctx, o.ID, ObligationStatusProcessed)
	}))

	_, err = svc.CancelObligation(ctx, budgetActor(), o.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestObligationRejectedForWrongModule(t *testing.T) {
	svc, _ := newTestService()
	item := seedItem(t, svc, "100000")

	hrisActor := roles.Actor{UserID: 2, Role: roles.Role{ID: 2, Name: "HR Officer", Module: roles.ModuleHRIS}}
	_, err := svc.ApplyObligation(context.Background(), hrisActor, ObligationInput{
		BudgetItemID: item.ID, Payee: "Acme Supply Co", Amount: money("10"),
	})
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestSweepFlipsDepletedStatus(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	item := seedItem(t, svc, "500")

	_, err := svc.ApplyObligation(ctx, budgetActor(), ObligationInput{
		BudgetItemID: item.ID, Payee: "Vendor", Amount: money("500"),
	})
	require.NoError(t, err)

	n, err := svc.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	got, err := svc.GetItem(ctx, budgetActor(), item.ID)
	require.NoError(t, err)
	require.Equal(t, ItemStatusDepleted, got.Status)
}

func TestObligationOnDepletedItemRejected(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	item := seedItem(t, svc, "500")

	_, err := svc.ApplyObligation(ctx, budgetActor(), ObligationInput{
		BudgetItemID: item.ID, Payee: "Vendor", Amount: money("500"),
	})
	require.NoError(t, err)
	_, err = svc.Sweep(ctx)
	require.NoError(t, err)

	_, err = svc.ApplyObligation(ctx, budgetActor(), ObligationInput{
		BudgetItemID: item.ID, Payee: "Vendor", Amount: money("1"),
	})
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}
