package planning

import (
	"context"
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
	aips     map[int64]AIP
	items    map[int64]AIPItem
	nextAIP  int64
	nextItem int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		aips:  make(map[int64]AIP),
		items: make(map[int64]AIPItem),
	}
}

func (m *memRepo) GetAIP(_ context.Context, id int64) (AIP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	aip, ok := m.aips[id]
	if !ok {
		return AIP{}, shared.ErrNotFound
	}
	aip.Items = nil
	for _, item := range m.items {
		if item.AIPID == id {
			aip.Items = append(aip.Items, item)
		}
	}
	return aip, nil
}

func (m *memRepo) ListAIPs(_ context.Context, req ListAIPsRequest) ([]AIP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []AIP
	for _, aip := range m.aips {
		if req.FiscalYear != 0 && aip.FiscalYear != req.FiscalYear {
			continue
		}
		if req.Status != "" && aip.Status != req.Status {
			continue
		}
		out = append(out, aip)
	}
	return out, nil
}

func (m *memRepo) GetItem(_ context.Context, id int64) (AIPItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return AIPItem{}, shared.ErrNotFound
	}
	return item, nil
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, &memTx{repo: m})
}

type memTx struct {
	repo *memRepo
}

func (t *memTx) InsertAIP(_ context.Context, in CreateAIPInput, createdBy int64) (AIP, error) {
	t.repo.nextAIP++
	aip := AIP{
		ID:          t.repo.nextAIP,
		Title:       in.Title,
		FiscalYear:  in.FiscalYear,
		Description: in.Description,
		Status:      AIPStatusDraft,
		TotalAmount: decimal.Zero,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	t.repo.aips[aip.ID] = aip
	return aip, nil
}

func (t *memTx) GetAIPForUpdate(_ context.Context, id int64) (AIP, error) {
	aip, ok := t.repo.aips[id]
	if !ok {
		return AIP{}, shared.ErrNotFound
	}
	return aip, nil
}

func (t *memTx) UpdateAIPStatus(_ context.Context, id int64, status AIPStatus, approvedBy *int64) error {
	aip, ok := t.repo.aips[id]
	if !ok {
		return shared.ErrNotFound
	}
	aip.Status = status
	if approvedBy != nil {
		now := time.Now()
		aip.ApprovedBy = approvedBy
		aip.ApprovedAt = &now
	}
	aip.UpdatedAt = time.Now()
	t.repo.aips[id] = aip
	return nil
}

func (t *memTx) UpdateAIPTotal(_ context.Context, id int64, total decimal.Decimal) error {
	aip, ok := t.repo.aips[id]
	if !ok {
		return shared.ErrNotFound
	}
	aip.TotalAmount = total
	t.repo.aips[id] = aip
	return nil
}

func (t *memTx) InsertItem(_ context.Context, aipID int64, in ItemInput) (AIPItem, error) {
	t.repo.nextItem++
	item := AIPItem{
		ID:            t.repo.nextItem,
		AIPID:         aipID,
		ReferenceCode: in.ReferenceCode,
		Description:   in.Description,
		Sector:        in.Sector,
		Amount:        in.Amount,
		Status:        ItemStatusDraft,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	t.repo.items[item.ID] = item
	return item, nil
}

func (t *memTx) GetItemForUpdate(_ context.Context, id int64) (AIPItem, error) {
	item, ok := t.repo.items[id]
	if !ok {
		return AIPItem{}, shared.ErrNotFound
	}
	return item, nil
}

func (t *memTx) UpdateItemStatus(_ context.Context, id int64, status ItemStatus) error {
	item, ok := t.repo.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	item.Status = status
	item.UpdatedAt = time.Now()
	t.repo.items[id] = item
	return nil
}

func planningActor() roles.Actor {
	return roles.Actor{UserID: 2, Role: roles.Role{ID: 2, Name: "Planning Officer", Module: roles.ModulePlanning}}
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedPlan(t *testing.T, svc *Service) AIP {
	t.Helper()
	aip, err := svc.CreateAIP(context.Background(), planningActor(), CreateAIPInput{
		Title:      "Annual Investment Program 2026",
		FiscalYear: 2026,
	})
	require.NoError(t, err)
	return aip
}

func TestPlanLifecycle(t *testing.T) {
	svc := NewService(newMemRepo(), slog.Default())
	ctx := context.Background()
	aip := seedPlan(t, svc)

	item, err := svc.AddItem(ctx, planningActor(), aip.ID, ItemInput{
		ReferenceCode: "AIP-001",
		Description:   "Farm-to-market road rehabilitation",
		Sector:        "infrastructure",
		Amount:        money("2500000"),
	})
	require.NoError(t, err)
	require.Equal(t, ItemStatusDraft, item.Status)

	submitted, err := svc.Submit(ctx, planningActor(), aip.ID)
	require.NoError(t, err)
	require.Equal(t, AIPStatusSubmitted, submitted.Status)

	approved, err := svc.Approve(ctx, planningActor(), aip.ID)
	require.NoError(t, err)
	require.Equal(t, AIPStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)
}

func TestAddItemUpdatesPlanTotal(t *testing.T) {
	svc := NewService(newMemRepo(), slog.Default())
	ctx := context.Background()
	aip := seedPlan(t, svc)

	_, err := svc.AddItem(ctx, planningActor(), aip.ID, ItemInput{
		Description: "Health center upgrade", Amount: money("800000"),
	})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, planningActor(), aip.ID, ItemInput{
		Description: "Drainage improvement", Amount: money("450000"),
	})
	require.NoError(t, err)

	got, err := svc.GetAIP(ctx, planningActor(), aip.ID)
	require.NoError(t, err)
	require.True(t, got.TotalAmount.Equal(money("1250000")), "total %s", got.TotalAmount)
}

func TestAddItemToSubmittedPlanRejected(t *testing.T) {
	svc := NewService(newMemRepo(), slog.Default())
	ctx := context.Background()
	aip := seedPlan(t, svc)

	_, err := svc.Submit(ctx, planningActor(), aip.ID)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, planningActor(), aip.ID, ItemInput{
		Description: "Late addition", Amount: money("100"),
	})
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestApproveDraftPlanRejected(t *testing.T) {
	svc := NewService(newMemRepo(), slog.Default())
	aip := seedPlan(t, svc)

	_, err := svc.Approve(context.Background(), planningActor(), aip.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestItemTransitionsFollowLifecycle(t *testing.T) {
	svc := NewService(newMemRepo(), slog.Default())
	ctx := context.Background()
	aip := seedPlan(t, svc)

	item, err := svc.AddItem(ctx, planningActor(), aip.ID, ItemInput{
		Description: "Multi-purpose hall", Amount: money("1200000"),
	})
	require.NoError(t, err)

	for _, to := range []ItemStatus{ItemStatusApproved, ItemStatusInProgress, ItemStatusCompleted} {
		item, err = svc.TransitionItem(ctx, planningActor(), item.ID, to)
		require.NoError(t, err)
		require.Equal(t, to, item.Status)
	}

	_, err = svc.TransitionItem(ctx, planningActor(), item.ID, ItemStatusRejected)
	require.ErrorIs(t, err, shared.ErrInvalidTransition, "completed items are final")
}

func TestItemSkippingStatesRejected(t *testing.T) {
	svc := NewService(newMemRepo(), slog.Default())
	ctx := context.Background()
	aip := seedPlan(t, svc)

	item, err := svc.AddItem(ctx, planningActor(), aip.ID, ItemInput{
		Description: "Streetlight installation", Amount: money("300000"),
	})
	require.NoError(t, err)

	_, err = svc.TransitionItem(ctx, planningActor(), item.ID, ItemStatusCompleted)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestCreateRejectedForWrongModule(t *testing.T) {
	svc := NewService(newMemRepo(), slog.Default())
	budgetOfficer := roles.Actor{UserID: 4, Role: roles.Role{Name: "Budget Officer", Module: roles.ModuleBudget}}
	_, err := svc.CreateAIP(context.Background(), budgetOfficer, CreateAIPInput{
		Title: "Unauthorized plan", FiscalYear: 2026,
	})
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}
