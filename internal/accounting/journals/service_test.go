package journals

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
	mu          sync.Mutex
	entries     map[int64]JournalEntry
	items       map[int64][]JournalItem
	obligations map[int64]string
	nextEntry   int64
	nextItem    int64
	nextSeq     int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		entries:     make(map[int64]JournalEntry),
		items:       make(map[int64][]JournalItem),
		obligations: make(map[int64]string),
	}
}

func (m *memRepo) GetEntry(_ context.Context, id int64) (JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return JournalEntry{}, shared.ErrNotFound
	}
	entry.Items = append([]JournalItem(nil), m.items[id]...)
	return entry, nil
}

func (m *memRepo) ListEntries(_ context.Context, req ListEntriesRequest) ([]JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []JournalEntry
	for _, entry := range m.entries {
		if req.Status != "" && entry.Status != req.Status {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Snapshot for rollback on error.
	entries := make(map[int64]JournalEntry, len(m.entries))
	for k, v := range m.entries {
		entries[k] = v
	}
	items := make(map[int64][]JournalItem, len(m.items))
	for k, v := range m.items {
		items[k] = append([]JournalItem(nil), v...)
	}
	obligations := make(map[int64]string, len(m.obligations))
	for k, v := range m.obligations {
		obligations[k] = v
	}
	if err := fn(ctx, &memTx{repo: m}); err != nil {
		m.entries, m.items, m.obligations = entries, items, obligations
		return err
	}
	return nil
}

type memTx struct {
	repo *memRepo
}

func (t *memTx) InsertEntry(_ context.Context, in CreateEntryInput, number string, createdBy int64) (JournalEntry, error) {
	for _, e := range t.repo.entries {
		if e.EntryNumber == number {
			return JournalEntry{}, shared.ErrDuplicate
		}
	}
	t.repo.nextEntry++
	entry := JournalEntry{
		ID:           t.repo.nextEntry,
		EntryNumber:  number,
		EntryDate:    in.EntryDate,
		Description:  in.Description,
		ObligationID: in.ObligationID,
		Status:       EntryStatusDraft,
		TotalDebit:   decimal.Zero,
		TotalCredit:  decimal.Zero,
		CreatedBy:    createdBy,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	t.repo.entries[entry.ID] = entry
	return entry, nil
}

func (t *memTx) InsertItem(_ context.Context, entryID int64, in ItemInput) (JournalItem, error) {
	t.repo.nextItem++
	item := JournalItem{
		ID:          t.repo.nextItem,
		EntryID:     entryID,
		AccountCode: in.AccountCode,
		AccountName: in.AccountName,
		Debit:       in.Debit,
		Credit:      in.Credit,
		CreatedAt:   time.Now(),
	}
	t.repo.items[entryID] = append(t.repo.items[entryID], item)
	return item, nil
}

func (t *memTx) GetEntryForUpdate(_ context.Context, id int64) (JournalEntry, error) {
	entry, ok := t.repo.entries[id]
	if !ok {
		return JournalEntry{}, shared.ErrNotFound
	}
	return entry, nil
}

func (t *memTx) ListItems(_ context.Context, entryID int64) ([]JournalItem, error) {
	return append([]JournalItem(nil), t.repo.items[entryID]...), nil
}

func (t *memTx) MarkPosted(_ context.Context, id int64, totalDebit, totalCredit decimal.Decimal, postedBy int64) error {
	entry, ok := t.repo.entries[id]
	if !ok {
		return shared.ErrNotFound
	}
	now := time.Now()
	entry.Status = EntryStatusPosted
	entry.TotalDebit = totalDebit
	entry.TotalCredit = totalCredit
	entry.PostedBy = &postedBy
	entry.PostedAt = &now
	entry.UpdatedAt = now
	t.repo.entries[id] = entry
	return nil
}

func (t *memTx) MarkCancelled(_ context.Context, id int64) error {
	entry, ok := t.repo.entries[id]
	if !ok {
		return shared.ErrNotFound
	}
	entry.Status = EntryStatusCancelled
	entry.UpdatedAt = time.Now()
	t.repo.entries[id] = entry
	return nil
}

func (t *memTx) GenerateEntryNumber(_ context.Context) (string, error) {
	t.repo.nextSeq++
	return fmt.Sprintf("JE-%d-%05d", time.Now().Year(), t.repo.nextSeq), nil
}

func (t *memTx) GetObligationStatusForUpdate(_ context.Context, obligationID int64) (string, error) {
	status, ok := t.repo.obligations[obligationID]
	if !ok {
		return "", shared.ErrNotFound
	}
	return status, nil
}

func (t *memTx) MarkObligationProcessed(_ context.Context, obligationID, _ int64) error {
	if _, ok := t.repo.obligations[obligationID]; !ok {
		return shared.ErrNotFound
	}
	t.repo.obligations[obligationID] = "processed"
	return nil
}

func accountingActor() roles.Actor {
	return roles.Actor{UserID: 7, Role: roles.Role{ID: 3, Name: "Accountant", Module: roles.ModuleAccounting}}
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func balancedLines(amount string) []ItemInput {
	return []ItemInput{
		{AccountCode: "1-01-01-010", AccountName: "Cash in Bank", Debit: money(amount)},
		{AccountCode: "2-01-01-010", AccountName: "Accounts Payable", Credit: money(amount)},
	}
}

func TestPostBalancedEntry(t *testing.T) {
	svc := NewService(newMemRepo(), slog.Default())
	ctx := context.Background()

	entry, err := svc.Create(ctx, accountingActor(), CreateEntryInput{
		Description: "Payment of office supplies",
		Items:       balancedLines("5000"),
	})
	require.NoError(t, err)
	require.Equal(t, EntryStatusDraft, entry.Status)
	require.NotEmpty(t, entry.EntryNumber)

	posted, err := svc.Post(ctx, accountingActor(), entry.ID)
	require.NoError(t, err)
	require.Equal(t, EntryStatusPosted, posted.Status)
	require.True(t, posted.TotalDebit.Equal(money("5000")))
	require.True(t, posted.TotalCredit.Equal(money("5000")))
	require.NotNil(t, posted.PostedBy)
	require.NotNil(t, posted.PostedAt)
}

func TestPostUnbalancedEntryRejected(t *testing.T) {
	svc := NewService(newMemRepo(), slog.Default())
	ctx := context.Background()

	entry, err := svc.Create(ctx, accountingActor(), CreateEntryInput{
		Description: "Mismatched entry",
		Items: []ItemInput{
			{AccountCode: "1-01-01-010", Debit: money("5000")},
			{AccountCode: "2-01-01-010", Credit: money("4999.99")},
		},
	})
	require.NoError(t, err)

	_, err = svc.Post(ctx, accountingActor(), entry.ID)
	require.ErrorIs(t, err, shared.ErrUnbalanced)

	got, err := svc.Get(ctx, accountingActor(), entry.ID)
	require.NoError(t, err)
	require.Equal(t, EntryStatusDraft, got.Status, "failed post must leave the entry draft")
}

func TestPostEmptyEntryRejected(t *testing.T) {
	svc := NewService(newMemRepo(), slog.Default())
	ctx := context.Background()

	entry, err := svc.Create(ctx, accountingActor(), CreateEntryInput{Description: "Empty shell"})
	require.NoError(t, err)

	_, err = svc.Post(ctx, accountingActor(), entry.ID)
	require.ErrorIs(t, err, shared.ErrUnbalanced)
}

func TestPostMarksObligationProcessed(t *testing.T) {
	repo := newMemRepo()
	repo.obligations[44] = "approved"
	svc := NewService(repo, slog.Default())
	ctx := context.Background()

	obligationID := int64(44)
	entry, err := svc.Create(ctx, accountingActor(), CreateEntryInput{
		Description:  "Obligation settlement",
		ObligationID: &obligationID,
		Items:        balancedLines("1200"),
	})
	require.NoError(t, err)

	_, err = svc.Post(ctx, accountingActor(), entry.ID)
	require.NoError(t, err)
	require.Equal(t, "processed", repo.obligations[44])
}

func TestPostWithPendingObligationRollsBack(t *testing.T) {
	repo := newMemRepo()
	repo.obligations[44] = "pending"
	svc := NewService(repo, slog.Default())
	ctx := context.Background()

	obligationID := int64(44)
	entry, err := svc.Create(ctx, accountingActor(), CreateEntryInput{
		Description:  "Premature settlement",
		ObligationID: &obligationID,
		Items:        balancedLines("1200"),
	})
	require.NoError(t, err)

	_, err = svc.Post(ctx, accountingActor(), entry.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	require.Equal(t, "pending", repo.obligations[44])

	got, err := svc.Get(ctx, accountingActor(), entry.ID)
	require.NoError(t, err)
	require.Equal(t, EntryStatusDraft, got.Status)
}

func TestAddItemToPostedEntryRejected(t *testing.T) {
	svc := NewService(newMemRepo(), slog.Default())
	ctx := context.Background()

	entry, err := svc.Create(ctx, accountingActor(), CreateEntryInput{
		Description: "Sealed entry",
		Items:       balancedLines("300"),
	})
	require.NoError(t, err)
	_, err = svc.Post(ctx, accountingActor(), entry.ID)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, accountingActor(), entry.ID, ItemInput{
		AccountCode: "1-01-01-010", Debit: money("10"),
	})
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestCancelPostedEntryRejected(t *testing.T) {
	svc := NewService(newMemRepo(), slog.Default())
	ctx := context.Background()

	entry, err := svc.Create(ctx, accountingActor(), CreateEntryInput{
		Description: "Posted and permanent",
		Items:       balancedLines("300"),
	})
	require.NoError(t, err)
	_, err = svc.Post(ctx, accountingActor(), entry.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, accountingActor(), entry.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestLineMustBeSingleSided(t *testing.T) {
	in := ItemInput{AccountCode: "1-01-01-010", Debit: money("10"), Credit: money("10")}
	require.ErrorIs(t, in.Validate(), shared.ErrValidation)

	in = ItemInput{AccountCode: "1-01-01-010"}
	require.ErrorIs(t, in.Validate(), shared.ErrValidation)
}

func TestCreateRejectedForWrongModule(t *testing.T) {
	svc := NewService(newMemRepo(), slog.Default())
	treasurer := roles.Actor{UserID: 9, Role: roles.Role{Name: "Treasurer", Module: roles.ModuleTreasury}}
	_, err := svc.Create(context.Background(), treasurer, CreateEntryInput{
		Description: "Not my module",
		Items:       balancedLines("50"),
	})
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}
