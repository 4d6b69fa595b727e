package journals

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/munifin/munifin/internal/roles"
	"github.com/munifin/munifin/internal/shared"
)

// Service implements the journal entry workflow. Posting is the only path to
// the general ledger; it verifies balance inside the transaction that freezes
// the entry, so a posted entry can never be unbalanced.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Get(ctx context.Context, actor roles.Actor, id int64) (JournalEntry, error) {
	if err := roles.Require(actor, roles.ModuleAccounting); err != nil {
		return JournalEntry{}, err
	}
	return s.repo.GetEntry(ctx, id)
}

func (s *Service) List(ctx context.Context, actor roles.Actor, req ListEntriesRequest) ([]JournalEntry, error) {
	if err := roles.Require(actor, roles.ModuleAccounting); err != nil {
		return nil, err
	}
	return s.repo.ListEntries(ctx, req)
}

// Create records a draft entry with any initial lines. The entry stays open
// for line edits until posted or cancelled.
func (s *Service) Create(ctx context.Context, actor roles.Actor, in CreateEntryInput) (JournalEntry, error) {
	if err := roles.Require(actor, roles.ModuleAccounting); err != nil {
		return JournalEntry{}, err
	}
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}
	if in.EntryDate.IsZero() {
		in.EntryDate = time.Now()
	}

	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number := in.EntryNumber
		var err error
		if number == "" {
			number, err = tx.GenerateEntryNumber(ctx)
			if err != nil {
				return err
			}
		}
		entry, err = tx.InsertEntry(ctx, in, number, actor.UserID)
		if err != nil {
			return err
		}
		for _, item := range in.Items {
			line, err := tx.InsertItem(ctx, entry.ID, item)
			if err != nil {
				return err
			}
			entry.Items = append(entry.Items, line)
		}
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.logger.Info("journal entry created", "entry_id", entry.ID, "number", entry.EntryNumber)
	return entry, nil
}

// AddItem appends a line to a draft entry. Posted and cancelled entries are
// immutable.
func (s *Service) AddItem(ctx context.Context, actor roles.Actor, entryID int64, in ItemInput) (JournalItem, error) {
	if err := roles.Require(actor, roles.ModuleAccounting); err != nil {
		return JournalItem{}, err
	}
	if err := in.Validate(); err != nil {
		return JournalItem{}, err
	}
	var item JournalItem
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.Status != EntryStatusDraft {
			return fmt.Errorf("%w: entry is %s", shared.ErrInvalidTransition, entry.Status)
		}
		item, err = tx.InsertItem(ctx, entryID, in)
		return err
	})
	if err != nil {
		return JournalItem{}, err
	}
	return item, nil
}

// Post freezes a balanced draft entry. It requires at least one line and
// exact debit/credit equality. When the entry references an obligation, that
// obligation flips to processed inside the same transaction.
func (s *Service) Post(ctx context.Context, actor roles.Actor, entryID int64) (JournalEntry, error) {
	if err := roles.Require(actor, roles.ModuleAccounting); err != nil {
		return JournalEntry{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.Status != EntryStatusDraft {
			return fmt.Errorf("%w: entry is %s", shared.ErrInvalidTransition, entry.Status)
		}
		items, err := tx.ListItems(ctx, entryID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("%w: entry has no lines", shared.ErrUnbalanced)
		}
		debit, credit := Totals(items)
		if !debit.Equal(credit) {
			return fmt.Errorf("%w: debit %s, credit %s", shared.ErrUnbalanced, debit.String(), credit.String())
		}
		if entry.ObligationID != nil {
			status, err := tx.GetObligationStatusForUpdate(ctx, *entry.ObligationID)
			if err != nil {
				return err
			}
			if status != "approved" {
				return fmt.Errorf("%w: obligation is %s, must be approved", shared.ErrInvalidTransition, status)
			}
			if err := tx.MarkObligationProcessed(ctx, *entry.ObligationID, actor.UserID); err != nil {
				return err
			}
		}
		return tx.MarkPosted(ctx, entryID, debit, credit, actor.UserID)
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.logger.Info("journal entry posted", "entry_id", entryID, "posted_by", actor.UserID)
	return s.repo.GetEntry(ctx, entryID)
}

// Cancel voids a draft entry. Posted entries are permanent and cannot be
// cancelled; corrections require a reversing entry.
func (s *Service) Cancel(ctx context.Context, actor roles.Actor, entryID int64) (JournalEntry, error) {
	if err := roles.Require(actor, roles.ModuleAccounting); err != nil {
		return JournalEntry{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entry, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.Status != EntryStatusDraft {
			return fmt.Errorf("%w: entry is %s", shared.ErrInvalidTransition, entry.Status)
		}
		return tx.MarkCancelled(ctx, entryID)
	})
	if err != nil {
		return JournalEntry{}, err
	}
	return s.repo.GetEntry(ctx, entryID)
}
