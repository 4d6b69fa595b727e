package budget

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/munifin/munifin/internal/roles"
	"github.com/munifin/munifin/internal/shared"
)

// Service implements budget funding and obligation workflows. Every balance
// mutation happens inside a repository transaction holding a row lock on the
// budget line, so two concurrent obligations can never both pass the funds
// check against the same remaining balance.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) GetItem(ctx context.Context, actor roles.Actor, id int64) (BudgetItem, error) {
	if err := roles.Require(actor, roles.ModuleBudget); err != nil {
		return BudgetItem{}, err
	}
	return s.repo.GetItem(ctx, id)
}

func (s *Service) ListItems(ctx context.Context, actor roles.Actor, req ListItemsRequest) ([]BudgetItem, error) {
	if err := roles.Require(actor, roles.ModuleBudget); err != nil {
		return nil, err
	}
	return s.repo.ListItems(ctx, req)
}

// CreateItem funds a new budget line. Balance starts equal to the allocated
// amount.
func (s *Service) CreateItem(ctx context.Context, actor roles.Actor, in CreateItemInput) (BudgetItem, error) {
	if err := roles.Require(actor, roles.ModuleBudget); err != nil {
		return BudgetItem{}, err
	}
	if err := in.Validate(); err != nil {
		return BudgetItem{}, err
	}
	item, err := s.repo.CreateItem(ctx, in, actor.UserID)
	if err != nil {
		return BudgetItem{}, fmt.Errorf("create budget item: %w", err)
	}
	s.logger.Info("budget item created",
		"item_id", item.ID,
		"account_code", item.AccountCode,
		"amount", item.Amount.String())
	return item, nil
}

func (s *Service) GetObligation(ctx context.Context, actor roles.Actor, id int64) (BudgetObligation, error) {
	if err := roles.Require(actor, roles.ModuleBudget); err != nil {
		return BudgetObligation{}, err
	}
	return s.repo.GetObligation(ctx, id)
}

func (s *Service) ListObligations(ctx context.Context, actor roles.Actor, req ListObligationsRequest) ([]BudgetObligation, error) {
	if err := roles.Require(actor, roles.ModuleBudget); err != nil {
		return nil, err
	}
	return s.repo.ListObligations(ctx, req)
}

// ApplyObligation reserves funds against a budget line and records the
// obligation, atomically. The line must be active and carry enough balance.
func (s *Service) ApplyObligation(ctx context.Context, actor roles.Actor, in ObligationInput) (BudgetObligation, error) {
	if err := roles.Require(actor, roles.ModuleBudget); err != nil {
		return BudgetObligation{}, err
	}
	if err := in.Validate(); err != nil {
		return BudgetObligation{}, err
	}
	if in.ObligationDate.IsZero() {
		in.ObligationDate = time.Now()
	}

	var obligation BudgetObligation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, in.BudgetItemID)
		if err != nil {
			return err
		}
		if item.Status != ItemStatusActive {
			return fmt.Errorf("%w: budget item is %s", shared.ErrInvalidTransition, item.Status)
		}
		if in.Amount.GreaterThan(item.Balance) {
			return fmt.Errorf("%w: requested %s, available %s",
				shared.ErrInsufficientBalance, in.Amount.String(), item.Balance.String())
		}
		number := in.ObligationNumber
		if number == "" {
			number, err = tx.GenerateObligationNumber(ctx)
			if err != nil {
				return err
			}
		}
		obligation, err = tx.InsertObligation(ctx, in, number, actor.UserID)
		if err != nil {
			return err
		}
		remaining := item.Balance.Sub(in.Amount)
		if err := tx.UpdateItemBalance(ctx, item.ID, remaining); err != nil {
			return err
		}
		if remaining.IsZero() {
			s.logger.Info("budget item fully obligated", "item_id", item.ID)
		}
		return nil
	})
	if err != nil {
		return BudgetObligation{}, err
	}
	s.logger.Info("obligation applied",
		"obligation_id", obligation.ID,
		"number", obligation.ObligationNumber,
		"amount", obligation.Amount.String())
	return obligation, nil
}

// ApproveObligation marks a pending obligation approved, making it eligible
// for journal entry posting.
func (s *Service) ApproveObligation(ctx context.Context, actor roles.Actor, id int64) (BudgetObligation, error) {
	if err := roles.Require(actor, roles.ModuleBudget); err != nil {
		return BudgetObligation{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		o, err := tx.GetObligationForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if o.Status != ObligationStatusPending {
			return fmt.Errorf("%w: obligation is %s", shared.ErrInvalidTransition, o.Status)
		}
		return tx.UpdateObligationStatus(ctx, id, ObligationStatusApproved)
	})
	if err != nil {
		return BudgetObligation{}, err
	}
	return s.repo.GetObligation(ctx, id)
}

// CancelObligation voids a pending or approved obligation and releases its
// reserved amount back to the budget line. Processed obligations are final.
func (s *Service) CancelObligation(ctx context.Context, actor roles.Actor, id int64) (BudgetObligation, error) {
	if err := roles.Require(actor, roles.ModuleBudget); err != nil {
		return BudgetObligation{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		o, err := tx.GetObligationForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if o.Status != ObligationStatusPending && o.Status != ObligationStatusApproved {
			return fmt.Errorf("%w: obligation is %s", shared.ErrInvalidTransition, o.Status)
		}
		item, err := tx.GetItemForUpdate(ctx, o.BudgetItemID)
		if err != nil {
			return err
		}
		if err := tx.UpdateObligationStatus(ctx, id, ObligationStatusCancelled); err != nil {
			return err
		}
		restored := item.Balance.Add(o.Amount)
		if restored.GreaterThan(item.Amount) {
			restored = item.Amount
		}
		return tx.UpdateItemBalance(ctx, item.ID, restored)
	})
	if err != nil {
		return BudgetObligation{}, err
	}
	s.logger.Info("obligation cancelled", "obligation_id", id)
	return s.repo.GetObligation(ctx, id)
}

// Sweep reconciles item statuses with their balances. It runs on a schedule
// from the background worker.
func (s *Service) Sweep(ctx context.Context) (int64, error) {
	n, err := s.repo.SweepDepletions(ctx)
	if err != nil {
		return 0, fmt.Errorf("budget sweep: %w", err)
	}
	if n > 0 {
		s.logger.Info("budget depletion sweep", "items_updated", n)
	}
	return n, nil
}

// totalExposure is the sum of amounts of live obligations against an item.
// Used by tests to assert balance conservation.
func totalExposure(obligations []BudgetObligation) decimal.Decimal {
	total := decimal.Zero
	for _, o := range obligations {
		if o.Status == ObligationStatusCancelled {
			continue
		}
		total = total.Add(o.Amount)
	}
	return total
}
