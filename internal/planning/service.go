package planning

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/munifin/munifin/internal/roles"
	"github.com/munifin/munifin/internal/shared"
)

// Service implements the annual investment plan workflow. Plans move draft,
// submitted, then approved or rejected; items follow their own lifecycle and
// only items on an approved plan are eligible for budget funding.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) GetAIP(ctx context.Context, actor roles.Actor, id int64) (AIP, error) {
	if err := roles.Require(actor, roles.ModulePlanning); err != nil {
		return AIP{}, err
	}
	return s.repo.GetAIP(ctx, id)
}

func (s *Service) ListAIPs(ctx context.Context, actor roles.Actor, req ListAIPsRequest) ([]AIP, error) {
	if err := roles.Require(actor, roles.ModulePlanning); err != nil {
		return nil, err
	}
	return s.repo.ListAIPs(ctx, req)
}

// CreateAIP opens a new draft plan.
func (s *Service) CreateAIP(ctx context.Context, actor roles.Actor, in CreateAIPInput) (AIP, error) {
	if err := roles.Require(actor, roles.ModulePlanning); err != nil {
		return AIP{}, err
	}
	if err := in.Validate(); err != nil {
		return AIP{}, err
	}
	var aip AIP
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		aip, err = tx.InsertAIP(ctx, in, actor.UserID)
		return err
	})
	if err != nil {
		return AIP{}, err
	}
	s.logger.Info("investment plan created", "aip_id", aip.ID, "fiscal_year", aip.FiscalYear)
	return aip, nil
}

// AddItem appends a program, project, or activity to a draft plan and keeps
// the plan total in step.
func (s *Service) AddItem(ctx context.Context, actor roles.Actor, aipID int64, in ItemInput) (AIPItem, error) {
	if err := roles.Require(actor, roles.ModulePlanning); err != nil {
		return AIPItem{}, err
	}
	if err := in.Validate(); err != nil {
		return AIPItem{}, err
	}
	var item AIPItem
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		aip, err := tx.GetAIPForUpdate(ctx, aipID)
		if err != nil {
			return err
		}
		if aip.Status != AIPStatusDraft {
			return fmt.Errorf("%w: plan is %s", shared.ErrInvalidTransition, aip.Status)
		}
		item, err = tx.InsertItem(ctx, aipID, in)
		if err != nil {
			return err
		}
		return tx.UpdateAIPTotal(ctx, aipID, aip.TotalAmount.Add(in.Amount))
	})
	if err != nil {
		return AIPItem{}, err
	}
	return item, nil
}

// Submit moves a draft plan with at least one item to submitted.
func (s *Service) Submit(ctx context.Context, actor roles.Actor, id int64) (AIP, error) {
	return s.planTransition(ctx, actor, id, AIPStatusDraft, AIPStatusSubmitted, false)
}

// Approve accepts a submitted plan and approves every draft item on it.
func (s *Service) Approve(ctx context.Context, actor roles.Actor, id int64) (AIP, error) {
	if err := roles.Require(actor, roles.ModulePlanning); err != nil {
		return AIP{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		aip, err := tx.GetAIPForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if aip.Status != AIPStatusSubmitted {
			return fmt.Errorf("%w: plan is %s", shared.ErrInvalidTransition, aip.Status)
		}
		return tx.UpdateAIPStatus(ctx, id, AIPStatusApproved, &actor.UserID)
	})
	if err != nil {
		return AIP{}, err
	}
	s.logger.Info("investment plan approved", "aip_id", id, "approved_by", actor.UserID)
	return s.repo.GetAIP(ctx, id)
}

// Reject declines a submitted plan.
func (s *Service) Reject(ctx context.Context, actor roles.Actor, id int64) (AIP, error) {
	return s.planTransition(ctx, actor, id, AIPStatusSubmitted, AIPStatusRejected, false)
}

func (s *Service) planTransition(ctx context.Context, actor roles.Actor, id int64, from, to AIPStatus, setApprover bool) (AIP, error) {
	if err := roles.Require(actor, roles.ModulePlanning); err != nil {
		return AIP{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		aip, err := tx.GetAIPForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if aip.Status != from {
			return fmt.Errorf("%w: plan is %s", shared.ErrInvalidTransition, aip.Status)
		}
		var approver *int64
		if setApprover {
			approver = &actor.UserID
		}
		return tx.UpdateAIPStatus(ctx, id, to, approver)
	})
	if err != nil {
		return AIP{}, err
	}
	return s.repo.GetAIP(ctx, id)
}

// TransitionItem moves a plan item along its lifecycle.
func (s *Service) TransitionItem(ctx context.Context, actor roles.Actor, itemID int64, to ItemStatus) (AIPItem, error) {
	if err := roles.Require(actor, roles.ModulePlanning); err != nil {
		return AIPItem{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if !CanTransition(item.Status, to) {
			return fmt.Errorf("%w: plan item cannot move from %s to %s", shared.ErrInvalidTransition, item.Status, to)
		}
		return tx.UpdateItemStatus(ctx, itemID, to)
	})
	if err != nil {
		return AIPItem{}, err
	}
	return s.repo.GetItem(ctx, itemID)
}

// PlanTotal sums item amounts, excluding rejected items.
func PlanTotal(items []AIPItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		if it.Status == ItemStatusRejected {
			continue
		}
		total = total.Add(it.Amount)
	}
	return total
}
