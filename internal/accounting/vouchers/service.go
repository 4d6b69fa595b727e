package vouchers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/munifin/munifin/internal/roles"
	"github.com/munifin/munifin/internal/shared"
)

// Service implements the disbursement voucher workflow. A voucher can only be
// raised against a posted journal entry, and only treasury can flip it to
// paid, through the disbursement transaction.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Get(ctx context.Context, actor roles.Actor, id int64) (Voucher, error) {
	if err := roles.Require(actor, roles.ModuleAccounting); err != nil {
		return Voucher{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, actor roles.Actor, req ListRequest) ([]Voucher, error) {
	if err := roles.Require(actor, roles.ModuleAccounting); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, req)
}

// Create raises a draft voucher against a posted journal entry.
func (s *Service) Create(ctx context.Context, actor roles.Actor, in CreateInput) (Voucher, error) {
	if err := roles.Require(actor, roles.ModuleAccounting); err != nil {
		return Voucher{}, err
	}
	if err := in.Validate(); err != nil {
		return Voucher{}, err
	}
	if in.VoucherDate.IsZero() {
		in.VoucherDate = time.Now()
	}

	var voucher Voucher
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		status, err := tx.GetJournalEntryStatusForUpdate(ctx, in.JournalEntryID)
		if err != nil {
			return err
		}
		if status != "posted" {
			return fmt.Errorf("%w: journal entry is %s, must be posted", shared.ErrInvalidTransition, status)
		}
		number := in.VoucherNumber
		if number == "" {
			number, err = tx.GenerateVoucherNumber(ctx)
			if err != nil {
				return err
			}
		}
		voucher, err = tx.Insert(ctx, in, number, actor.UserID)
		return err
	})
	if err != nil {
		return Voucher{}, err
	}
	s.logger.Info("voucher created", "voucher_id", voucher.ID, "number", voucher.VoucherNumber)
	return voucher, nil
}

// Approve marks a draft voucher approved, making it eligible for disbursement.
func (s *Service) Approve(ctx context.Context, actor roles.Actor, id int64) (Voucher, error) {
	if err := roles.Require(actor, roles.ModuleAccounting); err != nil {
		return Voucher{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		v, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if v.Status != StatusDraft {
			return fmt.Errorf("%w: voucher is %s", shared.ErrInvalidTransition, v.Status)
		}
		return tx.MarkApproved(ctx, id, actor.UserID)
	})
	if err != nil {
		return Voucher{}, err
	}
	s.logger.Info("voucher approved", "voucher_id", id, "approved_by", actor.UserID)
	return s.repo.Get(ctx, id)
}

// Cancel voids a draft or approved voucher. Paid vouchers are final.
func (s *Service) Cancel(ctx context.Context, actor roles.Actor, id int64) (Voucher, error) {
	if err := roles.Require(actor, roles.ModuleAccounting); err != nil {
		return Voucher{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		v, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if v.Status != StatusDraft && v.Status != StatusApproved {
			return fmt.Errorf("%w: voucher is %s", shared.ErrInvalidTransition, v.Status)
		}
		return tx.UpdateStatus(ctx, id, StatusCancelled)
	})
	if err != nil {
		return Voucher{}, err
	}
	return s.repo.Get(ctx, id)
}
