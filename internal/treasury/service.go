package treasury

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/munifin/munifin/internal/roles"
	"github.com/munifin/munifin/internal/shared"
)

// Service implements treasury operations: issuing payments against approved
// vouchers and recording revenue collections. Issuing a disbursement and
// marking its voucher paid happen in one transaction, so the two records can
// never disagree.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) GetDisbursement(ctx context.Context, actor roles.Actor, id int64) (Disbursement, error) {
	if err := roles.Require(actor, roles.ModuleTreasury); err != nil {
		return Disbursement{}, err
	}
	return s.repo.GetDisbursement(ctx, id)
}

func (s *Service) ListDisbursements(ctx context.Context, actor roles.Actor, req ListDisbursementsRequest) ([]Disbursement, error) {
	if err := roles.Require(actor, roles.ModuleTreasury); err != nil {
		return nil, err
	}
	return s.repo.ListDisbursements(ctx, req)
}

// IssueDisbursement pays an approved voucher. The payment amount always
// equals the voucher amount, and the voucher flips to paid atomically with
// the insert.
func (s *Service) IssueDisbursement(ctx context.Context, actor roles.Actor, in DisbursementInput) (Disbursement, error) {
	if err := roles.Require(actor, roles.ModuleTreasury); err != nil {
		return Disbursement{}, err
	}
	if err := in.Validate(); err != nil {
		return Disbursement{}, err
	}
	if in.DisbursementDate.IsZero() {
		in.DisbursementDate = time.Now()
	}

	var disbursement Disbursement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		status, amount, err := tx.GetVoucherForUpdate(ctx, in.VoucherID)
		if err != nil {
			return err
		}
		if status != "approved" {
			return fmt.Errorf("%w: voucher is %s, must be approved", shared.ErrInvalidTransition, status)
		}
		disbursement, err = tx.InsertDisbursement(ctx, in, amount, actor.UserID)
		if err != nil {
			return err
		}
		return tx.UpdateVoucherStatus(ctx, in.VoucherID, "paid")
	})
	if err != nil {
		return Disbursement{}, err
	}
	s.logger.Info("disbursement issued",
		"disbursement_id", disbursement.ID,
		"voucher_id", disbursement.VoucherID,
		"amount", disbursement.Amount.String())
	return disbursement, nil
}

// ClearDisbursement marks an issued payment as cleared by the bank.
func (s *Service) ClearDisbursement(ctx context.Context, actor roles.Actor, id int64) (Disbursement, error) {
	if err := roles.Require(actor, roles.ModuleTreasury); err != nil {
		return Disbursement{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		d, err := tx.GetDisbursementForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if d.Status != DisbursementStatusIssued {
			return fmt.Errorf("%w: disbursement is %s", shared.ErrInvalidTransition, d.Status)
		}
		return tx.UpdateDisbursementStatus(ctx, id, DisbursementStatusCleared)
	})
	if err != nil {
		return Disbursement{}, err
	}
	return s.repo.GetDisbursement(ctx, id)
}

// CancelDisbursement voids an issued payment and reopens its voucher to
// approved, in one transaction. Cleared payments are final.
func (s *Service) CancelDisbursement(ctx context.Context, actor roles.Actor, id int64) (Disbursement, error) {
	if err := roles.Require(actor, roles.ModuleTreasury); err != nil {
		return Disbursement{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		d, err := tx.GetDisbursementForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if d.Status != DisbursementStatusIssued {
			return fmt.Errorf("%w: disbursement is %s", shared.ErrInvalidTransition, d.Status)
		}
		if err := tx.UpdateDisbursementStatus(ctx, id, DisbursementStatusCancelled); err != nil {
			return err
		}
		return tx.UpdateVoucherStatus(ctx, d.VoucherID, "approved")
	})
	if err != nil {
		return Disbursement{}, err
	}
	s.logger.Info("disbursement cancelled", "disbursement_id", id)
	return s.repo.GetDisbursement(ctx, id)
}

func (s *Service) GetCollection(ctx context.Context, actor roles.Actor, id int64) (Collection, error) {
	if err := roles.Require(actor, roles.ModuleTreasury); err != nil {
		return Collection{}, err
	}
	return s.repo.GetCollection(ctx, id)
}

func (s *Service) ListCollections(ctx context.Context, actor roles.Actor, req ListCollectionsRequest) ([]Collection, error) {
	if err := roles.Require(actor, roles.ModuleTreasury); err != nil {
		return nil, err
	}
	return s.repo.ListCollections(ctx, req)
}

// RecordCollection registers received revenue under an official receipt
// number.
func (s *Service) RecordCollection(ctx context.Context, actor roles.Actor, in CollectionInput) (Collection, error) {
	if err := roles.Require(actor, roles.ModuleTreasury); err != nil {
		return Collection{}, err
	}
	if err := in.Validate(); err != nil {
		return Collection{}, err
	}
	if in.CollectionDate.IsZero() {
		in.CollectionDate = time.Now()
	}

	var collection Collection
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number := in.ReceiptNumber
		var err error
		if number == "" {
			number, err = tx.GenerateReceiptNumber(ctx)
			if err != nil {
				return err
			}
		}
		collection, err = tx.InsertCollection(ctx, in, number, actor.UserID)
		return err
	})
	if err != nil {
		return Collection{}, err
	}
	s.logger.Info("collection recorded",
		"collection_id", collection.ID,
		"receipt_number", collection.ReceiptNumber,
		"amount", collection.Amount.String())
	return collection, nil
}

// DepositCollection marks a recorded collection as deposited to the bank.
func (s *Service) DepositCollection(ctx context.Context, actor roles.Actor, id int64) (Collection, error) {
	if err := roles.Require(actor, roles.ModuleTreasury); err != nil {
		return Collection{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		c, err := tx.GetCollectionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if c.Status != CollectionStatusRecorded {
			return fmt.Errorf("%w: collection is %s", shared.ErrInvalidTransition, c.Status)
		}
		now := time.Now()
		return tx.UpdateCollectionStatus(ctx, id, CollectionStatusDeposited, &now)
	})
	if err != nil {
		return Collection{}, err
	}
	return s.repo.GetCollection(ctx, id)
}

// CancelCollection voids a recorded collection. Deposited collections are
// final.
func (s *Service) CancelCollection(ctx context.Context, actor roles.Actor, id int64) (Collection, error) {
	if err := roles.Require(actor, roles.ModuleTreasury); err != nil {
		return Collection{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		c, err := tx.GetCollectionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if c.Status != CollectionStatusRecorded {
			return fmt.Errorf("%w: collection is %s", shared.ErrInvalidTransition, c.Status)
		}
		return tx.UpdateCollectionStatus(ctx, id, CollectionStatusCancelled, nil)
	})
	if err != nil {
		return Collection{}, err
	}
	return s.repo.GetCollection(ctx, id)
}
