package vouchers

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/munifin/munifin/internal/shared"
)

// CreateInput groups fields required to raise a disbursement voucher.
// VoucherNumber is optional; the store issues one when empty.
type CreateInput struct {
	VoucherNumber  string
	JournalEntryID int64
	Payee          string
	Particulars    string
	Amount         decimal.Decimal
	VoucherDate    time.Time
}

// Validate ensures create input meets minimum criteria.
func (in CreateInput) Validate() error {
	if in.JournalEntryID == 0 {
		return fmt.Errorf("%w: journal entry required", shared.ErrValidation)
	}
	if strings.TrimSpace(in.Payee) == "" {
		return fmt.Errorf("%w: payee required", shared.ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	}
	return nil
}

// ListRequest filters voucher queries.
type ListRequest struct {
	Status         VoucherStatus
	JournalEntryID int64
}
