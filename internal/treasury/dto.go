package treasury

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/munifin/munifin/internal/shared"
)

// DisbursementInput groups fields required to issue a payment.
type DisbursementInput struct {
	VoucherID        int64
	PaymentMethod    string
	CheckNumber      string
	BankAccount      string
	DisbursementDate time.Time
}

var paymentMethods = map[string]bool{
	"check":         true,
	"cash":          true,
	"bank_transfer": true,
}

// Validate ensures disbursement input meets minimum criteria. The amount is
// not supplied; it always equals the voucher amount.
func (in DisbursementInput) Validate() error {
	if in.VoucherID == 0 {
		return fmt.Errorf("%w: voucher required", shared.ErrValidation)
	}
	if !paymentMethods[in.PaymentMethod] {
		return fmt.Errorf("%w: invalid payment method %q", shared.ErrValidation, in.PaymentMethod)
	}
	if in.PaymentMethod == "check" && strings.TrimSpace(in.CheckNumber) == "" {
		return fmt.Errorf("%w: check number required", shared.ErrValidation)
	}
	return nil
}

// CollectionInput groups fields required to record revenue.
// ReceiptNumber is optional; the store issues one when empty.
type CollectionInput struct {
	ReceiptNumber  string
	Payer          string
	Particulars    string
	CollectionType string
	AccountCode    string
	Amount         decimal.Decimal
	CollectionDate time.Time
	PaymentMethod  string
}

var collectionTypes = map[string]bool{
	"tax":    true,
	"fee":    true,
	"fine":   true,
	"permit": true,
	"rental": true,
	"other":  true,
}

// Validate ensures collection input meets minimum criteria.
func (in CollectionInput) Validate() error {
	if strings.TrimSpace(in.Payer) == "" {
		return fmt.Errorf("%w: payer required", shared.ErrValidation)
	}
	if !collectionTypes[in.CollectionType] {
		return fmt.Errorf("%w: invalid collection type %q", shared.ErrValidation, in.CollectionType)
	}
	if strings.TrimSpace(in.AccountCode) == "" {
		return fmt.Errorf("%w: account code required", shared.ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	}
	if in.PaymentMethod != "" && !paymentMethods[in.PaymentMethod] {
		return fmt.Errorf("%w: invalid payment method %q", shared.ErrValidation, in.PaymentMethod)
	}
	return nil
}

// ListDisbursementsRequest filters disbursement queries.
type ListDisbursementsRequest struct {
	VoucherID int64
	Status    DisbursementStatus
}

// ListCollectionsRequest filters collection queries.
type ListCollectionsRequest struct {
	Status CollectionStatus
	Type   string
}
