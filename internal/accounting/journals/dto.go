package journals

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/munifin/munifin/internal/shared"
)

// CreateEntryInput groups fields for a new draft entry. Items may be empty at
// creation; a draft accumulates lines before posting.
type CreateEntryInput struct {
	EntryNumber  string
	EntryDate    time.Time
	Description  string
	ObligationID *int64
	Items        []ItemInput
}

// ItemInput is one requested journal line.
type ItemInput struct {
	AccountCode string
	AccountName string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// Validate enforces the single-sided line rule: exactly one of debit and
// credit is positive, the other zero.
func (in ItemInput) Validate() error {
	if strings.TrimSpace(in.AccountCode) == "" {
		return fmt.Errorf("%w: account code required", shared.ErrValidation)
	}
	if in.Debit.IsNegative() || in.Credit.IsNegative() {
		return fmt.Errorf("%w: line amounts must not be negative", shared.ErrValidation)
	}
	debitSet := in.Debit.IsPositive()
	creditSet := in.Credit.IsPositive()
	if debitSet == creditSet {
		return fmt.Errorf("%w: line must carry exactly one of debit or credit", shared.ErrValidation)
	}
	return nil
}

// Validate checks structural validity of the input. Balance is not checked
// here; drafts may be unbalanced until posting.
func (in CreateEntryInput) Validate() error {
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: description required", shared.ErrValidation)
	}
	for i, item := range in.Items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	return nil
}

// ListEntriesRequest filters entry queries.
type ListEntriesRequest struct {
	Status       EntryStatus
	ObligationID int64
}
