package budget

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/munifin/munifin/internal/shared"
)

// CreateItemInput groups fields required to fund a budget line.
type CreateItemInput struct {
	AIPItemID   *int64
	FiscalYear  int
	AccountCode string
	Description string
	Amount      decimal.Decimal
}

// Validate ensures create input meets minimum criteria.
func (in CreateItemInput) Validate() error {
	if in.FiscalYear < 2000 {
		return fmt.Errorf("%w: fiscal year required", shared.ErrValidation)
	}
	if strings.TrimSpace(in.AccountCode) == "" {
		return fmt.Errorf("%w: account code required", shared.ErrValidation)
	}
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: description required", shared.ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	}
	return nil
}

// ObligationInput groups fields required to obligate against a budget line.
// ObligationNumber is optional; the store issues one when empty.
type ObligationInput struct {
	BudgetItemID     int64
	ObligationNumber string
	Payee            string
	Description      string
	Amount           decimal.Decimal
	ObligationDate   time.Time
}

// Validate ensures obligation input meets minimum criteria.
func (in ObligationInput) Validate() error {
	if in.BudgetItemID == 0 {
		return fmt.Errorf("%w: budget item required", shared.ErrValidation)
	}
	if strings.TrimSpace(in.Payee) == "" {
		return fmt.Errorf("%w: payee required", shared.ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	}
	return nil
}

// ListItemsRequest filters budget line queries.
type ListItemsRequest struct {
	FiscalYear int
	AIPItemID  int64
}

// ListObligationsRequest filters obligation queries.
type ListObligationsRequest struct {
	BudgetItemID int64
	Status       ObligationStatus
}
