package planning

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/munifin/munifin/internal/shared"
)

// CreateAIPInput groups fields required to open a new plan.
type CreateAIPInput struct {
	Title       string
	FiscalYear  int
	Description string
}

// Validate ensures create input meets minimum criteria.
func (in CreateAIPInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title required", shared.ErrValidation)
	}
	if in.FiscalYear < 2000 {
		return fmt.Errorf("%w: fiscal year required", shared.ErrValidation)
	}
	return nil
}

// ItemInput groups fields for one planned program, project, or activity.
type ItemInput struct {
	ReferenceCode string
	Description   string
	Sector        string
	Amount        decimal.Decimal
}

// Validate ensures item input meets minimum criteria.
func (in ItemInput) Validate() error {
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: description required", shared.ErrValidation)
	}
	if !in.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	}
	return nil
}

// ListAIPsRequest filters plan queries.
type ListAIPsRequest struct {
	FiscalYear int
	Status     AIPStatus
}
