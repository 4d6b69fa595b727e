package budget

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetItemStatus enumerates budget line lifecycle values.
type BudgetItemStatus string

const (
	ItemStatusActive    BudgetItemStatus = "active"
	ItemStatusDepleted  BudgetItemStatus = "depleted"
	ItemStatusCancelled BudgetItemStatus = "cancelled"
)

// ObligationStatus enumerates obligation lifecycle values.
type ObligationStatus string

const (
	ObligationStatusPending   ObligationStatus = "pending"
	ObligationStatusApproved  ObligationStatus = "approved"
	ObligationStatusProcessed ObligationStatus = "processed"
	ObligationStatusCancelled ObligationStatus = "cancelled"
)

// BudgetItem is a funded budget line. Balance is the remaining unobligated
// amount; the invariant 0 <= balance <= amount holds at all times and the
// balance is mutated only inside obligation transactions.
type BudgetItem struct {
	ID          int64            `json:"id"`
	AIPItemID   *int64           `json:"aipItemId,omitempty"`
	FiscalYear  int              `json:"fiscalYear"`
	AccountCode string           `json:"accountCode"`
	Description string           `json:"description"`
	Amount      decimal.Decimal  `json:"amount"`
	Balance     decimal.Decimal  `json:"balance"`
	Status      BudgetItemStatus `json:"status"`
	CreatedBy   int64            `json:"createdBy"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// BudgetObligation is a commitment to pay reserved against a budget line.
// It moves to processed only as a side effect of its journal entry posting.
type BudgetObligation struct {
	ID               int64            `json:"id"`
	BudgetItemID     int64            `json:"budgetItemId"`
	ObligationNumber string           `json:"obligationNumber"`
	Payee            string           `json:"payee"`
	Description      string           `json:"description"`
	Amount           decimal.Decimal  `json:"amount"`
	ObligationDate   time.Time        `json:"obligationDate"`
	Status           ObligationStatus `json:"status"`
	CreatedBy        int64            `json:"createdBy"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
	ProcessedBy      *int64           `json:"processedBy,omitempty"`
	ProcessedAt      *time.Time       `json:"processedAt,omitempty"`
}
