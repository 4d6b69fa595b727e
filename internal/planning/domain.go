package planning

import (
	"time"

	"github.com/shopspring/decimal"
)

// AIPStatus enumerates annual investment plan lifecycle values.
type AIPStatus string

const (
	AIPStatusDraft     AIPStatus = "draft"
	AIPStatusSubmitted AIPStatus = "submitted"
	AIPStatusApproved  AIPStatus = "approved"
	AIPStatusRejected  AIPStatus = "rejected"
)

// ItemStatus enumerates plan item lifecycle values. The forward path is
// draft, approved, in_progress, completed; rejection is reachable from any
// non-terminal state.
type ItemStatus string

const (
	ItemStatusDraft      ItemStatus = "draft"
	ItemStatusApproved   ItemStatus = "approved"
	ItemStatusInProgress ItemStatus = "in_progress"
	ItemStatusCompleted  ItemStatus = "completed"
	ItemStatusRejected   ItemStatus = "rejected"
)

// AIP is an annual investment plan for one fiscal year. Items can only be
// added while the plan is draft; an approved plan's items become eligible for
// budget funding.
type AIP struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	FiscalYear  int             `json:"fiscalYear"`
	Description string          `json:"description"`
	Status      AIPStatus       `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedBy   int64           `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	ApprovedBy  *int64          `json:"approvedBy,omitempty"`
	ApprovedAt  *time.Time      `json:"approvedAt,omitempty"`
	Items       []AIPItem       `json:"items,omitempty"`
}

// AIPItem is one planned program, project, or activity within a plan.
type AIPItem struct {
	ID            int64           `json:"id"`
	AIPID         int64           `json:"aipId"`
	ReferenceCode string          `json:"referenceCode"`
	Description   string          `json:"description"`
	Sector        string          `json:"sector"`
	Amount        decimal.Decimal `json:"amount"`
	Status        ItemStatus      `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// itemTransitions maps each item status to the statuses reachable from it.
var itemTransitions = map[ItemStatus][]ItemStatus{
	ItemStatusDraft:      {ItemStatusApproved, ItemStatusRejected},
	ItemStatusApproved:   {ItemStatusInProgress, ItemStatusRejected},
	ItemStatusInProgress: {ItemStatusCompleted, ItemStatusRejected},
}

// CanTransition reports whether an item may move from one status to another.
func CanTransition(from, to ItemStatus) bool {
	for _, next := range itemTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
