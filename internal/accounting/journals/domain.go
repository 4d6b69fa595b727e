package journals

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus enumerates journal entry lifecycle values.
type EntryStatus string

const (
	EntryStatusDraft     EntryStatus = "draft"
	EntryStatusPosted    EntryStatus = "posted"
	EntryStatusCancelled EntryStatus = "cancelled"
)

// JournalEntry is a double-entry accounting record. While draft its lines can
// change freely; posting freezes it permanently and, when linked to an
// obligation, marks that obligation processed in the same transaction.
type JournalEntry struct {
	ID           int64           `json:"id"`
	EntryNumber  string          `json:"entryNumber"`
	EntryDate    time.Time       `json:"entryDate"`
	Description  string          `json:"description"`
	ObligationID *int64          `json:"obligationId,omitempty"`
	Status       EntryStatus     `json:"status"`
	TotalDebit   decimal.Decimal `json:"totalDebit"`
	TotalCredit  decimal.Decimal `json:"totalCredit"`
	CreatedBy    int64           `json:"createdBy"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
	PostedBy     *int64          `json:"postedBy,omitempty"`
	PostedAt     *time.Time      `json:"postedAt,omitempty"`
	Items        []JournalItem   `json:"items,omitempty"`
}

// JournalItem is one line of a journal entry. Exactly one of Debit and Credit
// is nonzero.
type JournalItem struct {
	ID          int64           `json:"id"`
	EntryID     int64           `json:"entryId"`
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Totals sums the debit and credit columns of a line set.
func Totals(items []JournalItem) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, it := range items {
		debit = debit.Add(it.Debit)
		credit = credit.Add(it.Credit)
	}
	return debit, credit
}

// IsBalanced reports whether debits equal credits exactly. Comparison is
// exact decimal equality, never float tolerance.
func IsBalanced(items []JournalItem) bool {
	debit, credit := Totals(items)
	return debit.Equal(credit)
}
