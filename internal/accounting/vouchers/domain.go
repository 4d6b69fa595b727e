package vouchers

import (
	"time"

	"github.com/shopspring/decimal"
)

// VoucherStatus enumerates disbursement voucher lifecycle values.
type VoucherStatus string

const (
	StatusDraft     VoucherStatus = "draft"
	StatusApproved  VoucherStatus = "approved"
	StatusPaid      VoucherStatus = "paid"
	StatusCancelled VoucherStatus = "cancelled"
)

// Voucher authorizes payment against a posted journal entry. It becomes paid
// only as a side effect of a treasury disbursement, never directly.
type Voucher struct {
	ID             int64           `json:"id"`
	VoucherNumber  string          `json:"voucherNumber"`
	JournalEntryID int64           `json:"journalEntryId"`
	Payee          string          `json:"payee"`
	Particulars    string          `json:"particulars"`
	Amount         decimal.Decimal `json:"amount"`
	VoucherDate    time.Time       `json:"voucherDate"`
	Status         VoucherStatus   `json:"status"`
	CreatedBy      int64           `json:"createdBy"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	ApprovedBy     *int64          `json:"approvedBy,omitempty"`
	ApprovedAt     *time.Time      `json:"approvedAt,omitempty"`
}
