package treasury

import (
	"time"

	"github.com/shopspring/decimal"
)

// DisbursementStatus enumerates disbursement lifecycle values.
type DisbursementStatus string

const (
	DisbursementStatusIssued    DisbursementStatus = "issued"
	DisbursementStatusCleared   DisbursementStatus = "cleared"
	DisbursementStatusCancelled DisbursementStatus = "cancelled"
)

// CollectionStatus enumerates collection lifecycle values.
type CollectionStatus string

const (
	CollectionStatusRecorded  CollectionStatus = "recorded"
	CollectionStatusDeposited CollectionStatus = "deposited"
	CollectionStatusCancelled CollectionStatus = "cancelled"
)

// Disbursement is an actual payment issued against an approved voucher.
// Issuing it marks the voucher paid in the same transaction; cancelling
// an issued disbursement reopens the voucher to approved.
type Disbursement struct {
	ID               int64              `json:"id"`
	VoucherID        int64              `json:"voucherId"`
	PaymentMethod    string             `json:"paymentMethod"`
	CheckNumber      string             `json:"checkNumber,omitempty"`
	BankAccount      string             `json:"bankAccount,omitempty"`
	Amount           decimal.Decimal    `json:"amount"`
	DisbursementDate time.Time          `json:"disbursementDate"`
	Status           DisbursementStatus `json:"status"`
	CreatedBy        int64              `json:"createdBy"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// Collection is revenue received by the treasury, identified by its official
// receipt number.
type Collection struct {
	ID             int64            `json:"id"`
	ReceiptNumber  string           `json:"receiptNumber"`
	Payer          string           `json:"payer"`
	Particulars    string           `json:"particulars"`
	CollectionType string           `json:"collectionType"`
	AccountCode    string           `json:"accountCode"`
	Amount         decimal.Decimal  `json:"amount"`
	CollectionDate time.Time        `json:"collectionDate"`
	PaymentMethod  string           `json:"paymentMethod"`
	Status         CollectionStatus `json:"status"`
	CreatedBy      int64            `json:"createdBy"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
	DepositedAt    *time.Time       `json:"depositedAt,omitempty"`
}
