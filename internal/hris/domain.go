package hris

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayrollStatus enumerates payroll run lifecycle values.
type PayrollStatus string

const (
	PayrollStatusDraft     PayrollStatus = "draft"
	PayrollStatusFinalized PayrollStatus = "finalized"
)

// Employee is a personnel record. Salary is the monthly basic pay used as
// the default when a payroll line omits it.
type Employee struct {
	ID             int64           `json:"id"`
	EmployeeNumber string          `json:"employeeNumber"`
	FirstName      string          `json:"firstName"`
	LastName       string          `json:"lastName"`
	Position       string          `json:"position"`
	Department     string          `json:"department"`
	Salary         decimal.Decimal `json:"salary"`
	DateHired      time.Time       `json:"dateHired"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Payroll is one pay period run. Lines can change while draft; finalizing
// locks the run and stamps its totals.
type Payroll struct {
	ID          int64           `json:"id"`
	PeriodStart time.Time       `json:"periodStart"`
	PeriodEnd   time.Time       `json:"periodEnd"`
	Description string          `json:"description"`
	Status      PayrollStatus   `json:"status"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedBy   int64           `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	FinalizedBy *int64          `json:"finalizedBy,omitempty"`
	FinalizedAt *time.Time      `json:"finalizedAt,omitempty"`
	Items       []PayrollItem   `json:"items,omitempty"`
}

// PayrollItem is one employee's line in a payroll run. NetPay is always
// derived, never stored from input.
type PayrollItem struct {
	ID         int64           `json:"id"`
	PayrollID  int64           `json:"payrollId"`
	EmployeeID int64           `json:"employeeId"`
	BasicPay   decimal.Decimal `json:"basicPay"`
	Overtime   decimal.Decimal `json:"overtime"`
	Allowances decimal.Decimal `json:"allowances"`
	Deductions decimal.Decimal `json:"deductions"`
	NetPay     decimal.Decimal `json:"netPay"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// ComputeNetPay derives take-home pay from the line components.
func ComputeNetPay(basicPay, overtime, allowances, deductions decimal.Decimal) decimal.Decimal {
	return basicPay.Add(overtime).Add(allowances).Sub(deductions)
}
