package hris

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/munifin/munifin/internal/shared"
)

// ListEmployeesRequest filters employee queries.
type ListEmployeesRequest struct {
	ActiveOnly bool
	Department string
}

// EmployeeInput groups fields required to register an employee.
type EmployeeInput struct {
	EmployeeNumber string
	FirstName      string
	LastName       string
	Position       string
	Department     string
	Salary         decimal.Decimal
	DateHired      time.Time
}

// Validate ensures employee input meets minimum criteria.
func (in EmployeeInput) Validate() error {
	if strings.TrimSpace(in.EmployeeNumber) == "" {
		return fmt.Errorf("%w: employee number required", shared.ErrValidation)
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return fmt.Errorf("%w: name required", shared.ErrValidation)
	}
	if in.Salary.IsNegative() {
		return fmt.Errorf("%w: salary must not be negative", shared.ErrValidation)
	}
	return nil
}

// CreatePayrollInput groups fields required to open a payroll run.
type CreatePayrollInput struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
	Description string
}

// Validate ensures the pay period is well formed.
func (in CreatePayrollInput) Validate() error {
	if in.PeriodStart.IsZero() || in.PeriodEnd.IsZero() {
		return fmt.Errorf("%w: pay period required", shared.ErrValidation)
	}
	if in.PeriodEnd.Before(in.PeriodStart) {
		return fmt.Errorf("%w: period end before start", shared.ErrValidation)
	}
	return nil
}

// PayrollItemInput groups one employee's pay components. BasicPay defaults to
// the employee's salary when zero.
type PayrollItemInput struct {
	EmployeeID int64
	BasicPay   decimal.Decimal
	Overtime   decimal.Decimal
	Allowances decimal.Decimal
	Deductions decimal.Decimal
}

// Validate ensures item input meets minimum criteria.
func (in PayrollItemInput) Validate() error {
	if in.EmployeeID == 0 {
		return fmt.Errorf("%w: employee required", shared.ErrValidation)
	}
	for _, v := range []decimal.Decimal{in.BasicPay, in.Overtime, in.Allowances, in.Deductions} {
		if v.IsNegative() {
			return fmt.Errorf("%w: pay components must not be negative", shared.ErrValidation)
		}
	}
	return nil
}

// ListPayrollsRequest filters payroll queries.
type ListPayrollsRequest struct {
	Status PayrollStatus
}
