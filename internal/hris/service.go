package hris

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/munifin/munifin/internal/roles"
	"github.com/munifin/munifin/internal/shared"
)

// Service implements employee records and the payroll workflow. A payroll
// line's net pay is always computed server side; finalizing a run requires at
// least one line and stamps the run total from its lines.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) GetEmployee(ctx context.Context, actor roles.Actor, id int64) (Employee, error) {
	if err := roles.Require(actor, roles.ModuleHRIS); err != nil {
		return Employee{}, err
	}
	return s.repo.GetEmployee(ctx, id)
}

func (s *Service) ListEmployees(ctx context.Context, actor roles.Actor, req ListEmployeesRequest) ([]Employee, error) {
	if err := roles.Require(actor, roles.ModuleHRIS); err != nil {
		return nil, err
	}
	return s.repo.ListEmployees(ctx, req)
}

// CreateEmployee registers a new personnel record.
func (s *Service) CreateEmployee(ctx context.Context, actor roles.Actor, in EmployeeInput) (Employee, error) {
	if err := roles.Require(actor, roles.ModuleHRIS); err != nil {
		return Employee{}, err
	}
	if err := in.Validate(); err != nil {
		return Employee{}, err
	}
	e, err := s.repo.CreateEmployee(ctx, in)
	if err != nil {
		return Employee{}, err
	}
	s.logger.Info("employee registered", "employee_id", e.ID, "number", e.EmployeeNumber)
	return e, nil
}

// DeactivateEmployee marks an employee inactive. Inactive employees cannot be
// added to new payroll runs.
func (s *Service) DeactivateEmployee(ctx context.Context, actor roles.Actor, id int64) error {
	if err := roles.Require(actor, roles.ModuleHRIS); err != nil {
		return err
	}
	return s.repo.DeactivateEmployee(ctx, id)
}

func (s *Service) GetPayroll(ctx context.Context, actor roles.Actor, id int64) (Payroll, error) {
	if err := roles.Require(actor, roles.ModuleHRIS); err != nil {
		return Payroll{}, err
	}
	return s.repo.GetPayroll(ctx, id)
}

func (s *Service) ListPayrolls(ctx context.Context, actor roles.Actor, req ListPayrollsRequest) ([]Payroll, error) {
	if err := roles.Require(actor, roles.ModuleHRIS); err != nil {
		return nil, err
	}
	return s.repo.ListPayrolls(ctx, req)
}

// CreatePayroll opens a draft payroll run for a pay period.
func (s *Service) CreatePayroll(ctx context.Context, actor roles.Actor, in CreatePayrollInput) (Payroll, error) {
	if err := roles.Require(actor, roles.ModuleHRIS); err != nil {
		return Payroll{}, err
	}
	if err := in.Validate(); err != nil {
		return Payroll{}, err
	}
	var payroll Payroll
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		payroll, err = tx.InsertPayroll(ctx, in, actor.UserID)
		return err
	})
	if err != nil {
		return Payroll{}, err
	}
	s.logger.Info("payroll opened", "payroll_id", payroll.ID)
	return payroll, nil
}

// AddItem puts an employee on a draft payroll run. BasicPay defaults to the
// employee's salary; net pay is derived from the components.
func (s *Service) AddItem(ctx context.Context, actor roles.Actor, payrollID int64, in PayrollItemInput) (PayrollItem, error) {
	if err := roles.Require(actor, roles.ModuleHRIS); err != nil {
		return PayrollItem{}, err
	}
	if err := in.Validate(); err != nil {
		return PayrollItem{}, err
	}
	var item PayrollItem
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		payroll, err := tx.GetPayrollForUpdate(ctx, payrollID)
		if err != nil {
			return err
		}
		if payroll.Status != PayrollStatusDraft {
			return fmt.Errorf("%w: payroll is %s", shared.ErrInvalidTransition, payroll.Status)
		}
		salary, active, err := tx.GetEmployeeSalary(ctx, in.EmployeeID)
		if err != nil {
			return err
		}
		if !active {
			return fmt.Errorf("%w: employee is inactive", shared.ErrValidation)
		}
		if in.BasicPay.IsZero() {
			in.BasicPay = salary
		}
		netPay := ComputeNetPay(in.BasicPay, in.Overtime, in.Allowances, in.Deductions)
		if netPay.IsNegative() {
			return fmt.Errorf("%w: deductions exceed gross pay", shared.ErrValidation)
		}
		item, err = tx.InsertPayrollItem(ctx, payrollID, in, netPay)
		return err
	})
	if err != nil {
		return PayrollItem{}, err
	}
	return item, nil
}

// Finalize locks a draft run with at least one line and stamps the total net
// pay.
func (s *Service) Finalize(ctx context.Context, actor roles.Actor, payrollID int64) (Payroll, error) {
	if err := roles.Require(actor, roles.ModuleHRIS); err != nil {
		return Payroll{}, err
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		payroll, err := tx.GetPayrollForUpdate(ctx, payrollID)
		if err != nil {
			return err
		}
		if payroll.Status != PayrollStatusDraft {
			return fmt.Errorf("%w: payroll is %s", shared.ErrInvalidTransition, payroll.Status)
		}
		items, err := tx.ListPayrollItems(ctx, payrollID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("%w: payroll has no lines", shared.ErrValidation)
		}
		total := decimal.Zero
		for _, item := range items {
			total = total.Add(item.NetPay)
		}
		return tx.MarkFinalized(ctx, payrollID, total, actor.UserID)
	})
	if err != nil {
		return Payroll{}, err
	}
	s.logger.Info("payroll finalized", "payroll_id", payrollID, "finalized_by", actor.UserID)
	return s.repo.GetPayroll(ctx, payrollID)
}
