package hris

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/munifin/munifin/internal/platform/db"
	"github.com/munifin/munifin/internal/shared"
)

// Repository encapsulates DB operations for employees and payroll runs.
type Repository interface {
	GetEmployee(ctx context.Context, id int64) (Employee, error)
	ListEmployees(ctx context.Context, req ListEmployeesRequest) ([]Employee, error)
	CreateEmployee(ctx context.Context, in EmployeeInput) (Employee, error)
	DeactivateEmployee(ctx context.Context, id int64) error
	GetPayroll(ctx context.Context, id int64) (Payroll, error)
	ListPayrolls(ctx context.Context, req ListPayrollsRequest) ([]Payroll, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional payroll operations.
type TxRepository interface {
	InsertPayroll(ctx context.Context, in CreatePayrollInput, createdBy int64) (Payroll, error)
	GetPayrollForUpdate(ctx context.Context, id int64) (Payroll, error)
	ListPayrollItems(ctx context.Context, payrollID int64) ([]PayrollItem, error)
	InsertPayrollItem(ctx context.Context, payrollID int64, in PayrollItemInput, netPay decimal.Decimal) (PayrollItem, error)
	GetEmployeeSalary(ctx context.Context, employeeID int64) (decimal.Decimal, bool, error)
	MarkFinalized(ctx context.Context, id int64, total decimal.Decimal, finalizedBy int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

var _ Repository = (*repository)(nil)
var _ TxRepository = (*txRepository)(nil)

const employeeColumns = `id, employee_number, first_name, last_name, position, department, salary, date_hired, active, created_at, updated_at`
const payrollColumns = `id, period_start, period_end, description, status, total_amount, created_by, created_at, updated_at, finalized_by, finalized_at`
const payrollItemColumns = `id, payroll_id, employee_id, basic_pay, overtime, allowances, deductions, net_pay, created_at`

func (r *repository) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	row := r.db.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id=$1`, id)
	return scanEmployee(row)
}

func (r *repository) ListEmployees(ctx context.Context, req ListEmployeesRequest) ([]Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees`
	args := []any{}
	switch {
	case req.Department != "" && req.ActiveOnly:
		query += ` WHERE department=$1 AND active`
		args = append(args, req.Department)
	case req.Department != "":
		query += ` WHERE department=$1`
		args = append(args, req.Department)
	case req.ActiveOnly:
		query += ` WHERE active`
	}
	query += ` ORDER BY last_name, first_name`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *repository) CreateEmployee(ctx context.Context, in EmployeeInput) (Employee, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO employees (employee_number, first_name, last_name, position, department, salary, date_hired, active)
VALUES ($1,$2,$3,$4,$5,$6,$7,true) RETURNING `+employeeColumns,
		in.EmployeeNumber, in.FirstName, in.LastName, in.Position, in.Department, in.Salary, in.DateHired)
	e, err := scanEmployee(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Employee{}, fmt.Errorf("%w: employee number %s", shared.ErrDuplicate, in.EmployeeNumber)
		}
		return Employee{}, err
	}
	return e, nil
}

func (r *repository) DeactivateEmployee(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE employees SET active=false, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) GetPayroll(ctx context.Context, id int64) (Payroll, error) {
	row := r.db.QueryRow(ctx, `SELECT `+payrollColumns+` FROM payrolls WHERE id=$1`, id)
	p, err := scanPayroll(row)
	if err != nil {
		return Payroll{}, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+payrollItemColumns+` FROM payroll_items WHERE payroll_id=$1 ORDER BY id ASC`, id)
	if err != nil {
		return Payroll{}, err
	}
	defer rows.Close()
	for rows.Next() {
		item, err := scanPayrollItem(rows)
		if err != nil {
			return Payroll{}, err
		}
		p.Items = append(p.Items, item)
	}
	return p, rows.Err()
}

func (r *repository) ListPayrolls(ctx context.Context, req ListPayrollsRequest) ([]Payroll, error) {
	query := `SELECT ` + payrollColumns + ` FROM payrolls`
	args := []any{}
	if req.Status != "" {
		query += ` WHERE status=$1`
		args = append(args, req.Status)
	}
	query += ` ORDER BY period_start DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Payroll
	for rows.Next() {
		p, err := scanPayroll(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertPayroll(ctx context.Context, in CreatePayrollInput, createdBy int64) (Payroll, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO payrolls (period_start, period_end, description, status, total_amount, created_by)
VALUES ($1,$2,$3,'draft',0,$4) RETURNING `+payrollColumns,
		in.PeriodStart, in.PeriodEnd, in.Description, createdBy)
	return scanPayroll(row)
}

func (r *txRepository) GetPayrollForUpdate(ctx context.Context, id int64) (Payroll, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+payrollColumns+` FROM payrolls WHERE id=$1 FOR UPDATE`, id)
	return scanPayroll(row)
}

func (r *txRepository) ListPayrollItems(ctx context.Context, payrollID int64) ([]PayrollItem, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+payrollItemColumns+` FROM payroll_items WHERE payroll_id=$1 ORDER BY id ASC`, payrollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PayrollItem
	for rows.Next() {
		item, err := scanPayrollItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *txRepository) InsertPayrollItem(ctx context.Context, payrollID int64, in PayrollItemInput, netPay decimal.Decimal) (PayrollItem, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO payroll_items (payroll_id, employee_id, basic_pay, overtime, allowances, deductions, net_pay)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING `+payrollItemColumns,
		payrollID, in.EmployeeID, in.BasicPay, in.Overtime, in.Allowances, in.Deductions, netPay)
	item, err := scanPayrollItem(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return PayrollItem{}, fmt.Errorf("%w: employee already on this payroll", shared.ErrDuplicate)
		}
		return PayrollItem{}, err
	}
	return item, nil
}

func (r *txRepository) GetEmployeeSalary(ctx context.Context, employeeID int64) (decimal.Decimal, bool, error) {
	var salary decimal.Decimal
	var active bool
	err := r.tx.QueryRow(ctx, `SELECT salary, active FROM employees WHERE id=$1`, employeeID).Scan(&salary, &active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, fmt.Errorf("%w: employee", shared.ErrNotFound)
		}
		return decimal.Zero, false, err
	}
	return salary, active, nil
}

func (r *txRepository) MarkFinalized(ctx context.Context, id int64, total decimal.Decimal, finalizedBy int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE payrolls
SET status='finalized', total_amount=$2, finalized_by=$3, finalized_at=NOW(), updated_at=NOW()
WHERE id=$1`, id, total, finalizedBy)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.EmployeeNumber, &e.FirstName, &e.LastName, &e.Position, &e.Department,
		&e.Salary, &e.DateHired, &e.Active, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Employee{}, fmt.Errorf("%w: employee", shared.ErrNotFound)
		}
		return Employee{}, err
	}
	return e, nil
}

func scanPayroll(row pgx.Row) (Payroll, error) {
	var p Payroll
	err := row.Scan(&p.ID, &p.PeriodStart, &p.PeriodEnd, &p.Description, &p.Status, &p.TotalAmount,
		&p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.FinalizedBy, &p.FinalizedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payroll{}, fmt.Errorf("%w: payroll", shared.ErrNotFound)
		}
		return Payroll{}, err
	}
	return p, nil
}

func scanPayrollItem(row pgx.Row) (PayrollItem, error) {
	var it PayrollItem
	err := row.Scan(&it.ID, &it.PayrollID, &it.EmployeeID, &it.BasicPay, &it.Overtime,
		&it.Allowances, &it.Deductions, &it.NetPay, &it.CreatedAt)
	if err != nil {
		return PayrollItem{}, err
	}
	return it, nil
}
