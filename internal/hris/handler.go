package hris

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/munifin/munifin/internal/platform/httpx"
	"github.com/munifin/munifin/internal/roles"
	"github.com/munifin/munifin/internal/shared"
)

// Handler manages HRIS endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers employee and payroll routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/employees", h.listEmployees)
	r.Get("/employees/{id}", h.getEmployee)
	r.Post("/employees", h.createEmployee)
	r.Post("/employees/{id}/deactivate", h.deactivateEmployee)
	r.Get("/payrolls", h.listPayrolls)
	r.Get("/payrolls/{id}", h.getPayroll)
	r.Post("/payrolls", h.createPayroll)
	r.Post("/payrolls/{id}/items", h.addItem)
	r.Post("/payrolls/{id}/finalize", h.finalize)
}

type employeeRequest struct {
	EmployeeNumber string `json:"employeeNumber"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Position       string `json:"position"`
	Department     string `json:"department"`
	Salary         string `json:"salary"`
	DateHired      string `json:"dateHired"`
}

type payrollRequest struct {
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`
	Description string `json:"description"`
}

type payrollItemRequest struct {
	EmployeeID int64  `json:"employeeId"`
	BasicPay   string `json:"basicPay"`
	Overtime   string `json:"overtime"`
	Allowances string `json:"allowances"`
	Deductions string `json:"deductions"`
}

func parseMoney(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	req := ListEmployeesRequest{
		ActiveOnly: r.URL.Query().Get("active") == "true",
		Department: r.URL.Query().Get("department"),
	}
	list, err := h.service.ListEmployees(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("list employees", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) getEmployee(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	e, err := h.service.GetEmployee(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) createEmployee(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	var req employeeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	salary, err := parseMoney(req.Salary)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	in := EmployeeInput{
		EmployeeNumber: req.EmployeeNumber,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Position:       req.Position,
		Department:     req.Department,
		Salary:         salary,
	}
	if req.DateHired != "" {
		d, err := time.Parse("2006-01-02", req.DateHired)
		if err != nil {
			httpx.RespondError(w, shared.ErrValidation)
			return
		}
		in.DateHired = d
	}
	e, err := h.service.CreateEmployee(r.Context(), actor, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *Handler) deactivateEmployee(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if err := h.service.DeactivateEmployee(r.Context(), actor, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPayrolls(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	var req ListPayrollsRequest
	if v := r.URL.Query().Get("status"); v != "" {
		req.Status = PayrollStatus(v)
	}
	list, err := h.service.ListPayrolls(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("list payrolls", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) getPayroll(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	p, err := h.service.GetPayroll(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) createPayroll(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	var req payrollRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	in := CreatePayrollInput{Description: req.Description}
	var err error
	if in.PeriodStart, err = time.Parse("2006-01-02", req.PeriodStart); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	if in.PeriodEnd, err = time.Parse("2006-01-02", req.PeriodEnd); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	p, err := h.service.CreatePayroll(r.Context(), actor, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	var req payrollItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	in := PayrollItemInput{EmployeeID: req.EmployeeID}
	for _, p := range []struct {
		src string
		dst *decimal.Decimal
	}{
		{req.BasicPay, &in.BasicPay},
		{req.Overtime, &in.Overtime},
		{req.Allowances, &in.Allowances},
		{req.Deductions, &in.Deductions},
	} {
		v, err := parseMoney(p.src)
		if err != nil {
			httpx.RespondError(w, shared.ErrValidation)
			return
		}
		*p.dst = v
	}
	item, err := h.service.AddItem(r.Context(), actor, id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) finalize(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	p, err := h.service.Finalize(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}
