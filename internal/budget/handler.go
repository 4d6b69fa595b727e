package budget

import (
	"context"
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

// Handler manages budget item and obligation endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers budget routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/items", h.listItems)
	r.Get("/items/{id}", h.getItem)
	r.Post("/items", h.createItem)
	r.Get("/obligations", h.listObligations)
	r.Get("/obligations/{id}", h.getObligation)
	r.Post("/obligations", h.applyObligation)
	r.Post("/obligations/{id}/approve", h.approveObligation)
	r.Post("/obligations/{id}/cancel", h.cancelObligation)
}

type createItemRequest struct {
	AIPItemID   *int64 `json:"aipItemId"`
	FiscalYear  int    `json:"fiscalYear"`
	AccountCode string `json:"accountCode"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

type obligationRequest struct {
	BudgetItemID     int64  `json:"budgetItemId"`
	ObligationNumber string `json:"obligationNumber"`
	Payee            string `json:"payee"`
	Description      string `json:"description"`
	Amount           string `json:"amount"`
	ObligationDate   string `json:"obligationDate"`
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	var req ListItemsRequest
	if v := r.URL.Query().Get("fiscalYear"); v != "" {
		req.FiscalYear, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("aipItemId"); v != "" {
		req.AIPItemID, _ = strconv.ParseInt(v, 10, 64)
	}
	items, err := h.service.ListItems(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("list budget items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
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
	item, err := h.service.GetItem(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	var req createItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	item, err := h.service.CreateItem(r.Context(), actor, CreateItemInput{
		AIPItemID:   req.AIPItemID,
		FiscalYear:  req.FiscalYear,
		AccountCode: req.AccountCode,
		Description: req.Description,
		Amount:      amount,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) listObligations(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	var req ListObligationsRequest
	if v := r.URL.Query().Get("budgetItemId"); v != "" {
		req.BudgetItemID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := r.URL.Query().Get("status"); v != "" {
		req.Status = ObligationStatus(v)
	}
	list, err := h.service.ListObligations(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("list obligations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) getObligation(w http.ResponseWriter, r *http.Request) {
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
	obligation, err := h.service.GetObligation(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, obligation)
}

func (h *Handler) applyObligation(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	var req obligationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	in := ObligationInput{
		BudgetItemID:     req.BudgetItemID,
		ObligationNumber: req.ObligationNumber,
		Payee:            req.Payee,
		Description:      req.Description,
		Amount:           amount,
	}
	if req.ObligationDate != "" {
		d, err := time.Parse("2006-01-02", req.ObligationDate)
		if err != nil {
			httpx.RespondError(w, shared.ErrValidation)
			return
		}
		in.ObligationDate = d
	}
	obligation, err := h.service.ApplyObligation(r.Context(), actor, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, obligation)
}

func (h *Handler) approveObligation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.ApproveObligation)
}

func (h *Handler) cancelObligation(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.CancelObligation)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, actor roles.Actor, id int64) (BudgetObligation, error)) {
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
	obligation, err := fn(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, obligation)
}
