package planning

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/munifin/munifin/internal/platform/httpx"
	"github.com/munifin/munifin/internal/roles"
	"github.com/munifin/munifin/internal/shared"
)

// Handler manages investment plan endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers planning routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/aips", h.list)
	r.Get("/aips/{id}", h.get)
	r.Post("/aips", h.create)
	r.Post("/aips/{id}/items", h.addItem)
	r.Post("/aips/{id}/submit", h.submit)
	r.Post("/aips/{id}/approve", h.approve)
	r.Post("/aips/{id}/reject", h.reject)
	r.Post("/items/{id}/status", h.transitionItem)
}

type createAIPRequest struct {
	Title       string `json:"title"`
	FiscalYear  int    `json:"fiscalYear"`
	Description string `json:"description"`
}

type aipItemRequest struct {
	ReferenceCode string `json:"referenceCode"`
	Description   string `json:"description"`
	Sector        string `json:"sector"`
	Amount        string `json:"amount"`
}

type itemStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	var req ListAIPsRequest
	if v := r.URL.Query().Get("fiscalYear"); v != "" {
		req.FiscalYear, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("status"); v != "" {
		req.Status = AIPStatus(v)
	}
	list, err := h.service.ListAIPs(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("list plans", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
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
	aip, err := h.service.GetAIP(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, aip)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	var req createAIPRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	aip, err := h.service.CreateAIP(r.Context(), actor, CreateAIPInput{
		Title:       req.Title,
		FiscalYear:  req.FiscalYear,
		Description: req.Description,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, aip)
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
	var req aipItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	item, err := h.service.AddItem(r.Context(), actor, id, ItemInput{
		ReferenceCode: req.ReferenceCode,
		Description:   req.Description,
		Sector:        req.Sector,
		Amount:        amount,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	h.planAction(w, r, h.service.Submit)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.planAction(w, r, h.service.Approve)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.planAction(w, r, h.service.Reject)
}

func (h *Handler) planAction(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, actor roles.Actor, id int64) (AIP, error)) {
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
	aip, err := fn(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, aip)
}

func (h *Handler) transitionItem(w http.ResponseWriter, r *http.Request) {
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
	var req itemStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	item, err := h.service.TransitionItem(r.Context(), actor, id, ItemStatus(req.Status))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}
