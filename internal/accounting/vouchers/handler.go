package vouchers

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

// Handler manages disbursement voucher endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers voucher routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/", h.create)
	r.Post("/{id}/approve", h.approve)
	r.Post("/{id}/cancel", h.cancel)
}

type createVoucherRequest struct {
	VoucherNumber  string `json:"voucherNumber"`
	JournalEntryID int64  `json:"journalEntryId"`
	Payee          string `json:"payee"`
	Particulars    string `json:"particulars"`
	Amount         string `json:"amount"`
	VoucherDate    string `json:"voucherDate"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	var req ListRequest
	if v := r.URL.Query().Get("status"); v != "" {
		req.Status = VoucherStatus(v)
	}
	if v := r.URL.Query().Get("journalEntryId"); v != "" {
		req.JournalEntryID, _ = strconv.ParseInt(v, 10, 64)
	}
	list, err := h.service.List(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("list vouchers", slog.Any("error", err))
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
	v, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	var req createVoucherRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	in := CreateInput{
		VoucherNumber:  req.VoucherNumber,
		JournalEntryID: req.JournalEntryID,
		Payee:          req.Payee,
		Particulars:    req.Particulars,
		Amount:         amount,
	}
	if req.VoucherDate != "" {
		d, err := time.Parse("2006-01-02", req.VoucherDate)
		if err != nil {
			httpx.RespondError(w, shared.ErrValidation)
			return
		}
		in.VoucherDate = d
	}
	v, err := h.service.Create(r.Context(), actor, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Approve)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, actor roles.Actor, id int64) (Voucher, error)) {
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
	v, err := fn(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}
