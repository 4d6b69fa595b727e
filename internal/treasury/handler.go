package treasury

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

// Handler manages treasury endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers disbursement and collection routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/disbursements", h.listDisbursements)
	r.Get("/disbursements/{id}", h.getDisbursement)
	r.Post("/disbursements", h.issueDisbursement)
	r.Post("/disbursements/{id}/clear", h.clearDisbursement)
	r.Post("/disbursements/{id}/cancel", h.cancelDisbursement)
	r.Get("/collections", h.listCollections)
	r.Get("/collections/{id}", h.getCollection)
	r.Post("/collections", h.recordCollection)
	r.Post("/collections/{id}/deposit", h.depositCollection)
	r.Post("/collections/{id}/cancel", h.cancelCollection)
}

type disbursementRequest struct {
	VoucherID        int64  `json:"voucherId"`
	PaymentMethod    string `json:"paymentMethod"`
	CheckNumber      string `json:"checkNumber"`
	BankAccount      string `json:"bankAccount"`
	DisbursementDate string `json:"disbursementDate"`
}

type collectionRequest struct {
	ReceiptNumber  string `json:"receiptNumber"`
	Payer          string `json:"payer"`
	Particulars    string `json:"particulars"`
	CollectionType string `json:"collectionType"`
	AccountCode    string `json:"accountCode"`
	Amount         string `json:"amount"`
	CollectionDate string `json:"collectionDate"`
	PaymentMethod  string `json:"paymentMethod"`
}

func (h *Handler) listDisbursements(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	var req ListDisbursementsRequest
	if v := r.URL.Query().Get("voucherId"); v != "" {
		req.VoucherID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := r.URL.Query().Get("status"); v != "" {
		req.Status = DisbursementStatus(v)
	}
	list, err := h.service.ListDisbursements(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("list disbursements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) getDisbursement(w http.ResponseWriter, r *http.Request) {
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
	d, err := h.service.GetDisbursement(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) issueDisbursement(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	var req disbursementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	in := DisbursementInput{
		VoucherID:     req.VoucherID,
		PaymentMethod: req.PaymentMethod,
		CheckNumber:   req.CheckNumber,
		BankAccount:   req.BankAccount,
	}
	if req.DisbursementDate != "" {
		d, err := time.Parse("2006-01-02", req.DisbursementDate)
		if err != nil {
			httpx.RespondError(w, shared.ErrValidation)
			return
		}
		in.DisbursementDate = d
	}
	d, err := h.service.IssueDisbursement(r.Context(), actor, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

func (h *Handler) clearDisbursement(w http.ResponseWriter, r *http.Request) {
	h.disbursementTransition(w, r, h.service.ClearDisbursement)
}

func (h *Handler) cancelDisbursement(w http.ResponseWriter, r *http.Request) {
	h.disbursementTransition(w, r, h.service.CancelDisbursement)
}

func (h *Handler) disbursementTransition(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, actor roles.Actor, id int64) (Disbursement, error)) {
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
	d, err := fn(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) listCollections(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	var req ListCollectionsRequest
	if v := r.URL.Query().Get("status"); v != "" {
		req.Status = CollectionStatus(v)
	}
	if v := r.URL.Query().Get("type"); v != "" {
		req.Type = v
	}
	list, err := h.service.ListCollections(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("list collections", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) getCollection(w http.ResponseWriter, r *http.Request) {
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
	c, err := h.service.GetCollection(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) recordCollection(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	var req collectionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	in := CollectionInput{
		ReceiptNumber:  req.ReceiptNumber,
		Payer:          req.Payer,
		Particulars:    req.Particulars,
		CollectionType: req.CollectionType,
		AccountCode:    req.AccountCode,
		Amount:         amount,
		PaymentMethod:  req.PaymentMethod,
	}
	if req.CollectionDate != "" {
		d, err := time.Parse("2006-01-02", req.CollectionDate)
		if err != nil {
			httpx.RespondError(w, shared.ErrValidation)
			return
		}
		in.CollectionDate = d
	}
	c, err := h.service.RecordCollection(r.Context(), actor, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) depositCollection(w http.ResponseWriter, r *http.Request) {
	h.collectionTransition(w, r, h.service.DepositCollection)
}

func (h *Handler) cancelCollection(w http.ResponseWriter, r *http.Request) {
	h.collectionTransition(w, r, h.service.CancelCollection)
}

func (h *Handler) collectionTransition(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, actor roles.Actor, id int64) (Collection, error)) {
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
	c, err := fn(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}
