package journals

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

// Handler manages journal entry endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers journal entry routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/", h.create)
	r.Post("/{id}/items", h.addItem)
	r.Post("/{id}/post", h.post)
	r.Post("/{id}/cancel", h.cancel)
}

type itemRequest struct {
	AccountCode string `json:"accountCode"`
	AccountName string `json:"accountName"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
}

func (req itemRequest) toInput() (ItemInput, error) {
	debit := decimal.Zero
	credit := decimal.Zero
	var err error
	if req.Debit != "" {
		if debit, err = decimal.NewFromString(req.Debit); err != nil {
			return ItemInput{}, shared.ErrValidation
		}
	}
	if req.Credit != "" {
		if credit, err = decimal.NewFromString(req.Credit); err != nil {
			return ItemInput{}, shared.ErrValidation
		}
	}
	return ItemInput{
		AccountCode: req.AccountCode,
		AccountName: req.AccountName,
		Debit:       debit,
		Credit:      credit,
	}, nil
}

type createEntryRequest struct {
	EntryNumber  string        `json:"entryNumber"`
	EntryDate    string        `json:"entryDate"`
	Description  string        `json:"description"`
	ObligationID *int64        `json:"obligationId"`
	Items        []itemRequest `json:"items"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	var req ListEntriesRequest
	if v := r.URL.Query().Get("status"); v != "" {
		req.Status = EntryStatus(v)
	}
	if v := r.URL.Query().Get("obligationId"); v != "" {
		req.ObligationID, _ = strconv.ParseInt(v, 10, 64)
	}
	entries, err := h.service.List(r.Context(), actor, req)
	if err != nil {
		h.logger.Error("list journal entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
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
	entry, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := roles.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	var req createEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	in := CreateEntryInput{
		EntryNumber:  req.EntryNumber,
		Description:  req.Description,
		ObligationID: req.ObligationID,
	}
	if req.EntryDate != "" {
		d, err := time.Parse("2006-01-02", req.EntryDate)
		if err != nil {
			httpx.RespondError(w, shared.ErrValidation)
			return
		}
		in.EntryDate = d
	}
	for _, item := range req.Items {
		line, err := item.toInput()
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		in.Items = append(in.Items, line)
	}
	entry, err := h.service.Create(r.Context(), actor, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
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
	var req itemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrValidation)
		return
	}
	in, err := req.toInput()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.AddItem(r.Context(), actor, id, in)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Post)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, actor roles.Actor, id int64) (JournalEntry, error)) {
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
	entry, err := fn(r.Context(), actor, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}
