package payments

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fernbooks/fernbooks/internal/observability"
	"github.com/fernbooks/fernbooks/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
	metrics *observability.Metrics
}

func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/payments", h.List)
	r.Post("/payments", h.Record)
	r.Post("/credit-notes/{id}/apply", h.Apply)
	r.Post("/credit-notes/{id}/auto-allocate", h.AutoAllocate)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var filter ListPaymentsFilter
	if d := r.URL.Query().Get("documentId"); d != "" {
		id, err := uuid.Parse(d)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid documentId")
			return
		}
		filter.DocumentID = &id
	}
	list, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list payments failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	result, err := h.service.RecordPayment(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.metrics.PaymentRecorded()
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "invalid credit note id")
		return
	}
	var req ApplyCreditRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	result, err := h.service.ApplyCreditNote(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) AutoAllocate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "invalid credit note id")
		return
	}
	result, err := h.service.AutoAllocate(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
