package documents

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fernbooks/fernbooks/internal/observability"
	"github.com/fernbooks/fernbooks/internal/platform/httpx"
)

// Handler exposes the document engine over HTTP for all five families.
type Handler struct {
	logger  *slog.Logger
	service *Service
	metrics *observability.Metrics
}

// NewHandler builds a Handler. metrics may be nil.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics}
}

// MountRoutes registers one route group per document family.
func (h *Handler) MountRoutes(r chi.Router) {
	mount := func(base string, t Type, convertible bool) {
		r.Route(base, func(r chi.Router) {
			r.Get("/", h.list(t))
			if t == TypeInvoice || t == TypeBill {
				r.Get("/overdue", h.listOverdue(t))
			}
			r.Post("/", h.create(t))
			r.Get("/{id}", h.show(t))
			r.Put("/{id}", h.update(t))
			r.Put("/{id}/status", h.transition(t))
			if convertible {
				r.Post("/{id}/convert", h.convert(t))
			}
		})
	}
	mount("/invoices", TypeInvoice, false)
	mount("/bills", TypeBill, false)
	mount("/quotes", TypeQuote, true)
	mount("/credit-notes", TypeCreditNote, false)
	mount("/purchase-orders", TypePurchaseOrder, true)
}

func parseID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

func (h *Handler) list(t Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ListFilter{Type: t}
		if s := r.URL.Query().Get("status"); s != "" {
			status := Status(s)
			filter.Status = &status
		}
		if c := r.URL.Query().Get("contactId"); c != "" {
			contactID, err := uuid.Parse(c)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid contactId")
				return
			}
			filter.ContactID = &contactID
		}
		docs, err := h.service.List(r.Context(), filter)
		if err != nil {
			h.logger.Error("list documents failed", slog.String("type", string(t)), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, docs)
	}
}

func (h *Handler) listOverdue(t Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := h.service.ListOverdue(r.Context(), t, r.URL.Query().Get("filter"))
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, docs)
	}
}

func (h *Handler) show(t Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "invalid document id")
			return
		}
		doc, err := h.service.Get(r.Context(), t, id)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, doc)
	}
}

func (h *Handler) create(t Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateDocumentRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
			return
		}
		doc, err := h.service.Create(r.Context(), t, req)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		h.metrics.DocumentCreated(string(t))
		httpx.JSON(w, http.StatusCreated, doc)
	}
}

func (h *Handler) update(t Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "invalid document id")
			return
		}
		var req UpdateDocumentRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
			return
		}
		doc, err := h.service.Update(r.Context(), t, id, req)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, doc)
	}
}

func (h *Handler) transition(t Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "invalid document id")
			return
		}
		var req TransitionRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
			return
		}
		doc, err := h.service.TransitionStatus(r.Context(), t, id, req)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		h.metrics.DocumentTransitioned(string(t), string(doc.Status))
		httpx.JSON(w, http.StatusOK, doc)
	}
}

func (h *Handler) convert(t Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "invalid document id")
			return
		}
		doc, err := h.service.Convert(r.Context(), t, id)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusCreated, doc)
	}
}
