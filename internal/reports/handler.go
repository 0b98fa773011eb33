package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wonrang2/auskorphi/internal/platform/httpx"
	"github.com/wonrang2/auskorphi/internal/sales"
)

// Handler wires HTTP endpoints for reporting.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs reports handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/summary", h.summary)
	r.Get("/by-product", h.byProduct)
	r.Get("/dashboard", h.dashboard)
}

func filterFromQuery(r *http.Request) (sales.ListFilter, bool) {
	filter := sales.ListFilter{}
	q := r.URL.Query()
	if productStr := q.Get("product_id"); productStr != "" {
		id, err := strconv.ParseInt(productStr, 10, 64)
		if err != nil {
			return filter, false
		}
		filter.ProductID = id
	}
	if from := q.Get("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return filter, false
		}
		filter.From = t
	}
	if to := q.Get("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return filter, false
		}
		filter.To = t
	}
	return filter, true
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	filter, ok := filterFromQuery(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid report filter")
		return
	}
	out, err := h.service.Summary(r.Context(), filter)
	if err != nil {
		h.fail(w, "report summary failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) byProduct(w http.ResponseWriter, r *http.Request) {
	filter, ok := filterFromQuery(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid report filter")
		return
	}
	out, err := h.service.ByProduct(r.Context(), filter)
	if err != nil {
		h.fail(w, "report by product failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	filter, ok := filterFromQuery(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid report filter")
		return
	}
	out, err := h.service.Dashboard(r.Context(), filter)
	if err != nil {
		h.fail(w, "dashboard failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
	httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
