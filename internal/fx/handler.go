package fx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wonrang2/auskorphi/internal/platform/httpx"
)

// Handler wires HTTP endpoints for exchange rates.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs fx handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers fx routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.current)
	r.Post("/refresh", h.refresh)
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	rate, err := h.service.Current(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rate)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	rate, err := h.service.Refresh(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rate)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrRateUnavailable) {
		httpx.Problem(w, http.StatusServiceUnavailable, "Rate Unavailable", err.Error())
		return
	}
	h.logger.Error("exchange rate lookup failed", slog.Any("error", err))
	httpx.Problem(w, http.StatusBadGateway, "Rate Provider Error", "could not obtain an exchange rate")
}
