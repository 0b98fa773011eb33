package importer

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wonrang2/auskorphi/internal/platform/httpx"
	"github.com/wonrang2/auskorphi/internal/shared"
)

// Handler wires the HTTP endpoint for sheet imports.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs importer handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers import routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.run)
}

type importRequest struct {
	Rows []Row `json:"rows"`
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if len(req.Rows) == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "rows must not be empty")
		return
	}

	actorID := int64(0)
	if user := shared.UserFromContext(r.Context()); user != nil {
		actorID = user.ID
	}
	result, err := h.service.Import(r.Context(), req.Rows, actorID)
	if err != nil {
		if errors.Is(err, ErrEmptyImport) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "no importable rows")
			return
		}
		h.logger.Error("import failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
