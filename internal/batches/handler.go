package batches

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/wonrang2/auskorphi/internal/platform/httpx"
	"github.com/wonrang2/auskorphi/internal/shared"
)

// Handler wires HTTP endpoints for purchase batches.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs batches handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers batch routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type batchRequest struct {
	ProductID    int64           `json:"product_id" validate:"required"`
	PurchaseDate string          `json:"purchase_date" validate:"required,datetime=2006-01-02"`
	Quantity     int64           `json:"quantity" validate:"required,gt=0"`
	UnitPrice    decimal.Decimal `json:"unit_price" validate:"required"`
	ExchangeRate decimal.Decimal `json:"exchange_rate" validate:"required"`
	Freight      decimal.Decimal `json:"freight"`
	Customs      decimal.Decimal `json:"customs"`
	Notes        string          `json:"notes"`
}

func (req batchRequest) toInput() CreateInput {
	date, _ := time.Parse("2006-01-02", req.PurchaseDate)
	return CreateInput{
		ProductID:    req.ProductID,
		PurchaseDate: date,
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		ExchangeRate: req.ExchangeRate,
		Freight:      req.Freight,
		Customs:      req.Customs,
		Notes:        req.Notes,
	}
}

type batchResponse struct {
	ID             int64           `json:"id"`
	ProductID      int64           `json:"product_id"`
	ProductName    string          `json:"product_name"`
	SKU            string          `json:"sku,omitempty"`
	PurchaseDate   string          `json:"purchase_date"`
	Quantity       int64           `json:"quantity"`
	RemainingQty   int64           `json:"remaining_qty"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	ExchangeRate   decimal.Decimal `json:"exchange_rate"`
	Freight        decimal.Decimal `json:"freight"`
	Customs        decimal.Decimal `json:"customs"`
	LandedUnitCost decimal.Decimal `json:"landed_unit_cost"`
	Notes          string          `json:"notes,omitempty"`
}

func toBatchResponse(b BatchWithProduct) batchResponse {
	return batchResponse{
		ID:             b.ID,
		ProductID:      b.ProductID,
		ProductName:    b.ProductName,
		SKU:            b.SKU,
		PurchaseDate:   b.PurchaseDate.Format("2006-01-02"),
		Quantity:       b.Quantity,
		RemainingQty:   b.RemainingQty,
		UnitPrice:      b.UnitPrice,
		ExchangeRate:   b.ExchangeRate,
		Freight:        b.Freight,
		Customs:        b.Customs,
		LandedUnitCost: b.LandedUnitCost(),
		Notes:          b.Notes,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var productID int64
	if productStr := r.URL.Query().Get("product_id"); productStr != "" {
		id, err := strconv.ParseInt(productStr, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "product_id must be numeric")
			return
		}
		productID = id
	}
	rows, err := h.service.List(r.Context(), productID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	out := make([]batchResponse, 0, len(rows))
	for _, b := range rows {
		out = append(out, toBatchResponse(b))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "batch id must be numeric")
		return
	}
	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toBatchResponse(b))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	b, err := h.service.Create(r.Context(), req.toInput(), actorID(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toBatchResponse(b))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "batch id must be numeric")
		return
	}
	var req batchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "request body must be valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	b, err := h.service.Update(r.Context(), id, req.toInput(), actorID(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toBatchResponse(b))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "batch id must be numeric")
		return
	}
	if err := h.service.Delete(r.Context(), id, actorID(r)); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidMoney), errors.Is(err, ErrMissingFields):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrBatchLocked):
		httpx.Problem(w, http.StatusConflict, "Conflict", "batch already has sales recorded against it")
	case errors.Is(err, shared.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "batch not found")
	default:
		h.logger.Error("batch operation failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func actorID(r *http.Request) int64 {
	if user := shared.UserFromContext(r.Context()); user != nil {
		return user.ID
	}
	return 0
}
