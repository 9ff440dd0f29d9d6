package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// OrderHandler handles administrative order HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// UpdateLineItem handles PUT /admin/orders/{order_number}/items/{item_id}.
func (h *OrderHandler) UpdateLineItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := int64Param(r, "item_id")
	if !ok {
		writeDomainError(w, model.ErrLineItemMissing, h.logger)
		return
	}

	var req model.LineItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	order, err := h.service.UpdateLineItem(r.Context(), chi.URLParam(r, "order_number"), itemID, req.Quantity)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// DeleteLineItem handles DELETE /admin/orders/{order_number}/items/{item_id}.
func (h *OrderHandler) DeleteLineItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := int64Param(r, "item_id")
	if !ok {
		writeDomainError(w, model.ErrLineItemMissing, h.logger)
		return
	}

	order, err := h.service.DeleteLineItem(r.Context(), chi.URLParam(r, "order_number"), itemID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
