package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"
	"storefront/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ProfileHandler handles the signed-in user's profile.
type ProfileHandler struct {
	service service.ProfileService
	logger  zerolog.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(service service.ProfileService, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		logger:  logger.With().Str("handler", "profile").Logger(),
	}
}

// Get handles GET /profile.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.Get(r.Context(), session.UsernameFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Update handles POST /profile.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.ProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	page, err := h.service.Update(r.Context(), session.UsernameFromContext(r.Context()), req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// OrderHistory handles GET /profile/orders/{order_number}.
func (h *ProfileHandler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	past, err := h.service.OrderHistory(r.Context(), session.UsernameFromContext(r.Context()), chi.URLParam(r, "order_number"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, past)
}
