package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

const bagPath = "/bag"

// BagHandler handles shopping bag HTTP requests.
type BagHandler struct {
	service service.BagService
	logger  zerolog.Logger
}

// NewBagHandler creates a new bag handler.
func NewBagHandler(service service.BagService, logger zerolog.Logger) *BagHandler {
	return &BagHandler{
		service: service,
		logger:  logger.With().Str("handler", "bag").Logger(),
	}
}

// View handles GET /bag.
func (h *BagHandler) View(w http.ResponseWriter, r *http.Request) {
	sid, ok := requestSession(w, r, h.logger)
	if !ok {
		return
	}

	contents, err := h.service.Contents(r.Context(), sid)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, contents)
}

// Add handles POST /bag/add/{id}.
func (h *BagHandler) Add(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.Add, true)
}

// Adjust handles POST /bag/adjust/{id}.
func (h *BagHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.Adjust, false)
}

type bagMutation func(ctx context.Context, sessionID string, productID int64, req model.BagItemRequest) (string, error)

func (h *BagHandler) mutate(w http.ResponseWriter, r *http.Request, fn bagMutation, followRedirect bool) {
	sid, ok := requestSession(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := int64Param(r, "id")
	if !ok {
		writeDomainError(w, model.ErrProductNotFound, h.logger)
		return
	}

	var req model.BagItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	message, err := fn(r.Context(), sid, productID, req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	target := bagPath
	if followRedirect {
		target = safeRedirect(req.RedirectURL)
	}
	writeRedirect(w, model.RedirectResponse{Message: message, Redirect: target})
}

// Remove handles POST /bag/remove/{id}. Unknown products answer 404, every
// other failure 500.
func (h *BagHandler) Remove(w http.ResponseWriter, r *http.Request) {
	sid, ok := requestSession(w, r, h.logger)
	if !ok {
		return
	}
	productID, ok := int64Param(r, "id")
	if !ok {
		writeDomainError(w, model.ErrProductNotFound, h.logger)
		return
	}

	var req model.BagRemoveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	message, err := h.service.Remove(r.Context(), sid, productID, req.ProductSize)
	if err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			writeDomainError(w, err, h.logger)
			return
		}
		h.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to remove bag item")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "Error removing item: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, model.RedirectResponse{Message: message, Redirect: bagPath})
}

// safeRedirect keeps redirects on this site.
func safeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return bagPath
	}
	return target
}
