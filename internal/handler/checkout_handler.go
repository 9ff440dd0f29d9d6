package handler

import (
	"errors"
	"io"
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"
	"storefront/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxWebhookBytes caps webhook payloads.
const maxWebhookBytes = 64 << 10

// SignatureHeader carries the payment provider's webhook signature.
const SignatureHeader = "Stripe-Signature"

// CheckoutHandler handles checkout and payment webhook HTTP requests.
type CheckoutHandler struct {
	checkout service.CheckoutService
	webhooks service.WebhookService
	logger   zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(checkout service.CheckoutService, webhooks service.WebhookService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		webhooks: webhooks,
		logger:   logger.With().Str("handler", "checkout").Logger(),
	}
}

type placedOrderResponse struct {
	OrderNumber string `json:"order_number"`
	Redirect    string `json:"redirect"`
}

// Prepare handles GET /checkout.
func (h *CheckoutHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	sid, ok := requestSession(w, r, h.logger)
	if !ok {
		return
	}

	page, err := h.checkout.Prepare(r.Context(), sid, session.UsernameFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, model.ErrEmptyBag) {
			writeRedirect(w, model.RedirectResponse{Error: err.Error(), Redirect: "/products"})
			return
		}
		writeDomainError(w, err, h.logger)
		return
	}

	for _, warning := range page.Warnings {
		h.logger.Warn().Msg(warning)
	}
	writeJSON(w, http.StatusOK, page)
}

// CacheData handles POST /checkout/cache-data.
func (h *CheckoutHandler) CacheData(w http.ResponseWriter, r *http.Request) {
	sid, ok := requestSession(w, r, h.logger)
	if !ok {
		return
	}

	var req model.CacheCheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	if err := h.checkout.CacheData(r.Context(), sid, session.UsernameFromContext(r.Context()), req); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Submit handles POST /checkout.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sid, ok := requestSession(w, r, h.logger)
	if !ok {
		return
	}

	var req model.CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	order, err := h.checkout.Submit(r.Context(), sid, session.UsernameFromContext(r.Context()), req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrOrderIntegrity):
			writeRedirect(w, model.RedirectResponse{Error: model.ErrOrderIntegrity.Message, Redirect: bagPath})
		case errors.Is(err, model.ErrEmptyBag):
			writeRedirect(w, model.RedirectResponse{Error: err.Error(), Redirect: "/products"})
		default:
			writeDomainError(w, err, h.logger)
		}
		return
	}

	writeJSON(w, http.StatusCreated, placedOrderResponse{
		OrderNumber: order.OrderNumber,
		Redirect:    "/checkout/success/" + order.OrderNumber,
	})
}

// Success handles GET /checkout/success/{order_number}.
func (h *CheckoutHandler) Success(w http.ResponseWriter, r *http.Request) {
	order, err := h.checkout.Success(r.Context(), chi.URLParam(r, "order_number"))
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Webhook handles POST /checkout/webhook. Invalid events answer 400 and
// failed reconciliation 500 so the provider redelivers.
func (h *CheckoutHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to read webhook payload")
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid payload"})
		return
	}

	result, err := h.webhooks.Handle(r.Context(), payload, r.Header.Get(SignatureHeader))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrInvalidWebhook) {
			status = http.StatusBadRequest
		}
		message := err.Error()
		if result != nil {
			message = result.Message
		}
		h.logger.Error().Err(err).Int("status", status).Msg("webhook failed")
		writeJSON(w, status, map[string]string{"message": message})
		return
	}

	h.logger.Info().Str("event_type", result.EventType).Msg(result.Message)
	writeJSON(w, http.StatusOK, map[string]string{"message": result.Message})
}
