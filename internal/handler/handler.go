package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"storefront/internal/model"
	"storefront/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Str("code", code).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeRedirect answers with 303 See Other and the target in both the
// Location header and the body.
func writeRedirect(w http.ResponseWriter, resp model.RedirectResponse) {
	w.Header().Set("Location", resp.Redirect)
	writeJSON(w, http.StatusSeeOther, resp)
}

// writeDomainError maps service errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		logger.Warn().Err(err).Msg("validation failed")
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse{
			Error:   model.ErrCodeValidation,
			Message: "Please check the highlighted fields",
			Fields:  verr.Fields,
		})
		return
	}

	var derr *model.DomainError
	if !errors.As(err, &derr) {
		logger.Error().Err(err).Msg("unexpected error")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "internal server error",
		})
		return
	}

	writeError(w, statusFor(derr), derr.Code, derr.Message, logger)
}

func statusFor(err *model.DomainError) int {
	switch err.Code {
	case model.ErrCodeEmptySearch,
		model.ErrCodeInvalidQuantity,
		model.ErrCodeSizeRequired,
		model.ErrCodeInvalidSize,
		model.ErrCodeInvalidBag,
		model.ErrCodeEmptyBag,
		model.ErrCodePaymentProvider,
		model.ErrCodeInvalidWebhook:
		return http.StatusBadRequest
	case model.ErrCodeProductNotFound,
		model.ErrCodeOrderNotFound,
		model.ErrCodeLineItemNotFound,
		model.ErrCodeNotInBag:
		return http.StatusNotFound
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// int64Param parses a positive integer URL parameter.
func int64Param(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// requestSession returns the session id placed in the context by the
// session middleware.
func requestSession(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) (string, bool) {
	sid, err := session.IDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, model.ErrCodeInternalError, "session unavailable", logger)
		return "", false
	}
	return sid, true
}
