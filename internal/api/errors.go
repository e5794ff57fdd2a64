package api

import (
	"errors"
	"net/http"

	"github.com/example/commerce-policy/internal/apperr"
	"github.com/example/commerce-policy/internal/domain/order"
	"github.com/example/commerce-policy/internal/domain/pricing"
	"github.com/example/commerce-policy/internal/domain/promo"
	"github.com/example/commerce-policy/internal/domain/review"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error   string                    `json:"error"`
	Code    string                    `json:"code,omitempty"`
	Details []apperr.ValidationDetail `json:"details,omitempty"`
}

var promoCodes = []struct {
	err  error
	code string
}{
	{promo.ErrCodeNotFound, "promo_not_found"},
	{promo.ErrCodeExpired, "promo_expired"},
	{promo.ErrMinimumNotMet, "promo_minimum_not_met"},
}

// statusFor maps a domain error to its HTTP status and, for promo
// rejections, a machine-readable code.
func statusFor(err error) (int, string) {
	for _, pc := range promoCodes {
		if errors.Is(err, pc.err) {
			return http.StatusUnprocessableEntity, pc.code
		}
	}

	if _, ok := apperr.IsValidationError(err); ok {
		return http.StatusBadRequest, ""
	}

	switch {
	case errors.Is(err, pricing.ErrInvalidCart),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrUnknownStatus),
		errors.Is(err, review.ErrInvalidRating),
		errors.Is(err, review.ErrInvalidContent):
		return http.StatusBadRequest, ""
	case errors.Is(err, review.ErrUnauthenticated):
		return http.StatusUnauthorized, ""
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, ""
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, ""
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrCancellationNotAllowed),
		errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, ""
	default:
		return http.StatusInternalServerError, ""
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	resp := errorResponse{Error: err.Error(), Code: code}
	if ve, ok := apperr.IsValidationError(err); ok {
		resp.Details = ve.Details
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		resp.Error = "internal server error"
	}

	respondJSON(w, status, resp)
}
