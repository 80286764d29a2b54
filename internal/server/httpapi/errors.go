package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/tipjar/internal/common"
)

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	Outcome   string `json:"outcome,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// classify maps a service error to its HTTP status, a stable code and the
// message shown to the client. Upstream and internal details stay in the log.
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, common.ErrVerificationFailed):
		return http.StatusBadRequest, "VERIFICATION_FAILED", err.Error()
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "NOT_FOUND", "not found"
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "TOKEN_EXPIRED", err.Error()
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", err.Error()
	case errors.Is(err, common.ErrUpstream):
		return http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "upstream unavailable, retry later"
	default:
		return http.StatusInternalServerError, "INTERNAL", "internal error"
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := classify(err)

	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err, "request_id", requestIDFrom(r.Context()))
	} else {
		h.logger.Debug(r.Context(), "request rejected", "path", r.URL.Path, "error", err)
	}

	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      code,
		RequestID: requestIDFrom(r.Context()),
	})
}
