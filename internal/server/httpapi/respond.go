package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/tipjar/internal/common"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// readJSON decodes a single JSON object from the request body. Any decoding
// problem is reported as a validation error on the body; decoder detail only
// goes to the debug log.
func (h *Handlers) readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return common.NewValidationError("body", "is required")
		}
		h.logger.Debug(r.Context(), "malformed request body", "path", r.URL.Path, "error", err)
		return common.NewValidationError("body", "malformed JSON")
	}
	return nil
}

// pathParam returns a decoded chi URL parameter; emails may arrive
// percent-encoded.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
