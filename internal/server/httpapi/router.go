// Package httpapi exposes the tipjar services as a JSON API over chi.
package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/tipjar/internal/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the HTTP routes exposed by the API.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(h.requestID, h.logRequests, middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, common.ErrorNotFound)
	})

	r.Get("/health", h.healthCheck)

	r.Route("/api", func(api chi.Router) {
		api.Post("/orders", h.createOrder)
		api.Post("/payments/verify", h.verifyPayment)

		api.Get("/supporters", h.listSupporters)
		api.Get("/supporters/user/{identifier}", h.supporterProfile)

		api.Get("/users/{email}", h.getUser)
		api.Post("/identity/resolve", h.resolveIdentity)

		api.Group(func(admin chi.Router) {
			admin.Use(h.requireAdmin)
			admin.Post("/users/{email}", h.upsertUser)
			admin.Post("/admin/backfill-users", h.backfillUsers)
		})
	})

	return r
}
