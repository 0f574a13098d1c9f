package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the account routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)

		r.Route("/{accountID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Patch("/", h.HandleUpdate)
			r.Delete("/", h.HandleDelete)
			r.Get("/trades", h.HandleListTrades)
		})
	})
}
