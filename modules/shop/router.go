package shop

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Router wires the shop profile endpoints. All routes require an admin
// credential for the resolved shop.
func Router(handler *Handler, adminGuard func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(adminGuard)

	r.Get("/current", handler.GetCurrent)
	r.Put("/current", handler.UpdateCurrent)

	return r
}
