package auth

import (
	"github.com/go-chi/chi/v5"
)

// Router wires the auth endpoints. Login, forgot-password, and
// reset-password are reachable without a credential; the rest sit behind
// the admin guard chain.
func Router(service *Service, handler *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/login", handler.Login)
	r.Post("/forgot-password", handler.ForgotPassword)
	r.Post("/reset-password", handler.ResetPassword)

	r.Group(func(protected chi.Router) {
		protected.Use(RequireAdmin(service))
		protected.Get("/status", handler.Status)
		protected.Post("/setup-password", handler.SetupPassword)
		protected.Post("/change-password", handler.ChangePassword)
	})

	return r
}
