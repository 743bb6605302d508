package booking

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// PublicRouter wires the customer-facing booking endpoints. They need a
// resolved tenant but no credential.
func PublicRouter(handler *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/services", handler.ListServices)
	r.Post("/appointments", handler.CreateAppointment)
	r.Get("/appointments/available-slots/{date}", handler.AvailableSlots)

	return r
}

// AdminRouter wires the management endpoints behind the admin guard chain.
func AdminRouter(handler *Handler, adminGuard func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(adminGuard)

	r.Route("/services", func(sr chi.Router) {
		sr.Get("/", handler.ListAllServices)
		sr.Post("/", handler.CreateService)
		sr.Put("/{id}", handler.UpdateService)
		sr.Delete("/{id}", handler.DeleteService)
	})

	r.Route("/appointments", func(ar chi.Router) {
		ar.Get("/", handler.ListAppointments)
		ar.Get("/{id}", handler.GetAppointment)
		ar.Put("/{id}/cancel", handler.CancelAppointment)
		ar.Put("/{id}/reschedule", handler.RescheduleAppointment)
	})

	r.Route("/availability", func(av chi.Router) {
		av.Get("/", handler.ListSchedules)
		av.Get("/date/{date}", handler.ListSchedulesByDate)
		av.Get("/available-slots/{date}", handler.AvailableSlots)
		av.Post("/", handler.CreateSchedule)
		av.Put("/{id}", handler.UpdateSchedule)
		av.Delete("/{id}", handler.DeleteSchedule)
	})

	return r
}
