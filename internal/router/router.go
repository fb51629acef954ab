package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/tesconnections/gateway/internal/handler"
	mw "github.com/tesconnections/gateway/internal/middleware"
	"github.com/tesconnections/gateway/internal/session"
)

func New(
	sessions *session.Manager,
	intakeH *handler.IntakeHandler,
	authH *handler.AuthHandler,
	dashH *handler.DashboardHandler,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/submissions", intakeH.Create)
		r.Get("/slots", intakeH.Slots)
		r.Post("/auth/pin", authH.Pin)
		r.Post("/auth/logout", authH.Logout)
		r.Get("/auth/session", authH.Session)

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(session.Middleware(sessions))

			r.Get("/admin/dashboard", dashH.Dashboard)
			r.Delete("/admin/submissions/{id}", dashH.Delete)
			r.Patch("/admin/submissions/{id}", dashH.Update)
			r.Get("/admin/export", dashH.Export)
		})
	})

	return r
}
