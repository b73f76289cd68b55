package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hassonapp/chatter/internal/api"
	"github.com/hassonapp/chatter/internal/api/auth"
	"github.com/hassonapp/chatter/internal/container"
)

// SetupRouter mounts the public, protected and admin route groups.
// Server-wide middleware (request ID, structured logger, recoverer) is
// applied in main before mounting this router.
func SetupRouter(c *container.Container) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})
	r.Handle("/metrics", promhttp.Handler())

	authenticate := auth.Authenticate(c.Config.JWT, c.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Post("/signup", c.AuthHandler.SignUp)
			r.Post("/signin", c.AuthHandler.SignIn)
			r.Post("/forgot-password", c.AuthHandler.ForgotPassword)
			r.Post("/reset-password/{token}", c.AuthHandler.ResetPassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(auth.RequireAuthenticated)
			r.Get("/currentuser", c.UserHandler.CurrentUser)
			r.Get("/signout", c.AuthHandler.SignOut)
		})

		// Admin surface: queue backlog and dead-job visibility.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(auth.RequireAuthenticated)
			r.Get("/queues", queueStatsHandler(c))
		})
	})

	return r
}

func queueStatsHandler(c *container.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := c.Queues.Stats(r.Context())
		if err != nil {
			api.ErrorResponse(w, r, api.StatusFromError(err), api.MsgServerError)
			return
		}
		api.WriteJSONResponse(w, r, http.StatusOK, map[string]interface{}{
			"queues": stats,
		})
	}
}
