// Package handlers assembles the HTTP surface over the engine.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/chris/skill-swap/pkg/auth"
	"github.com/chris/skill-swap/pkg/core"
	"github.com/chris/skill-swap/pkg/handlers/messages"
	"github.com/chris/skill-swap/pkg/handlers/requests"
	"github.com/chris/skill-swap/pkg/handlers/reviews"
	"github.com/chris/skill-swap/pkg/handlers/skills"
	"github.com/chris/skill-swap/pkg/handlers/transactions"
	"github.com/chris/skill-swap/pkg/handlers/users"
	"github.com/chris/skill-swap/pkg/metrics"
	"github.com/chris/skill-swap/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AdminRole is the profile role allowed on moderation routes.
const AdminRole = "admin"

// NewRouter mounts every resource handler. All /api routes require a bearer
// token; moderation and setup routes also require the admin role.
func NewRouter(e *core.Engine, verifier auth.Verifier, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	usersHandler := users.NewUsersHandler(e.Users)
	skillsHandler := skills.NewSkillsHandler(e.Skills)
	requestsHandler := requests.NewRequestsHandler(e.Swaps)
	transactionsHandler := transactions.NewTransactionsHandler(e.Transactions)
	reviewsHandler := reviews.NewReviewsHandler(e.Reputation)
	messagesHandler := messages.NewMessagesHandler(e.Messages)

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.Recoverer)
	router.Use(middleware.NewStructuredLogger(logger))
	router.Use(metrics.HTTPMiddleware)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !e.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(verifier))

		usersHandler.Routes(r)
		skillsHandler.Routes(r)
		requestsHandler.Routes(r)
		transactionsHandler.Routes(r)
		reviewsHandler.Routes(r)
		messagesHandler.Routes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(e.Users, AdminRole))

			skillsHandler.AdminRoutes(r)
			reviewsHandler.AdminRoutes(r)
			messagesHandler.AdminRoutes(r)
		})
	})

	return router
}
