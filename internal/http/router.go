package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/benefits/internal/http/auth"
	"github.com/MrJamesThe3rd/benefits/internal/http/export"
	"github.com/MrJamesThe3rd/benefits/internal/http/importcsv"
	"github.com/MrJamesThe3rd/benefits/internal/http/matching"
	"github.com/MrJamesThe3rd/benefits/internal/http/transaction"
)

type Options struct {
	// Authenticate resolves the caller of every /api/v1 request.
	Authenticate   func(http.Handler) http.Handler
	AllowedOrigins []string
	Timeout        time.Duration
	// Notifications serves the websocket subscription endpoint.
	Notifications http.Handler
	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
}

func New(
	opts Options,
	transactionsV1 *transaction.Handler,
	importV1 *importcsv.Handler,
	matchingV1 *matching.Handler,
	exportV1 *export.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	if opts.Metrics != nil {
		router.Handle("/metrics", opts.Metrics)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(opts.Authenticate)

		// Subscriptions are long-lived and stay outside the request timeout.
		if opts.Notifications != nil {
			r.With(auth.ScopeNotifications).Handle("/notifications/ws", opts.Notifications)
		}

		r.Group(func(r chi.Router) {
			if opts.Timeout > 0 {
				r.Use(middleware.Timeout(opts.Timeout))
			}

			r.Route("/transactions", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				transactionsV1.Routes(r)
			})

			r.Route("/balances", transactionsV1.BalanceRoutes)

			r.Route("/import", importV1.Routes)

			r.Route("/matching", func(r chi.Router) {
				matchingV1.Routes(r)
			})

			r.Route("/export", func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				exportV1.Routes(r)
			})
		})
	})

	return router
}
