package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	documentHandler "github.com/docledger/docledger/internal/http/document"
	"github.com/docledger/docledger/internal/http/importcsv"
	"github.com/docledger/docledger/internal/http/middleware"
	orgHandler "github.com/docledger/docledger/internal/http/org"
	paymentHandler "github.com/docledger/docledger/internal/http/payment"
)

func New(
	jwtSecret string,
	documentsV1 *documentHandler.Handler,
	paymentsV1 *paymentHandler.Handler,
	orgV1 *orgHandler.Handler,
	importV1 *importcsv.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(jwtSecret))

		r.Route("/documents", func(r chi.Router) {
			paymentsV1.DocumentRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(chimiddleware.AllowContentType("application/json"))
				documentsV1.Routes(r)
			})
		})

		r.Route("/payments", paymentsV1.Routes)

		r.Route("/org", func(r chi.Router) {
			r.Use(chimiddleware.AllowContentType("application/json"))
			orgV1.Routes(r)
		})

		r.Route("/import", importV1.Routes)
	})

	return router
}
