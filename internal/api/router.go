package api

import (
	"net/http"

	"github.com/example/commerce-policy/internal/api/middleware"
	"github.com/example/commerce-policy/internal/auth"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func NewRouter(handlers *Handlers, jwtService *auth.JWTService, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", handlers.Health)

	// Public
	r.Post("/checkout/quote", handlers.Quote)
	r.Get("/products/{id}/reviews", handlers.ListReviews)
	r.Get("/products/{id}/reviews/summary", handlers.ReviewSummary)

	// Authenticated
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(jwtService))

		r.Post("/orders", handlers.PlaceOrder)
		r.Get("/orders", handlers.GetOrders)
		r.Get("/orders/{id}", handlers.GetOrder)
		r.Post("/orders/{id}/cancel", handlers.CancelOrder)

		r.Get("/products/{id}/verified-purchase", handlers.VerifiedPurchase)
		r.Post("/products/{id}/reviews", handlers.CreateReview)
		r.Patch("/reviews/{id}", handlers.EditReview)
		r.Delete("/reviews/{id}", handlers.DeleteReview)

		r.With(middleware.RequireRole(auth.RoleAdmin)).Post("/orders/{id}/advance", handlers.AdvanceOrder)
	})

	return r
}
