// Package api exposes the storefront over HTTP: catalog, checkout, the
// caller's account and the admin surface.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"go.uber.org/zap"

	"github.com/safar/go-storefront/internal/auth"
	"github.com/safar/go-storefront/internal/logger"
	"github.com/safar/go-storefront/internal/models"
	"github.com/safar/go-storefront/internal/payment"
	"github.com/safar/go-storefront/internal/store"
)

// Store is everything the handlers need from persistence.
type Store interface {
	Ping(ctx context.Context) error

	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserCredentials(ctx context.Context, email string) (*models.User, string, error)
	CreateUser(ctx context.Context, email, passwordHash, role string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)

	ListProducts(ctx context.Context, filter store.ProductFilter) (*store.OffsetPage, error)
	ListCategories(ctx context.Context) ([]string, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, in models.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	PlaceOrder(ctx context.Context, req store.PlaceOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListUserOrdersCursor(ctx context.Context, userID int64, cursor string, limit int) (*store.CursorPage, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) (*models.Order, error)
}

type Options struct {
	Store      Store
	Tokens     auth.Tokens
	Log        *logger.Logger
	BcryptCost int
	// Payments is optional; without it the payment-intent route is not mounted.
	Payments payment.Provider
	// CORSOrigin is "*" or a comma separated list of allowed origins.
	CORSOrigin string
	// ClientDistPath points at the built browser client. Missing is fine.
	ClientDistPath string
	// Middleware wraps the whole router, outermost first.
	Middleware []func(http.Handler) http.Handler
}

type Server struct {
	store      Store
	tokens     auth.Tokens
	log        *logger.Logger
	bcryptCost int
	payments   payment.Provider
	corsOrigin string
	clientDist string
	outer      []func(http.Handler) http.Handler
}

func NewServer(opts Options) *Server {
	tokens := opts.Tokens
	if tokens == nil {
		tokens = auth.LegacyTokens{}
	}
	return &Server{
		store:      opts.Store,
		tokens:     tokens,
		log:        opts.Log,
		bcryptCost: opts.BcryptCost,
		payments:   opts.Payments,
		corsOrigin: opts.CORSOrigin,
		clientDist: opts.ClientDistPath,
		outer:      opts.Middleware,
	}
}

// Handler builds the complete HTTP handler.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Routes()
	for i := len(s.outer) - 1; i >= 0; i-- {
		h = s.outer[i](h)
	}
	return h
}

func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(s.requestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)

		r.Post("/login", s.login)
		r.Post("/register", s.register)

		r.Get("/products", s.listProducts)
		r.Get("/products/{id}", s.getProduct)
		r.Get("/categories", s.listCategories)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Get("/me", s.me)
			r.Get("/me/orders", s.myOrders)
			r.Post("/orders", s.createOrder)
			if s.payments != nil {
				r.Post("/orders/{id}/payment-intent", s.createPaymentIntent)
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.Use(s.requireAdmin)

			r.Post("/products", s.createProduct)
			r.Put("/products/{id}", s.updateProduct)
			r.Delete("/products/{id}", s.deleteProduct)

			r.Get("/orders", s.listOrders)
			r.Get("/orders/{id}", s.getOrder)
			r.Put("/orders/{id}", s.updateOrderStatus)

			r.Get("/users", s.listUsers)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusNotFound, "Not found")
		})
	})

	r.NotFound(s.clientApp())

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logFor(r).Error("health check failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
