package router

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Products *handler.ProductHandler
	Bag      *handler.BagHandler
	Checkout *handler.CheckoutHandler
	Orders   *handler.OrderHandler
	Profile  *handler.ProfileHandler
}

// Options configures authentication and sessions.
type Options struct {
	AdminAPIKey string
	UserHeader  string
	Session     middleware.SessionConfig
	Metrics     *metrics.Recorder
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Recovery -> RequestID -> Logging -> Metrics -> CORS
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(middleware.CORS())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	// Provider callbacks carry no browser session.
	r.Post("/checkout/webhook", h.Checkout.Webhook)

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(opts.AdminAPIKey, logger))
		r.Put("/orders/{order_number}/items/{item_id}", h.Orders.UpdateLineItem)
		r.Delete("/orders/{order_number}/items/{item_id}", h.Orders.DeleteLineItem)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(opts.Session, logger))
		r.Use(middleware.Identity(opts.UserHeader))

		r.Get("/products", h.Products.List)
		r.Get("/products/{id}", h.Products.Get)
		r.Get("/categories", h.Products.Categories)

		r.Route("/bag", func(r chi.Router) {
			r.Get("/", h.Bag.View)
			r.Post("/add/{id}", h.Bag.Add)
			r.Post("/adjust/{id}", h.Bag.Adjust)
			r.Post("/remove/{id}", h.Bag.Remove)
		})

		r.Get("/checkout", h.Checkout.Prepare)
		r.Post("/checkout", h.Checkout.Submit)
		r.Post("/checkout/cache-data", h.Checkout.CacheData)
		r.Get("/checkout/success/{order_number}", h.Checkout.Success)

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", h.Profile.Get)
			r.Post("/", h.Profile.Update)
			r.Get("/orders/{order_number}", h.Profile.OrderHistory)
		})
	})

	return r
}
