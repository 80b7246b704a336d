package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

func NewRouter(cfg RouterConfig, log *zap.Logger, cartH *CartHandler, searchH *SearchHandler, productH *ProductHandler) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(LimitBody(cfg.MaxRequestBodySize))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productH.List)
			r.Get("/{id}", productH.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartH.GetCart)
				r.Delete("/", cartH.ClearCart)
				r.Post("/toggle", cartH.ToggleVisibility)
				r.Post("/items", cartH.AddItem)
				r.Put("/items/{product_id}", cartH.UpdateQuantity)
				r.Delete("/items/{product_id}", cartH.RemoveItem)
			})
			r.Delete("/session", cartH.EndSession)

			r.Route("/search", func(r chi.Router) {
				r.Get("/", searchH.Search)
				r.Get("/parse", searchH.Parse)
				r.Get("/latest", searchH.Latest)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
