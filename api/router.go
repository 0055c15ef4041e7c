package api

import (
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/aluiziolira/go-books-catalog/catalog"
	"github.com/aluiziolira/go-books-catalog/config"
	"github.com/aluiziolira/go-books-catalog/metrics"
)

// NewRouter builds the HTTP handler serving cat. m may be nil.
func NewRouter(cfg *config.Config, settings config.Settings, cat *catalog.Catalog, m *metrics.Metrics) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(observeQueries(m))

	humaConfig := huma.DefaultConfig("Books Catalog API", "1.0.0")
	humaConfig.OpenAPI.Info.Description = "Read-only queries over a book catalog and its reader ratings."
	api := humachi.New(router, humaConfig)

	Setup(api, cat, settings, cfg)
	return router
}

// observeQueries records one query per request, labelled by method and
// matched route pattern.
func observeQueries(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			pattern := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				pattern = rctx.RoutePattern()
			}
			m.ObserveQuery(r.Method+" "+pattern, time.Since(start))
		})
	}
}
