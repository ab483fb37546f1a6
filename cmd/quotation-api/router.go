// Package main provides the API router setup.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/cityfire/quotation-engine/cmd/quotation-api/handlers"
	"github.com/cityfire/quotation-engine/cmd/quotation-api/middleware"
	"github.com/cityfire/quotation-engine/internal/cache"
	"github.com/cityfire/quotation-engine/internal/config"
	"github.com/cityfire/quotation-engine/internal/export"
	"github.com/cityfire/quotation-engine/internal/extract"
	"github.com/cityfire/quotation-engine/internal/observability"
	"github.com/cityfire/quotation-engine/internal/quote"
	"github.com/cityfire/quotation-engine/internal/ratelimit"
	"github.com/cityfire/quotation-engine/internal/reconcile"
	"github.com/cityfire/quotation-engine/internal/storage"
)

// NewRouter creates the main API router with all routes configured.
func NewRouter(cfg *config.Config, logger *observability.Logger, repos *storage.Repositories, cacheClient cache.Client, oracle extract.Oracle, ready func() error) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.RequestContext)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(cfg.Oracle.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"quotation-engine"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ready != nil {
			if err := ready(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"not ready"}`))
				return
			}
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	// Initialize services
	limiter := ratelimit.New(ratelimit.Config{
		MaxPerMinute: cfg.RateLimit.PerMinute,
		MaxPerHour:   cfg.RateLimit.PerHour,
		MaxPerDay:    cfg.RateLimit.PerDay,
	})

	classifier := reconcile.NewClassifier(cfg.Matcher.StructuralKeywords)
	matcher := reconcile.NewMatcher(reconcile.MatcherConfig{
		ScoreThreshold: cfg.Matcher.ScoreThreshold,
		BrandBonus:     cfg.Matcher.BrandBonus,
		Brands:         cfg.Matcher.Brands,
		SpecUnits:      cfg.Matcher.SpecUnits,
	})
	reconciler := reconcile.New(classifier, matcher, repos.Products, logger)

	oracleCfg := extract.Config{
		Models:      cfg.Oracle.Models,
		MaxAttempts: cfg.Oracle.MaxAttempts,
		BackoffBase: cfg.Oracle.BackoffBase,
	}
	extractor := extract.NewDocumentExtractor(oracle, oracleCfg, logger)
	estimator := extract.NewRateEstimator(oracle, cacheClient, oracleCfg, cfg.Oracle.MaxRateQueryLen, cfg.Cache.TTL, logger)

	builder := quote.NewBuilder(quote.Config{
		DiscountPercent: cfg.Quote.DiscountPercent,
		GSTPercent:      cfg.Quote.GSTPercent,
	}, repos.Quotations)
	exporter := export.NewExcelExporter(cfg.Company)

	// Initialize handlers
	extractHandler := handlers.NewExtractHandler(logger, extractor, reconciler, cfg.Server.MaxUploadBytes)
	rateHandler := handlers.NewRateHandler(logger, estimator, limiter)
	productHandler := handlers.NewProductHandler(logger, repos.Products)
	quotationHandler := handlers.NewQuotationHandler(logger, builder, repos.Quotations, exporter)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Oracle-backed routes sit behind the admission limiter.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(limiter, logger))
			r.Post("/extract", extractHandler.Extract)
			r.Post("/rates/estimate", rateHandler.Estimate)
		})
		r.Get("/rates/usage", rateHandler.Usage)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Post("/", productHandler.Create)
			r.Get("/{id}", productHandler.Get)
			r.Put("/{id}", productHandler.Update)
			r.Delete("/{id}", productHandler.Delete)
		})

		r.Route("/quotations", func(r chi.Router) {
			r.Get("/", quotationHandler.List)
			r.Post("/", quotationHandler.Create)
			r.Get("/{id}", quotationHandler.Get)
			r.Get("/{id}/export", quotationHandler.Export)
		})
	})

	return r
}
