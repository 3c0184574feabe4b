package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/knet/internal/api/handlers"
	mw "github.com/Harshitk-cp/knet/internal/api/middleware"
	"github.com/Harshitk-cp/knet/internal/buildconfig"
	"github.com/Harshitk-cp/knet/internal/config"
	"github.com/Harshitk-cp/knet/internal/contradiction"
	"github.com/Harshitk-cp/knet/internal/derivation"
	"github.com/Harshitk-cp/knet/internal/domain"
	"github.com/Harshitk-cp/knet/internal/graph"
	"github.com/Harshitk-cp/knet/internal/llm"
	"github.com/Harshitk-cp/knet/internal/service"
	"github.com/Harshitk-cp/knet/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the router and the services the process lifecycle needs.
type App struct {
	Router       *chi.Mux
	Statements   *service.StatementService
	Query        *service.QueryService
	Theories     *service.TheoryService
	RateLimiter  *mw.RateLimiter
	graph        *graph.Graph
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// NewApp wires the HTTP surface around g. gen may be nil, in which case
// theory generation answers 503.
func NewApp(cfg *config.Config, g *graph.Graph, graphStore domain.GraphStore, gen domain.TheoryGenerator, logger *zap.Logger) *App {
	// Services
	detector := contradiction.NewDetector()
	engine := derivation.NewEngine(g)

	statementSvc := service.NewStatementService(g, graphStore, detector, logger)
	statementSvc.GateContradictions = cfg.ContradictionGate
	querySvc := service.NewQueryService(g, engine)
	theorySvc := service.NewTheoryService(g, gen, statementSvc, logger)

	// Handlers
	statementHandler := handlers.NewStatementHandler(statementSvc, querySvc)
	queryHandler := handlers.NewQueryHandler(querySvc)
	analyticsHandler := handlers.NewAnalyticsHandler(querySvc)
	contradictionHandler := handlers.NewContradictionHandler(statementSvc)
	theoryHandler := handlers.NewTheoryHandler(theorySvc)

	r := chi.NewRouter()

	app := &App{
		Router:      r,
		Statements:  statementSvc,
		Query:       querySvc,
		Theories:    theorySvc,
		RateLimiter: mw.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		graph:       g,
		startTime:   time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector("knet", &app.requestCount, &app.errorCount)
	metricsCollector.Registry().MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "knet",
			Name:      "statements",
			Help:      "Number of statements in the knowledge network",
		},
		func() float64 { return float64(g.Len()) },
	))

	// Global middleware (order matters)
	r.Use(mw.RequestID)                // Generate/extract request ID first
	r.Use(middleware.RealIP)           // Extract real IP
	r.Use(metricsCollector.Middleware) // Collect metrics
	r.Use(mw.Logging(logger))          // Log all requests
	r.Use(middleware.Recoverer)        // Recover from panics
	r.Use(app.RateLimiter.Middleware)  // Rate limiting

	// Health and metrics (no auth)
	r.Get("/health", app.healthHandler())
	r.Get("/metrics", app.metricsHandler())
	r.Handle("/metrics/prometheus", promhttp.HandlerFor(metricsCollector.Registry(), promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(cfg.APIKey))

		r.Route("/statements", func(r chi.Router) {
			r.Post("/", statementHandler.Create)
			r.Get("/", statementHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", statementHandler.Get)
				r.Patch("/", statementHandler.Update)
				r.Delete("/", statementHandler.Delete)
				r.Get("/chain", statementHandler.Chain)
				r.Get("/ancestors", statementHandler.Ancestors)
				r.Get("/descendants", statementHandler.Descendants)
				r.Get("/dependents", statementHandler.Dependents)
				r.Get("/relations", statementHandler.Relations)
				r.Get("/confidence", statementHandler.Confidence)
				r.Get("/depth", statementHandler.Depth)
				r.Get("/contradictions", statementHandler.Contradictions)
			})
		})

		r.Get("/search", queryHandler.Search)
		r.Get("/recent", queryHandler.Recent)
		r.Get("/tags", queryHandler.ByTags)
		r.Get("/tags/frequency", queryHandler.TagFrequency)
		r.Get("/path", queryHandler.Path)
		r.Get("/confidence", queryHandler.ConfidenceRange)

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/most-derived", analyticsHandler.MostDerived)
			r.Get("/deepest", analyticsHandler.Deepest)
			r.Get("/orphans", analyticsHandler.Orphans)
			r.Get("/summary", analyticsHandler.Summary)
		})

		r.Get("/contradictions", contradictionHandler.All)
		r.Post("/theories/generate", theoryHandler.Generate)
	})

	return app
}

func (app *App) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":     "ok",
			"statements": app.graph.Len(),
			"build":      buildconfig.Get(),
		})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"statements":     app.graph.Len(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.GraphStore      = (*store.FileStore)(nil)
	_ domain.GraphStore      = (*store.SQLiteStore)(nil)
	_ domain.GraphStore      = (*store.PostgresStore)(nil)
	_ domain.GraphStore      = (*store.MemoryStore)(nil)
	_ domain.TheoryGenerator = (*llm.OpenAIClient)(nil)
	_ domain.TheoryGenerator = (*llm.AnthropicClient)(nil)
	_ domain.TheoryGenerator = (*llm.GeminiClient)(nil)
	_ domain.TheoryGenerator = (*llm.MockClient)(nil)
	_ domain.TheoryGenerator = (*llm.BreakerGenerator)(nil)
)
