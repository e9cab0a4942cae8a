package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appai "github.com/bryanwahyu/automaton-rca/internal/application/ai"
	appanalysis "github.com/bryanwahyu/automaton-rca/internal/application/analysis"
	domai "github.com/bryanwahyu/automaton-rca/internal/domain/ai"
	domain "github.com/bryanwahyu/automaton-rca/internal/domain/analysis"
	"github.com/bryanwahyu/automaton-rca/internal/middleware"
)

type Router struct {
	analysisSvc *appanalysis.Service
	aiSvc       *appai.Service
	health      http.HandlerFunc
}

// NewRouter wires the HTTP surface. health may be nil; the default probe
// answers ok without checking dependencies.
func NewRouter(analysisSvc *appanalysis.Service, aiSvc *appai.Service, health http.HandlerFunc) http.Handler {
	r := &Router{analysisSvc: analysisSvc, aiSvc: aiSvc, health: health}
	if r.health == nil {
		r.health = func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("ok"))
		}
	}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/health", r.health)
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Use(middleware.RequireValidTenant)
		rt.Post("/analyses", r.wrap(r.handleTrigger))
		rt.Get("/analyses", r.wrap(r.handleList))
		rt.Get("/analyses/latest", r.wrap(r.handleLatest))
		rt.Get("/analyses/{id}", r.wrap(r.handleGet))
		rt.Get("/analyses/{id}/report", r.wrap(r.handleReport))
		rt.Get("/analyses/{id}/errors", r.wrap(r.handleErrors))
		rt.Post("/analyses/{id}/narrative", r.wrap(r.handleNarrate))
		rt.Get("/analyses/{id}/narrative", r.wrap(r.handleNarrativeLatest))
		rt.Get("/narratives", r.wrap(r.handleNarrativeList))
		rt.Get("/summary", r.wrap(r.handleSummary))
		rt.Get("/dashboard", r.wrap(r.handleDashboard))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, domain.ErrNoResult) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			if errors.Is(err, domai.ErrQuotaExceeded) {
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/{tenant}/analyses
// Body: {"target": "payment-service"}
func (r *Router) handleTrigger(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	if err := middleware.ValidateTenantID(tenant); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	var body struct {
		Target string `json:"target"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return nil
	}
	if err := middleware.ValidateServiceName(body.Target); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}

	cmd := appanalysis.TriggerAnalysisCommand{TenantID: tenant, Target: body.Target}
	id, err := r.analysisSvc.Begin(req.Context(), cmd)
	if err != nil {
		return err
	}

	// finish in the background so the caller gets the id immediately
	go func() {
		middleware.IncrementAnalyses()
		middleware.IncrementAnalysesRunning()
		defer middleware.DecrementAnalysesRunning()

		result, err := r.analysisSvc.CompleteUntilDone(id, cmd)
		if err != nil {
			middleware.IncrementAnalysesFailed()
			log.Printf("background analysis error: tenant=%s target=%s id=%s err=%v",
				tenant, cmd.Target, id, err)
			return
		}
		middleware.AddHealingActions(result.HealingActions)
		log.Printf("analysis finished: tenant=%s target=%s id=%s risk=%d report=%s",
			tenant, cmd.Target, id, result.RiskScore, result.ReportURL)
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	return json.NewEncoder(w).Encode(map[string]any{
		"id":       string(id),
		"status":   "queued",
		"tenant":   tenant,
		"target":   body.Target,
		"queuedAt": time.Now(),
	})
}

// GET /v1/{tenant}/analyses?page=&page_size=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.analysisSvc.Paginate(req.Context(), tenant, page, middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// GET /v1/{tenant}/analyses/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.analysisSvc.Latest(req.Context(), tenant, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// GET /v1/{tenant}/analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	run, err := r.analysisSvc.Get(req.Context(), tenant, domain.RunID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, run)
}

// GET /v1/{tenant}/analyses/{id}/report?format=comprehensive|pci-dss|3ds|sox|json
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	format := req.URL.Query().Get("format")
	if err := middleware.ValidateFormat(format); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}
	if format == "" {
		format = string(domain.FormatComprehensive)
	}

	content, contentType, err := r.analysisSvc.Report(req.Context(), tenant, domain.RunID(id), domain.ReportFormat(format))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", contentType)
	_, err = w.Write(content)
	return err
}

// GET /v1/{tenant}/analyses/{id}/errors?limit=50
func (r *Router) handleErrors(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.analysisSvc.Errors(req.Context(), tenant, domain.RunID(id), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// POST /v1/{tenant}/analyses/{id}/narrative
// Generates and stores an AI narrative for a finished run.
func (r *Router) handleNarrate(w http.ResponseWriter, req *http.Request) error {
	if r.aiSvc == nil {
		http.Error(w, "ai narrator not configured", http.StatusServiceUnavailable)
		return nil
	}
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	n, err := r.aiSvc.NarrateAndStore(req.Context(), tenant, id)
	if err != nil {
		return err
	}
	middleware.IncrementNarratives()
	return writeJSON(w, n)
}

// GET /v1/{tenant}/analyses/{id}/narrative
func (r *Router) handleNarrativeLatest(w http.ResponseWriter, req *http.Request) error {
	if r.aiSvc == nil {
		http.Error(w, "ai narrator not configured", http.StatusServiceUnavailable)
		return nil
	}
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")

	n, err := r.aiSvc.LatestByRun(req.Context(), tenant, id)
	if err != nil {
		return err
	}
	return writeJSON(w, n)
}

// GET /v1/{tenant}/narratives?page=&page_size=
func (r *Router) handleNarrativeList(w http.ResponseWriter, req *http.Request) error {
	if r.aiSvc == nil {
		http.Error(w, "ai narrator not configured", http.StatusServiceUnavailable)
		return nil
	}
	tenant := chi.URLParam(req, "tenant")
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.aiSvc.ListNarratives(req.Context(), tenant, page, middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	return writeJSON(w, list)
}

// GET /v1/{tenant}/summary?days=7
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))

	summary, err := r.analysisSvc.Summary(req.Context(), tenant, middleware.ValidateDays(days))
	if err != nil {
		return err
	}
	return writeJSON(w, summary)
}

// GET /v1/{tenant}/dashboard
func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")

	dash, err := r.analysisSvc.Dashboard(req.Context(), tenant)
	if err != nil {
		return err
	}
	return writeJSON(w, dash)
}
