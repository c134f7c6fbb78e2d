package httpserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appanalysis "github.com/bryanwahyu/stoolscan/internal/application/analysis"
	domain "github.com/bryanwahyu/stoolscan/internal/domain/analysis"
	"github.com/bryanwahyu/stoolscan/internal/middleware"
)

// Options configures the surrounding middleware. Zero values are usable.
type Options struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
	Metrics        *middleware.Metrics
	HealthCheckers map[string]middleware.HealthChecker
}

type Router struct {
	svc     *appanalysis.Service
	maxBody int64
	pages   *pages
}

func NewRouter(svc *appanalysis.Service, opts Options) http.Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 << 20
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.Metrics == nil {
		opts.Metrics = middleware.NewMetrics()
	}

	r := &Router{svc: svc, maxBody: opts.MaxBodyBytes, pages: loadPages()}
	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(opts.Metrics.Middleware)
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/health", middleware.HealthHandler(opts.HealthCheckers))
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.ReadinessHandler)
	mux.Get("/metrics", opts.Metrics.Handler)

	mux.Route("/api", func(rt chi.Router) {
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/history", r.wrap(r.handleHistory))
	})

	mux.Get("/", r.handleIndexPage)
	mux.Post("/analyze", r.handleAnalyzePage)
	mux.Get("/history", r.handleHistoryPage)

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			code, msg := statusFor(err)
			if code >= http.StatusInternalServerError {
				log.Printf("req_id=%s %s %s: %v", chimw.GetReqID(req.Context()), req.Method, req.URL.Path, err)
			}
			writeJSON(w, code, map[string]string{"error": msg})
		}
	}
}

// statusFor maps an error to its HTTP status and client-facing message
func statusFor(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, domain.ErrImageRequired):
		return http.StatusBadRequest, "Image data is required"
	case errors.Is(err, domain.ErrInvalidImage), errors.Is(err, domain.ErrInvalidDate):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "request body too large"
	case errors.Is(err, domain.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "ai quota exceeded"
	case errors.Is(err, domain.ErrModelUnavailable):
		return http.StatusBadGateway, "analysis model unavailable"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "history store unavailable"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// POST /api/analyze
// Body: {"image": "<data URL or base64>"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxBody)

	var body struct {
		Image string `json:"image"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	var rec domain.Record
	img, err := domain.DecodeImage(body.Image)
	switch {
	case errors.Is(err, domain.ErrInvalidImage):
		rec, err = r.svc.AnalyzeUndecodable(req.Context(), err)
	case err == nil:
		rec, err = r.svc.Analyze(req.Context(), img)
	}
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"analysis": rec})
	return nil
}

// GET /api/history?start_date=&end_date=
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	entries, err := r.history(req)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
	return nil
}

func (r *Router) history(req *http.Request) ([]domain.HistoryEntry, error) {
	q := req.URL.Query()
	f, err := domain.NewHistoryFilter(q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		return r.svc.HistoryFallback(err)
	}
	return r.svc.History(req.Context(), f)
}
