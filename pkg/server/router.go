package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"courseware-hq/steward/pkg/analytics"
	"courseware-hq/steward/pkg/course"
	"courseware-hq/steward/pkg/export"
	"courseware-hq/steward/pkg/scoring"
	"courseware-hq/steward/pkg/telemetry/health"
)

// Routes wires the handlers served by NewRouter. Nil handlers are not
// mounted.
type Routes struct {
	Analytics *analytics.Service
	Health    *health.Checker

	Metrics     http.Handler
	MetricsPath string

	LivenessPath  string
	ReadinessPath string

	Version   string
	Commit    string
	BuildTime string
}

// NewRouter builds the chi router for `steward serve`.
func NewRouter(routes Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(slog.Default().With("component", "server")))
	r.Use(middleware.Recoverer)

	if routes.Metrics != nil && routes.MetricsPath != "" {
		r.Handle(routes.MetricsPath, routes.Metrics)
	}
	if routes.Health != nil {
		if routes.LivenessPath != "" {
			r.Get(routes.LivenessPath, routes.Health.LivenessHandler())
		}
		if routes.ReadinessPath != "" {
			r.Get(routes.ReadinessPath, routes.Health.ReadinessHandler())
		}
	}
	r.Get("/version", health.VersionHandler(routes.Version, routes.Commit, routes.BuildTime))

	if routes.Analytics != nil {
		h := &reportHandler{service: routes.Analytics}
		r.Get("/courses/{id}/report", h.courseReport)
		r.Get("/rankings", h.rankings)
	}

	return r
}

type reportHandler struct {
	service *analytics.Service
}

func (h *reportHandler) courseReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid course id", http.StatusBadRequest)
		return
	}
	format, ok := requestFormat(w, r)
	if !ok {
		return
	}

	report, err := h.service.CourseReport(r.Context(), id)
	switch {
	case errors.Is(err, course.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	render(w, r, format, report)
}

func (h *reportHandler) rankings(w http.ResponseWriter, r *http.Request) {
	format, ok := requestFormat(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	sortKey := r.URL.Query().Get("sort")
	if _, err := scoring.ParseSortKey(sortKey); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ranking, err := h.service.RankCourses(r.Context(), sortKey, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	render(w, r, format, ranking)
}

// requestFormat reads ?format=, defaulting to JSON for HTTP clients.
func requestFormat(w http.ResponseWriter, r *http.Request) (export.Format, bool) {
	raw := r.URL.Query().Get("format")
	if raw == "" {
		return export.FormatJSON, true
	}
	format, err := export.ParseFormat(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return format, true
}

func render(w http.ResponseWriter, r *http.Request, format export.Format, data any) {
	switch format {
	case export.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	case export.FormatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	if err := export.Render(w, format, data); err != nil {
		slog.ErrorContext(r.Context(), "failed to render response",
			"error", err,
			"request_id", middleware.GetReqID(r.Context()),
		)
	}
}

// requestLogger logs one line per request with the chi request ID.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.InfoContext(r.Context(), "request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"latency_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
