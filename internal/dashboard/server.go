package dashboard

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/agency-map/internal/model"
)

// Server answers dashboard queries over a fixed, read-only dataset.
type Server struct {
	records []model.EnrichedRecord
	options FilterOptions
}

// NewServer precomputes the filter options for records. records must not
// be modified afterwards.
func NewServer(records []model.EnrichedRecord) *Server {
	return &Server{records: records, options: Options(records)}
}

// NewRouter mounts the dashboard API. allowedOrigins feeds CORS; empty
// means "*".
func NewRouter(records []model.EnrichedRecord, allowedOrigins []string) http.Handler {
	s := NewServer(records)
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/options", s.handleOptions)
		r.Get("/viewports", s.handleViewports)
		r.Get("/view", s.handleView)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "records": len(s.records)})
}

func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.options)
}

func (s *Server) handleViewports(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Viewports())
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := UpdateRequest{
		Selection: model.Selection{
			ProgramType: orAll(q.Get("program_type")),
			SizeTier:    orAll(q.Get("size_tier")),
			AwardStatus: orAll(q.Get("award_status")),
		},
		Viewport: q.Get("viewport"),
	}
	writeJSON(w, http.StatusOK, Update(s.records, req))
}

func orAll(v string) string {
	if v == "" {
		return model.SelectAll
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("dashboard: encode response", zap.Error(err))
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("dashboard: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
