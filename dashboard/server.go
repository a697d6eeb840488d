package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/spektr-org/ekta/dataset"
	"github.com/spektr-org/ekta/export"
)

// maxBodyBytes caps POST /api/query bodies.
const maxBodyBytes = 1 << 20

// Server exposes a Service over HTTP.
type Server struct {
	svc     *Service
	origins []string
	started time.Time
}

// NewServer creates a Server. Empty origins allow any origin.
func NewServer(svc *Service, origins []string) *Server {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{svc: svc, origins: origins, started: time.Now()}
}

// Handler returns the routed, wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Origin", RequestIDHeader},
		ExposedHeaders: []string{"Content-Disposition", RequestIDHeader},
		MaxAge:         86400,
	})

	r.Use(corsHandler.Handler)
	r.Use(RequestIDMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(LoggingMiddleware)

	r.HandleFunc("/health", s.health).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/options", s.options).Methods("GET")
	api.HandleFunc("/query", s.query).Methods("POST", "OPTIONS")
	api.HandleFunc("/export.xlsx", s.exportXLSX).Methods("GET")
	api.HandleFunc("/export.csv", s.exportCSV).Methods("GET")
	api.HandleFunc("/cache/invalidate", s.invalidate).Methods("POST", "OPTIONS")
	api.HandleFunc("/history", s.history).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	return r
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
		"path":   s.svc.Path(),
	}
	t, err := s.svc.Table(r.Context())
	if err != nil {
		body["status"] = "degraded"
		body["error"] = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	body["rows"] = t.Len()
	body["loadedAt"] = t.LoadedAt
	body["stats"] = t.Stats()
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) options(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Table(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, dataset.Options(t, q["state"], q["district"]))
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	resp, err := s.svc.Ask(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) exportXLSX(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.askFromQuery(w, r)
	if !ok {
		return
	}
	sheets := make([]export.Sheet, len(resp.Panels))
	for i, p := range resp.Panels {
		sheets[i] = export.Sheet{Name: p.Name, Result: p.Result}
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="ekta.xlsx"`)
	if err := export.WriteXLSX(w, sheets); err != nil {
		log.Printf("⚠️ Export: xlsx failed: %v", err)
	}
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	resp, ok := s.askFromQuery(w, r)
	if !ok {
		return
	}
	idx := 0
	if v := r.URL.Query().Get("panel"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n >= len(resp.Panels) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("panel must be between 0 and %d", len(resp.Panels)-1))
			return
		}
		idx = n
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ekta.csv"`)
	if err := export.WriteCSV(w, resp.Panels[idx].Result); err != nil {
		log.Printf("⚠️ Export: csv failed: %v", err)
	}
}

func (s *Server) invalidate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.svc.Invalidate()
	writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "path": s.svc.Path()})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries, err := s.svc.History(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "enabled": s.svc.history != nil})
}

// askFromQuery runs Ask with parameters from the URL query string.
func (s *Server) askFromQuery(w http.ResponseWriter, r *http.Request) (*Response, bool) {
	q := r.URL.Query()
	resp, err := s.svc.Ask(r.Context(), Request{
		Query:     q.Get("query"),
		States:    q["state"],
		Districts: q["district"],
		Pincodes:  q["pincode"],
		AgeGroup:  q.Get("ageGroup"),
	})
	if err != nil {
		writeServiceError(w, err)
		return nil, false
	}
	return resp, true
}

// ============================================================================
// RESPONSES
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("⚠️ Dashboard: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg, "code": status})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		// Dataset load failures: missing file, unreadable CSV, no date column.
		writeError(w, http.StatusServiceUnavailable, err.Error())
	}
}
