package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/samijaber1/tiergate/internal/policy"
	"github.com/samijaber1/tiergate/internal/report"
	"github.com/samijaber1/tiergate/internal/scheduler"
	"github.com/samijaber1/tiergate/internal/storage"
)

// Server is the HTTP API server
type Server struct {
	scheduler *scheduler.Scheduler
	auth      *Authenticator
	hub       *WSHub
	server    *http.Server
}

// NewServer creates a new API server. auth may be nil to leave the
// mutating endpoints open.
func NewServer(sched *scheduler.Scheduler, addr string, auth *Authenticator) *Server {
	s := &Server{
		scheduler: sched,
		auth:      auth,
		hub:       NewWSHub(sched.GetCache()),
	}

	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	// Report endpoints
	mux.HandleFunc("/v1/report", s.handleReport)
	mux.HandleFunc("/v1/matrix", s.handleMatrix)
	mux.HandleFunc("/v1/violations", s.handleViolations)
	mux.HandleFunc("/v1/groups/", s.handleGroups)

	// Scheduler control
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/refresh", s.auth.Require(s.handleRefresh))
	mux.HandleFunc("/v1/autorefresh", s.auth.Require(s.handleAutoRefresh))

	// Audit endpoints
	mux.HandleFunc("/v1/audit", s.handleAudit)
	mux.HandleFunc("/v1/reports", s.handleReports)

	// Push channel
	mux.HandleFunc("/v1/ws", s.hub.HandleWS)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     loggingMiddleware(mux),
		ReadTimeout: 10 * time.Second,
		// no WriteTimeout, /v1/ws and waited refreshes are long-lived
	}

	return s
}

// Handler returns the root handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Printf("Starting API server on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down API server...")
	return s.server.Shutdown(ctx)
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleReady handles GET /readyz
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	current := s.scheduler.GetCache().Report()
	if current == nil {
		reasons := []string{"no report published yet"}
		if st := s.scheduler.Status(); st.LastError != "" {
			reasons = append(reasons, "last cycle failed: "+st.LastError)
		}
		respondJSON(w, http.StatusServiceUnavailable, ReadyResponse{Ready: false, Reasons: reasons})
		return
	}

	respondJSON(w, http.StatusOK, ReadyResponse{Ready: true, ReportID: current.ID})
}

// handleReport handles GET /v1/report
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, ok := s.scheduler.GetCache().Get()
	if !ok {
		respondError(w, http.StatusServiceUnavailable, "no report published yet")
		return
	}

	respondJSON(w, http.StatusOK, ReportResponse{
		Report:    snap.Report,
		UpdatedAt: snap.UpdatedAt,
		TTL:       int(snap.TTL.Seconds()),
		IsStale:   snap.IsStale(time.Now()),
	})
}

// handleMatrix handles GET /v1/matrix
func (s *Server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	current := s.scheduler.GetCache().Report()
	if current == nil {
		respondError(w, http.StatusServiceUnavailable, "no report published yet")
		return
	}

	respondJSON(w, http.StatusOK, report.BuildMatrix(current))
}

// handleViolations handles GET /v1/violations?severity=&service=&project=
func (s *Server) handleViolations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	current := s.scheduler.GetCache().Report()
	if current == nil {
		respondError(w, http.StatusServiceUnavailable, "no report published yet")
		return
	}

	query := r.URL.Query()
	severity := policy.Severity(query.Get("severity"))
	if severity != "" && severity != policy.SeverityCritical && severity != policy.SeverityWarning {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid severity: %s", severity))
		return
	}
	service := query.Get("service")
	project := query.Get("project")

	violations := []policy.Violation{}
	for _, v := range current.Violations {
		if severity != "" && v.Severity != severity {
			continue
		}
		if service != "" && v.ServiceName != service {
			continue
		}
		if project != "" && v.ProjectID != project {
			continue
		}
		violations = append(violations, v)
	}

	respondJSON(w, http.StatusOK, ViolationsResponse{
		ReportID:   current.ID,
		Violations: violations,
		Total:      len(violations),
	})
}

// handleGroups handles GET /v1/groups/{service}
func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	service := strings.TrimPrefix(r.URL.Path, "/v1/groups/")
	if service == "" || strings.Contains(service, "/") {
		respondError(w, http.StatusBadRequest, "invalid path format, expected /v1/groups/{service}")
		return
	}

	current := s.scheduler.GetCache().Report()
	if current == nil {
		respondError(w, http.StatusServiceUnavailable, "no report published yet")
		return
	}

	groups := []GroupResponse{}
	for _, g := range current.Groups {
		if g.Key.ServiceName != service {
			continue
		}
		violations := current.ViolationsFor(g.Key)
		if violations == nil {
			violations = []policy.Violation{}
		}
		groups = append(groups, GroupResponse{
			Key:          g.Key,
			ProjectName:  g.ProjectName,
			Observations: g.Observations,
			Violations:   violations,
			Compliant:    len(violations) == 0,
		})
	}

	if len(groups) == 0 {
		respondError(w, http.StatusNotFound, fmt.Sprintf("service not found: %s", service))
		return
	}

	respondJSON(w, http.StatusOK, GroupsResponse{Service: service, Groups: groups})
}

// handleStatus handles GET /v1/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respondJSON(w, http.StatusOK, s.scheduler.Status())
}

// handleRefresh handles POST /v1/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	if !req.Wait {
		queued := s.scheduler.Trigger()
		respondJSON(w, http.StatusAccepted, RefreshResponse{Accepted: true, Coalesced: !queued})
		return
	}

	published, err := s.scheduler.RefreshNow(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("refresh failed: %v", err))
		return
	}

	summary := published.Summary()
	respondJSON(w, http.StatusOK, RefreshResponse{Accepted: true, Summary: &summary})
}

// handleAutoRefresh handles POST /v1/autorefresh
func (s *Server) handleAutoRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AutoRefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	if req.Enabled == nil {
		respondError(w, http.StatusBadRequest, "enabled required")
		return
	}

	s.scheduler.SetAutoRefresh(*req.Enabled)
	respondJSON(w, http.StatusOK, AutoRefreshResponse{Enabled: s.scheduler.AutoRefresh()})
}

// handleAudit handles GET /v1/audit
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	auditStorage := s.scheduler.GetAuditStorage()
	if auditStorage == nil {
		respondError(w, http.StatusServiceUnavailable, "audit storage not configured")
		return
	}

	// Parse query parameters
	query := r.URL.Query()
	filter := storage.AuditFilter{
		ReportID:  query.Get("reportID"),
		Service:   query.Get("service"),
		ProjectID: query.Get("project"),
		Severity:  query.Get("severity"),
		Rule:      query.Get("rule"),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	if startTimeStr := query.Get("startTime"); startTimeStr != "" {
		if startTime, err := time.Parse(time.RFC3339, startTimeStr); err == nil {
			filter.StartTime = &startTime
		}
	}

	if endTimeStr := query.Get("endTime"); endTimeStr != "" {
		if endTime, err := time.Parse(time.RFC3339, endTimeStr); err == nil {
			filter.EndTime = &endTime
		}
	}

	records, err := auditStorage.QueryAudit(filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to query audit: %v", err))
		return
	}

	responseRecords := make([]AuditRecordResponse, len(records))
	for i, record := range records {
		snapshot := make(map[string]string, len(record.Snapshot))
		for t, v := range record.Snapshot {
			snapshot[string(t)] = v
		}

		responseRecords[i] = AuditRecordResponse{
			ID:          record.ID,
			ReportID:    record.ReportID,
			Rule:        record.Rule,
			Service:     record.Service,
			ProjectID:   record.ProjectID,
			ProjectName: record.ProjectName,
			Severity:    record.Severity,
			Message:     record.Message,
			Snapshot:    snapshot,
			GeneratedAt: record.GeneratedAt,
			CreatedAt:   record.CreatedAt,
		}
	}

	respondJSON(w, http.StatusOK, AuditResponse{
		Records: responseRecords,
		Total:   len(responseRecords),
	})
}

// handleReports handles GET /v1/reports
func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	auditStorage := s.scheduler.GetAuditStorage()
	if auditStorage == nil {
		respondError(w, http.StatusServiceUnavailable, "audit storage not configured")
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	summaries, err := auditStorage.ListReports(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list reports: %v", err))
		return
	}
	if summaries == nil {
		summaries = []report.Summary{}
	}

	respondJSON(w, http.StatusOK, ReportsResponse{Reports: summaries, Total: len(summaries)})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
