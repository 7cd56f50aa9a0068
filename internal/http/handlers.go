package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"spendwise/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	})
}

// handleReady reports whether templates are loaded and the state has been
// populated at least once.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.pages == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	snap := s.svc.Snapshot()
	if snap.Version == 0 {
		checks["state"] = "not_loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["state"] = map[string]any{
			"version":      snap.Version,
			"expenses":     len(snap.Expenses),
			"alternatives": len(snap.Alternatives),
			"loaded_at":    snap.LoadedAt.Format(time.RFC3339),
		}
	}

	checks["cache"] = map[string]any{
		"expenses_entries": s.expensesCache.Size(),
		"chart_entries":    s.chartCache.Size(),
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.ActiveClients(),
	}
	if s.hub != nil {
		checks["live_clients"] = s.hub.ClientCount()
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.tracer.GetMetrics()
	securityMetrics := s.detector.GetMetrics()
	expStats := s.expensesCache.Stats()
	chartStats := s.chartCache.Stats()
	snap := s.svc.Snapshot()

	w.WriteHeader(http.StatusOK)

	metric := func(name, help, typ string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, typ, name, value)
	}
	metric("http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests)
	metric("http_last_response_seconds", "Duration of the most recent request", "gauge", traceMetrics.LastResponseTime.Seconds())
	metric("dashboard_mutations_total", "Successful dashboard writes", "counter", s.appMetrics.mutations.Load())
	metric("dashboard_mutation_failures_total", "Failed dashboard writes", "counter", s.appMetrics.failures.Load())
	metric("dashboard_mutation_conflicts_total", "Writes rejected while a duplicate was pending", "counter", s.appMetrics.conflicts.Load())
	metric("state_version", "Current state version", "gauge", snap.Version)
	metric("state_expenses", "Loaded expenses", "gauge", len(snap.Expenses))

	fmt.Fprintf(w, "# HELP cache_hits_total Total cache hits\n# TYPE cache_hits_total counter\n")
	fmt.Fprintf(w, "cache_hits_total{type=\"expenses\"} %d\n", expStats.Hits)
	fmt.Fprintf(w, "cache_hits_total{type=\"charts\"} %d\n\n", chartStats.Hits)
	fmt.Fprintf(w, "# HELP cache_misses_total Total cache misses\n# TYPE cache_misses_total counter\n")
	fmt.Fprintf(w, "cache_misses_total{type=\"expenses\"} %d\n", expStats.Misses)
	fmt.Fprintf(w, "cache_misses_total{type=\"charts\"} %d\n\n", chartStats.Misses)

	metric("rate_limit_hits_total", "Total rate limit hits", "counter", s.limiter.Hits())
	metric("active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", s.limiter.ActiveClients())
	metric("suspicious_requests_total", "Total suspicious requests detected", "counter", securityMetrics.SuspiciousRequests)
	metric("blocked_requests_total", "Total requests blocked", "counter", securityMetrics.BlockedRequests)
	if s.hub != nil {
		lm := s.hub.GetMetrics()
		metric("live_clients", "Connected live refresh clients", "gauge", lm.Clients)
		metric("live_messages_sent_total", "Live events delivered", "counter", lm.Sent)
		metric("live_clients_dropped_total", "Live clients dropped for falling behind", "counter", lm.Dropped)
	}
	metric("uptime_seconds", "Application uptime in seconds", "gauge", fmt.Sprintf("%.0f", time.Since(s.appMetrics.uptime).Seconds()))
}

// render writes a full page, or only its content block for HTMX requests
// that target #content.
func (s *Server) render(w http.ResponseWriter, r *http.Request, page string, data any) {
	t, ok := s.pages[page]
	if !ok {
		s.logger.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldComponent, log.ComponentTemplate,
			"error_type", log.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	name := "layout"
	if r.Header.Get("HX-Request") == "true" && r.Header.Get("HX-Target") == "content" {
		name = "content"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Vary", "HX-Request, HX-Target")
	if err := t.ExecuteTemplate(w, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			"template", page,
			log.FieldOperation, log.OpRender)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
