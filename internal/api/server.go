package api

import (
	"context"
	"net/http"
	"time"

	"spendwise/internal/log"
	"spendwise/internal/middleware/ratelimit"
	"spendwise/internal/middleware/security"
	"spendwise/internal/middleware/trace"
	"spendwise/internal/services"
)

// Server is the expense store HTTP server.
type Server struct {
	http.Server
	svc     *services.ExpenseService
	limiter *ratelimit.Limiter
	started time.Time
}

type ServerConfig struct {
	Addr      string
	RateLimit ratelimit.Config
}

func NewServer(cfg ServerConfig, svc *services.ExpenseService, logger *log.Logger) *Server {
	s := &Server{
		svc:     svc,
		limiter: ratelimit.NewLimiter(cfg.RateLimit),
		started: time.Now(),
	}

	mux := http.NewServeMux()
	NewHandler(svc, logger).Register(mux)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	detector := security.NewDetector()
	tracer := trace.NewMiddleware(detector.ExtractClientIP)

	var h http.Handler = mux
	h = s.limiter.Middleware(detector.ExtractClientIP, ratelimit.WritesOnly, func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
	})(h)
	h = log.RequestIDMiddleware(trace.RequestID)(h)
	h = log.Middleware(logger.WithComponent(log.ComponentAPI))(h)
	h = security.NewHeadersMiddleware(security.APIHeadersConfig()).Middleware(h)
	h = detector.Middleware(h)
	h = tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, response{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{
		"rate_limiter": map[string]any{"active_clients": s.limiter.ActiveClients()},
	}
	if err := s.svc.Ping(ctx); err != nil {
		checks["repository"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["repository"] = "ok"
	}
	writeJSON(w, code, response{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// Shutdown stops the limiter and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}
