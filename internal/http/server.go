package http

import (
	"context"
	"html/template"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"spendwise/internal/cache"
	"spendwise/internal/core"
	"spendwise/internal/live"
	"spendwise/internal/log"
	"spendwise/internal/middleware/ratelimit"
	"spendwise/internal/middleware/security"
	"spendwise/internal/middleware/trace"
	"spendwise/internal/services"
	"spendwise/internal/viewmodel"
	appweb "spendwise/web"
)

// Server is the dashboard HTTP server.
type Server struct {
	http.Server
	svc    *services.DashboardService
	hub    *live.Hub
	logger *log.Logger

	// pages maps a page name to its layout+content template set.
	pages map[string]*template.Template

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	// Filtered views and chart series, keyed by state version.
	expensesCache *cache.LRUCache[viewmodel.ExpensesPage]
	chartCache    *cache.LRUCache[viewmodel.Chart]
	caches        *cache.Manager

	appMetrics   appMetrics
	now          func() time.Time
	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime    time.Time
	mutations atomic.Int64
	failures  atomic.Int64
	conflicts atomic.Int64
}

type ServerConfig struct {
	Addr           string
	RateLimit      ratelimit.Config
	CacheSize      int
	CacheTTL       time.Duration
	TrustedProxies []string
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:      ":8080",
		RateLimit: ratelimit.DefaultConfig(),
		CacheSize: 100,
		CacheTTL:  5 * time.Minute,
	}
}

// NewServer wires routes, templates and middleware. Template errors are
// logged and reported by /readyz rather than failing construction.
func NewServer(cfg ServerConfig, svc *services.DashboardService, hub *live.Hub, logger *log.Logger) *Server {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 100
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		svc:           svc,
		hub:           hub,
		logger:        logger,
		limiter:       ratelimit.NewLimiter(cfg.RateLimit),
		detector:      security.NewDetector(),
		expensesCache: cache.NewLRUCache[viewmodel.ExpensesPage](cfg.CacheSize, cfg.CacheTTL),
		chartCache:    cache.NewLRUCache[viewmodel.Chart](cfg.CacheSize, cfg.CacheTTL),
		caches:        cache.NewManager(),
		now:           time.Now,
	}
	s.appMetrics.uptime = time.Now()
	for _, cidr := range cfg.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring invalid trusted proxy", "cidr", cidr, log.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	s.caches.Register(s.expensesCache)
	s.caches.Register(s.chartCache)
	s.caches.StartCleanup(10 * time.Minute)

	pages, err := parsePages()
	if err != nil {
		logger.Error("Failed parsing templates",
			log.FieldError, err,
			log.FieldComponent, log.ComponentTemplate,
			"error_type", log.ErrorTypeConfiguration)
	}
	s.pages = pages

	mux := http.NewServeMux()
	static := http.StripPrefix("/static/", http.FileServer(http.FS(appweb.StaticFS)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	mux.HandleFunc("GET /{$}", s.handleDashboard)
	mux.HandleFunc("GET /expenses", s.handleExpenses)
	mux.HandleFunc("GET /unnecessary", s.handleUnnecessary)
	mux.HandleFunc("GET /alternatives", s.handleAlternatives)
	mux.HandleFunc("GET /analytics", s.handleAnalytics)
	mux.HandleFunc("GET /categories", s.handleCategories)
	mux.HandleFunc("GET /api/charts/{name}", s.handleChart)

	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("POST /alternatives", s.handleCreateAlternative)
	mux.HandleFunc("DELETE /alternatives/{id}", s.handleDeleteAlternative)
	mux.HandleFunc("POST /refresh", s.handleRefresh)

	if hub != nil {
		mux.HandleFunc("GET /ws", live.Handler(hub))
	}
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, ratelimit.WritesOnly, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
	})(h)
	h = log.RequestIDMiddleware(trace.RequestID)(h)
	h = log.Middleware(logger)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.detector.Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s
}

var pageNames = []string{
	viewmodel.PageDashboard,
	viewmodel.PageExpenses,
	viewmodel.PageUnnecessary,
	viewmodel.PageAlternatives,
	viewmodel.PageAnalytics,
	viewmodel.PageCategories,
}

// parsePages builds one template set per page so each can define "content".
func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.ParseFS(appweb.TemplatesFS,
			"layout.html",
			"partials.html",
			name+".html")
		if err != nil {
			return nil, err
		}
		pages[name] = t
	}
	return pages, nil
}

func (s *Server) today() core.Date {
	t := s.now()
	return core.NewDate(t.Year(), int(t.Month()), t.Day())
}

// Shutdown stops background routines, disconnects live clients and shuts
// the HTTP server down. Only the first call has effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		if s.hub != nil {
			s.hub.CloseAll()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}
