// Package web implements the web server for timeblock application
package web

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/timeblock/timeblock/app/action"
)

//go:generate mockery --name ActionStore --output mocks --case underscore

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Server represents the web server
type Server struct {
	store          ActionStore
	templates      map[string]*template.Template
	baseURL        string // base URL path for reverse proxy (e.g., /timeblock), empty for root
	version        string
	addLimiter     *limiter.Limiter            // rate limiter for action submissions
	csrfProtection *http.CrossOriginProtection // csrf protection for POST endpoints
	now            func() time.Time            // clock used for template data
}

// ActionStore defines storage operations for actions. Implementations open and close
// the underlying storage per call, so the store is safe to share between requests.
type ActionStore interface {
	AddAction(ctx context.Context, a action.Action) (sql.NullInt64, error)
	ListActions(ctx context.Context) ([]action.Action, error)
}

// TemplateData holds data for templates
type TemplateData struct {
	Actions     []action.Action
	CurrentYear int
	BaseURL     string // base URL path for reverse proxy (e.g., /timeblock)
	Version     string // application version (short form)
	FullVersion string // full application version
}

// Config holds server configuration
type Config struct {
	Store   ActionStore
	BaseURL string // base URL path for reverse proxy, empty for root
	Version string
	AddRate float64 // max action submissions per second per client, defaults to 5
}

// New creates a new web server
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("web server initialization failed: action store is required")
	}

	addRate := cfg.AddRate
	if addRate <= 0 {
		addRate = 5
	}
	addLimiter := tollbooth.NewLimiter(addRate, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	addLimiter.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"}) // rest.RealIP sets RemoteAddr
	addLimiter.SetMessage("too many submissions, slow down")

	s := &Server{
		store:          cfg.Store,
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		version:        cfg.Version,
		addLimiter:     addLimiter,
		csrfProtection: http.NewCrossOriginProtection(),
		now:            time.Now,
	}

	templates, err := s.parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("web server initialization failed: failed to parse HTML templates: %w", err)
	}
	s.templates = templates

	return s, nil
}

// Run starts the web server and blocks until ctx is canceled or the server fails
func (s *Server) Run(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s.handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting web server on %s", address)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// handler returns the http.Handler with base URL wrapping applied
func (s *Server) handler() http.Handler {
	routes := s.routes()
	if s.baseURL == "" {
		return routes
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.baseURL, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, s.baseURL+"/", http.StatusMovedPermanently)
	})
	mux.Handle(s.baseURL+"/", http.StripPrefix(s.baseURL, routes))
	return mux
}

// routes returns the http.Handler with all routes configured
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(1000),
		rest.AppInfo("timeblock", "timeblock", s.version),
		rest.Ping,
		rest.SizeLimit(64*1024), // 64KB max request size
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)

	// actions page and form submission
	router.HandleFunc("GET /{$}", s.handleIndex)
	router.With(s.csrfProtection.Handler, tollbooth.HTTPMiddleware(s.addLimiter)).HandleFunc("POST /{$}", s.handleAddAction)

	// JSON API for programmatic access
	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		api.HandleFunc("GET /actions", s.handleAPIListActions)
		api.With(s.csrfProtection.Handler, tollbooth.HTTPMiddleware(s.addLimiter)).HandleFunc("POST /actions", s.handleAPIAddAction)
	})

	fsys, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Printf("[ERROR] failed to create static file system: %v", err)
		router.Handle("GET /static/", http.FileServer(http.FS(staticFS)))
	} else {
		router.HandleFiles("/static/", http.FS(fsys))
	}

	return router
}

// render renders a template
func (s *Server) render(w http.ResponseWriter, page, tmplName string, data any) {
	tmpl, ok := s.templates[page]
	if !ok {
		log.Printf("[WARN] template %s not found", page)
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, tmplName, data); err != nil {
		log.Printf("[WARN] failed to execute template: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("[WARN] failed to write response: %v", err)
	}
}

// parseTemplates parses all templates
func (s *Server) parseTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template)

	funcMap := template.FuncMap{
		"humanTime":     s.humanTime,
		"humanDuration": s.humanDuration,
		"url":           s.url,
	}

	actions, err := template.New("actions.html").Funcs(funcMap).ParseFS(templatesFS, "templates/actions.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse actions template: %w", err)
	}
	templates["actions.html"] = actions

	return templates, nil
}

// template helper functions

func (s *Server) humanTime(t time.Time) string {
	if t.IsZero() {
		return "unscheduled"
	}
	return t.Format("Jan 2, 15:04")
}

func (s *Server) humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d%time.Hour < time.Minute:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int((d%time.Hour).Minutes()))
	}
}

// url prepends the base URL to a path for reverse proxy support
func (s *Server) url(path string) string {
	return s.baseURL + path
}

// shortVersion extracts a short version string from full version
// for version like "v1.7.0-abc1234-20241225", returns "v1.7.0"
func shortVersion(fullVer string) string {
	if fullVer == "" || fullVer == "unknown" {
		return fullVer
	}
	if idx := strings.Index(fullVer, "-"); idx > 0 {
		return fullVer[:idx]
	}
	return fullVer
}
