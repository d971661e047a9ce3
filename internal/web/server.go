package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/campusvoice/portal/internal/account"
	"github.com/campusvoice/portal/internal/audit"
	"github.com/campusvoice/portal/internal/auth"
	"github.com/campusvoice/portal/internal/events"
	"github.com/campusvoice/portal/internal/feedback"
	"github.com/campusvoice/portal/internal/infrastructure/config"
	"github.com/campusvoice/portal/internal/infrastructure/logging"
	"github.com/campusvoice/portal/internal/profile"
	"github.com/campusvoice/portal/internal/suggestion"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the web server.
type Deps struct {
	HTTP    config.HTTPConfig
	Session config.SessionConfig
	// CookieSecure sets the Secure attribute on the session cookie.
	CookieSecure bool
	PortalName   string

	Logger      *logging.Logger
	Store       HealthChecker
	Sessions    *auth.SessionManager
	Auth        *auth.Authenticator
	Users       auth.UserRepository
	Accounts    *account.Service
	Profiles    profile.Repository
	Feedback    feedback.Repository
	Suggestions suggestion.Repository

	// Optional.
	Audit   *audit.Recorder
	Events  events.Publisher
	Metrics Metrics
	// StaticDir serves assets from disk instead of the embedded copy.
	StaticDir string
	Version   string
}

// Server is the portal's HTTP server.
//
// It owns the listener, routes, middleware and page templates.
// The server is created with New() and started with Start().
type Server struct {
	httpCfg      config.HTTPConfig
	cookieName   string
	cookieSecure bool
	portalName   string
	logger       *logging.Logger
	store        HealthChecker
	sessions     *auth.SessionManager
	authn        *auth.Authenticator
	users        auth.UserRepository
	accounts     *account.Service
	profiles     profile.Repository
	feedback     feedback.Repository
	suggestions  suggestion.Repository
	audit        *audit.Recorder
	events       events.Publisher
	metrics      Metrics
	staticDir    string
	version      string
	pages        *pageSet
	server       *http.Server
}

// New creates a web server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	switch {
	case deps.Store == nil:
		return nil, fmt.Errorf("store health checker is required")
	case deps.Sessions == nil:
		return nil, fmt.Errorf("session manager is required")
	case deps.Auth == nil:
		return nil, fmt.Errorf("authenticator is required")
	case deps.Users == nil:
		return nil, fmt.Errorf("user repository is required")
	case deps.Accounts == nil:
		return nil, fmt.Errorf("account service is required")
	case deps.Profiles == nil, deps.Feedback == nil, deps.Suggestions == nil:
		return nil, fmt.Errorf("profile, feedback and suggestion repositories are required")
	}

	pages, err := loadPages()
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	s := &Server{
		httpCfg:      deps.HTTP,
		cookieName:   deps.Session.CookieName,
		cookieSecure: deps.CookieSecure,
		portalName:   deps.PortalName,
		logger:       deps.Logger.With("component", "web"),
		store:        deps.Store,
		sessions:     deps.Sessions,
		authn:        deps.Auth,
		users:        deps.Users,
		accounts:     deps.Accounts,
		profiles:     deps.Profiles,
		feedback:     deps.Feedback,
		suggestions:  deps.Suggestions,
		audit:        deps.Audit,
		events:       deps.Events,
		metrics:      deps.Metrics,
		staticDir:    deps.StaticDir,
		version:      deps.Version,
		pages:        pages,
	}
	if s.cookieName == "" {
		s.cookieName = defaultCookieName
	}
	if s.portalName == "" {
		s.portalName = defaultPortalName
	}
	if s.events == nil {
		s.events = events.Noop{}
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	return s, nil
}

// Handler returns the fully wired router. Start uses it; tests drive it
// directly through httptest.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.httpCfg.Host, s.httpCfg.Port),
		Handler:           s.Handler(),
		ReadTimeout:       time.Duration(s.httpCfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.httpCfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.httpCfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.httpCfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.httpCfg.TLS.Enabled {
			s.logger.Info("web server starting with TLS",
				"address", s.server.Addr,
				"cert", s.httpCfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.httpCfg.TLS.CertFile, s.httpCfg.TLS.KeyFile)
		} else {
			s.logger.Info("web server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("web server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("web server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down web server: %w", err)
	}
	return nil
}

// HealthCheck verifies the server is started and its store reachable.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("web health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("web server not started")
	}
	return s.store.HealthCheck(ctx)
}
