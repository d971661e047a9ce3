package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/campusvoice/portal/internal/auth"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const (
	// ctxKeyRequestID is the context key for the request ID.
	ctxKeyRequestID contextKey = "request_id"

	// ctxKeyState is the context key for the per-request session state.
	ctxKeyState contextKey = "session_state"
)

// requestIDMiddleware generates a unique request ID for each request.
// If the client sends an X-Request-ID header, it is used; otherwise one is generated.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs each HTTP request with method, path, status, and duration.
// Query strings and form bodies are never logged.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestIDFrom(r),
		)
	})
}

// recoveryMiddleware catches panics in handlers and renders the 500 page.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
					panic(err)
				}
				s.logger.Error("panic recovered in HTTP handler",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", requestIDFrom(r),
				)
				s.renderError(w, r, http.StatusInternalServerError, genericErrorMessage)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// maxRequestBodySize is the maximum allowed request body size (1 MB).
const maxRequestBodySize = 1 << 20

// bodySizeLimitMiddleware limits the size of incoming request bodies.
func (s *Server) bodySizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		}
		next.ServeHTTP(w, r)
	})
}

// securityHeadersMiddleware sets response headers common to every page.
func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}

// requestState is the session and identity resolved for one request.
// Handlers replace the session after login and logout.
type requestState struct {
	session  *auth.Session
	identity auth.Identity
}

// sessionMiddleware resolves the session cookie into a requestState.
// Resolution never fails the request: any problem yields Anonymous, and a
// cookie that no longer refers to a live session is cleared.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := &requestState{identity: auth.Anonymous}
		if c, err := r.Cookie(s.cookieName); err == nil && c.Value != "" {
			st.session, st.identity = s.sessions.Load(r.Context(), c.Value)
			if st.session == nil {
				s.clearSessionCookie(w)
			}
		}
		ctx := context.WithValue(r.Context(), ctxKeyState, st)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// require gates a route group on req. An anonymous visitor is sent to the
// login page for the route's role; an authenticated user of the wrong role
// gets the 403 page. Neither sees any protected content.
func (s *Server) require(req auth.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := identityFrom(r)
			err := auth.Require(id, req)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, auth.ErrNotAuthenticated):
				if sess := s.ensureSession(w, r); sess != nil {
					if r.Method == http.MethodGet {
						s.setReturnTo(r, sess, r.URL.RequestURI())
					}
					s.flash(r, auth.FlashInfo, "Please log in to view that resource.")
				}
				http.Redirect(w, r, loginPath(req.LoginRole()), http.StatusSeeOther)
			default:
				s.logger.Info("access denied",
					"path", r.URL.Path,
					"user_id", id.UserID,
					"role", string(id.Role),
					"request_id", requestIDFrom(r),
				)
				s.renderError(w, r, http.StatusForbidden, "You do not have permission to view that page.")
			}
		})
	}
}

// stateFrom returns the request's session state. Routes outside the session
// group get a fresh anonymous state.
func stateFrom(r *http.Request) *requestState {
	if st, ok := r.Context().Value(ctxKeyState).(*requestState); ok {
		return st
	}
	return &requestState{identity: auth.Anonymous}
}

func identityFrom(r *http.Request) auth.Identity {
	return stateFrom(r).identity
}

func requestIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(ctxKeyRequestID).(string) //nolint:errcheck // absent means empty
	return id
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

const (
	// requestIDBytes is the number of random bytes used for request IDs.
	requestIDBytes = 8

	maxRequestIDLength = 64
)

// generateRequestID creates a random hex request ID.
func generateRequestID() string {
	b := make([]byte, requestIDBytes)
	//nolint:errcheck // crypto/rand.Read always returns len(b) on supported platforms
	rand.Read(b)
	return hex.EncodeToString(b)
}
