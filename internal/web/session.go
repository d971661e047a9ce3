package web

import (
	"net/http"

	"github.com/campusvoice/portal/internal/auth"
)

const (
	defaultCookieName = "portal_session"
	defaultPortalName = "Campus Feedback Portal"
)

func loginPath(role auth.Role) string {
	if role == auth.RoleFaculty {
		return "/login/faculty"
	}
	return "/login/student"
}

func dashboardPath(role auth.Role) string {
	if role == auth.RoleFaculty {
		return "/faculty/dashboard"
	}
	return "/student/dashboard"
}

func otherRole(role auth.Role) auth.Role {
	if role == auth.RoleFaculty {
		return auth.RoleStudent
	}
	return auth.RoleFaculty
}

// setSessionCookie issues the cookie carrying token.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ensureSession returns the request's session, starting an anonymous one
// when there is none. It returns nil if the store is unavailable; callers
// then carry on without flash or return path.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) *auth.Session {
	st := stateFrom(r)
	if st.session != nil {
		return st.session
	}
	sess, token, err := s.sessions.Start(r.Context())
	if err != nil {
		s.logger.Error("starting session", "error", err, "request_id", requestIDFrom(r))
		return nil
	}
	s.setSessionCookie(w, token)
	st.session = sess
	return sess
}

// flash queues a one-shot message on the request's session, if it has one.
func (s *Server) flash(r *http.Request, kind auth.FlashKind, text string) {
	sess := stateFrom(r).session
	if sess == nil {
		return
	}
	if err := s.sessions.AddFlash(r.Context(), sess, kind, text); err != nil {
		s.logger.Warn("queueing flash message", "error", err, "request_id", requestIDFrom(r))
	}
}

// flashAndRedirect queues a message and sends a 303 to target.
func (s *Server) flashAndRedirect(w http.ResponseWriter, r *http.Request, kind auth.FlashKind, text, target string) {
	s.ensureSession(w, r)
	s.flash(r, kind, text)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) setReturnTo(r *http.Request, sess *auth.Session, path string) {
	if err := s.sessions.SetReturnTo(r.Context(), sess, path); err != nil {
		s.logger.Warn("storing return path", "error", err, "request_id", requestIDFrom(r))
	}
}
