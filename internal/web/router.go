package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campusvoice/portal/internal/auth"
)

// buildRouter creates the chi router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware (applied to all routes)
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	r.Use(s.securityHeadersMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound, "The page you requested does not exist.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusMethodNotAllowed, "That action is not allowed here.")
	})

	r.Get("/healthz", s.handleHealth)
	r.Handle("/static/*", http.StripPrefix("/static/", staticHandler(s.staticDir)))

	// Pages (identity resolved from the session cookie)
	r.Group(func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		r.Get("/", s.handleHome)

		r.Get("/login/{role}", s.handleLoginPage)
		r.Post("/login/{role}", s.handleLogin)
		r.Get("/register/student", s.handleStudentRegisterPage)
		r.Post("/register/student", s.handleStudentRegister)
		r.Get("/register/faculty", s.handleFacultyRegisterPage)
		r.Post("/register/faculty", s.handleFacultyRegister)
		r.Post("/logout", s.handleLogout)

		r.Route("/student", func(r chi.Router) {
			r.Use(s.require(auth.RequireRole(auth.RoleStudent)))
			r.Get("/dashboard", s.handleStudentDashboard)
			r.Get("/profile", s.handleStudentProfile)
			r.Get("/profile/edit", s.handleStudentProfileEditPage)
			r.Post("/profile/edit", s.handleStudentProfileEdit)
			r.Get("/feedback", s.handleFeedbackPage)
			r.Post("/feedback", s.handleFeedbackSubmit)
		})

		r.Route("/faculty", func(r chi.Router) {
			r.Use(s.require(auth.RequireRole(auth.RoleFaculty)))
			r.Get("/dashboard", s.handleFacultyDashboard)
			r.Get("/profile", s.handleFacultyProfile)
			r.Get("/profile/edit", s.handleFacultyProfileEditPage)
			r.Post("/profile/edit", s.handleFacultyProfileEdit)
			r.Get("/feedback", s.handleFacultyFeedback)
			r.With(s.require(auth.RequirePermission(auth.PermSuggestionReview))).Group(func(r chi.Router) {
				r.Get("/suggestions", s.handleSuggestionReview)
				r.Post("/suggestions/{id}/status", s.handleSuggestionStatus)
			})
		})

		r.With(s.require(auth.RequirePermission(auth.PermSuggestionSubmit))).Group(func(r chi.Router) {
			r.Get("/suggestions", s.handleSuggestions)
			r.Post("/suggestions", s.handleSuggestionSubmit)
		})
	})

	return r
}
