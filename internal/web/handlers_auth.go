package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/campusvoice/portal/internal/account"
	"github.com/campusvoice/portal/internal/audit"
	"github.com/campusvoice/portal/internal/auth"
	"github.com/campusvoice/portal/internal/events"
)

// loginView is the data of the login page.
type loginView struct {
	Role auth.Role
}

// portalRole parses the {role} URL parameter. ok is false for anything but
// "student" or "faculty".
func portalRole(r *http.Request) (auth.Role, bool) {
	role := auth.Role(chi.URLParam(r, "role"))
	return role, auth.IsValidRole(role)
}

// redirectIfAuthenticated sends a logged-in user to their dashboard.
func redirectIfAuthenticated(w http.ResponseWriter, r *http.Request) bool {
	id := identityFrom(r)
	if !id.IsAuthenticated() {
		return false
	}
	http.Redirect(w, r, dashboardPath(id.Role), http.StatusSeeOther)
	return true
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	role, ok := portalRole(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "The page you requested does not exist.")
		return
	}
	if redirectIfAuthenticated(w, r) {
		return
	}
	s.render(w, r, http.StatusOK, "login", view{
		Title: role.Title() + " Login",
		Data:  loginView{Role: role},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	role, ok := portalRole(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "The page you requested does not exist.")
		return
	}
	if redirectIfAuthenticated(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	identifier := r.PostForm.Get("identifier")
	id, err := s.authn.Authenticate(r.Context(), identifier, r.PostForm.Get("password"), role)
	if err != nil {
		var wrong *auth.WrongPortalError
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			s.metrics.RecordLogin(string(role), outcomeInvalid)
			s.audit.Record(audit.ActionLoginFailed, audit.EntityUser, "", "", map[string]any{"portal": string(role)})
			form := r.PostForm
			form.Del("password")
			s.render(w, r, http.StatusUnauthorized, "login", view{
				Title:  role.Title() + " Login",
				Errors: []string{"Invalid username or password."},
				Form:   form,
				Data:   loginView{Role: role},
			})
		case errors.As(err, &wrong):
			s.metrics.RecordLogin(string(role), outcomeWrongPortal)
			s.flashAndRedirect(w, r, auth.FlashError,
				fmt.Sprintf("This is a %s account. Please use the %s login.", wrong.Role, wrong.Role.Title()),
				loginPath(wrong.Role))
		default:
			s.metrics.RecordLogin(string(role), outcomeError)
			s.internalError(w, r, "authenticating", err)
		}
		return
	}

	st := stateFrom(r)
	sess, token, returnTo, err := s.sessions.Login(r.Context(), st.session, id)
	if err != nil {
		s.metrics.RecordLogin(string(role), outcomeError)
		s.internalError(w, r, "creating login session", err)
		return
	}
	st.session, st.identity = sess, id
	s.setSessionCookie(w, token)

	s.metrics.RecordLogin(string(role), outcomeSuccess)
	s.audit.Record(audit.ActionLogin, audit.EntityUser, id.UserID, id.UserID, map[string]any{"portal": string(role)})
	s.logger.Info("user logged in", "user_id", id.UserID, "role", string(id.Role), "request_id", requestIDFrom(r))

	s.flash(r, auth.FlashSuccess, "Logged in successfully.")
	if returnTo == "" || !auth.IsLocalPath(returnTo) {
		returnTo = dashboardPath(id.Role)
	}
	http.Redirect(w, r, returnTo, http.StatusSeeOther)
}

// handleLogout deletes the server-side session, then starts an anonymous
// one to carry the goodbye message.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	st := stateFrom(r)
	if st.session != nil {
		if err := s.sessions.Logout(r.Context(), st.session); err != nil {
			s.internalError(w, r, "logging out", err)
			return
		}
		if st.identity.IsAuthenticated() {
			s.audit.Record(audit.ActionLogout, audit.EntityUser, st.identity.UserID, st.identity.UserID, nil)
		}
	}
	st.session, st.identity = nil, auth.Anonymous
	if s.ensureSession(w, r) == nil {
		s.clearSessionCookie(w)
	}
	s.flash(r, auth.FlashInfo, "You have been logged out.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleStudentRegisterPage(w http.ResponseWriter, r *http.Request) {
	if redirectIfAuthenticated(w, r) {
		return
	}
	s.render(w, r, http.StatusOK, "register_student", view{Title: "Student Registration"})
}

func (s *Server) handleStudentRegister(w http.ResponseWriter, r *http.Request) {
	if redirectIfAuthenticated(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}
	f := r.PostForm
	semester, _ := strconv.Atoi(f.Get("semester")) //nolint:errcheck // zero fails validation
	reg := account.StudentRegistration{
		Credentials: credentialsFrom(r),
		FirstName:   f.Get("first_name"),
		LastName:    f.Get("last_name"),
		RollNumber:  f.Get("roll_number"),
		Major:       f.Get("major"),
		Semester:    semester,
	}

	user, err := s.accounts.RegisterStudent(r.Context(), reg)
	if err != nil {
		s.registrationFailed(w, r, auth.RoleStudent, "register_student", err)
		return
	}
	s.registered(w, r, user)
}

func (s *Server) handleFacultyRegisterPage(w http.ResponseWriter, r *http.Request) {
	if redirectIfAuthenticated(w, r) {
		return
	}
	s.render(w, r, http.StatusOK, "register_faculty", view{Title: "Faculty Registration"})
}

func (s *Server) handleFacultyRegister(w http.ResponseWriter, r *http.Request) {
	if redirectIfAuthenticated(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}
	f := r.PostForm
	reg := account.FacultyRegistration{
		Credentials: credentialsFrom(r),
		FirstName:   f.Get("first_name"),
		LastName:    f.Get("last_name"),
		EmployeeID:  f.Get("employee_id"),
		Department:  f.Get("department"),
		Designation: f.Get("designation"),
	}

	user, err := s.accounts.RegisterFaculty(r.Context(), reg)
	if err != nil {
		s.registrationFailed(w, r, auth.RoleFaculty, "register_faculty", err)
		return
	}
	s.registered(w, r, user)
}

func credentialsFrom(r *http.Request) account.Credentials {
	return account.Credentials{
		Username:        r.PostForm.Get("username"),
		Email:           r.PostForm.Get("email"),
		Password:        r.PostForm.Get("password"),
		ConfirmPassword: r.PostForm.Get("confirm_password"),
	}
}

// registered records a new account and sends the visitor to its login page.
// Registration does not log the visitor in.
func (s *Server) registered(w http.ResponseWriter, r *http.Request, user *auth.User) {
	role := string(user.Role)
	s.metrics.RecordRegistration(role, outcomeSuccess)
	s.audit.Record(audit.ActionRegister, audit.EntityUser, user.ID, user.ID, map[string]any{"role": role})
	s.publish(r, events.New(events.TypeUserRegistered, map[string]any{
		"user_id": user.ID,
		"role":    role,
	}))
	s.logger.Info("account registered", "user_id", user.ID, "role", role, "request_id", requestIDFrom(r))

	s.flashAndRedirect(w, r, auth.FlashSuccess,
		user.Role.Title()+" registered successfully! Please login.", loginPath(user.Role))
}

// registrationFailed re-renders the form with the problems, or the 500 page
// for anything that is not the visitor's to fix.
func (s *Server) registrationFailed(w http.ResponseWriter, r *http.Request, role auth.Role, page string, err error) {
	status, problems, ok := formProblems(err)
	if !ok {
		s.metrics.RecordRegistration(string(role), outcomeError)
		s.internalError(w, r, "registering account", err)
		return
	}
	outcome := outcomeInvalid
	if status == http.StatusConflict {
		outcome = outcomeDuplicate
	}
	s.metrics.RecordRegistration(string(role), outcome)

	form := r.PostForm
	form.Del("password")
	form.Del("confirm_password")
	s.render(w, r, status, page, view{
		Title:  role.Title() + " Registration",
		Errors: problems,
		Form:   form,
	})
}

// formProblems maps an account error to a status and user-facing messages.
// ok is false when the error is not user-facing.
func formProblems(err error) (status int, problems []string, ok bool) {
	var verr *account.ValidationError
	var derr *account.DuplicateFieldError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Problems, true
	case errors.As(err, &derr):
		return http.StatusConflict, []string{derr.Message()}, true
	default:
		return 0, nil, false
	}
}

// publish hands a domain event to the publisher. Failures, including a
// full dispatch queue, are logged and never surface.
func (s *Server) publish(r *http.Request, e events.Event) {
	if err := s.events.Publish(r.Context(), e); err != nil {
		s.logger.Warn("publishing event", "type", e.Type, "error", err, "request_id", requestIDFrom(r))
	}
}
