package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/campusvoice/portal/internal/account"
	"github.com/campusvoice/portal/internal/audit"
	"github.com/campusvoice/portal/internal/auth"
	"github.com/campusvoice/portal/internal/events"
	"github.com/campusvoice/portal/internal/feedback"
	"github.com/campusvoice/portal/internal/profile"
	"github.com/campusvoice/portal/internal/suggestion"
)

type studentDashboardView struct {
	Profile     *profile.StudentProfile
	Feedback    []feedback.Feedback
	Suggestions []suggestion.Suggestion
}

// studentProfile returns the caller's profile, or nil if they have not
// created one yet.
func (s *Server) studentProfile(r *http.Request) (*profile.StudentProfile, error) {
	p, err := s.profiles.GetStudentByUserID(r.Context(), identityFrom(r).UserID)
	if errors.Is(err, profile.ErrStudentNotFound) {
		return nil, nil
	}
	return p, err
}

func (s *Server) handleStudentDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := s.studentProfile(r)
	if err != nil {
		s.internalError(w, r, "loading student profile", err)
		return
	}

	v := studentDashboardView{Profile: p}
	if p != nil {
		if v.Feedback, err = s.feedback.ListByStudent(r.Context(), p.ID); err != nil {
			s.internalError(w, r, "listing student feedback", err)
			return
		}
	}
	if v.Suggestions, err = s.suggestions.ListByUser(r.Context(), identityFrom(r).UserID); err != nil {
		s.internalError(w, r, "listing student suggestions", err)
		return
	}
	s.render(w, r, http.StatusOK, "student_dashboard", view{Title: "Student Dashboard", Data: v})
}

func (s *Server) handleStudentProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.studentProfile(r)
	if err != nil {
		s.internalError(w, r, "loading student profile", err)
		return
	}
	if p == nil {
		s.flashAndRedirect(w, r, auth.FlashInfo, "Please complete your profile.", "/student/profile/edit")
		return
	}
	s.render(w, r, http.StatusOK, "student_profile", view{Title: "My Profile", Data: p})
}

func (s *Server) handleStudentProfileEditPage(w http.ResponseWriter, r *http.Request) {
	p, err := s.studentProfile(r)
	if err != nil {
		s.internalError(w, r, "loading student profile", err)
		return
	}
	form := url.Values{}
	if p != nil {
		form.Set("first_name", p.FirstName)
		form.Set("last_name", p.LastName)
		form.Set("roll_number", p.RollNumber)
		form.Set("major", p.Major)
		form.Set("semester", strconv.Itoa(p.Semester))
		form.Set("contact_email", p.ContactEmail)
		form.Set("phone_number", p.PhoneNumber)
	}
	s.render(w, r, http.StatusOK, "student_profile_edit", view{Title: "Edit Profile", Form: form})
}

func (s *Server) handleStudentProfileEdit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}
	f := r.PostForm
	semester, _ := strconv.Atoi(f.Get("semester")) //nolint:errcheck // zero fails validation
	in := account.StudentProfileInput{
		FirstName:    f.Get("first_name"),
		LastName:     f.Get("last_name"),
		RollNumber:   f.Get("roll_number"),
		Major:        f.Get("major"),
		Semester:     semester,
		ContactEmail: f.Get("contact_email"),
		PhoneNumber:  f.Get("phone_number"),
	}

	id := identityFrom(r)
	p, err := s.accounts.SaveStudentProfile(r.Context(), id.UserID, in)
	if err != nil {
		if status, problems, ok := formProblems(err); ok {
			s.render(w, r, status, "student_profile_edit", view{Title: "Edit Profile", Errors: problems, Form: f})
			return
		}
		s.internalError(w, r, "saving student profile", err)
		return
	}

	s.audit.Record(audit.ActionProfileSave, audit.EntityProfile, p.ID, id.UserID, map[string]any{"role": string(id.Role)})
	s.flashAndRedirect(w, r, auth.FlashSuccess, "Profile updated successfully!", "/student/profile")
}

type feedbackFormView struct {
	Faculty []profile.FacultyProfile
}

func (s *Server) handleFeedbackPage(w http.ResponseWriter, r *http.Request) {
	s.renderFeedbackForm(w, r, http.StatusOK, nil, url.Values{})
}

func (s *Server) renderFeedbackForm(w http.ResponseWriter, r *http.Request, status int, problems []string, form url.Values) {
	faculty, err := s.profiles.ListFaculty(r.Context())
	if err != nil {
		s.internalError(w, r, "listing faculty", err)
		return
	}
	s.render(w, r, status, "student_feedback", view{
		Title:  "Submit Feedback",
		Errors: problems,
		Form:   form,
		Data:   feedbackFormView{Faculty: faculty},
	})
}

func (s *Server) handleFeedbackSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}
	p, err := s.studentProfile(r)
	if err != nil {
		s.internalError(w, r, "loading student profile", err)
		return
	}
	if p == nil {
		s.flashAndRedirect(w, r, auth.FlashError,
			"Please complete your profile before submitting feedback.", "/student/profile/edit")
		return
	}

	f := r.PostForm
	rating, _ := strconv.Atoi(f.Get("rating")) //nolint:errcheck // zero fails validation
	fb := &feedback.Feedback{
		StudentID:  p.ID,
		FacultyID:  f.Get("faculty_id"),
		CourseCode: f.Get("course_code"),
		Rating:     rating,
		Comment:    f.Get("comment"),
	}

	if err := s.feedback.Create(r.Context(), fb); err != nil {
		switch {
		case errors.Is(err, feedback.ErrInvalidFeedback):
			s.renderFeedbackForm(w, r, http.StatusBadRequest, []string{userMessage(err, feedback.ErrInvalidFeedback)}, f)
		case errors.Is(err, feedback.ErrUnknownParty):
			s.renderFeedbackForm(w, r, http.StatusBadRequest, []string{"The selected faculty member was not found."}, f)
		default:
			s.internalError(w, r, "submitting feedback", err)
		}
		return
	}

	id := identityFrom(r)
	s.metrics.RecordSubmission(kindFeedback, string(id.Role))
	s.audit.Record(audit.ActionFeedbackSubmit, audit.EntityFeedback, fb.ID, id.UserID, map[string]any{
		"faculty_id": fb.FacultyID,
		"rating":     fb.Rating,
	})
	s.publish(r, events.New(events.TypeFeedbackSubmitted, map[string]any{
		"feedback_id": fb.ID,
		"faculty_id":  fb.FacultyID,
		"rating":      fb.Rating,
	}))
	s.flashAndRedirect(w, r, auth.FlashSuccess, "Feedback submitted successfully!", "/student/dashboard")
}

// userMessage turns "invalid feedback: rating must be ..." into
// "Rating must be ...".
func userMessage(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
