package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/campusvoice/portal/internal/account"
	"github.com/campusvoice/portal/internal/audit"
	"github.com/campusvoice/portal/internal/auth"
	"github.com/campusvoice/portal/internal/feedback"
	"github.com/campusvoice/portal/internal/profile"
)

type facultyDashboardView struct {
	Profile      *profile.FacultyProfile
	StudentCount int
	Feedback     []feedback.Feedback
	Summary      feedback.Summary
}

type facultyFeedbackView struct {
	Feedback []feedback.Feedback
	Summary  feedback.Summary
}

// facultyProfile returns the caller's profile, or nil if they have not
// created one yet.
func (s *Server) facultyProfile(r *http.Request) (*profile.FacultyProfile, error) {
	p, err := s.profiles.GetFacultyByUserID(r.Context(), identityFrom(r).UserID)
	if errors.Is(err, profile.ErrFacultyNotFound) {
		return nil, nil
	}
	return p, err
}

// received loads the feedback addressed to p, newest first.
func (s *Server) received(r *http.Request, p *profile.FacultyProfile) ([]feedback.Feedback, feedback.Summary, error) {
	if p == nil {
		return nil, feedback.Summary{}, nil
	}
	list, err := s.feedback.ListByFaculty(r.Context(), p.ID)
	if err != nil {
		return nil, feedback.Summary{}, err
	}
	sum, err := s.feedback.SummaryForFaculty(r.Context(), p.ID)
	if err != nil {
		return nil, feedback.Summary{}, err
	}
	return list, sum, nil
}

func (s *Server) handleFacultyDashboard(w http.ResponseWriter, r *http.Request) {
	p, err := s.facultyProfile(r)
	if err != nil {
		s.internalError(w, r, "loading faculty profile", err)
		return
	}
	v := facultyDashboardView{Profile: p}
	if v.StudentCount, err = s.profiles.CountStudents(r.Context()); err != nil {
		s.internalError(w, r, "counting students", err)
		return
	}
	if v.Feedback, v.Summary, err = s.received(r, p); err != nil {
		s.internalError(w, r, "loading received feedback", err)
		return
	}
	s.render(w, r, http.StatusOK, "faculty_dashboard", view{Title: "Faculty Dashboard", Data: v})
}

func (s *Server) handleFacultyProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.facultyProfile(r)
	if err != nil {
		s.internalError(w, r, "loading faculty profile", err)
		return
	}
	if p == nil {
		s.flashAndRedirect(w, r, auth.FlashInfo, "Please complete your profile.", "/faculty/profile/edit")
		return
	}
	s.render(w, r, http.StatusOK, "faculty_profile", view{Title: "My Profile", Data: p})
}

func (s *Server) handleFacultyProfileEditPage(w http.ResponseWriter, r *http.Request) {
	p, err := s.facultyProfile(r)
	if err != nil {
		s.internalError(w, r, "loading faculty profile", err)
		return
	}
	form := url.Values{}
	if p != nil {
		form.Set("first_name", p.FirstName)
		form.Set("last_name", p.LastName)
		form.Set("employee_id", p.EmployeeID)
		form.Set("department", p.Department)
		form.Set("designation", p.Designation)
		form.Set("contact_email", p.ContactEmail)
		form.Set("phone_number", p.PhoneNumber)
		form.Set("office_location", p.OfficeLocation)
		form.Set("research_interests", strings.Join(p.ResearchInterests, ", "))
		form.Set("office_hours", p.OfficeHours)
	}
	s.render(w, r, http.StatusOK, "faculty_profile_edit", view{Title: "Edit Profile", Form: form})
}

func (s *Server) handleFacultyProfileEdit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}
	f := r.PostForm
	in := account.FacultyProfileInput{
		FirstName:         f.Get("first_name"),
		LastName:          f.Get("last_name"),
		EmployeeID:        f.Get("employee_id"),
		Department:        f.Get("department"),
		Designation:       f.Get("designation"),
		ContactEmail:      f.Get("contact_email"),
		PhoneNumber:       f.Get("phone_number"),
		OfficeLocation:    f.Get("office_location"),
		ResearchInterests: profile.ParseInterests(f.Get("research_interests")),
		OfficeHours:       f.Get("office_hours"),
	}

	id := identityFrom(r)
	p, err := s.accounts.SaveFacultyProfile(r.Context(), id.UserID, in)
	if err != nil {
		if status, problems, ok := formProblems(err); ok {
			s.render(w, r, status, "faculty_profile_edit", view{Title: "Edit Profile", Errors: problems, Form: f})
			return
		}
		s.internalError(w, r, "saving faculty profile", err)
		return
	}

	s.audit.Record(audit.ActionProfileSave, audit.EntityProfile, p.ID, id.UserID, map[string]any{"role": string(id.Role)})
	s.flashAndRedirect(w, r, auth.FlashSuccess, "Profile updated successfully!", "/faculty/profile")
}

func (s *Server) handleFacultyFeedback(w http.ResponseWriter, r *http.Request) {
	p, err := s.facultyProfile(r)
	if err != nil {
		s.internalError(w, r, "loading faculty profile", err)
		return
	}
	var v facultyFeedbackView
	if v.Feedback, v.Summary, err = s.received(r, p); err != nil {
		s.internalError(w, r, "loading received feedback", err)
		return
	}
	s.render(w, r, http.StatusOK, "faculty_feedback", view{Title: "Feedback Received", Data: v})
}
