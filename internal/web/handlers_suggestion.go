package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/campusvoice/portal/internal/audit"
	"github.com/campusvoice/portal/internal/auth"
	"github.com/campusvoice/portal/internal/events"
	"github.com/campusvoice/portal/internal/suggestion"
)

type suggestionsView struct {
	Suggestions []suggestion.Suggestion
}

type reviewView struct {
	Suggestions []suggestion.Suggestion
	Filter      suggestion.Status
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	s.renderSuggestions(w, r, http.StatusOK, nil, url.Values{})
}

func (s *Server) renderSuggestions(w http.ResponseWriter, r *http.Request, status int, problems []string, form url.Values) {
	list, err := s.suggestions.ListByUser(r.Context(), identityFrom(r).UserID)
	if err != nil {
		s.internalError(w, r, "listing suggestions", err)
		return
	}
	s.render(w, r, status, "suggestions", view{
		Title:  "Suggestions",
		Errors: problems,
		Form:   form,
		Data:   suggestionsView{Suggestions: list},
	})
}

func (s *Server) handleSuggestionSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}
	id := identityFrom(r)
	sg := &suggestion.Suggestion{
		UserID:      id.UserID,
		AuthorRole:  id.Role,
		Subject:     r.PostForm.Get("subject"),
		Description: r.PostForm.Get("description"),
	}

	if err := s.suggestions.Create(r.Context(), sg); err != nil {
		if errors.Is(err, suggestion.ErrInvalidSuggestion) {
			s.renderSuggestions(w, r, http.StatusBadRequest,
				[]string{userMessage(err, suggestion.ErrInvalidSuggestion)}, r.PostForm)
			return
		}
		s.internalError(w, r, "submitting suggestion", err)
		return
	}

	s.metrics.RecordSubmission(kindSuggestion, string(id.Role))
	s.audit.Record(audit.ActionSuggestionAdd, audit.EntitySuggestion, sg.ID, id.UserID, map[string]any{
		"role": string(id.Role),
	})
	s.publish(r, events.New(events.TypeSuggestionSubmitted, map[string]any{
		"suggestion_id": sg.ID,
		"author_role":   string(id.Role),
	}))
	s.flashAndRedirect(w, r, auth.FlashSuccess, "Suggestion submitted successfully!", "/suggestions")
}

// handleSuggestionReview lists every suggestion, optionally filtered by
// ?status=. An unknown status shows all.
func (s *Server) handleSuggestionReview(w http.ResponseWriter, r *http.Request) {
	filter := suggestion.Status(r.URL.Query().Get("status"))
	if !suggestion.IsValidStatus(filter) {
		filter = ""
	}
	list, err := s.suggestions.ListAll(r.Context(), filter)
	if err != nil {
		s.internalError(w, r, "listing all suggestions", err)
		return
	}
	s.render(w, r, http.StatusOK, "faculty_suggestions", view{
		Title: "Review Suggestions",
		Data:  reviewView{Suggestions: list, Filter: filter},
	})
}

func (s *Server) handleSuggestionStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}
	suggestionID := chi.URLParam(r, "id")
	status := suggestion.Status(r.PostForm.Get("status"))

	err := s.suggestions.UpdateStatus(r.Context(), suggestionID, status)
	switch {
	case err == nil:
	case errors.Is(err, suggestion.ErrSuggestionNotFound):
		s.renderError(w, r, http.StatusNotFound, "That suggestion does not exist.")
		return
	case errors.Is(err, suggestion.ErrInvalidStatus):
		s.flashAndRedirect(w, r, auth.FlashError, "Unknown suggestion status.", "/faculty/suggestions")
		return
	default:
		s.internalError(w, r, "updating suggestion status", err)
		return
	}

	id := identityFrom(r)
	s.audit.Record(audit.ActionSuggestionState, audit.EntitySuggestion, suggestionID, id.UserID, map[string]any{
		"status": string(status),
	})
	s.publish(r, events.New(events.TypeSuggestionStatusChanged, map[string]any{
		"suggestion_id": suggestionID,
		"status":        string(status),
	}))
	s.flashAndRedirect(w, r, auth.FlashSuccess, "Suggestion marked as "+status.Label()+".", "/faculty/suggestions")
}
