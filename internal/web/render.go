package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/campusvoice/portal/internal/auth"
	"github.com/campusvoice/portal/internal/suggestion"
)

//go:embed templates/*.html
var templateFS embed.FS

// layoutTemplate is parsed into every page.
const layoutTemplate = "templates/layout.html"

// genericErrorMessage is shown for every unexpected failure. Store errors
// and stack traces never reach the page.
const genericErrorMessage = "Something went wrong on our side. Please try again later."

// pageSet holds one parsed template per page, each combined with the layout.
type pageSet struct {
	pages map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("02 Jan 2006 15:04")
	},
	"statusLabel": func(s suggestion.Status) string { return s.Label() },
	"statuses":    func() []suggestion.Status { return suggestion.ValidStatuses },
	"join":        strings.Join,
	"rating": func(avg float64) string {
		return fmt.Sprintf("%.1f", avg)
	},
	"seq": func(from, to int) []int {
		var out []int
		for i := from; i <= to; i++ {
			out = append(out, i)
		}
		return out
	},
}

func loadPages() (*pageSet, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	ps := &pageSet{pages: make(map[string]*template.Template, len(files))}
	for _, f := range files {
		if f == layoutTemplate {
			continue
		}
		name := strings.TrimSuffix(path.Base(f), ".html")
		t, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS, layoutTemplate, f)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f, err)
		}
		ps.pages[name] = t
	}
	return ps, nil
}

// view is what a handler passes to render.
type view struct {
	Title  string
	Errors []string
	Form   url.Values
	Data   any
}

// pageData is the template context. Handler data is under .Data.
type pageData struct {
	PortalName string
	Title      string
	Identity   auth.Identity
	User       *auth.User
	Flash      []auth.Flash
	Errors     []string
	Form       url.Values
	Data       any
	Year       int
}

// render executes page into a buffer and writes it with status. Pending
// flash messages are consumed.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, v view) {
	t, ok := s.pages.pages[page]
	if !ok {
		s.logger.Error("unknown template", "page", page, "request_id", requestIDFrom(r))
		http.Error(w, genericErrorMessage, http.StatusInternalServerError)
		return
	}

	st := stateFrom(r)
	data := pageData{
		PortalName: s.portalName,
		Title:      v.Title,
		Identity:   st.identity,
		Errors:     v.Errors,
		Form:       v.Form,
		Data:       v.Data,
		Year:       time.Now().Year(),
	}
	if st.identity.IsAuthenticated() {
		user, err := s.users.GetByID(r.Context(), st.identity.UserID)
		if err != nil {
			s.logger.Warn("loading user for page", "error", err, "request_id", requestIDFrom(r))
		}
		data.User = user
	}
	if st.session != nil {
		flash, err := s.sessions.TakeFlash(r.Context(), st.session)
		if err != nil {
			s.logger.Warn("reading flash messages", "error", err, "request_id", requestIDFrom(r))
		}
		data.Flash = flash
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		s.logger.Error("rendering template", "page", page, "error", err, "request_id", requestIDFrom(r))
		http.Error(w, genericErrorMessage, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	buf.WriteTo(w)
}

// errorView is the data of the error page.
type errorView struct {
	Status  int
	Message string
}

// renderError renders the error page with status and a user-facing message.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.render(w, r, status, "error", view{
		Title: http.StatusText(status),
		Data:  errorView{Status: status, Message: message},
	})
}

// internalError logs err with the request ID and renders the generic 500 page.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.Error(msg,
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", requestIDFrom(r),
	)
	s.renderError(w, r, http.StatusInternalServerError, genericErrorMessage)
}
