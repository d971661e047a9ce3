package web

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/campusvoice/portal/internal/account"
	"github.com/campusvoice/portal/internal/audit"
	"github.com/campusvoice/portal/internal/auth"
	"github.com/campusvoice/portal/internal/events"
	"github.com/campusvoice/portal/internal/feedback"
	"github.com/campusvoice/portal/internal/infrastructure/config"
	"github.com/campusvoice/portal/internal/infrastructure/database"
	"github.com/campusvoice/portal/internal/infrastructure/logging"
	"github.com/campusvoice/portal/internal/profile"
	"github.com/campusvoice/portal/internal/suggestion"
	"github.com/campusvoice/portal/migrations"
)

const testPassword = "secret123"

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// recordingMetrics counts calls by "method:label:outcome".
type recordingMetrics struct {
	mu    sync.Mutex
	calls map[string]int
}

func (m *recordingMetrics) inc(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[key]++
}

func (m *recordingMetrics) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[key]
}

func (m *recordingMetrics) RecordLogin(portal, outcome string) { m.inc("login:" + portal + ":" + outcome) }
func (m *recordingMetrics) RecordRegistration(role, outcome string) {
	m.inc("register:" + role + ":" + outcome)
}
func (m *recordingMetrics) RecordSubmission(kind, role string) { m.inc("submit:" + kind + ":" + role) }

// testEnv is a portal wired to a temp SQLite database.
type testEnv struct {
	srv      *Server
	ts       *httptest.Server
	db       *database.DB
	accounts *account.Service
	audit    *audit.Recorder
	events   *recordingPublisher
	metrics  *recordingMetrics
}

// newTestEnv builds the portal; opts adjust Deps before the server is created.
func newTestEnv(t *testing.T, opts ...func(*Deps)) *testEnv {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "web-test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}

	log := logging.NewWithWriter(io.Discard, config.LoggingConfig{Level: "error", Format: "text"}, "test")
	hasher := auth.NewPasswordHasher(config.PasswordConfig{MemoryKiB: 1024, Iterations: 1, Threads: 1})
	users := auth.NewUserRepository(db)

	authn, err := auth.NewAuthenticator(users, hasher)
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	sessions := auth.NewSessionManager(auth.NewSQLiteSessionStore(db), users,
		auth.SessionManagerConfig{TTL: time.Hour, MaxFlash: 5}, log)

	recorder := audit.NewRecorder(audit.NewSQLiteRepository(db), log)
	recorder.Start(context.Background())
	t.Cleanup(recorder.Stop)

	env := &testEnv{
		db:       db,
		accounts: account.NewService(db, hasher, 6),
		audit:    recorder,
		events:   &recordingPublisher{},
		metrics:  &recordingMetrics{},
	}

	deps := Deps{
		HTTP:        config.HTTPConfig{Host: "127.0.0.1", Port: 0},
		Session:     config.SessionConfig{CookieName: "portal_session"},
		Logger:      log,
		Store:       db,
		Sessions:    sessions,
		Auth:        authn,
		Users:       users,
		Accounts:    env.accounts,
		Profiles:    profile.NewSQLiteRepository(db),
		Feedback:    feedback.NewSQLiteRepository(db),
		Suggestions: suggestion.NewSQLiteRepository(db),
		Audit:       recorder,
		Events:      env.events,
		Metrics:     env.metrics,
		Version:     "test",
	}
	for _, opt := range opts {
		opt(&deps)
	}

	env.srv, err = New(deps)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	env.ts = httptest.NewServer(env.srv.Handler())
	t.Cleanup(env.ts.Close)
	return env
}

// client returns a browser-like client with its own cookie jar that does
// not follow redirects.
func (e *testEnv) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
		Timeout: 10 * time.Second,
	}
}

type response struct {
	status   int
	location string
	body     string
	header   http.Header
}

func (e *testEnv) get(t *testing.T, c *http.Client, path string) response {
	t.Helper()
	resp, err := c.Get(e.ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return readResponse(t, resp)
}

func (e *testEnv) post(t *testing.T, c *http.Client, path string, form url.Values) response {
	t.Helper()
	resp, err := c.PostForm(e.ts.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return readResponse(t, resp)
}

func readResponse(t *testing.T, resp *http.Response) response {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return response{
		status:   resp.StatusCode,
		location: resp.Header.Get("Location"),
		body:     string(b),
		header:   resp.Header,
	}
}

// sessionCookie returns the session token the client currently holds.
func (e *testEnv) sessionCookie(t *testing.T, c *http.Client) string {
	t.Helper()
	u, _ := url.Parse(e.ts.URL) //nolint:errcheck // httptest URL is valid
	for _, ck := range c.Jar.Cookies(u) {
		if ck.Name == "portal_session" {
			return ck.Value
		}
	}
	return ""
}

func studentForm(username string) url.Values {
	return url.Values{
		"username":         {username},
		"email":            {username + "@campus.test"},
		"password":         {testPassword},
		"confirm_password": {testPassword},
		"first_name":       {"Alice"},
		"last_name":        {"Smith"},
		"roll_number":      {"R-" + username},
		"major":            {"Physics"},
		"semester":         {"3"},
	}
}

func facultyForm(username string) url.Values {
	return url.Values{
		"username":         {username},
		"email":            {username + "@campus.test"},
		"password":         {testPassword},
		"confirm_password": {testPassword},
		"first_name":       {"Bob"},
		"last_name":        {"Jones"},
		"employee_id":      {"E-" + username},
		"department":       {"Mathematics"},
		"designation":      {"Professor"},
	}
}

// registerStudent creates a student account directly through the service.
func (e *testEnv) registerStudent(t *testing.T, username string) *auth.User {
	t.Helper()
	f := studentForm(username)
	user, err := e.accounts.RegisterStudent(context.Background(), account.StudentRegistration{
		Credentials: account.Credentials{
			Username: username, Email: f.Get("email"),
			Password: testPassword, ConfirmPassword: testPassword,
		},
		FirstName: "Alice", LastName: "Smith", RollNumber: f.Get("roll_number"),
		Major: "Physics", Semester: 3,
	})
	if err != nil {
		t.Fatalf("RegisterStudent(%q): %v", username, err)
	}
	return user
}

// registerFaculty creates a faculty account directly through the service.
func (e *testEnv) registerFaculty(t *testing.T, username string) *auth.User {
	t.Helper()
	f := facultyForm(username)
	user, err := e.accounts.RegisterFaculty(context.Background(), account.FacultyRegistration{
		Credentials: account.Credentials{
			Username: username, Email: f.Get("email"),
			Password: testPassword, ConfirmPassword: testPassword,
		},
		FirstName: "Bob", LastName: "Jones", EmployeeID: f.Get("employee_id"),
		Department: "Mathematics", Designation: "Professor",
	})
	if err != nil {
		t.Fatalf("RegisterFaculty(%q): %v", username, err)
	}
	return user
}

// login signs c in at role's portal and fails the test unless it succeeds.
func (e *testEnv) login(t *testing.T, c *http.Client, role auth.Role, identifier string) {
	t.Helper()
	resp := e.post(t, c, "/login/"+string(role), url.Values{
		"identifier": {identifier},
		"password":   {testPassword},
	})
	if resp.status != http.StatusSeeOther {
		t.Fatalf("login %s as %s: status = %d, want 303\n%s", identifier, role, resp.status, resp.body)
	}
}

func assertContains(t *testing.T, body, want string) {
	t.Helper()
	if !strings.Contains(body, want) {
		t.Errorf("body does not contain %q", want)
	}
}

func assertNotContains(t *testing.T, body, unwanted string) {
	t.Helper()
	if strings.Contains(body, unwanted) {
		t.Errorf("body unexpectedly contains %q", unwanted)
	}
}
