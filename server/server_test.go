package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomis52/rosterd/config"
	"github.com/nomis52/rosterd/logging"
	"github.com/nomis52/rosterd/roster"
	"github.com/nomis52/rosterd/server/handlers"
)

func newTestServer(t *testing.T, cfg *config.Config, opts ...Option) *httptest.Server {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	s, err := New(cfg, opts...)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func activityURL(base, name, action, email string) string {
	return base + "/activities/" + url.PathEscape(name) + "/" + action + "?email=" + url.QueryEscape(email)
}

func do(t *testing.T, method, target string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, target, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func getActivities(t *testing.T, base string) map[string]roster.Activity {
	t.Helper()
	resp := do(t, http.MethodGet, base+"/activities")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[map[string]roster.Activity](t, resp)
}

func TestRootRedirectsToIndex(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := do(t, http.MethodGet, ts.URL+"/")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, handlers.IndexPath, resp.Request.URL.Path)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Mergington High School")
}

func TestStaticAssets(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		path        string
		wantStatus  int
		contentType string
	}{
		{"/static/app.js", http.StatusOK, "javascript"},
		{"/static/styles.css", http.StatusOK, "text/css"},
		{"/static/missing.js", http.StatusNotFound, ""},
		{"/static/", http.StatusOK, "text/html"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := do(t, http.MethodGet, ts.URL+tt.path)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.contentType != "" {
				assert.Contains(t, resp.Header.Get("Content-Type"), tt.contentType)
			}
		})
	}
}

func TestGetActivities(t *testing.T) {
	ts := newTestServer(t, nil)

	activities := getActivities(t, ts.URL)

	require.NotEmpty(t, activities)
	for name, a := range activities {
		assert.NotEmpty(t, a.Description, name)
		assert.NotEmpty(t, a.Schedule, name)
		assert.Positive(t, a.MaxParticipants, name)
		assert.NotNil(t, a.Participants, name)
	}
	assert.Equal(t, []string{"michael@mergington.edu", "daniel@mergington.edu"}, activities["Chess Club"].Participants)
}

func TestSignup(t *testing.T) {
	tests := []struct {
		name       string
		activity   string
		email      string
		wantStatus int
		wantText   string
	}{
		{"success", "Chess Club", "test@example.com", http.StatusOK, "Signed up test@example.com for Chess Club"},
		{"unknown activity", "NonExistentActivity", "test@example.com", http.StatusNotFound, "Activity not found"},
		{"already signed up", "Chess Club", "michael@mergington.edu", http.StatusBadRequest, "already signed up"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)

			resp := do(t, http.MethodPost, activityURL(ts.URL, tt.activity, "signup", tt.email))

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := decode[map[string]string](t, resp)
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, body["message"], tt.wantText)
			} else {
				assert.Contains(t, body["detail"], tt.wantText)
			}
		})
	}
}

func TestUnregister(t *testing.T) {
	tests := []struct {
		name       string
		activity   string
		email      string
		wantStatus int
		wantText   string
	}{
		{"success", "Chess Club", "michael@mergington.edu", http.StatusOK, "Unregistered michael@mergington.edu from Chess Club"},
		{"unknown activity", "NonExistentActivity", "test@example.com", http.StatusNotFound, "Activity not found"},
		{"not signed up", "Chess Club", "nobody@mergington.edu", http.StatusBadRequest, "not signed up"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)

			resp := do(t, http.MethodDelete, activityURL(ts.URL, tt.activity, "unregister", tt.email))

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := decode[map[string]string](t, resp)
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, body["message"], tt.wantText)
			} else {
				assert.Contains(t, body["detail"], tt.wantText)
			}
		})
	}
}

func TestSignupAndUnregisterRoundTrip(t *testing.T) {
	ts := newTestServer(t, nil)
	const activity = "Gym Class"
	const email = "integration@mergington.edu"

	resp := do(t, http.MethodPost, activityURL(ts.URL, activity, "signup", email))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	participants := getActivities(t, ts.URL)[activity].Participants
	assert.Equal(t, email, participants[len(participants)-1])

	resp = do(t, http.MethodDelete, activityURL(ts.URL, activity, "unregister", email))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, getActivities(t, ts.URL)[activity].Participants, email)
	assert.Equal(t, []string{"john@mergington.edu", "olivia@mergington.edu"}, getActivities(t, ts.URL)[activity].Participants)
}

func TestMissingEmail(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := do(t, http.MethodPost, ts.URL+"/activities/Chess%20Club/signup")

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Len(t, getActivities(t, ts.URL)["Chess Club"].Participants, 2)
}

func TestWrongMethod(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := do(t, http.MethodGet, activityURL(ts.URL, "Chess Club", "signup", "a@b.c"))

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCapacityEnforcement(t *testing.T) {
	cfg := config.Default()
	cfg.Roster.EnforceCapacity = true
	seed := []roster.Seed{{
		Name: "Tiny Club",
		Activity: roster.Activity{
			Description:     "Room for one",
			Schedule:        "Mondays",
			MaxParticipants: 1,
			Participants:    []string{"first@mergington.edu"},
		},
	}}
	ts := newTestServer(t, cfg, WithSeed(seed))

	resp := do(t, http.MethodPost, activityURL(ts.URL, "Tiny Club", "signup", "second@mergington.edu"))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Activity is full", decode[map[string]string](t, resp)["detail"])
}

func TestSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`activities:
  - name: Robotics
    description: Build robots
    schedule: Wednesdays, 4:00 PM - 5:30 PM
    max_participants: 8
    participants: [ada@mergington.edu]
`), 0o600))
	cfg := config.Default()
	cfg.Roster.SeedFile = path

	ts := newTestServer(t, cfg)

	activities := getActivities(t, ts.URL)
	require.Len(t, activities, 1)
	assert.Equal(t, []string{"ada@mergington.edu"}, activities["Robotics"].Participants)
}

func TestInvalidSeedFile(t *testing.T) {
	cfg := config.Default()
	cfg.Roster.SeedFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := New(cfg, WithLogger(logging.Discard()))

	assert.Error(t, err)
}

func TestInvalidReportSchedule(t *testing.T) {
	cfg := config.Default()
	cfg.Report.Schedule = "not a schedule"

	_, err := New(cfg, WithLogger(logging.Discard()))

	assert.Error(t, err)
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := do(t, http.MethodGet, ts.URL+"/health")
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, "abc-123", resp2.Header.Get(RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	do(t, http.MethodPost, activityURL(ts.URL, "Chess Club", "signup", "m@mergington.edu"))
	do(t, http.MethodPost, activityURL(ts.URL, "Nope", "signup", "m@mergington.edu"))

	resp := do(t, http.MethodGet, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, `rosterd_participants{activity="Chess Club"} 3`)
	assert.Contains(t, text, `rosterd_capacity{activity="Chess Club"} 12`)
	assert.Contains(t, text, `rosterd_signup_requests_total{activity="Chess Club",result="ok"} 1`)
	assert.Contains(t, text, `rosterd_signup_requests_total{activity="unknown",result="not_found"} 1`)
}

func TestReportEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := do(t, http.MethodGet, ts.URL+"/report")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary struct {
		Activities []struct {
			Name string `json:"name"`
		} `json:"activities"`
		TotalParticipants int `json:"total_participants"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	require.NotEmpty(t, summary.Activities)
	assert.Equal(t, "Chess Club", summary.Activities[0].Name)
	assert.Positive(t, summary.TotalParticipants)
}

func TestVersionAndConfigEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := do(t, http.MethodGet, ts.URL+"/version")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	props := decode[map[string]any](t, resp)
	assert.EqualValues(t, len(roster.DefaultSeed()), props["activities"])

	resp = do(t, http.MethodGet, ts.URL+"/config")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), ":8080")
}

func TestLogLevelEndpoint(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "rosterd.log")
	cfg := config.Default()
	cfg.Logging.Output = logPath
	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	resp := do(t, http.MethodGet, ts.URL+"/loglevel")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "INFO", decode[map[string]string](t, resp)["level"])

	resp = do(t, http.MethodPut, ts.URL+"/loglevel?level=debug")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	level, err := s.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	// Request logs are emitted at debug level, so they now reach the file.
	do(t, http.MethodGet, ts.URL+"/health")
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "log level changed")
	assert.Contains(t, string(data), `"path":"/health"`)

	require.NoError(t, s.Close())
}

func TestLogLevelFixedForInjectedLogger(t *testing.T) {
	s, err := New(config.Default(), WithLogger(logging.Discard()))
	require.NoError(t, err)

	assert.ErrorIs(t, s.SetLogLevel(slog.LevelDebug), ErrLogLevelFixed)
	assert.NoError(t, s.Close())

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	resp := do(t, http.MethodPut, ts.URL+"/loglevel?level=debug")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
