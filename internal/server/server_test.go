package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/backend"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/credentials"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/server/ratelimit"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/verification"
)

const upstreamScore = `{
	"resume_id": "r1",
	"score": 82,
	"breakdown": {"github_score": 90, "twitter_score": 60, "linkedin_score": 70, "skills_score": 85, "projects_score": 80},
	"verified_skills": ["Go"],
	"unverified_skills": [],
	"verified_projects": ["ledger"],
	"unverified_projects": []
}`

// upstream imitates the verification backend.
type upstream struct {
	mu       sync.Mutex
	launched []types.SocialHandles
	// pollState is returned by the status endpoint.
	pollState string
	pollError string
}

func (u *upstream) handler() http.Handler {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body) //nolint:errcheck
	}

	mux.HandleFunc("GET /api/resume/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			write(w, http.StatusNotFound, `{"detail": "Resume not found"}`)
			return
		}
		write(w, http.StatusOK, `{"resume_id": "`+r.PathValue("id")+`", "name": "Ada", "email": "ada@example.com",
			"skills": ["Go"], "projects": ["ledger"], "github_username": "resume-gh", "status": "completed"}`)
	})
	mux.HandleFunc("POST /api/verification/{id}", func(w http.ResponseWriter, r *http.Request) {
		var h types.SocialHandles
		json.NewDecoder(r.Body).Decode(&h) //nolint:errcheck
		u.mu.Lock()
		u.launched = append(u.launched, h)
		u.mu.Unlock()
		write(w, http.StatusOK, `{"message": "Verification started"}`)
	})
	mux.HandleFunc("GET /api/verification/{id}", func(w http.ResponseWriter, _ *http.Request) {
		u.mu.Lock()
		state, payload := u.pollState, u.pollError
		u.mu.Unlock()
		if state == "" {
			state = "completed"
		}
		body := `{"status": "` + state + `"`
		if payload != "" {
			body += `, "error": "` + payload + `"`
		}
		write(w, http.StatusOK, body+"}")
	})
	mux.HandleFunc("GET /api/score/{id}", func(w http.ResponseWriter, _ *http.Request) {
		write(w, http.StatusOK, upstreamScore)
	})
	mux.HandleFunc("POST /api/invite/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "noemail" {
			write(w, http.StatusBadRequest, `{"detail": "No email found for this candidate"}`)
			return
		}
		write(w, http.StatusOK, `{"resume_id": "`+r.PathValue("id")+`", "email": "ada@example.com", "status": "sent", "message": "Invitation sent"}`)
	})
	return mux
}

func (u *upstream) setPoll(state, payload string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pollState, u.pollError = state, payload
}

func (u *upstream) lastLaunch() types.SocialHandles {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.launched) == 0 {
		return types.SocialHandles{}
	}
	return u.launched[len(u.launched)-1]
}

type testEnv struct {
	server   *Server
	http     *httptest.Server
	upstream *upstream
	factory  *credentials.Factory
}

func newTestEnv(t *testing.T, rl *ratelimit.Config) *testEnv {
	t.Helper()
	up := &upstream{}
	backendSrv := httptest.NewServer(up.handler())
	t.Cleanup(backendSrv.Close)

	factory, err := credentials.NewFactory(context.Background(), configForMemory())
	require.NoError(t, err)

	if rl == nil {
		rl = &ratelimit.Config{Enabled: false}
	}
	s, err := New(Config{
		Backend: backend.New(&backend.Options{BaseURL: backendSrv.URL, Timeout: 5 * time.Second}),
		Stores:  factory,
		Policy: verification.Policy{
			ResumeRetryDelay: time.Millisecond,
			LaunchRetryDelay: time.Millisecond,
			PollInterval:     time.Millisecond,
			MaxRetries:       3,
		},
		RateLimit: rl,
		Logger:    log.New(io.Discard, "", 0),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.sessions.CloseAll()
		srv.Close()
		s.rateLimiter.Stop()
	})
	return &testEnv{server: s, http: srv, upstream: up, factory: factory}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.http.URL+path, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeSession(t *testing.T, data []byte) SessionResponse {
	t.Helper()
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(data, &resp), string(data))
	return resp
}

func (e *testEnv) waitTerminal(t *testing.T, id string) verification.Snapshot {
	t.Helper()
	sess, err := e.server.sessions.Get(id)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := sess.Orchestrator.Wait(ctx)
	require.NoError(t, err)
	return snap
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, data := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["sessions"])
}

func TestStartSession_RunsToResult(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, data := env.do(t, http.MethodPost, "/api/sessions/r1", `{"scope": "browser-1", "github_username": "override-gh"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(data))
	started := decodeSession(t, data)
	assert.Equal(t, "browser-1", started.Scope)
	assert.Equal(t, "r1", started.ResumeID)

	snap := env.waitTerminal(t, "r1")
	require.Equal(t, verification.PhaseResult, snap.Phase, "error: %+v", snap.Error)
	assert.Equal(t, "override-gh", env.upstream.lastLaunch().GitHub)

	resp, data = env.do(t, http.MethodGet, "/api/sessions/r1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeSession(t, data)
	assert.Equal(t, verification.PhaseResult, got.Phase)
	require.NotNil(t, got.Result)
	assert.Equal(t, 82.0, got.Result.Score.Score)
	assert.Equal(t, "Ada", got.Result.Resume.Name)
}

func TestStartSession_ExistingSessionReturned(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodPost, "/api/sessions/r1", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, data := env.do(t, http.MethodPost, "/api/sessions/r1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decodeSession(t, data).Scope, "a scope is generated when none is given")
	assert.Equal(t, 1, env.server.sessions.Len())
}

func TestStartSession_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"unknown field", `{"facebook_username": "x"}`},
		{"handle too long", `{"github_username": "` + strings.Repeat("a", 101) + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := env.do(t, http.MethodPost, "/api/sessions/r1", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, string(data), "validation error")
		})
	}
	assert.Equal(t, 0, env.server.sessions.Len())
}

func TestSession_UnknownResume(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodPost, "/api/sessions/missing", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	snap := env.waitTerminal(t, "missing")
	require.Equal(t, verification.PhaseError, snap.Phase)
	assert.Equal(t, verification.KindInput, snap.Error.Kind)
}

func TestSession_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/sessions/nope"},
		{http.MethodGet, "/api/sessions/nope/events"},
		{http.MethodPost, "/api/sessions/nope/retry"},
		{http.MethodDelete, "/api/sessions/nope"},
	} {
		resp, data := env.do(t, tc.method, tc.path, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "%s %s", tc.method, tc.path)
		assert.Contains(t, string(data), "no verification session")
	}
}

func TestRetrySession_UsesCorrectedHandles(t *testing.T) {
	env := newTestEnv(t, nil)
	env.upstream.setPoll("error", "GitHub user not found")

	resp, _ := env.do(t, http.MethodPost, "/api/sessions/r1", `{"scope": "s1"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	snap := env.waitTerminal(t, "r1")
	require.Equal(t, verification.PhaseError, snap.Phase)
	assert.Equal(t, verification.ClassInvalidUsername, snap.Error.Class)
	assert.Equal(t, "resume-gh", env.upstream.lastLaunch().GitHub)

	env.upstream.setPoll("completed", "")

	resp, data := env.do(t, http.MethodPost, "/api/sessions/r1/retry", `{"github_username": "fixed-gh"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(data))

	require.Eventually(t, func() bool {
		sess, err := env.server.sessions.Get("r1")
		return err == nil && sess.Orchestrator.Snapshot().Phase == verification.PhaseResult
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, "fixed-gh", env.upstream.lastLaunch().GitHub)

	handles, err := credentials.Load(context.Background(), env.factory.Store("s1"))
	require.NoError(t, err)
	assert.True(t, handles.IsEmpty(), "handles purged after the verified run")
}

func TestDeleteSession(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	require.NoError(t, env.factory.Store("s2").Set(ctx, types.ProviderTwitter, "tw"))
	env.upstream.setPoll("processing", "")

	resp, _ := env.do(t, http.MethodPost, "/api/sessions/r1", `{"scope": "s2"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, "/api/sessions/r1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, env.server.sessions.Len())

	v, err := env.factory.Store("s2").Get(ctx, types.ProviderTwitter)
	require.NoError(t, err)
	assert.Empty(t, v, "teardown clears stored handles")
}

// readEvents parses an SSE body into event names and data payloads.
func readEvents(t *testing.T, body io.Reader) ([]string, []string) {
	t.Helper()
	var names, payloads []string
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			names = append(names, strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			payloads = append(payloads, strings.TrimPrefix(line, "data: "))
		}
	}
	return names, payloads
}

func TestSessionEvents_StreamsUntilResult(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodPost, "/api/sessions/r1", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	stream, err := http.Get(env.http.URL + "/api/sessions/r1/events")
	require.NoError(t, err)
	defer stream.Body.Close()
	assert.Equal(t, "text/event-stream", stream.Header.Get("Content-Type"))

	names, payloads := readEvents(t, stream.Body)
	require.NotEmpty(t, names)
	assert.Equal(t, "complete", names[len(names)-1])
	assert.Contains(t, payloads[len(payloads)-1], `"phase":"result"`)

	var last verification.Snapshot
	require.NoError(t, json.Unmarshal([]byte(payloads[len(payloads)-2]), &last))
	assert.Equal(t, verification.PhaseResult, last.Phase)
	for _, name := range names[:len(names)-1] {
		assert.Equal(t, "snapshot", name)
	}
}

func TestSessionEvents_ClosedByDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	env.upstream.setPoll("processing", "")

	resp, _ := env.do(t, http.MethodPost, "/api/sessions/r1", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	stream, err := http.Get(env.http.URL + "/api/sessions/r1/events")
	require.NoError(t, err)
	defer stream.Body.Close()

	done := make(chan []string, 1)
	go func() {
		_, payloads := readEvents(t, stream.Body)
		done <- payloads
	}()

	require.Eventually(t, func() bool {
		sess, err := env.server.sessions.Get("r1")
		return err == nil && sess.Orchestrator.Snapshot().Polls > 1
	}, 5*time.Second, 5*time.Millisecond)
	resp, _ = env.do(t, http.MethodDelete, "/api/sessions/r1", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	select {
	case payloads := <-done:
		require.NotEmpty(t, payloads)
		assert.Contains(t, payloads[len(payloads)-1], `"phase":"closed"`)
	case <-time.After(5 * time.Second):
		t.Fatal("event stream did not end after delete")
	}
}

func TestInvite(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, data := env.do(t, http.MethodPost, "/api/invite/r1", `{"message": "Join us", "interview_date": "2026-11-02"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var result types.InviteResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "sent", result.Status)
	assert.Equal(t, "ada@example.com", result.Email)

	resp, data = env.do(t, http.MethodPost, "/api/invite/noemail", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(data), "No email found for this candidate")

	resp, _ = env.do(t, http.MethodPost, "/api/invite/r1", `{"message": "`+strings.Repeat("x", 5001)+`"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCORSMiddleware(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodOptions, "/api/sessions/r1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "DELETE")
	assert.Equal(t, 0, env.server.sessions.Len(), "preflight does not reach handlers")
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  2,
		DefaultWindow: time.Hour,
	})

	for i := 0; i < 2; i++ {
		resp, _ := env.do(t, http.MethodGet, "/api/sessions/r1", "")
		assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	}

	resp, data := env.do(t, http.MethodGet, "/api/sessions/r1", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.Contains(t, string(data), "rate_limit_exceeded")

	resp, _ = env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health is never limited")
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Backend: backend.New(nil)})
	assert.Error(t, err)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	factory, err := credentials.NewFactory(context.Background(), configForMemory())
	require.NoError(t, err)
	s, err := New(Config{
		Backend:   backend.New(nil),
		Stores:    factory,
		RateLimit: &ratelimit.Config{Enabled: false},
		Logger:    log.New(io.Discard, "", 0),
	})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
