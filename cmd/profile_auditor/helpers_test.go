package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
)

const fakeScore = `{
	"resume_id": "r1",
	"score": 74,
	"breakdown": {"github_score": 80, "twitter_score": 50, "linkedin_score": 70, "skills_score": 90, "projects_score": 60},
	"verified_skills": ["Go", "SQL"],
	"unverified_skills": ["Haskell"],
	"verified_projects": ["ledger"],
	"unverified_projects": []
}`

// fakeBackend imitates the verification backend.
type fakeBackend struct {
	mu        sync.Mutex
	launched  []types.SocialHandles
	uploads   []string
	pollState string
	pollError string
}

func newFakeBackend(t *testing.T) (*fakeBackend, string) {
	t.Helper()
	fb := &fakeBackend{pollState: "completed"}
	srv := httptest.NewServer(fb.handler())
	t.Cleanup(srv.Close)
	return fb, srv.URL
}

func (fb *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body) //nolint:errcheck
	}

	mux.HandleFunc("POST /api/resume/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			write(w, http.StatusBadRequest, `{"detail": "bad form"}`)
			return
		}
		fb.mu.Lock()
		fb.uploads = append(fb.uploads, r.FormValue("name"))
		fb.mu.Unlock()
		write(w, http.StatusOK, `{"resume_id": "r-new", "status": "processing", "message": "Resume uploaded successfully"}`)
	})
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
		fb.mu.Lock()
		fb.launched = append(fb.launched, h)
		fb.mu.Unlock()
		write(w, http.StatusOK, `{"message": "Verification started"}`)
	})
	mux.HandleFunc("GET /api/verification/{id}", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		state, payload := fb.pollState, fb.pollError
		fb.mu.Unlock()
		body := `{"resume_id": "` + r.PathValue("id") + `", "status": "` + state + `"`
		if payload != "" {
			body += `, "error": "` + payload + `"`
		}
		write(w, http.StatusOK, body+"}")
	})
	mux.HandleFunc("GET /api/score/{id}", func(w http.ResponseWriter, _ *http.Request) {
		write(w, http.StatusOK, fakeScore)
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

func (fb *fakeBackend) setPoll(state, payload string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.pollState, fb.pollError = state, payload
}

func (fb *fakeBackend) lastLaunch() types.SocialHandles {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if len(fb.launched) == 0 {
		return types.SocialHandles{}
	}
	return fb.launched[len(fb.launched)-1]
}

// prepare restores every flag to its default so package-level flag variables
// do not leak between executions. Cobra keeps the first context a command ran
// with, so each command gets ctx explicitly.
func prepare(ctx context.Context, cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	cmd.SetContext(ctx)
	for _, c := range cmd.Commands() {
		prepare(ctx, c)
	}
}

// execute runs the CLI in-process and returns what it wrote to stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	prepare(ctx, rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

// baseArgs points the CLI at the fake backend with a file store under t's temp dir.
func baseArgs(t *testing.T, url string) []string {
	t.Helper()
	return []string{
		"--api-url", url,
		"--store", "file",
		"--credential-path", filepath.Join(t.TempDir(), "credentials.json"),
	}
}
