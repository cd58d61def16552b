package verification

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/backend"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
)

type resumeReply struct {
	resume *types.ResumeData
	err    error
}

type pollReply struct {
	status *types.VerificationStatus
	err    error
}

// fakeBackend replays scripted replies. The last reply of each queue repeats.
type fakeBackend struct {
	mu       sync.Mutex
	resumes  []resumeReply
	launches []error
	polls    []pollReply
	score    *types.ScoreReport
	scoreErr error
	// gate, when set, blocks FetchResume until closed or the call is canceled.
	gate chan struct{}

	calls        map[string]int
	launchedWith []types.SocialHandles

	active    atomic.Int32
	maxActive atomic.Int32
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		resumes:  []resumeReply{{resume: sampleResume()}},
		launches: []error{nil},
		polls:    []pollReply{{status: &types.VerificationStatus{ResumeID: "r1", Status: types.JobCompleted}}},
		score:    sampleScore(82),
		calls:    map[string]int{},
	}
}

func sampleResume() *types.ResumeData {
	return &types.ResumeData{
		ResumeID:         "r1",
		Name:             "Ada Lovelace",
		Email:            "ada@example.com",
		Skills:           []string{"Go", "SQL"},
		Projects:         []types.Project{{Name: "ledger"}},
		GitHubUsername:   "c-gh",
		TwitterUsername:  "c-tw",
		LinkedInUsername: "c-li",
		Status:           types.ResumeCompleted,
	}
}

func sampleScore(score float64) *types.ScoreReport {
	return &types.ScoreReport{
		ResumeID:       "r1",
		Score:          score,
		Breakdown:      types.ScoreBreakdown{GitHubScore: 90, SkillsScore: 80},
		VerifiedSkills: []string{"Go"},
	}
}

func processing() resumeReply { return resumeReply{err: backend.ErrStillProcessing} }

func pollState(state types.JobState, payload types.ErrorPayload) pollReply {
	return pollReply{status: &types.VerificationStatus{ResumeID: "r1", Status: state, Error: payload}}
}

func pop[T any](queue *[]T) T {
	next := (*queue)[0]
	if len(*queue) > 1 {
		*queue = (*queue)[1:]
	}
	return next
}

func (f *fakeBackend) enter(name string) func() {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
	n := f.active.Add(1)
	for {
		peak := f.maxActive.Load()
		if n <= peak || f.maxActive.CompareAndSwap(peak, n) {
			break
		}
	}
	return func() { f.active.Add(-1) }
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) launched() []types.SocialHandles {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.SocialHandles(nil), f.launchedWith...)
}

func (f *fakeBackend) FetchResume(ctx context.Context, _ string) (*types.ResumeData, error) {
	defer f.enter("resume")()
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &backend.Error{Op: "fetch resume", Kind: backend.KindCanceled, Cause: ctx.Err()}
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	r := pop(&f.resumes)
	return r.resume, r.err
}

func (f *fakeBackend) LaunchVerification(_ context.Context, _ string, handles types.SocialHandles) error {
	defer f.enter("launch")()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.launchedWith = append(f.launchedWith, handles)
	return pop(&f.launches)
}

func (f *fakeBackend) PollVerification(_ context.Context, _ string) (*types.VerificationStatus, error) {
	defer f.enter("poll")()
	f.mu.Lock()
	defer f.mu.Unlock()
	r := pop(&f.polls)
	return r.status, r.err
}

func (f *fakeBackend) FetchScore(_ context.Context, _ string) (*types.ScoreReport, error) {
	defer f.enter("score")()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.score, f.scoreErr
}
