package verification

import (
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
)

// Event is anything Advance reacts to. Callers send Start, Retry and
// Teardown; the orchestrator produces the rest itself.
type Event interface {
	event()
}

// Start begins the first attempt.
type Start struct{}

// Retry resets the attempt. Non-empty handles replace the stored credentials
// and take precedence over earlier overrides.
type Retry struct {
	Handles types.SocialHandles
}

// Teardown cancels pending work and purges the credential store.
type Teardown struct{}

type resumeFetched struct {
	gen    uint64
	resume *types.ResumeData
	err    error
}

type launchFinished struct {
	gen uint64
	err error
}

type pollFinished struct {
	gen    uint64
	status *types.VerificationStatus
	err    error
}

type scoreFetched struct {
	gen   uint64
	score *types.ScoreReport
	err   error
}

type timerFired struct {
	gen  uint64
	seq  uint64
	next Step
}

func (Start) event()          {}
func (Retry) event()          {}
func (Teardown) event()       {}
func (resumeFetched) event()  {}
func (launchFinished) event() {}
func (pollFinished) event()   {}
func (scoreFetched) event()   {}
func (timerFired) event()     {}
