package verification

import (
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
)

// Phase is the externally visible state of an orchestrator.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseError   Phase = "error"
	PhaseResult  Phase = "result"
)

// Step is the finer-grained position inside PhaseLoading.
type Step string

const (
	StepNotStarted     Step = "not_started"
	StepFetchingResume Step = "fetching_resume"
	StepAwaitingResume Step = "awaiting_resume"
	StepLaunching      Step = "launching"
	StepAwaitingLaunch Step = "awaiting_launch"
	StepPolling        Step = "polling"
	StepAwaitingPoll   Step = "awaiting_poll"
	StepFetchingScore  Step = "fetching_score"
	StepDone           Step = "done"
	StepFailed         Step = "failed"
)

// Snapshot is a consistent copy of the orchestrator state.
type Snapshot struct {
	ResumeID  string `json:"resume_id"`
	AttemptID string `json:"attempt_id,omitempty"`
	Phase     Phase  `json:"phase"`
	Step      Step   `json:"step"`
	// Verifying is false until the launch request has been issued.
	Verifying bool                      `json:"verifying"`
	Job       types.JobState            `json:"job"`
	Budget    RetryBudget               `json:"budget"`
	Polls     int                       `json:"polls"`
	Handles   types.SocialHandles       `json:"handles"`
	Error     *Failure                  `json:"error,omitempty"`
	Result    *types.VerificationResult `json:"result,omitempty"`
	Closed    bool                      `json:"closed,omitempty"`
	// Version increases with every published change.
	Version uint64 `json:"version"`
}

// Started reports whether any attempt has begun.
func (s Snapshot) Started() bool {
	return s.Step != StepNotStarted
}

// Terminal reports whether no further automatic progress will happen.
func (s Snapshot) Terminal() bool {
	return s.Phase != PhaseLoading || s.Closed
}
