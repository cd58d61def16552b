package verification

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/backend"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
)

// FailureKind is the broad category of a terminal error.
type FailureKind string

const (
	// KindInput needs the user to fix the file, id or handles and resubmit.
	KindInput FailureKind = "input"
	// KindTimeout means an automatic retry loop ran out of budget.
	KindTimeout FailureKind = "timeout"
	// KindVerification is a provider-side failure during verification.
	KindVerification FailureKind = "verification"
	// KindTransport covers connectivity and unexpected HTTP statuses.
	KindTransport FailureKind = "transport"
	// KindMalformed means a response did not have the expected shape.
	KindMalformed FailureKind = "malformed"
)

// Stage names where a failure happened.
const (
	StageResume = "resume"
	StageLaunch = "launch"
	StagePoll   = "poll"
	StageScore  = "score"
)

// Failure is the single user-facing error of a failed attempt.
type Failure struct {
	Kind  FailureKind    `json:"kind"`
	Class Classification `json:"class,omitempty"`
	Stage string         `json:"stage"`
	// Message is what the user sees.
	Message string `json:"message"`
	// Hint is optional guidance shown under the message.
	Hint string `json:"hint,omitempty"`
	// Detail is the raw backend text, when there was any.
	Detail string `json:"detail,omitempty"`
	// NotAResume marks uploads the backend rejected as not being a resume.
	NotAResume bool `json:"not_a_resume,omitempty"`
}

func (f *Failure) Error() string {
	return f.Message
}

// ShowHandleForm reports whether offering corrected handles could help.
func (f *Failure) ShowHandleForm() bool {
	return !f.NotAResume
}

// Checklist returns generic troubleshooting steps, or nil when no retry can
// fix the problem.
func (f *Failure) Checklist() []string {
	if f.NotAResume {
		return nil
	}
	return []string{
		"Check that the usernames are spelled correctly and the profiles are public.",
		"Leave a username empty to skip that provider.",
		"Wait a minute and retry if a provider is rate limiting requests.",
	}
}

const (
	msgMaxRetries    = "Maximum retry attempts reached while waiting for the resume to be processed. Please try again later."
	msgLaunchTimeout = "Verification could not start because the resume is still being processed after %d attempts. Large or scanned resumes can take longer to parse; wait a minute, then retry."
	msgResumeMissing = "Resume not found. Check the resume id or upload the resume again."
	msgResultMissing = "Verification result not found. Start the verification again."
	msgNotAResume    = "The uploaded file does not look like a resume. Upload a PDF or DOCX resume and try again."
	msgIncomplete    = "Make sure the resume lists your skills and projects, then upload it again."
	msgConnectivity  = "Could not reach the verification server. Check your connection and retry."
	msgRequest       = "Something went wrong while preparing the request. Please retry."
	msgMalformed     = "The server sent an unexpected response. Please retry."
	msgScoreNotReady = "Verification finished but the score is not available yet. Please retry."
)

var classMessages = map[Classification]string{
	ClassGitHubRateLimit: "GitHub API rate limit exceeded. Wait a few minutes and retry, or continue without a GitHub username.",
	ClassTwitterFailure:  "Could not verify the Twitter profile. Check the Twitter username or retry without it.",
	ClassLinkedInFailure: "Could not verify the LinkedIn profile. Check the LinkedIn username or retry without it.",
	ClassInvalidUsername: "One of the usernames could not be found. Correct it and retry.",
}

// verificationFailure turns a failed job's payload into a Failure.
func verificationFailure(stage string, p types.ErrorPayload, rules []Rule) *Failure {
	class := Classify(p, rules)
	f := &Failure{Kind: KindVerification, Class: class, Stage: stage, Detail: p.Text}
	switch {
	case classMessages[class] != "":
		f.Message = classMessages[class]
	case class == ClassMalformedPayload:
		f.Message = "Verification failed with an unexpected error: " + p.Text
	case p.IsAbsent():
		f.Message = "Verification failed. Please try again."
	default:
		f.Message = "Verification failed: " + p.Text
	}
	return f
}

func budgetFailure(stage string, attempts int) *Failure {
	if stage == StageLaunch {
		return &Failure{Kind: KindTimeout, Stage: stage, Message: fmt.Sprintf(msgLaunchTimeout, attempts)}
	}
	return &Failure{Kind: KindTimeout, Stage: stage, Message: msgMaxRetries}
}

func isNotAResume(detail string) bool {
	return strings.Contains(strings.ToLower(detail), "not a resume")
}

// failureFromError converts any error returned by the backend client. It
// never returns nil.
func failureFromError(stage string, err error, rules []Rule) *Failure {
	if errors.Is(err, backend.ErrStillProcessing) {
		return &Failure{Kind: KindMalformed, Stage: stage, Message: msgScoreNotReady}
	}

	var be *backend.Error
	if !errors.As(err, &be) {
		return &Failure{Kind: KindTransport, Stage: stage, Message: msgRequest, Detail: err.Error()}
	}

	f := &Failure{Stage: stage, Detail: be.Detail}
	switch be.Kind {
	case backend.KindNotFound:
		f.Kind = KindInput
		f.Message = msgResumeMissing
		if stage == StagePoll || stage == StageScore {
			f.Message = msgResultMissing
		}
	case backend.KindInvalidInput:
		f.Kind = KindInput
		f.Message = be.Detail
		if f.Message == "" {
			f.Message = "The request was rejected."
		}
		if strings.Contains(strings.ToLower(be.Detail), "resume data incomplete") {
			f.Hint = msgIncomplete
		}
	case backend.KindUpstream:
		if stage == StageResume {
			f.Kind = KindInput
			f.Message = "Resume processing failed: " + be.Detail
			break
		}
		return verificationFailure(stage, types.ErrorPayload{Text: be.Detail}, rules)
	case backend.KindStatus:
		f.Kind = KindTransport
		f.Message = fmt.Sprintf("The server returned an error (status %d).", be.StatusCode)
		if be.Detail != "" {
			f.Message = fmt.Sprintf("The server returned an error (status %d): %s", be.StatusCode, be.Detail)
		}
	case backend.KindNoResponse:
		f.Kind = KindTransport
		f.Message = msgConnectivity
	case backend.KindMalformed:
		f.Kind = KindMalformed
		f.Message = msgMalformed
		if f.Detail == "" && be.Cause != nil {
			f.Detail = be.Cause.Error()
		}
	default:
		f.Kind = KindTransport
		f.Message = msgRequest
	}

	if isNotAResume(be.Detail) {
		f.Kind = KindInput
		f.NotAResume = true
		f.Message = msgNotAResume
	}
	return f
}
