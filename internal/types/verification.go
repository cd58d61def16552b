package types

// JobState is the lifecycle state of a verification job.
type JobState string

const (
	JobNotStarted JobState = "not_started"
	JobProcessing JobState = "processing"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "error"
)

// IsTerminal reports whether no further polling should happen.
func (s JobState) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed
}

// ErrorPayload is the normalized form of a job's error field. The backend may
// send a plain string, nothing at all, or a nested JSON value.
type ErrorPayload struct {
	// Text is the message, or the compact JSON encoding of a nested payload.
	Text string `json:"text,omitempty"`
	// Structured is true when the payload was a JSON object or array.
	Structured bool `json:"structured,omitempty"`
}

// IsAbsent reports whether the job failed without any error detail.
func (p ErrorPayload) IsAbsent() bool {
	return p.Text == "" && !p.Structured
}

// VerificationStatus is one poll response for a verification job.
type VerificationStatus struct {
	ResumeID string       `json:"resume_id"`
	Status   JobState     `json:"status"`
	Message  string       `json:"message,omitempty"`
	Error    ErrorPayload `json:"error,omitempty"`
}
