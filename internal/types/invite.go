package types

import "github.com/go-playground/validator/v10"

// InviteRequest asks the backend to email an interview invitation.
type InviteRequest struct {
	Message           string `json:"message,omitempty" validate:"omitempty,max=5000"`
	InterviewDate     string `json:"interview_date,omitempty" validate:"omitempty,max=100"`
	InterviewLocation string `json:"interview_location,omitempty" validate:"omitempty,max=200"`
}

// InviteResult is the backend acknowledgement of a sent invitation.
type InviteResult struct {
	ResumeID string `json:"resume_id"`
	Email    string `json:"email"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// Validate validates the InviteRequest using the validator.
func (r *InviteRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
