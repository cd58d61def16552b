// Package types provides the data model shared by the backend client, the
// verification orchestrator and the local server.
package types

// ResumeStatus is the processing state reported by the resume endpoint.
type ResumeStatus string

const (
	ResumeProcessing ResumeStatus = "processing"
	ResumeCompleted  ResumeStatus = "completed"
	ResumeError      ResumeStatus = "error"
)

// Project is a project entry extracted from a resume.
type Project struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ResumeData holds the parsed resume fields returned by the backend.
type ResumeData struct {
	ResumeID         string           `json:"resume_id"`
	Name             string           `json:"name,omitempty"`
	Email            string           `json:"email,omitempty"`
	Phone            string           `json:"phone,omitempty"`
	Skills           []string         `json:"skills"`
	Projects         []Project        `json:"projects"`
	Experience       []map[string]any `json:"experience,omitempty"`
	Education        []map[string]any `json:"education,omitempty"`
	GitHubUsername   string           `json:"github_username,omitempty"`
	TwitterUsername  string           `json:"twitter_username,omitempty"`
	LinkedInUsername string           `json:"linkedin_username,omitempty"`
	Status           ResumeStatus     `json:"status"`
}

// Handles returns the social handles extracted from the resume.
func (r *ResumeData) Handles() SocialHandles {
	if r == nil {
		return SocialHandles{}
	}
	return SocialHandles{
		GitHub:   r.GitHubUsername,
		Twitter:  r.TwitterUsername,
		LinkedIn: r.LinkedInUsername,
	}
}

// UploadResult is the backend acknowledgement of a resume upload.
type UploadResult struct {
	ResumeID string       `json:"resume_id"`
	Message  string       `json:"message,omitempty"`
	Status   ResumeStatus `json:"status"`
}
