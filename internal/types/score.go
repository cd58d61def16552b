package types

// ScoreBreakdown holds the per-category scores behind the overall score.
type ScoreBreakdown struct {
	GitHubScore   float64 `json:"github_score"`
	TwitterScore  float64 `json:"twitter_score"`
	LinkedInScore float64 `json:"linkedin_score"`
	SkillsScore   float64 `json:"skills_score"`
	ProjectsScore float64 `json:"projects_score"`
}

// ScoreReport is the final Reality Score for a resume.
type ScoreReport struct {
	ResumeID           string         `json:"resume_id"`
	Score              float64        `json:"score"`
	Breakdown          ScoreBreakdown `json:"breakdown"`
	VerifiedSkills     []string       `json:"verified_skills"`
	UnverifiedSkills   []string       `json:"unverified_skills"`
	VerifiedProjects   []string       `json:"verified_projects"`
	UnverifiedProjects []string       `json:"unverified_projects"`
}

// VerificationResult combines the score with the resume it was computed for.
type VerificationResult struct {
	Score  *ScoreReport `json:"score"`
	Resume *ResumeData  `json:"resume"`
}
