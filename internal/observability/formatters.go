// Package observability provides formatted terminal output for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/verification"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// wrap splits text into lines of at most width runes, breaking on spaces.
func wrap(text string, width int) []string {
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && len([]rune(line.String()))+1+len([]rune(word)) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteString(" ")
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

func writeList(sb *strings.Builder, title, marker string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("%s (%d):\n", title, len(items)))
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  %s %s\n", marker, items[i]))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
	sb.WriteString("\n")
}

// PrintUpload outputs the id assigned to a freshly uploaded resume.
func (p *Printer) PrintUpload(result *types.UploadResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Resume ID: %s\n", result.ResumeID))
	sb.WriteString(fmt.Sprintf("Status:    %s", result.Status))
	if result.Message != "" {
		sb.WriteString("\n\n" + result.Message)
	}

	p.printBox("RESUME UPLOADED", sb.String())
}

// PrintResume outputs the parsed resume fields and extracted handles.
func (p *Printer) PrintResume(resume *types.ResumeData) {
	if resume == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:     %s\n", resume.Name))
	sb.WriteString(fmt.Sprintf("Email:    %s\n", resume.Email))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", resume.Status))
	sb.WriteString("\n")

	handles := resume.Handles()
	for _, provider := range types.Providers {
		if v := handles.Get(provider); v != "" {
			sb.WriteString(fmt.Sprintf("%-9s %s\n", provider.Label()+":", v))
		}
	}
	if !handles.IsEmpty() {
		sb.WriteString("\n")
	}

	writeList(&sb, "Skills", "•", resume.Skills)
	projects := make([]string, 0, len(resume.Projects))
	for _, project := range resume.Projects {
		projects = append(projects, project.Name)
	}
	writeList(&sb, "Projects", "•", projects)

	p.printBox("PARSED RESUME", strings.TrimRight(sb.String(), "\n"))
}

// PrintScoreReport outputs the Reality Score with its breakdown and the
// verified/unverified skill and project lists.
func (p *Printer) PrintScoreReport(report *types.ScoreReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Reality Score: %.0f / 100\n\n", report.Score))

	sb.WriteString("Breakdown:\n")
	b := report.Breakdown
	for _, row := range []struct {
		label string
		value float64
	}{
		{"GitHub", b.GitHubScore},
		{"Twitter", b.TwitterScore},
		{"LinkedIn", b.LinkedInScore},
		{"Skills", b.SkillsScore},
		{"Projects", b.ProjectsScore},
	} {
		sb.WriteString(fmt.Sprintf("  %-9s %5.1f\n", row.label, row.value))
	}
	sb.WriteString("\n")

	writeList(&sb, "Verified skills", "✓", report.VerifiedSkills)
	writeList(&sb, "Unverified skills", "✗", report.UnverifiedSkills)
	writeList(&sb, "Verified projects", "✓", report.VerifiedProjects)
	writeList(&sb, "Unverified projects", "✗", report.UnverifiedProjects)

	p.printBox("REALITY SCORE", strings.TrimRight(sb.String(), "\n"))
}

// PrintFailure outputs a failed attempt's message, hint and, when a retry
// with different handles could help, the troubleshooting checklist.
func (p *Printer) PrintFailure(f *verification.Failure) {
	if f == nil {
		return
	}

	var sb strings.Builder
	for _, line := range wrap(f.Message, boxWidth-6) {
		sb.WriteString(fmt.Sprintf("⚠ %s\n", line))
	}
	if f.Hint != "" {
		sb.WriteString("\n")
		for _, line := range wrap(f.Hint, boxWidth-4) {
			sb.WriteString(line + "\n")
		}
	}
	if checklist := f.Checklist(); len(checklist) > 0 {
		sb.WriteString("\nBefore retrying:\n")
		for _, item := range checklist {
			for i, line := range wrap(item, boxWidth-8) {
				if i == 0 {
					sb.WriteString(fmt.Sprintf("  • %s\n", line))
				} else {
					sb.WriteString(fmt.Sprintf("    %s\n", line))
				}
			}
		}
	}

	title := "VERIFICATION FAILED"
	if f.NotAResume {
		title = "NOT A RESUME"
	}
	p.printBox(title, strings.TrimRight(sb.String(), "\n"))
}

// PrintProgress outputs a one-line description of a loading snapshot.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(snap verification.Snapshot) {
	line := fmt.Sprintf("[%s] %s", snap.Step, stepDescription(snap))
	if snap.Budget.Count > 0 {
		line += fmt.Sprintf(" (retry %d/%d)", snap.Budget.Count, snap.Budget.Ceiling)
	}
	fmt.Fprintln(p.out, line)
}

func stepDescription(snap verification.Snapshot) string {
	switch snap.Step {
	case verification.StepNotStarted:
		return "waiting to start"
	case verification.StepFetchingResume:
		return "fetching resume"
	case verification.StepAwaitingResume:
		return "resume still processing"
	case verification.StepLaunching:
		return "starting verification"
	case verification.StepAwaitingLaunch:
		return "resume still processing, verification will start shortly"
	case verification.StepPolling, verification.StepAwaitingPoll:
		return fmt.Sprintf("verifying (poll %d)", snap.Polls)
	case verification.StepFetchingScore:
		return "fetching score"
	case verification.StepDone:
		return "done"
	case verification.StepFailed:
		return "failed"
	}
	return string(snap.Step)
}

// PrintSnapshot renders a snapshot according to its phase: the score report
// and resume for a result, the failure for an error, otherwise progress.
func (p *Printer) PrintSnapshot(snap verification.Snapshot) {
	switch snap.Phase {
	case verification.PhaseResult:
		if snap.Result != nil {
			p.PrintResume(snap.Result.Resume)
			p.PrintScoreReport(snap.Result.Score)
		}
	case verification.PhaseError:
		p.PrintFailure(snap.Error)
	default:
		p.PrintProgress(snap)
	}
}

// PrintHandles outputs stored handles, one provider per line.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintHandles(h types.SocialHandles) {
	for _, provider := range types.Providers {
		v := h.Get(provider)
		if v == "" {
			v = "(not set)"
		}
		fmt.Fprintf(p.out, "%-9s %s\n", provider.Label()+":", v)
	}
}

// PrintInvite outputs the backend acknowledgement of an invitation.
func (p *Printer) PrintInvite(result *types.InviteResult) {
	if result == nil {
		return
	}
	content := fmt.Sprintf("To:      %s\nStatus:  %s", result.Email, result.Status)
	if result.Message != "" {
		content += "\n\n" + strings.Join(wrap(result.Message, boxWidth-4), "\n")
	}
	p.printBox("INVITATION SENT", content)
}
