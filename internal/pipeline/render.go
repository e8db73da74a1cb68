package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkoval/attestor/internal/model"
)

// Renderer writes reports as JSON, Markdown and terminal summaries
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderMarkdown writes a reviewer-facing Markdown report
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Originality Report\n\n")
	fmt.Fprintf(&b, "- Submission: `%s`\n", report.SubmissionID)
	if report.Author != "" {
		fmt.Fprintf(&b, "- Author: %s\n", report.Author)
	}
	fmt.Fprintf(&b, "- Originality score: **%d/100** (%s risk)\n", report.OriginalityScore, report.RiskLevel)
	fmt.Fprintf(&b, "- Sub-scores: duplication %d/100, authorship %d/100\n", report.SubScores.Duplication, report.SubScores.Authorship)
	fmt.Fprintf(&b, "- Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))

	if !report.Availability.CrossSubmissionChecked || !report.Availability.InternalCompared || !report.Availability.AuthorshipClassified {
		b.WriteString("## Coverage\n\n")
		fmt.Fprintf(&b, "- Internal comparison: %s\n", ranOrSkipped(report.Availability.InternalCompared))
		fmt.Fprintf(&b, "- Cross-submission check: %s\n", ranOrSkipped(report.Availability.CrossSubmissionChecked))
		fmt.Fprintf(&b, "- Authorship classification: %s\n\n", ranOrSkipped(report.Availability.AuthorshipClassified))
	}

	if len(report.InternalPairs) > 0 {
		b.WriteString("## Internal Similarity\n\n")
		b.WriteString("| File A | File B | Weight | Duplication |\n")
		b.WriteString("|--------|--------|--------|-------------|\n")
		for _, p := range report.InternalPairs {
			fmt.Fprintf(&b, "| %s | %s | %.2f | %v |\n", p.FileA, p.FileB, p.Weight, p.Duplication)
		}
		b.WriteString("\n")
	}

	if len(report.CrossMatches) > 0 {
		b.WriteString("## Cross-Submission Matches\n\n")
		for _, m := range report.CrossMatches {
			fmt.Fprintf(&b, "- `%s` ~ submission `%s`", m.SourceFile, m.TargetSubmission)
			if m.TargetAuthor != "" {
				fmt.Fprintf(&b, " (%s)", m.TargetAuthor)
			}
			fmt.Fprintf(&b, ": %.2f\n", m.Score)
		}
		b.WriteString("\n")
	}

	if len(report.Verdicts) > 0 {
		b.WriteString("## Authorship\n\n")
		b.WriteString("| File | Confidence | Category | Stage |\n")
		b.WriteString("|------|-----------|----------|-------|\n")
		for _, v := range report.Verdicts {
			stage := v.Stage
			if v.DegradedConfidence {
				stage += " (degraded)"
			}
			fmt.Fprintf(&b, "| %s | %d | %s | %s |\n", v.FileName, v.Confidence, v.Category, stage)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Recommendations\n\n")
	for i, rec := range report.Recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
	}

	if len(report.UnusableFiles) > 0 {
		b.WriteString("\n## Excluded Files\n\n")
		for _, f := range report.UnusableFiles {
			fmt.Fprintf(&b, "- %s (empty or unusable after normalization)\n", f)
		}
	}

	if r.includeFooter {
		b.WriteString("\n---\n*Decision-support output for human review; not an automated verdict.*\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// RenderSummary prints a one-screen summary to stdout
func (r *Renderer) RenderSummary(report *model.Report) {
	fmt.Printf("\n")
	fmt.Printf("Originality: %d/100 (%s risk)\n", report.OriginalityScore, report.RiskLevel)
	fmt.Printf("Sub-scores:  duplication %d, authorship %d\n", report.SubScores.Duplication, report.SubScores.Authorship)

	dups := 0
	for _, p := range report.InternalPairs {
		if p.Duplication {
			dups++
		}
	}
	fmt.Printf("Findings:    %d duplicated pair(s), %d cross-submission match(es), %d unit(s) classified\n",
		dups, len(report.CrossMatches), len(report.Verdicts))
	if !report.Availability.CrossSubmissionChecked {
		fmt.Printf("Note:        cross-submission check unavailable for this run\n")
	}
	if len(report.Recommendations) > 0 {
		fmt.Printf("Assessment:  %s\n", report.Recommendations[0])
	}
	fmt.Printf("\n")
}

func ranOrSkipped(ok bool) string {
	if ok {
		return "ran"
	}
	return "skipped (degraded)"
}
