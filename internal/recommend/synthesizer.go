package recommend

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pkoval/attestor/internal/llm"
	"github.com/pkoval/attestor/internal/model"
	"github.com/pkoval/attestor/internal/worker"
)

const serviceElaborate = "elaborate"

// Synthesizer turns aggregated findings into ordered, structured
// guidance. The template path is deterministic and never empty; the
// collaborator only elaborates on top of it.
type Synthesizer struct {
	provider llm.Provider // nil = template only
	limiter  *worker.Limiter
	verbose  bool
}

// NewSynthesizer creates a synthesizer. provider may be nil.
func NewSynthesizer(provider llm.Provider, limiter *worker.Limiter, verbose bool) *Synthesizer {
	return &Synthesizer{provider: provider, limiter: limiter, verbose: verbose}
}

// Synthesize produces the ordered recommendation list for a report.
// Order: overall assessment, one block per finding category, generic
// guidance. Falls back to the template output when the elaboration
// call fails or returns malformed output.
func (s *Synthesizer) Synthesize(ctx context.Context, report *model.Report) []string {
	base := s.template(report)

	if s.provider == nil {
		return base
	}

	elaborated, err := s.elaborate(ctx, report, base)
	if err != nil {
		if s.verbose {
			fmt.Fprintf(os.Stderr, "Warning: recommendation elaboration failed: %v\n", err)
		}
		return base
	}
	return elaborated
}

// template is the deterministic fallback path
func (s *Synthesizer) template(report *model.Report) []string {
	recs := []string{overallAssessment(report)}

	if block := authorshipBlock(report); block != "" {
		recs = append(recs, block)
	}
	if block := internalDuplicationBlock(report); block != "" {
		recs = append(recs, block)
	}
	if block := crossSubmissionBlock(report); block != "" {
		recs = append(recs, block)
	}

	recs = append(recs,
		"General guidance: keep drafts and working notes so independent authorship can be demonstrated on request.",
		"General guidance: cite or attribute any reused material, including your own prior submissions.",
	)
	return recs
}

// overallAssessment picks the severity-appropriate opening sentence
func overallAssessment(report *model.Report) string {
	switch report.RiskLevel {
	case model.RiskLow:
		return fmt.Sprintf("Overall assessment: originality score %d/100 (low risk); no action required beyond routine review.", report.OriginalityScore)
	case model.RiskMedium:
		return fmt.Sprintf("Overall assessment: originality score %d/100 (medium risk); reviewer should skim the flagged findings below.", report.OriginalityScore)
	case model.RiskHigh:
		return fmt.Sprintf("Overall assessment: originality score %d/100 (high risk); reviewer attention is required on every finding below.", report.OriginalityScore)
	default:
		return fmt.Sprintf("Overall assessment: originality score %d/100 (critical risk); escalate to a human reviewer before accepting this submission.", report.OriginalityScore)
	}
}

func authorshipBlock(report *model.Report) string {
	var flagged []model.AuthorshipVerdict
	for _, v := range report.Verdicts {
		if v.Category == model.CategoryAIGenerated || v.Category == model.CategoryHeavilyAssisted {
			flagged = append(flagged, v)
		}
	}
	if len(flagged) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Authorship finding: ")
	for i, v := range flagged {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s classified %s (confidence %d)", v.FileName, v.Category, v.Confidence)
		if v.DegradedConfidence {
			b.WriteString(" [degraded: heuristic fallback]")
		}
	}
	b.WriteString(". Required actions: 1. Discuss the flagged files with the author. 2. Request an explanation of the approach in their own words. 3. Record the outcome alongside this report.")
	return b.String()
}

func internalDuplicationBlock(report *model.Report) string {
	var dups []model.InternalPair
	for _, p := range report.InternalPairs {
		if p.Duplication {
			dups = append(dups, p)
		}
	}
	if len(dups) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Internal duplication finding: ")
	for i, p := range dups {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s and %s overlap with combined weight %.2f", p.FileA, p.FileB, p.Weight)
	}
	b.WriteString(". Required actions: 1. Confirm whether duplicated files were intended (e.g. templates). 2. Ask the author to consolidate or attribute repeated material.")
	return b.String()
}

func crossSubmissionBlock(report *model.Report) string {
	if len(report.CrossMatches) == 0 {
		return ""
	}
	best := report.CrossMatches[0]

	var b strings.Builder
	fmt.Fprintf(&b, "Cross-submission finding: %s matches prior submission %s", best.SourceFile, best.TargetSubmission)
	if best.TargetAuthor != "" {
		fmt.Fprintf(&b, " by %s", best.TargetAuthor)
	}
	fmt.Fprintf(&b, " with similarity %.2f", best.Score)
	if len(report.CrossMatches) > 1 {
		fmt.Fprintf(&b, " (%d further matches recorded)", len(report.CrossMatches)-1)
	}
	b.WriteString(". Required actions: 1. Compare the matched material side by side. 2. Verify whether the prior submission is by the same author under another account. 3. Escalate if the overlap is substantive.")
	return b.String()
}

const elaborateSystem = "You rewrite originality-review findings as clear reviewer guidance. Preserve every finding, number every required action, add nothing that is not in the findings."

// elaborate asks the collaborator for a polished version of the
// template guidance; output is validated before being trusted
func (s *Synthesizer) elaborate(ctx context.Context, report *model.Report, base []string) ([]string, error) {
	prompt := fmt.Sprintf(`Rewrite the following originality findings as an ordered recommendation list. One line per entry. Keep the first line an overall assessment, keep every finding, keep all numbered actions.

Findings:
%s`, strings.Join(base, "\n"))

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, serviceElaborate); err != nil {
			return nil, err
		}
	}
	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		System:      elaborateSystem,
		Prompt:      prompt,
		MaxTokens:   800,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, err
	}

	lines := parseElaboration(resp.Text)
	// Malformed output (empty, or it dropped findings) falls back
	if len(lines) < len(base)-1 {
		return nil, fmt.Errorf("elaborated output has %d entries, expected at least %d", len(lines), len(base)-1)
	}
	return lines, nil
}

// parseElaboration splits the completion into entries, stripping list
// markers the model may add
func parseElaboration(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
