package authorship

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkoval/attestor/internal/llm"
	"github.com/pkoval/attestor/internal/model"
)

// TriageVerdict is the tagged result of the cheap first-pass call.
// Any collaborator output that doesn't map cleanly becomes
// TriageUnknown rather than being silently miscategorized.
type TriageVerdict int

const (
	TriageUnknown TriageVerdict = iota
	TriageObviouslyAI
	TriageObviouslyHuman
	TriageUncertain
)

func (v TriageVerdict) String() string {
	switch v {
	case TriageObviouslyAI:
		return "obviously_ai"
	case TriageObviouslyHuman:
		return "obviously_human"
	case TriageUncertain:
		return "uncertain"
	default:
		return "unknown"
	}
}

// ParseTriageVerdict tolerantly maps free-text verdicts to the tagged
// union. Matching is by normalized substring, so "Obviously AI!" and
// "verdict: obviously_ai" both resolve.
func ParseTriageVerdict(s string) TriageVerdict {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	switch {
	case strings.Contains(norm, "obviously_ai"):
		return TriageObviouslyAI
	case strings.Contains(norm, "obviously_human"):
		return TriageObviouslyHuman
	case strings.Contains(norm, "uncertain"):
		return TriageUncertain
	default:
		return TriageUnknown
	}
}

// triageResult carries the verdict plus the coarse score used when the
// triage short-circuits
type triageResult struct {
	Verdict  TriageVerdict
	Score    int
	Evidence string
}

const triageSystem = "You are an authorship triage assistant. You judge whether a text or code file was machine-generated. Respond only with the requested JSON."

func buildTriagePrompt(unit model.ContentUnit) string {
	return fmt.Sprintf(`Classify the following %s file as machine-generated or human-written.

Respond with exactly one JSON object:
{"verdict": "obviously_ai" | "obviously_human" | "uncertain", "score": <0-100 likelihood of machine generation>, "reason": "<one sentence>"}

Use "obviously_ai" or "obviously_human" only when the call is clear-cut; otherwise use "uncertain".

File: %s
---
%s
---`, unit.Kind, unit.FileName, clipForPrompt(unit.Normalized, 6000))
}

// runTriage performs the inexpensive first-pass classification
func (c *Classifier) runTriage(ctx context.Context, unit model.ContentUnit) (triageResult, error) {
	resp, err := c.complete(ctx, llm.CompletionRequest{
		System:      triageSystem,
		Prompt:      buildTriagePrompt(unit),
		MaxTokens:   200,
		Temperature: 0,
	})
	if err != nil {
		return triageResult{}, err
	}
	result, err := parseTriageResponse(resp.Text)
	if err != nil {
		return triageResult{}, fmt.Errorf("malformed triage response: %w", err)
	}
	return result, nil
}

type triageJSON struct {
	Verdict string `json:"verdict"`
	Score   int    `json:"score"`
	Reason  string `json:"reason"`
}

var (
	reJSONObject  = regexp.MustCompile(`(?s)\{.*\}`)
	reTriageScore = regexp.MustCompile(`\b(\d{1,3})\b`)
)

// parseTriageResponse parses the collaborator output defensively:
// strict JSON first, then heuristic extraction from free text.
func parseTriageResponse(text string) (triageResult, error) {
	var parsed triageJSON
	raw := text
	if m := reJSONObject.FindString(text); m != "" {
		raw = m
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil && parsed.Verdict != "" {
		return normalizeTriage(parsed), nil
	}

	// Heuristic extraction: verdict keyword anywhere, first plausible score
	verdict := ParseTriageVerdict(text)
	if verdict == TriageUnknown && !strings.Contains(strings.ToLower(text), "verdict") {
		return triageResult{}, fmt.Errorf("no verdict found in %q", clipForPrompt(text, 120))
	}
	score := -1
	for _, m := range reTriageScore.FindAllString(text, -1) {
		if n, err := strconv.Atoi(m); err == nil && n <= 100 {
			score = n
			break
		}
	}
	if score < 0 {
		score = defaultTriageScore(verdict)
	}
	return normalizeTriage(triageJSON{Verdict: verdict.String(), Score: score, Reason: firstLine(text)}), nil
}

// normalizeTriage reconciles the verdict with the coarse score so the
// short-circuit can never land outside its category band
func normalizeTriage(parsed triageJSON) triageResult {
	verdict := ParseTriageVerdict(parsed.Verdict)
	score := model.ClampConfidence(parsed.Score)
	switch verdict {
	case TriageObviouslyAI:
		if score < 70 {
			score = 70
		}
	case TriageObviouslyHuman:
		if score > 29 {
			score = 29
		}
	}
	return triageResult{Verdict: verdict, Score: score, Evidence: parsed.Reason}
}

func defaultTriageScore(v TriageVerdict) int {
	switch v {
	case TriageObviouslyAI:
		return 85
	case TriageObviouslyHuman:
		return 10
	default:
		return 50
	}
}

func clipForPrompt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return clipForPrompt(s, 200)
}
