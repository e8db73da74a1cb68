package authorship

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkoval/attestor/internal/llm"
	"github.com/pkoval/attestor/internal/model"
)

// Dimension is one independently scored axis of the deep analysis
type Dimension struct {
	Key    string
	Weight float64
	Hint   string
}

// Dimensions, in report order. Weights sum to 1.0; the final confidence
// is the weighted sum of the per-dimension scores.
var Dimensions = []Dimension{
	{"documentation", 0.25, "comment/docstring style: exhaustive, uniformly phrased documentation suggests generation"},
	{"structure", 0.20, "formatting and layout: perfectly regular structure with no drift suggests generation"},
	{"naming", 0.20, "identifier conventions: relentlessly descriptive, uniform naming suggests generation"},
	{"error_handling", 0.15, "error handling: textbook-complete handling of improbable failures suggests generation"},
	{"complexity", 0.10, "approach: generic canonical solutions over idiosyncratic ones suggest generation"},
	{"personal_style", 0.10, "personal fingerprint: absence of habits, shortcuts or quirks suggests generation"},
}

const deepSystem = "You are an authorship analyst. Score each requested dimension independently on a 0-100 machine-generation likelihood. Respond only with the requested JSON."

func buildDeepPrompt(unit model.ContentUnit) string {
	var dims strings.Builder
	for _, d := range Dimensions {
		fmt.Fprintf(&dims, "- %q: %s\n", d.Key, d.Hint)
	}
	return fmt.Sprintf(`Analyze the following %s file for machine authorship. Score each dimension independently, 0 (clearly human) to 100 (clearly machine):

%s
Respond with exactly one JSON object mapping each dimension key to {"score": <0-100>, "evidence": "<short excerpt or observation>"}.

File: %s
---
%s
---`, unit.Kind, dims.String(), unit.FileName, clipForPrompt(unit.Normalized, 12000))
}

// runDeepAnalysis performs the expensive six-dimension analysis
func (c *Classifier) runDeepAnalysis(ctx context.Context, unit model.ContentUnit) ([]model.RationaleEntry, int, error) {
	resp, err := c.complete(ctx, llm.CompletionRequest{
		System:      deepSystem,
		Prompt:      buildDeepPrompt(unit),
		MaxTokens:   800,
		Temperature: 0,
	})
	if err != nil {
		return nil, 0, err
	}

	rationale, confidence, err := parseDeepResponse(resp.Text)
	if err != nil {
		return nil, 0, fmt.Errorf("malformed deep analysis response: %w", err)
	}
	return rationale, confidence, nil
}

type deepDimensionJSON struct {
	Score    int    `json:"score"`
	Evidence string `json:"evidence"`
}

// parseDeepResponse extracts per-dimension scores defensively: strict
// JSON first, then per-dimension regex over the raw text. A dimension
// that cannot be recovered at all fails the parse (the caller falls
// back to the heuristic) - partial rationale is worse than none.
func parseDeepResponse(text string) ([]model.RationaleEntry, int, error) {
	byKey := map[string]deepDimensionJSON{}

	raw := text
	if m := reJSONObject.FindString(text); m != "" {
		raw = m
	}
	if err := json.Unmarshal([]byte(raw), &byKey); err != nil {
		byKey = map[string]deepDimensionJSON{}
	}

	var rationale []model.RationaleEntry
	weighted := 0.0
	for _, d := range Dimensions {
		entry, ok := byKey[d.Key]
		if !ok {
			score, found := extractDimensionScore(text, d.Key)
			if !found {
				return nil, 0, fmt.Errorf("dimension %q missing from response", d.Key)
			}
			entry = deepDimensionJSON{Score: score}
		}
		score := model.ClampConfidence(entry.Score)
		weighted += float64(score) * d.Weight
		rationale = append(rationale, model.RationaleEntry{
			Dimension: d.Key,
			Score:     score,
			Evidence:  clipForPrompt(entry.Evidence, 200),
		})
	}

	return rationale, int(math.Round(weighted)), nil
}

// extractDimensionScore recovers a single score from free text, e.g.
// `naming: 72` or `"naming" ... "score": 72`
func extractDimensionScore(text, key string) (int, bool) {
	re := regexp.MustCompile(`(?i)"?` + regexp.QuoteMeta(key) + `"?\D{0,20}(\d{1,3})`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n > 100 {
		return 0, false
	}
	return n, true
}
