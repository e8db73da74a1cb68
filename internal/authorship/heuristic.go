package authorship

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/pkoval/attestor/internal/model"
)

// HeuristicScore is the deterministic fallback classifier used when the
// collaborator is unavailable or its output is unusable. It combines
// comment density, identifier-name entropy and line-length variance
// into a coarse machine-authorship confidence.
func HeuristicScore(unit model.ContentUnit) (int, []model.RationaleEntry) {
	text := unit.Normalized
	lines := strings.Split(text, "\n")

	density := commentDensity(lines)
	entropy := identifierEntropy(text)
	variance := lineLengthVariance(lines)

	// Each heuristic maps to a 0-100 machine-likelihood estimate.
	// Generated text tends toward dense uniform commentary, highly
	// regular identifiers and very even line lengths.
	densityScore := scaleTo100(density, 0.05, 0.45)
	entropyScore := scaleTo100(3.8-entropy, 0.0, 1.8)
	varianceScore := scaleTo100(220-variance, 0.0, 200)

	confidence := model.ClampConfidence(int(math.Round(
		0.4*float64(densityScore) + 0.3*float64(entropyScore) + 0.3*float64(varianceScore))))

	rationale := []model.RationaleEntry{
		{Dimension: "comment_density", Score: densityScore,
			Evidence: fmt.Sprintf("%.1f%% of lines are comments", density*100)},
		{Dimension: "identifier_entropy", Score: entropyScore,
			Evidence: fmt.Sprintf("mean identifier entropy %.2f bits", entropy)},
		{Dimension: "line_length_variance", Score: varianceScore,
			Evidence: fmt.Sprintf("line length variance %.1f", variance)},
	}
	return confidence, rationale
}

// commentDensity is the fraction of non-blank lines that are comments
func commentDensity(lines []string) float64 {
	total, comments := 0, 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		total++
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") ||
			strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "/*") ||
			strings.HasPrefix(trimmed, "--") {
			comments++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(comments) / float64(total)
}

var reIdentifier = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]{2,}`)

// identifierEntropy is the mean Shannon entropy (bits per character)
// across distinct identifiers. Idiosyncratic human naming runs higher;
// uniform generated naming runs lower.
func identifierEntropy(text string) float64 {
	seen := map[string]bool{}
	var sum float64
	for _, id := range reIdentifier.FindAllString(text, 2000) {
		if seen[id] {
			continue
		}
		seen[id] = true
		sum += shannonEntropy(strings.ToLower(id))
	}
	if len(seen) == 0 {
		return 0
	}
	return sum / float64(len(seen))
}

func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	freq := map[rune]int{}
	n := 0
	for _, r := range s {
		freq[r]++
		n++
	}
	var h float64
	for _, count := range freq {
		p := float64(count) / float64(n)
		h -= p * math.Log2(p)
	}
	return h
}

// lineLengthVariance measures layout evenness over non-blank lines
func lineLengthVariance(lines []string) float64 {
	var lengths []float64
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lengths = append(lengths, float64(len(line)))
	}
	if len(lengths) < 2 {
		return 0
	}
	var mean float64
	for _, l := range lengths {
		mean += l
	}
	mean /= float64(len(lengths))
	var variance float64
	for _, l := range lengths {
		variance += (l - mean) * (l - mean)
	}
	return variance / float64(len(lengths))
}

// scaleTo100 maps v linearly from [lo,hi] onto [0,100], clamped
func scaleTo100(v, lo, hi float64) int {
	if hi <= lo {
		return 0
	}
	scaled := (v - lo) / (hi - lo) * 100
	return model.ClampConfidence(int(math.Round(scaled)))
}
