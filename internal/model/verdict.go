package model

// AuthorshipCategory buckets machine-authorship confidence
type AuthorshipCategory string

const (
	CategoryAIGenerated     AuthorshipCategory = "ai_generated"     // confidence >= 70
	CategoryHeavilyAssisted AuthorshipCategory = "heavily_assisted" // 50-69
	CategoryLightlyAssisted AuthorshipCategory = "lightly_assisted" // 30-49
	CategoryHumanWritten    AuthorshipCategory = "human_written"    // < 30
)

// CategoryForConfidence maps confidence to its fixed band.
// The category is never set independently of the confidence.
func CategoryForConfidence(confidence int) AuthorshipCategory {
	switch {
	case confidence >= 70:
		return CategoryAIGenerated
	case confidence >= 50:
		return CategoryHeavilyAssisted
	case confidence >= 30:
		return CategoryLightlyAssisted
	default:
		return CategoryHumanWritten
	}
}

// RationaleEntry explains one scored dimension of an authorship verdict
type RationaleEntry struct {
	Dimension string `json:"dimension"`
	Score     int    `json:"score"`              // 0-100 for this dimension
	Evidence  string `json:"evidence,omitempty"` // Short excerpt or observation
}

// AuthorshipVerdict is the per-unit machine-authorship estimate
type AuthorshipVerdict struct {
	FileName           string             `json:"file_name"`
	Confidence         int                `json:"confidence"` // 0-100, clamped
	Category           AuthorshipCategory `json:"category"`
	Rationale          []RationaleEntry   `json:"rationale,omitempty"` // Ordered
	Stage              string             `json:"stage"`               // "triage", "deep", "heuristic"
	DegradedConfidence bool               `json:"degraded_confidence,omitempty"`
}

// ClampConfidence clamps a raw confidence to [0,100]
func ClampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
