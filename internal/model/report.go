package model

import "time"

// RiskLevel buckets the originality score for human review triage
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"      // score >= 85
	RiskMedium   RiskLevel = "medium"   // 70-84
	RiskHigh     RiskLevel = "high"     // 50-69
	RiskCritical RiskLevel = "critical" // < 50
)

// RiskForScore maps an originality score to its fixed band.
// Risk level is a pure function of the score, never set independently.
func RiskForScore(score int) RiskLevel {
	switch {
	case score >= 85:
		return RiskLow
	case score >= 70:
		return RiskMedium
	case score >= 50:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// Availability records which contributing subsystems actually ran.
// A flag must be false whenever its subsystem was skipped or timed out.
type Availability struct {
	InternalCompared       bool `json:"internal_compared"`
	CrossSubmissionChecked bool `json:"cross_submission_checked"`
	AuthorshipClassified   bool `json:"authorship_classified"`
}

// SubScores exposes the two distinct judgments behind the combined score:
// whether it was copied, and who wrote it.
type SubScores struct {
	Duplication int `json:"duplication"` // 0-100, higher = more original
	Authorship  int `json:"authorship"`  // 0-100, higher = more likely human
}

// Report is the terminal output of one pipeline invocation.
// Write-once: a re-run produces a new report with a new ID.
type Report struct {
	ID               string              `json:"id"` // UUID
	SubmissionID     string              `json:"submission_id"`
	Author           string              `json:"author,omitempty"`
	OriginalityScore int                 `json:"originality_score"` // 0-100
	RiskLevel        RiskLevel           `json:"risk_level"`
	SubScores        SubScores           `json:"sub_scores"`
	InternalPairs    []InternalPair      `json:"internal_pairs,omitempty"`
	CrossMatches     []SimilarityMatch   `json:"cross_matches,omitempty"`
	Verdicts         []AuthorshipVerdict `json:"verdicts,omitempty"`
	Recommendations  []string            `json:"recommendations"` // Ordered, never empty
	Availability     Availability        `json:"availability"`
	UnusableFiles    []string            `json:"unusable_files,omitempty"`
	GeneratedAt      time.Time           `json:"generated_at"`
}

// ClampScore clamps a raw score to [0,100]
func ClampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
