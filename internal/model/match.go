package model

// MatchKind classifies how a similarity match was found
type MatchKind string

const (
	MatchLexical    MatchKind = "lexical"    // Character-level block alignment
	MatchStructural MatchKind = "structural" // Naming-independent skeleton alignment
	MatchSemantic   MatchKind = "semantic"   // Embedding nearest-neighbor retrieval
)

// Span is an offset range [Start, End) within one side of a match
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// SpanPair links a span in the source unit to the matching span in the target
type SpanPair struct {
	Source Span `json:"source"`
	Target Span `json:"target"`
}

// SimilarityMatch records one detected similarity. Read-only once produced.
// Target is either a sibling unit of the same submission (TargetFile set)
// or a prior submission (TargetSubmission set).
type SimilarityMatch struct {
	SourceFile       string     `json:"source_file"`
	TargetFile       string     `json:"target_file,omitempty"`
	TargetSubmission string     `json:"target_submission,omitempty"`
	TargetAuthor     string     `json:"target_author,omitempty"`
	Kind             MatchKind  `json:"kind"`
	Score            float64    `json:"score"` // [0,1]
	Spans            []SpanPair `json:"spans"` // Ordered, never empty
	Excerpt          string     `json:"excerpt,omitempty"`
	ParseFailed      bool       `json:"parse_failed,omitempty"`
}

// InternalPair is a scored comparison of two sibling units
type InternalPair struct {
	FileA       string  `json:"file_a"`
	FileB       string  `json:"file_b"`
	Lexical     float64 `json:"lexical"`
	Stripped    float64 `json:"stripped"`   // Lexical on comment/whitespace-stripped text
	Structural  float64 `json:"structural"` // 0 when either side is non-code
	Weight      float64 `json:"weight"`     // Combined, [0,1]
	Duplication bool    `json:"duplication"`
	Matches     []SimilarityMatch `json:"matches,omitempty"`
}
