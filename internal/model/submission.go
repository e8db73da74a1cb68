package model

import "time"

// Submission is one body of work under analysis: an ordered set of
// content units from a single author. Immutable once a report exists.
type Submission struct {
	ID        string        `json:"id"`                  // UUID
	Author    string        `json:"author"`              // Opaque author reference
	Units     []ContentUnit `json:"units"`               // Ordered, as supplied by extraction
	CreatedAt time.Time     `json:"created_at"`
}

// ContentKind categorizes what a content unit holds
type ContentKind string

const (
	KindCode            ContentKind = "code"
	KindNaturalLanguage ContentKind = "natural_language"
	KindUnknown         ContentKind = "unknown"
)

// ContentUnit is a single file's worth of extracted text.
// Owned exclusively by its Submission.
type ContentUnit struct {
	FileName   string      `json:"file_name"`
	Raw        string      `json:"-"`                    // Raw extracted text (not serialized; can be large)
	Normalized string      `json:"-"`                    // Set by the normalizer
	Kind       ContentKind `json:"kind"`
	Truncated  bool        `json:"truncated,omitempty"`  // Raw exceeded the comparison cap
	Unusable   bool        `json:"unusable,omitempty"`   // Empty or whitespace-only after normalization
}

// AnalyzableUnits returns the indices of units that survived normalization.
func (s *Submission) AnalyzableUnits() []int {
	var idx []int
	for i := range s.Units {
		if !s.Units[i].Unusable {
			idx = append(idx, i)
		}
	}
	return idx
}

// KindFromFileName guesses the content kind from the file extension.
// Used when the extraction collaborator supplies kind "unknown".
func KindFromFileName(name string) ContentKind {
	dot := -1
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			dot = i
			break
		}
		if name[i] == '/' || name[i] == '\\' {
			break
		}
	}
	if dot < 0 {
		return KindUnknown
	}
	switch name[dot+1:] {
	case "go", "py", "js", "ts", "jsx", "tsx", "java", "c", "h", "cpp", "cc", "hpp",
		"cs", "rb", "rs", "php", "swift", "kt", "scala", "sh", "bash", "sql", "pl", "lua", "r", "m":
		return KindCode
	case "txt", "md", "markdown", "rst", "tex", "html", "htm", "doc", "rtf":
		return KindNaturalLanguage
	default:
		return KindUnknown
	}
}
