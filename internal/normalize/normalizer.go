package normalize

import (
	"strings"

	"github.com/pkoval/attestor/internal/model"
	"golang.org/x/net/html"
)

// Normalizer strips incidental formatting noise before comparison
type Normalizer struct {
	maxBytes int
}

// NewNormalizer creates a normalizer. maxBytes caps the normalized text
// (bounds worst-case alignment cost downstream); <=0 means the default.
func NewNormalizer(maxBytes int) *Normalizer {
	if maxBytes <= 0 {
		maxBytes = 50_000
	}
	return &Normalizer{maxBytes: maxBytes}
}

// Normalize fills in Kind, Normalized, Truncated and Unusable on the unit.
func (n *Normalizer) Normalize(unit model.ContentUnit) model.ContentUnit {
	if unit.Kind == model.KindUnknown || unit.Kind == "" {
		unit.Kind = model.KindFromFileName(unit.FileName)
	}

	text := unit.Raw
	if unit.Kind == model.KindNaturalLanguage && looksLikeMarkup(text) {
		text = stripMarkup(text)
	}
	text = normalizeText(text)

	if len(text) > n.maxBytes {
		text = truncateClean(text, n.maxBytes)
		unit.Truncated = true
	}

	unit.Normalized = text
	unit.Unusable = strings.TrimSpace(text) == ""
	return unit
}

// normalizeText folds line endings, tabs and blank-line runs
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\t", "    ")

	lines := strings.Split(text, "\n")
	var out []string
	blanks := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " ")
		if line == "" {
			blanks++
			if blanks > 1 {
				continue
			}
		} else {
			blanks = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// truncateClean cuts at a line boundary near the byte limit when possible
func truncateClean(text string, max int) string {
	cut := text[:max]
	if i := strings.LastIndexByte(cut, '\n'); i > max/2 {
		return cut[:i]
	}
	return cut
}

// looksLikeMarkup is a cheap check for HTML-ish content
func looksLikeMarkup(text string) bool {
	head := text
	if len(head) > 512 {
		head = head[:512]
	}
	head = strings.ToLower(head)
	return strings.Contains(head, "<html") || strings.Contains(head, "<body") ||
		strings.Contains(head, "<p>") || strings.Contains(head, "<div")
}

// stripMarkup extracts visible text from HTML, skipping scripts/styles
func stripMarkup(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return raw
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return buf.String()
}

// StripCodeDecor removes comments, blank lines and whitespace runs from
// code so that two files differing only in decoration compare equal.
// Language-agnostic: handles //, #, -- line comments and /* */ blocks.
func StripCodeDecor(text string) string {
	var out strings.Builder
	inBlock := false

	for _, line := range strings.Split(text, "\n") {
		if inBlock {
			if end := strings.Index(line, "*/"); end >= 0 {
				line = line[end+2:]
				inBlock = false
			} else {
				continue
			}
		}
		line = stripLineComments(line)
		if start := strings.Index(line, "/*"); start >= 0 {
			if end := strings.Index(line[start+2:], "*/"); end >= 0 {
				line = line[:start] + line[start+2+end+2:]
			} else {
				line = line[:start]
				inBlock = true
			}
		}
		line = collapseSpaces(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	return out.String()
}

// stripLineComments removes //, # and -- comments outside string literals
func stripLineComments(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch {
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return line[:i]
		case c == '#':
			return line[:i]
		case c == '-' && i+1 < len(line) && line[i+1] == '-' &&
			(i == 0 || line[i-1] == ' ') && (i+2 == len(line) || line[i+2] == ' '):
			// SQL/Lua style; the guards keep decrement operators intact
			return line[:i]
		}
	}
	return line
}

func collapseSpaces(s string) string {
	var out strings.Builder
	space := false
	for _, r := range s {
		if r == ' ' {
			space = true
			continue
		}
		if space && out.Len() > 0 {
			out.WriteByte(' ')
		}
		space = false
		out.WriteRune(r)
	}
	return out.String()
}
