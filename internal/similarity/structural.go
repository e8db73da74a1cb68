package similarity

import (
	"fmt"
	"regexp"
	"strings"
)

// Skeleton is a naming-independent structural representation of code:
// ordered statement kinds with nesting depth and operator categories.
// Identifier names and literal values are discarded, so consistent
// renaming does not change the skeleton.
type Skeleton struct {
	Tokens      []string
	ParseFailed bool
}

// opaqueToken stands in for code that could not be fingerprinted
const opaqueToken = "opaque"

var (
	reFuncDef  = regexp.MustCompile(`^\s*(func\s|def\s|function\s|fn\s|sub\s|procedure\s|(public|private|protected|static|async)[\s\w<>\[\]]*\([^)]*\)\s*\{)`)
	reClassDef = regexp.MustCompile(`^\s*(class\s|struct\s|interface\s|trait\s|enum\s|type\s+\w+\s+(struct|interface))`)
	reCond     = regexp.MustCompile(`^\s*\}?\s*(if[\s(]|else\b|elif[\s(]|switch[\s({]|case\s|match[\s({]|when[\s(])`)
	reLoop     = regexp.MustCompile(`^\s*\}?\s*(for[\s({]|while[\s(]|do\s*\{|loop\s*\{|foreach[\s(]|repeat\b)`)
	reReturn   = regexp.MustCompile(`^\s*(return\b|yield\b|raise\b|throw\b|panic\()`)
	reImport   = regexp.MustCompile(`^\s*(import\s|from\s+\S+\s+import|#include\s|using\s|require\s*\(|use\s)`)
	reDecl     = regexp.MustCompile(`^\s*(var\s|let\s|const\s|final\s|my\s|local\s)`)
	reAssign   = regexp.MustCompile(`(:=|=[^=]|\+=|-=|\*=|/=|%=|\|=|&=)`)
	reCall     = regexp.MustCompile(`\w\s*\(`)
)

// operator category probes, checked per line in a fixed order
var opCategories = []struct {
	name string
	re   *regexp.Regexp
}{
	{"arith", regexp.MustCompile(`[+\-*/%]`)},
	{"cmp", regexp.MustCompile(`(==|!=|<=|>=|<[^<]|[^>]>)`)},
	{"logic", regexp.MustCompile(`(&&|\|\||!\w|\bnot\b|\band\b|\bor\b)`)},
	{"bit", regexp.MustCompile(`(<<|>>|[^&]&[^&]|[^|]\|[^|]|\^)`)},
}

// Fingerprint reduces a code unit to its structural skeleton. It never
// fails: unparsable input degrades to a single opaque token with
// ParseFailed set.
func Fingerprint(text string) Skeleton {
	lines := strings.Split(text, "\n")
	var tokens []string
	depth := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		// Closing braces reduce depth before the statement is classified
		closers := strings.Count(trimmed, "}") + strings.Count(trimmed, "]")
		openers := strings.Count(trimmed, "{") + strings.Count(trimmed, "[")
		if closers > openers {
			depth -= closers - openers
			if depth < 0 {
				depth = 0
			}
		}

		for _, stmt := range splitStatements(trimmed) {
			kind := classifyStatement(stmt)
			if kind == "" {
				continue
			}
			tok := fmt.Sprintf("%s@%d", kind, depth)
			if ops := operatorCategories(stmt); ops != "" {
				tok += ":" + ops
			}
			tokens = append(tokens, tok)
		}

		if openers > closers {
			depth += openers - closers
		}
	}

	if len(tokens) == 0 {
		return Skeleton{Tokens: []string{opaqueToken}, ParseFailed: true}
	}
	return Skeleton{Tokens: tokens}
}

var reCompoundHeader = regexp.MustCompile(`^((def|if|elif|else|for|while|class|with|try|except|finally)\b[^:]*:)\s*(\S.*)$`)

// splitStatements breaks a physical line into logical statements:
// semicolon-joined statements and Python-style inline compound bodies
// (`def f(): return x`) become separate entries.
func splitStatements(line string) []string {
	if m := reCompoundHeader.FindStringSubmatch(line); m != nil {
		return append([]string{m[1]}, splitStatements(m[3])...)
	}
	if !strings.Contains(line, ";") {
		return []string{line}
	}
	var parts []string
	var quote byte
	start := 0
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
		switch c {
		case '"', '\'', '`':
			quote = c
		case ';':
			if p := strings.TrimSpace(line[start:i]); p != "" {
				parts = append(parts, p)
			}
			start = i + 1
		}
	}
	if p := strings.TrimSpace(line[start:]); p != "" {
		parts = append(parts, p)
	}
	if len(parts) == 0 {
		return []string{line}
	}
	return parts
}

func classifyStatement(line string) string {
	switch {
	case reImport.MatchString(line):
		return "import"
	case reFuncDef.MatchString(line):
		return "funcdef"
	case reClassDef.MatchString(line):
		return "classdef"
	case reCond.MatchString(line):
		return "cond"
	case reLoop.MatchString(line):
		return "loop"
	case reReturn.MatchString(line):
		return "return"
	case reDecl.MatchString(line):
		return "decl"
	case reAssign.MatchString(line):
		return "assign"
	case reCall.MatchString(line):
		return "call"
	default:
		return "stmt"
	}
}

func operatorCategories(line string) string {
	var cats []string
	for _, oc := range opCategories {
		if oc.re.MatchString(line) {
			cats = append(cats, oc.name)
		}
	}
	return strings.Join(cats, ",")
}

// CompareSkeletons aligns two skeletons with the same greedy block
// technique as the lexical matcher. An opaque skeleton never matches.
func CompareSkeletons(a, b Skeleton) float64 {
	if a.ParseFailed || b.ParseFailed {
		return 0.0
	}
	if len(a.Tokens) == 0 || len(b.Tokens) == 0 {
		return 0.0
	}
	matched := tileTokens(a.Tokens, b.Tokens, 2)
	return 2.0 * float64(matched) / float64(len(a.Tokens)+len(b.Tokens))
}

// tileTokens counts tokens covered by maximal common runs of at least
// minLen, greedily taking the longest run first.
func tileTokens(a, b []string, minLen int) int {
	usedA := make([]bool, len(a))
	usedB := make([]bool, len(b))
	total := 0

	for {
		bestLen, bestA, bestB := 0, -1, -1
		for i := range a {
			if usedA[i] {
				continue
			}
			for j := range b {
				if usedB[j] {
					continue
				}
				k := 0
				for i+k < len(a) && j+k < len(b) && !usedA[i+k] && !usedB[j+k] && a[i+k] == b[j+k] {
					k++
				}
				if k >= minLen && k > bestLen {
					bestLen, bestA, bestB = k, i, j
				}
			}
		}
		if bestLen == 0 {
			break
		}
		for k := 0; k < bestLen; k++ {
			usedA[bestA+k] = true
			usedB[bestB+k] = true
		}
		total += bestLen
	}
	return total
}
