package similarity

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pkoval/attestor/internal/model"
)

// Alignment is the result of a longest-matching-blocks comparison
type Alignment struct {
	Ratio     float64          // 2*matched / (lenA + lenB), in [0,1]
	Blocks    []model.SpanPair // Blocks at or above the minimum length, ordered
	Truncated bool             // Either input exceeded the comparison cap
}

// Matcher performs longest-common-block sequence alignment between two
// normalized texts. Deterministic, symmetric, reflexive.
type Matcher struct {
	minBlock int
	maxBytes int
}

// NewMatcher creates a matcher. minBlock suppresses noise from incidental
// short matches (common keywords); maxBytes bounds worst-case cost.
func NewMatcher(minBlock, maxBytes int) *Matcher {
	if minBlock <= 0 {
		minBlock = 24
	}
	if maxBytes <= 0 {
		maxBytes = 50_000
	}
	return &Matcher{minBlock: minBlock, maxBytes: maxBytes}
}

// Align compares two texts and returns the similarity ratio plus the
// matching blocks at or above the minimum block length.
func (m *Matcher) Align(a, b string) Alignment {
	var truncated bool
	if len(a) > m.maxBytes {
		a = cutOnRune(a, m.maxBytes)
		truncated = true
	}
	if len(b) > m.maxBytes {
		b = cutOnRune(b, m.maxBytes)
		truncated = true
	}

	if a == "" && b == "" {
		return Alignment{Ratio: 1.0, Truncated: truncated}
	}
	if a == "" || b == "" {
		return Alignment{Ratio: 0.0, Truncated: truncated}
	}

	// Canonical operand order keeps the alignment, and therefore the
	// ratio, identical for (a,b) and (b,a).
	swapped := false
	if len(a) > len(b) || (len(a) == len(b) && strings.Compare(a, b) > 0) {
		a, b = b, a
		swapped = true
	}

	ra := []rune(a)
	rb := []rune(b)
	blocks := matchingBlocks(ra, rb)

	matched := 0
	var spans []model.SpanPair
	for _, blk := range blocks {
		matched += blk.size
		if blk.size < m.minBlock {
			continue
		}
		pair := model.SpanPair{
			Source: model.Span{Start: blk.ai, End: blk.ai + blk.size},
			Target: model.Span{Start: blk.bi, End: blk.bi + blk.size},
		}
		if swapped {
			pair.Source, pair.Target = pair.Target, pair.Source
		}
		spans = append(spans, pair)
	}
	if swapped {
		sort.Slice(spans, func(i, j int) bool { return spans[i].Source.Start < spans[j].Source.Start })
	}

	return Alignment{
		Ratio:     2.0 * float64(matched) / float64(len(ra)+len(rb)),
		Blocks:    spans,
		Truncated: truncated,
	}
}

type block struct {
	ai, bi, size int
}

// matchingBlocks finds maximal matching blocks by recursively locating the
// longest common substring and splitting around it.
func matchingBlocks(a, b []rune) []block {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	type region struct{ alo, ahi, blo, bhi int }
	queue := []region{{0, len(a), 0, len(b)}}
	var blocks []block

	for len(queue) > 0 {
		reg := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		ai, bi, size := longestMatch(a, reg.alo, reg.ahi, reg.blo, reg.bhi, b2j)
		if size == 0 {
			continue
		}
		blocks = append(blocks, block{ai, bi, size})
		if reg.alo < ai && reg.blo < bi {
			queue = append(queue, region{reg.alo, ai, reg.blo, bi})
		}
		if ai+size < reg.ahi && bi+size < reg.bhi {
			queue = append(queue, region{ai + size, reg.ahi, bi + size, reg.bhi})
		}
	}

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].ai < blocks[j].ai })
	return blocks
}

// longestMatch finds the longest matching block within a[alo:ahi] and
// b[blo:bhi]. Ties resolve to the earliest occurrence, keeping the result
// deterministic.
func longestMatch(a []rune, alo, ahi, blo, bhi int, b2j map[rune][]int) (int, int, int) {
	besti, bestj, bestsize := alo, blo, 0
	j2len := make(map[int]int)

	for i := alo; i < ahi; i++ {
		next := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return besti, bestj, bestsize
}

// cutOnRune truncates s to at most max bytes without splitting a
// multi-byte rune at the cut.
func cutOnRune(s string, max int) string {
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
