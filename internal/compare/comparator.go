package compare

import (
	"context"
	"sort"

	"github.com/pkoval/attestor/internal/model"
	"github.com/pkoval/attestor/internal/normalize"
	"github.com/pkoval/attestor/internal/similarity"
)

// Weight split across the three evidence terms for code pairs.
// The structural term is dropped and the rest renormalized when either
// side is non-code.
const (
	weightLexical    = 0.3
	weightStripped   = 0.4
	weightStructural = 0.3
)

// Comparator applies the lexical and structural matchers pairwise across
// the files of one submission.
type Comparator struct {
	matcher              *similarity.Matcher
	duplicationThreshold float64
	retainThreshold      float64
}

// NewComparator creates a comparator with the given thresholds.
func NewComparator(cfg model.SimilarityConfig) *Comparator {
	dup := cfg.DuplicationThreshold
	if dup <= 0 {
		dup = 0.70
	}
	retain := cfg.RetainThreshold
	if retain <= 0 {
		retain = 0.40
	}
	return &Comparator{
		matcher:              similarity.NewMatcher(cfg.MinBlockLen, cfg.MaxCompareBytes),
		duplicationThreshold: dup,
		retainThreshold:      retain,
	}
}

// Compare scores every pair of analyzable units and returns the pairs at
// or above the retain threshold, in descending weight order. Ties keep
// their original pair order.
func (c *Comparator) Compare(ctx context.Context, units []model.ContentUnit) ([]model.InternalPair, error) {
	// Fingerprints and stripped texts are reused across pairs
	skeletons := make([]similarity.Skeleton, len(units))
	stripped := make([]string, len(units))
	for i, u := range units {
		if u.Unusable {
			continue
		}
		if u.Kind == model.KindCode {
			skeletons[i] = similarity.Fingerprint(u.Normalized)
			stripped[i] = normalize.StripCodeDecor(u.Normalized)
		} else {
			stripped[i] = u.Normalized
		}
	}

	var pairs []model.InternalPair
	for i := 0; i < len(units); i++ {
		if units[i].Unusable {
			continue
		}
		for j := i + 1; j < len(units); j++ {
			if units[j].Unusable {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			pair := c.comparePair(units[i], units[j], skeletons[i], skeletons[j], stripped[i], stripped[j])
			if pair.Weight >= c.retainThreshold {
				pairs = append(pairs, pair)
			}
		}
	}

	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].Weight > pairs[b].Weight })
	return pairs, nil
}

func (c *Comparator) comparePair(a, b model.ContentUnit, skA, skB similarity.Skeleton, strippedA, strippedB string) model.InternalPair {
	lex := c.matcher.Align(a.Normalized, b.Normalized)
	str := c.matcher.Align(strippedA, strippedB)

	pair := model.InternalPair{
		FileA:    a.FileName,
		FileB:    b.FileName,
		Lexical:  lex.Ratio,
		Stripped: str.Ratio,
	}

	bothCode := a.Kind == model.KindCode && b.Kind == model.KindCode
	if bothCode {
		pair.Structural = similarity.CompareSkeletons(skA, skB)
		pair.Weight = weightLexical*pair.Lexical + weightStripped*pair.Stripped + weightStructural*pair.Structural
	} else {
		// Renormalize the remaining terms to keep the weight in [0,1]
		denom := weightLexical + weightStripped
		pair.Weight = (weightLexical*pair.Lexical + weightStripped*pair.Stripped) / denom
	}

	pair.Duplication = pair.Weight >= c.duplicationThreshold

	if pair.Weight >= c.retainThreshold {
		pair.Matches = c.pairMatches(a, b, lex, skA, skB, bothCode)
	}
	return pair
}

// pairMatches builds the reportable match records for a retained pair
func (c *Comparator) pairMatches(a, b model.ContentUnit, lex similarity.Alignment, skA, skB similarity.Skeleton, bothCode bool) []model.SimilarityMatch {
	var matches []model.SimilarityMatch

	if len(lex.Blocks) > 0 {
		matches = append(matches, model.SimilarityMatch{
			SourceFile: a.FileName,
			TargetFile: b.FileName,
			Kind:       model.MatchLexical,
			Score:      lex.Ratio,
			Spans:      lex.Blocks,
		})
	}

	if bothCode {
		score := similarity.CompareSkeletons(skA, skB)
		if score > 0 {
			matches = append(matches, model.SimilarityMatch{
				SourceFile:  a.FileName,
				TargetFile:  b.FileName,
				Kind:        model.MatchStructural,
				Score:       score,
				Spans:       []model.SpanPair{wholeUnitSpan(a, b)},
				ParseFailed: skA.ParseFailed || skB.ParseFailed,
			})
		}
	}
	return matches
}

// wholeUnitSpan covers both units; skeleton alignment has no stable
// character offsets to report.
func wholeUnitSpan(a, b model.ContentUnit) model.SpanPair {
	return model.SpanPair{
		Source: model.Span{Start: 0, End: len(a.Normalized)},
		Target: model.Span{Start: 0, End: len(b.Normalized)},
	}
}

// BestWeight returns the highest pair weight, or 0 when no pairs were
// retained. Used as the internal-duplication signal by the aggregator.
func BestWeight(pairs []model.InternalPair) float64 {
	if len(pairs) == 0 {
		return 0
	}
	return pairs[0].Weight
}
