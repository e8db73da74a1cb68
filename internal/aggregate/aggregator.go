package aggregate

import (
	"math"

	"github.com/pkoval/attestor/internal/model"
)

// Signals are the independent evidence sources of non-originality, each
// in [0,1]. A subsystem that did not run must leave its Present flag
// false: its signal is then excluded from the product entirely rather
// than contributing zero penalty by accident of initialization.
type Signals struct {
	InternalDuplication float64 // Best internal pair weight
	InternalPresent     bool

	CrossSubmission float64 // Best cross-submission similarity
	CrossPresent    bool

	Authorship        float64 // Mean authorship confidence scaled to [0,1]
	AuthorshipPresent bool
}

// Result is the aggregated outcome
type Result struct {
	OriginalityScore int
	RiskLevel        model.RiskLevel
	SubScores        model.SubScores
}

// Aggregate combines the available signals probabilistically:
// penalty = 1 - prod(1 - s_i); score = 100 * (1 - penalty), clamped.
// Treating the signals as independent evidence avoids the double
// penalty a naive sum gives correlated findings.
func Aggregate(sig Signals) Result {
	penalty := 1.0
	for _, s := range activeSignals(sig) {
		penalty *= 1 - clamp01(s)
	}
	// penalty currently holds prod(1-s); the score is 100 * that product
	score := model.ClampScore(int(math.Round(100 * penalty)))

	return Result{
		OriginalityScore: score,
		RiskLevel:        model.RiskForScore(score),
		SubScores:        subScores(sig),
	}
}

func activeSignals(sig Signals) []float64 {
	var out []float64
	if sig.InternalPresent {
		out = append(out, sig.InternalDuplication)
	}
	if sig.CrossPresent {
		out = append(out, sig.CrossSubmission)
	}
	if sig.AuthorshipPresent {
		out = append(out, sig.Authorship)
	}
	return out
}

// subScores exposes the two judgments separately: duplication (was it
// copied) and authorship (who wrote it). Downstream consumers should
// not have to un-mix the combined score.
func subScores(sig Signals) model.SubScores {
	dup := 1.0
	if sig.InternalPresent {
		dup *= 1 - clamp01(sig.InternalDuplication)
	}
	if sig.CrossPresent {
		dup *= 1 - clamp01(sig.CrossSubmission)
	}

	auth := 1.0
	if sig.AuthorshipPresent {
		auth = 1 - clamp01(sig.Authorship)
	}

	return model.SubScores{
		Duplication: model.ClampScore(int(math.Round(100 * dup))),
		Authorship:  model.ClampScore(int(math.Round(100 * auth))),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
