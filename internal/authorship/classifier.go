package authorship

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkoval/attestor/internal/llm"
	"github.com/pkoval/attestor/internal/model"
	"github.com/pkoval/attestor/internal/worker"
)

// State tracks a unit's progress through the staged classifier
type State int

const (
	StatePending State = iota
	StateTriaged
	StateDone         // Short-circuited at triage
	StateDeepAnalyzed // Went through the expensive stage
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateTriaged:
		return "triaged"
	case StateDone:
		return "done"
	case StateDeepAnalyzed:
		return "deep_analyzed"
	default:
		return "unknown"
	}
}

const (
	serviceClassify = "classify"
	maxAttempts     = 2 // One call plus one retry
)

// sleepFunc is the backoff sleep, injectable for tests
var sleepFunc = time.Sleep

// Classifier estimates machine-authorship likelihood in stages: a cheap
// triage call that can short-circuit, then deep analysis only for
// uncertain units. A unit is never left unscored: call failures degrade
// to the deterministic heuristic.
type Classifier struct {
	provider llm.Provider // nil = heuristic only
	limiter  *worker.Limiter
	verbose  bool
}

// NewClassifier creates a classifier. provider may be nil.
func NewClassifier(provider llm.Provider, limiter *worker.Limiter, verbose bool) *Classifier {
	return &Classifier{provider: provider, limiter: limiter, verbose: verbose}
}

// Classify produces the authorship verdict for one unit. The returned
// state is the terminal state of the unit's run: StateDone when triage
// short-circuited, StateDeepAnalyzed after the expensive stage.
func (c *Classifier) Classify(ctx context.Context, unit model.ContentUnit) (model.AuthorshipVerdict, State) {
	if c.provider == nil {
		return c.heuristicVerdict(unit, "no classification provider configured"), StateDone
	}

	triage, err := c.runTriage(ctx, unit)
	if err != nil {
		c.warn("triage failed for %s: %v", unit.FileName, err)
		return c.heuristicVerdict(unit, fmt.Sprintf("triage failed: %v", err)), StateDone
	}

	// Non-uncertain triage short-circuits the expensive stage.
	// TriageUnknown (unrecognized collaborator output) is treated as
	// uncertain, never as a known category.
	switch triage.Verdict {
	case TriageObviouslyAI, TriageObviouslyHuman:
		confidence := model.ClampConfidence(triage.Score)
		return model.AuthorshipVerdict{
			FileName:   unit.FileName,
			Confidence: confidence,
			Category:   model.CategoryForConfidence(confidence),
			Stage:      "triage",
			Rationale: []model.RationaleEntry{{
				Dimension: "triage",
				Score:     confidence,
				Evidence:  triage.Evidence,
			}},
		}, StateDone
	}

	rationale, confidence, err := c.runDeepAnalysis(ctx, unit)
	if err != nil {
		c.warn("deep analysis failed for %s: %v", unit.FileName, err)
		return c.heuristicVerdict(unit, fmt.Sprintf("deep analysis failed: %v", err)), StateDeepAnalyzed
	}

	confidence = model.ClampConfidence(confidence)
	return model.AuthorshipVerdict{
		FileName:   unit.FileName,
		Confidence: confidence,
		Category:   model.CategoryForConfidence(confidence),
		Stage:      "deep",
		Rationale:  rationale,
	}, StateDeepAnalyzed
}

// heuristicVerdict is the deterministic fallback; always succeeds
func (c *Classifier) heuristicVerdict(unit model.ContentUnit, reason string) model.AuthorshipVerdict {
	confidence, rationale := HeuristicScore(unit)
	rationale = append(rationale, model.RationaleEntry{
		Dimension: "fallback_reason",
		Score:     0,
		Evidence:  reason,
	})
	return model.AuthorshipVerdict{
		FileName:           unit.FileName,
		Confidence:         confidence,
		Category:           model.CategoryForConfidence(confidence),
		Stage:              "heuristic",
		Rationale:          rationale,
		DegradedConfidence: true,
	}
}

// complete runs one rate-limited completion with a single backoff retry
func (c *Classifier) complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * 500 * time.Millisecond
			sleepFunc(backoff)
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx, serviceClassify); err != nil {
				return nil, err
			}
		}
		resp, err := c.provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (c *Classifier) warn(format string, args ...interface{}) {
	if c.verbose {
		fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
	}
}
