package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkoval/attestor/internal/aggregate"
	"github.com/pkoval/attestor/internal/authorship"
	"github.com/pkoval/attestor/internal/cache"
	"github.com/pkoval/attestor/internal/compare"
	"github.com/pkoval/attestor/internal/llm"
	"github.com/pkoval/attestor/internal/model"
	"github.com/pkoval/attestor/internal/normalize"
	"github.com/pkoval/attestor/internal/recommend"
	"github.com/pkoval/attestor/internal/retrieval"
	"github.com/pkoval/attestor/internal/worker"
)

// ErrNoAnalyzableContent is the only hard failure: a submission with
// zero usable units. Every other condition degrades.
var ErrNoAnalyzableContent = errors.New("pipeline: submission has no analyzable content")

// Pipeline orchestrates one originality analysis: normalize, fan out
// the three independent branches, aggregate, synthesize.
type Pipeline struct {
	normalizer  *normalize.Normalizer
	comparator  *compare.Comparator
	retrieval   *retrieval.Client
	classifier  *authorship.Classifier
	synthesizer *recommend.Synthesizer
	config      *model.Config
}

// NewPipeline wires the pipeline from injected collaborators. provider
// and searcher may each be nil; the affected branches then report
// themselves unavailable instead of failing the run.
func NewPipeline(cfg *model.Config, provider llm.Provider, searcher retrieval.Searcher, embCache cache.Cache) *Pipeline {
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	for service, rps := range cfg.RateLimiting.PerService {
		limiter.SetServiceRate(service, rps, cfg.RateLimiting.BurstSize)
	}

	var embedder retrieval.Embedder
	if provider != nil {
		embedder = provider
	}

	return &Pipeline{
		normalizer:  normalize.NewNormalizer(cfg.Similarity.MaxCompareBytes),
		comparator:  compare.NewComparator(cfg.Similarity),
		retrieval:   retrieval.NewClient(embedder, searcher, embCache, limiter, cfg.Retrieval, cfg.Output.Verbose),
		classifier:  authorship.NewClassifier(provider, limiter, cfg.Output.Verbose),
		synthesizer: recommend.NewSynthesizer(provider, limiter, cfg.Output.Verbose),
		config:      cfg,
	}
}

// RetrievalClient exposes the client for index storage after analysis
func (p *Pipeline) RetrievalClient() *retrieval.Client {
	return p.retrieval
}

// Normalize runs the normalizer over a submission's units in place.
// Called before Analyze; also used when storing a submission into the
// prior-submission index without analyzing it.
func (p *Pipeline) Normalize(sub *model.Submission) {
	for i := range sub.Units {
		sub.Units[i] = p.normalizer.Normalize(sub.Units[i])
	}
}

// Analyze produces a new write-once report for the submission
func (p *Pipeline) Analyze(ctx context.Context, sub *model.Submission) (*model.Report, error) {
	p.Normalize(sub)

	if len(sub.AnalyzableUnits()) == 0 {
		return nil, ErrNoAnalyzableContent
	}

	deadline := p.config.Pipeline.Deadline
	if deadline <= 0 {
		deadline = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	// The three branches share no mutable state; each writes only its
	// own result struct before the fan-in reads it.
	var (
		wg sync.WaitGroup

		pairs       []model.InternalPair
		internalErr error

		crossMatches []model.SimilarityMatch
		crossChecked bool

		verdicts []model.AuthorshipVerdict
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		pairs, internalErr = p.comparator.Compare(ctx, sub.Units)
	}()
	go func() {
		defer wg.Done()
		crossMatches, crossChecked = p.searchCrossSubmissions(ctx, sub)
	}()
	go func() {
		defer wg.Done()
		verdicts = p.classifyUnits(ctx, sub)
	}()
	wg.Wait()

	if internalErr != nil && p.config.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Warning: internal comparison incomplete: %v\n", internalErr)
	}

	sig := aggregate.Signals{}
	if internalErr == nil {
		sig.InternalPresent = true
		sig.InternalDuplication = compare.BestWeight(pairs)
	}
	if crossChecked {
		sig.CrossPresent = true
		sig.CrossSubmission = bestCrossScore(crossMatches)
	}
	if len(verdicts) > 0 {
		sig.AuthorshipPresent = true
		sig.Authorship = meanConfidence(verdicts) / 100.0
	}

	agg := aggregate.Aggregate(sig)

	report := &model.Report{
		ID:               uuid.NewString(),
		SubmissionID:     sub.ID,
		Author:           sub.Author,
		OriginalityScore: agg.OriginalityScore,
		RiskLevel:        agg.RiskLevel,
		SubScores:        agg.SubScores,
		InternalPairs:    pairs,
		CrossMatches:     crossMatches,
		Verdicts:         verdicts,
		Availability: model.Availability{
			InternalCompared:       internalErr == nil,
			CrossSubmissionChecked: crossChecked,
			AuthorshipClassified:   len(verdicts) > 0,
		},
		UnusableFiles: unusableFiles(sub),
		GeneratedAt:   time.Now().UTC(),
	}

	// Synthesis runs after aggregation and never affects the score
	report.Recommendations = p.synthesizer.Synthesize(ctx, report)

	return report, nil
}

// searchCrossSubmissions queries the retrieval collaborator per unit.
// The checked flag is true only when every unit query went through; a
// partial run still surfaces whatever matches it found.
func (p *Pipeline) searchCrossSubmissions(ctx context.Context, sub *model.Submission) ([]model.SimilarityMatch, bool) {
	if !p.retrieval.Available() {
		return nil, false
	}

	checked := true
	var mu sync.Mutex
	var matches []model.SimilarityMatch

	sem := make(chan struct{}, p.unitWorkers())
	var wg sync.WaitGroup
	for _, i := range sub.AnalyzableUnits() {
		wg.Add(1)
		go func(unit model.ContentUnit) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				mu.Lock()
				checked = false
				mu.Unlock()
				return
			case sem <- struct{}{}:
			}
			defer func() { <-sem }()

			found, ok := p.retrieval.FindSimilar(ctx, unit, sub.Author)
			mu.Lock()
			matches = append(matches, found...)
			if !ok {
				checked = false
			}
			mu.Unlock()
		}(sub.Units[i])
	}
	wg.Wait()

	sortMatches(matches)
	return matches, checked
}

// classifyUnits runs the staged classifier per unit. Units are never
// left unscored: the classifier degrades internally to its heuristic.
func (p *Pipeline) classifyUnits(ctx context.Context, sub *model.Submission) []model.AuthorshipVerdict {
	idx := sub.AnalyzableUnits()
	verdicts := make([]model.AuthorshipVerdict, len(idx))

	sem := make(chan struct{}, p.unitWorkers())
	var wg sync.WaitGroup
	for slot, i := range idx {
		wg.Add(1)
		go func(slot int, unit model.ContentUnit) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			verdict, _ := p.classifier.Classify(ctx, unit)
			verdicts[slot] = verdict
		}(slot, sub.Units[i])
	}
	wg.Wait()

	return verdicts
}

func (p *Pipeline) unitWorkers() int {
	if n := p.config.Concurrency.UnitWorkers; n > 0 {
		return n
	}
	return 8
}

func bestCrossScore(matches []model.SimilarityMatch) float64 {
	best := 0.0
	for _, m := range matches {
		if m.Score > best {
			best = m.Score
		}
	}
	return best
}

func meanConfidence(verdicts []model.AuthorshipVerdict) float64 {
	if len(verdicts) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range verdicts {
		sum += float64(v.Confidence)
	}
	return sum / float64(len(verdicts))
}

func unusableFiles(sub *model.Submission) []string {
	var names []string
	for _, u := range sub.Units {
		if u.Unusable {
			names = append(names, u.FileName)
		}
	}
	return names
}

func sortMatches(matches []model.SimilarityMatch) {
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
}
