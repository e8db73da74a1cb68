package retrieval

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/pkoval/attestor/internal/cache"
	"github.com/pkoval/attestor/internal/model"
	"github.com/pkoval/attestor/internal/worker"
)

// Hit is one prior submission returned by a nearest-neighbor search
type Hit struct {
	SubmissionID string  `json:"submission_id"`
	Author       string  `json:"author"`
	FileName     string  `json:"file_name,omitempty"`
	Score        float64 `json:"score"` // Cosine similarity, [0,1]
	Excerpt      string  `json:"excerpt,omitempty"`
}

// Embedder produces an embedding vector for a text
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher finds the k nearest prior units of the same content kind,
// excluding the given author's own submissions
type Searcher interface {
	Search(ctx context.Context, vec []float32, kind model.ContentKind, excludeAuthor string, k int) ([]Hit, error)
}

// Indexer accepts new entries into the prior-submission corpus
type Indexer interface {
	Add(ctx context.Context, entry Entry) error
}

// Entry is one content unit stored in the prior-submission index
type Entry struct {
	SubmissionID string
	Author       string
	FileName     string
	Kind         model.ContentKind
	Excerpt      string
	Vector       []float32
}

const (
	serviceEmbed  = "embed"
	serviceSearch = "search"

	// excerptLen bounds stored/reported excerpts
	excerptLen = 400
)

// Client wraps the embedding and search collaborators. Both are injected
// interfaces constructed once and passed in, so tests substitute doubles
// and no process-wide singleton exists.
type Client struct {
	embedder Embedder
	searcher Searcher
	cache    cache.Cache // Optional embedding cache
	limiter  *worker.Limiter
	k        int
	minScore float64
	verbose  bool
}

// NewClient creates a retrieval client. Either collaborator may be nil;
// the client then reports itself unavailable rather than failing.
func NewClient(embedder Embedder, searcher Searcher, c cache.Cache, limiter *worker.Limiter, cfg model.RetrievalConfig, verbose bool) *Client {
	k := cfg.K
	if k <= 0 {
		k = 50
	}
	return &Client{
		embedder: embedder,
		searcher: searcher,
		cache:    c,
		limiter:  limiter,
		k:        k,
		minScore: cfg.MinScore,
		verbose:  verbose,
	}
}

// Available reports whether both collaborators are wired
func (c *Client) Available() bool {
	return c.embedder != nil && c.searcher != nil
}

// FindSimilar retrieves prior submissions similar to the unit. The bool
// return is false when the subsystem could not run (no collaborator,
// embedding failure, search failure); the pipeline records
// cross_submission_checked=false and excludes the signal.
func (c *Client) FindSimilar(ctx context.Context, unit model.ContentUnit, excludeAuthor string) ([]model.SimilarityMatch, bool) {
	if !c.Available() {
		return nil, false
	}

	vec, err := c.embed(ctx, unit.Normalized)
	if err != nil {
		if c.verbose {
			fmt.Fprintf(os.Stderr, "Warning: embedding failed for %s: %v\n", unit.FileName, err)
		}
		return nil, false
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, serviceSearch); err != nil {
			return nil, false
		}
	}
	hits, err := c.searcher.Search(ctx, vec, unit.Kind, excludeAuthor, c.k)
	if err != nil {
		if c.verbose {
			fmt.Fprintf(os.Stderr, "Warning: cross-submission search failed for %s: %v\n", unit.FileName, err)
		}
		return nil, false
	}

	var matches []model.SimilarityMatch
	for _, hit := range hits {
		if hit.Score < c.minScore {
			continue
		}
		matches = append(matches, model.SimilarityMatch{
			SourceFile:       unit.FileName,
			TargetSubmission: hit.SubmissionID,
			TargetAuthor:     hit.Author,
			Kind:             model.MatchSemantic,
			Score:            clamp01(hit.Score),
			Excerpt:          hit.Excerpt,
			Spans: []model.SpanPair{{
				Source: model.Span{Start: 0, End: len(unit.Normalized)},
				Target: model.Span{Start: 0, End: len(hit.Excerpt)},
			}},
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches, true
}

// Store adds a submission's units to the prior corpus so later
// submissions can be checked against it. Best-effort: individual unit
// failures are skipped.
func (c *Client) Store(ctx context.Context, sub *model.Submission, indexer Indexer) error {
	if c.embedder == nil || indexer == nil {
		return fmt.Errorf("retrieval: no embedder or indexer configured")
	}
	var firstErr error
	for _, unit := range sub.Units {
		if unit.Unusable {
			continue
		}
		vec, err := c.embed(ctx, unit.Normalized)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		err = indexer.Add(ctx, Entry{
			SubmissionID: sub.ID,
			Author:       sub.Author,
			FileName:     unit.FileName,
			Kind:         unit.Kind,
			Excerpt:      excerpt(unit.Normalized),
			Vector:       vec,
		})
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// embed fetches the unit's vector, consulting the cache first
func (c *Client) embed(ctx context.Context, text string) ([]float32, error) {
	key := cache.EmbeddingKey(text)
	if c.cache != nil {
		if vec, ok := c.cache.GetVector(key); ok {
			return vec, nil
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, serviceEmbed); err != nil {
			return nil, err
		}
	}
	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		_ = c.cache.SetVector(key, vec, 0)
	}
	return vec, nil
}

func excerpt(text string) string {
	if len(text) <= excerptLen {
		return text
	}
	return text[:excerptLen]
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

// CosineSimilarity computes the cosine similarity of two vectors,
// mapped from [-1,1] to [0,1]. Mismatched or empty vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return clamp01((cos + 1) / 2)
}
