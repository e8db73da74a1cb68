package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pkoval/attestor/internal/cache"
	"github.com/pkoval/attestor/internal/model"
)

type fakeEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return f.vec, f.err
}

type fakeSearcher struct {
	hits []Hit
	err  error
}

func (f *fakeSearcher) Search(ctx context.Context, vec []float32, kind model.ContentKind, excludeAuthor string, k int) ([]Hit, error) {
	return f.hits, f.err
}

type fakeIndexer struct {
	entries []Entry
}

func (f *fakeIndexer) Add(ctx context.Context, entry Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func testRetrievalConfig() model.RetrievalConfig {
	return model.RetrievalConfig{K: 10, MinScore: 0.60}
}

func testUnit() model.ContentUnit {
	return model.ContentUnit{FileName: "a.go", Kind: model.KindCode, Normalized: "package main"}
}

func TestClient_UnavailableWithoutCollaborators(t *testing.T) {
	c := NewClient(nil, nil, nil, nil, testRetrievalConfig(), false)

	if c.Available() {
		t.Error("Expected the client to report unavailable")
	}
	matches, ok := c.FindSimilar(context.Background(), testUnit(), "")
	if ok {
		t.Error("Expected ok=false without collaborators")
	}
	if matches != nil {
		t.Errorf("Expected no matches, got %d", len(matches))
	}
}

func TestClient_FindSimilarFiltersAndSorts(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{1, 0, 0}}
	searcher := &fakeSearcher{hits: []Hit{
		{SubmissionID: "weak", Score: 0.65},
		{SubmissionID: "below", Score: 0.40},
		{SubmissionID: "strong", Author: "bob", Score: 0.92, Excerpt: "copied text"},
	}}
	c := NewClient(embedder, searcher, nil, nil, testRetrievalConfig(), false)

	matches, ok := c.FindSimilar(context.Background(), testUnit(), "alice")
	if !ok {
		t.Fatal("Expected ok=true")
	}
	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches above the score floor, got %d", len(matches))
	}
	if matches[0].TargetSubmission != "strong" {
		t.Errorf("Expected the strongest match first, got %s", matches[0].TargetSubmission)
	}
	if matches[0].Kind != model.MatchSemantic {
		t.Errorf("Expected semantic match kind, got %s", matches[0].Kind)
	}
	if matches[0].TargetAuthor != "bob" {
		t.Errorf("Expected target author preserved, got %q", matches[0].TargetAuthor)
	}
	for _, m := range matches {
		if len(m.Spans) == 0 {
			t.Errorf("Expected spans on match %s", m.TargetSubmission)
		}
	}
}

func TestClient_EmbeddingFailureReportsUnchecked(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("quota exceeded")}
	c := NewClient(embedder, &fakeSearcher{}, nil, nil, testRetrievalConfig(), false)

	_, ok := c.FindSimilar(context.Background(), testUnit(), "")
	if ok {
		t.Error("Expected ok=false when embedding fails")
	}
}

func TestClient_SearchFailureReportsUnchecked(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{1}}
	searcher := &fakeSearcher{err: errors.New("index offline")}
	c := NewClient(embedder, searcher, nil, nil, testRetrievalConfig(), false)

	_, ok := c.FindSimilar(context.Background(), testUnit(), "")
	if ok {
		t.Error("Expected ok=false when search fails")
	}
}

func TestClient_EmbeddingCached(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{0.5, -0.5}}
	searcher := &fakeSearcher{}
	mem := cache.NewMemoryCache(time.Minute, time.Minute)
	c := NewClient(embedder, searcher, mem, nil, testRetrievalConfig(), false)

	c.FindSimilar(context.Background(), testUnit(), "")
	c.FindSimilar(context.Background(), testUnit(), "")

	if embedder.calls != 1 {
		t.Errorf("Expected a single embedding call with a warm cache, got %d", embedder.calls)
	}
}

func TestClient_StoreSkipsUnusableUnits(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{1, 2}}
	indexer := &fakeIndexer{}
	c := NewClient(embedder, nil, nil, nil, testRetrievalConfig(), false)

	sub := &model.Submission{
		ID:     "sub-1",
		Author: "alice",
		Units: []model.ContentUnit{
			{FileName: "good.go", Kind: model.KindCode, Normalized: "package main"},
			{FileName: "empty.go", Kind: model.KindCode, Unusable: true},
		},
	}

	if err := c.Store(context.Background(), sub, indexer); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(indexer.entries) != 1 {
		t.Fatalf("Expected 1 indexed entry, got %d", len(indexer.entries))
	}
	e := indexer.entries[0]
	if e.SubmissionID != "sub-1" || e.Author != "alice" || e.FileName != "good.go" {
		t.Errorf("Unexpected entry %+v", e)
	}
	if len(e.Vector) != 2 {
		t.Errorf("Expected the embedding stored, got %v", e.Vector)
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 0}, []float32{1, 0}); got != 1.0 {
		t.Errorf("Expected 1.0 for identical vectors, got %f", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{0, 1}); got != 0.5 {
		t.Errorf("Expected 0.5 for orthogonal vectors, got %f", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{-1, 0}); got != 0.0 {
		t.Errorf("Expected 0.0 for opposite vectors, got %f", got)
	}
	if got := CosineSimilarity(nil, []float32{1}); got != 0 {
		t.Errorf("Expected 0 for mismatched vectors, got %f", got)
	}
	if got := CosineSimilarity([]float32{0, 0}, []float32{0, 0}); got != 0 {
		t.Errorf("Expected 0 for zero vectors, got %f", got)
	}
}
