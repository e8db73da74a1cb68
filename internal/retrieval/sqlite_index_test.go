package retrieval

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkoval/attestor/internal/model"
)

func openTestIndex(t *testing.T) *SQLiteIndex {
	t.Helper()
	idx, err := OpenSQLiteIndex(filepath.Join(t.TempDir(), "priors.db"))
	if err != nil {
		t.Fatalf("Expected index to open, got %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestSQLiteIndex_AddAndCount(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	entries := []Entry{
		{SubmissionID: "s1", Author: "alice", FileName: "a.go", Kind: model.KindCode, Vector: []float32{1, 0}},
		{SubmissionID: "s2", Author: "bob", FileName: "b.go", Kind: model.KindCode, Vector: []float32{0, 1}},
	}
	for _, e := range entries {
		if err := idx.Add(ctx, e); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	n, err := idx.Count(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 stored units, got %d", n)
	}
}

func TestSQLiteIndex_SearchExcludesAuthorAndRanks(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	seed := []Entry{
		{SubmissionID: "own", Author: "alice", FileName: "mine.go", Kind: model.KindCode, Vector: []float32{1, 0}},
		{SubmissionID: "close", Author: "bob", FileName: "close.go", Kind: model.KindCode, Vector: []float32{0.9, 0.1}},
		{SubmissionID: "far", Author: "carol", FileName: "far.go", Kind: model.KindCode, Vector: []float32{-1, 0}},
		{SubmissionID: "prose", Author: "dave", FileName: "essay.md", Kind: model.KindNaturalLanguage, Vector: []float32{1, 0}},
	}
	for _, e := range seed {
		if err := idx.Add(ctx, e); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	hits, err := idx.Search(ctx, []float32{1, 0}, model.KindCode, "alice", 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Expected 2 hits (own work and prose excluded), got %d", len(hits))
	}
	if hits[0].SubmissionID != "close" {
		t.Errorf("Expected the nearest vector first, got %s", hits[0].SubmissionID)
	}
	if hits[0].Score <= hits[1].Score {
		t.Errorf("Expected descending scores, got %f then %f", hits[0].Score, hits[1].Score)
	}
	for _, h := range hits {
		if h.SubmissionID == "own" {
			t.Error("Expected the author's own submission excluded")
		}
	}
}

func TestSQLiteIndex_UnknownAuthorExcludesNothing(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	// Priors stored without an author must stay searchable when the
	// current submission's author is also unknown.
	seed := []Entry{
		{SubmissionID: "anon", Author: "", FileName: "a.go", Kind: model.KindCode, Vector: []float32{1, 0}},
		{SubmissionID: "named", Author: "bob", FileName: "b.go", Kind: model.KindCode, Vector: []float32{0.9, 0.1}},
	}
	for _, e := range seed {
		if err := idx.Add(ctx, e); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	hits, err := idx.Search(ctx, []float32{1, 0}, model.KindCode, "", 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Expected both priors returned, got %d", len(hits))
	}
	if hits[0].SubmissionID != "anon" {
		t.Errorf("Expected the anonymous prior ranked first, got %s", hits[0].SubmissionID)
	}
}

func TestSQLiteIndex_SearchCapsAtK(t *testing.T) {
	idx := openTestIndex(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := idx.Add(ctx, Entry{
			SubmissionID: "s", Author: "bob", FileName: "f.go",
			Kind: model.KindCode, Vector: []float32{1, float32(i)},
		})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	hits, err := idx.Search(ctx, []float32{1, 0}, model.KindCode, "", 3)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(hits) != 3 {
		t.Errorf("Expected k=3 hits, got %d", len(hits))
	}
}
