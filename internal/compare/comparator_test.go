package compare

import (
	"context"
	"strings"
	"testing"

	"github.com/pkoval/attestor/internal/model"
)

func testConfig() model.SimilarityConfig {
	return model.SimilarityConfig{
		MinBlockLen:          8,
		DuplicationThreshold: 0.70,
		RetainThreshold:      0.40,
	}
}

func codeUnit(name, text string) model.ContentUnit {
	return model.ContentUnit{FileName: name, Normalized: text, Kind: model.KindCode}
}

func proseUnit(name, text string) model.ContentUnit {
	return model.ContentUnit{FileName: name, Normalized: text, Kind: model.KindNaturalLanguage}
}

const sampleCode = `func process(items []string) int {
	count := 0
	for _, item := range items {
		if item != "" {
			count++
		}
	}
	return count
}`

func TestComparator_IdenticalCodeFlagsDuplication(t *testing.T) {
	c := NewComparator(testConfig())

	pairs, err := c.Compare(context.Background(), []model.ContentUnit{
		codeUnit("a.go", sampleCode),
		codeUnit("b.go", sampleCode),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(pairs))
	}

	p := pairs[0]
	if !p.Duplication {
		t.Error("Expected identical code to be flagged as duplication")
	}
	if p.Weight < 0.99 {
		t.Errorf("Expected weight near 1.0 for identical code, got %f", p.Weight)
	}
	if p.Structural != 1.0 {
		t.Errorf("Expected structural similarity 1.0, got %f", p.Structural)
	}
	if len(p.Matches) == 0 {
		t.Fatal("Expected match records for a retained pair")
	}
	for _, m := range p.Matches {
		if len(m.Spans) == 0 {
			t.Errorf("Expected every match to carry at least one span, %s match has none", m.Kind)
		}
	}
}

func TestComparator_CommentOnlyDifference(t *testing.T) {
	c := NewComparator(testConfig())
	commented := "// Processes the items and counts the non-empty ones.\n" +
		strings.ReplaceAll(sampleCode, "count := 0", "count := 0 // running total")

	pairs, err := c.Compare(context.Background(), []model.ContentUnit{
		codeUnit("plain.go", sampleCode),
		codeUnit("commented.go", commented),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(pairs))
	}

	p := pairs[0]
	if p.Stripped < 0.99 {
		t.Errorf("Expected stripped similarity near 1.0 for comment-only differences, got %f", p.Stripped)
	}
	if p.Stripped <= p.Lexical {
		t.Errorf("Expected stripped (%f) to exceed lexical (%f) when only comments differ", p.Stripped, p.Lexical)
	}
	if !p.Duplication {
		t.Errorf("Expected duplication despite comment noise, weight %f", p.Weight)
	}
}

func TestComparator_DissimilarPairsDropped(t *testing.T) {
	c := NewComparator(testConfig())

	pairs, err := c.Compare(context.Background(), []model.ContentUnit{
		proseUnit("a.txt", "completely unrelated discussion about marine biology and tides"),
		proseUnit("b.txt", "zzzz qqqq xxxx jjjj kkkk wwww"),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(pairs) != 0 {
		t.Errorf("Expected no retained pairs below the retain threshold, got %d", len(pairs))
	}
}

func TestComparator_NonCodeRenormalization(t *testing.T) {
	c := NewComparator(testConfig())
	essay := "The industrial revolution transformed European manufacturing between 1760 and 1840."

	pairs, err := c.Compare(context.Background(), []model.ContentUnit{
		proseUnit("a.md", essay),
		proseUnit("b.md", essay),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("Expected 1 pair, got %d", len(pairs))
	}

	p := pairs[0]
	if p.Structural != 0 {
		t.Errorf("Expected no structural term for prose, got %f", p.Structural)
	}
	// Identical prose must still reach full weight with the structural
	// term renormalized away
	if p.Weight < 0.99 {
		t.Errorf("Expected weight near 1.0 for identical prose, got %f", p.Weight)
	}
}

func TestComparator_OrderedByWeightDescending(t *testing.T) {
	c := NewComparator(testConfig())
	shared := strings.Repeat("the same shared paragraph of text ", 4)
	units := []model.ContentUnit{
		proseUnit("a.txt", shared+strings.Repeat("unique tail one two three ", 4)),
		proseUnit("b.txt", shared+strings.Repeat("unique tail one two three ", 4)),
		proseUnit("c.txt", shared+strings.Repeat("entirely different closing material ", 4)),
	}

	pairs, err := c.Compare(context.Background(), units)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(pairs) < 2 {
		t.Fatalf("Expected at least 2 retained pairs, got %d", len(pairs))
	}
	for i := 1; i < len(pairs); i++ {
		if pairs[i].Weight > pairs[i-1].Weight {
			t.Errorf("Expected descending weights, got %f before %f", pairs[i-1].Weight, pairs[i].Weight)
		}
	}
	if pairs[0].FileA != "a.txt" || pairs[0].FileB != "b.txt" {
		t.Errorf("Expected the identical pair first, got %s/%s", pairs[0].FileA, pairs[0].FileB)
	}
}

func TestComparator_UnusableUnitsSkipped(t *testing.T) {
	c := NewComparator(testConfig())
	unusable := model.ContentUnit{FileName: "empty.go", Kind: model.KindCode, Unusable: true}

	pairs, err := c.Compare(context.Background(), []model.ContentUnit{
		codeUnit("a.go", sampleCode),
		unusable,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(pairs) != 0 {
		t.Errorf("Expected no pairs involving unusable units, got %d", len(pairs))
	}
}

func TestComparator_CancelledContext(t *testing.T) {
	c := NewComparator(testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Compare(ctx, []model.ContentUnit{
		codeUnit("a.go", sampleCode),
		codeUnit("b.go", sampleCode),
	})
	if err == nil {
		t.Error("Expected an error from a cancelled context")
	}
}

func TestBestWeight(t *testing.T) {
	if got := BestWeight(nil); got != 0 {
		t.Errorf("Expected 0 for no pairs, got %f", got)
	}
	pairs := []model.InternalPair{{Weight: 0.8}, {Weight: 0.5}}
	if got := BestWeight(pairs); got != 0.8 {
		t.Errorf("Expected the first (highest) weight, got %f", got)
	}
}
