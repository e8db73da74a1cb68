package model

import "testing"

func TestCategoryForConfidence_Bands(t *testing.T) {
	cases := []struct {
		confidence int
		want       AuthorshipCategory
	}{
		{100, CategoryAIGenerated},
		{70, CategoryAIGenerated},
		{69, CategoryHeavilyAssisted},
		{50, CategoryHeavilyAssisted},
		{49, CategoryLightlyAssisted},
		{30, CategoryLightlyAssisted},
		{29, CategoryHumanWritten},
		{0, CategoryHumanWritten},
	}
	for _, tc := range cases {
		if got := CategoryForConfidence(tc.confidence); got != tc.want {
			t.Errorf("CategoryForConfidence(%d) = %s, want %s", tc.confidence, got, tc.want)
		}
	}
}

func TestClampHelpers(t *testing.T) {
	if got := ClampConfidence(150); got != 100 {
		t.Errorf("Expected 100, got %d", got)
	}
	if got := ClampConfidence(-5); got != 0 {
		t.Errorf("Expected 0, got %d", got)
	}
	if got := ClampScore(101); got != 100 {
		t.Errorf("Expected 100, got %d", got)
	}
	if got := ClampScore(-1); got != 0 {
		t.Errorf("Expected 0, got %d", got)
	}
}

func TestKindFromFileName(t *testing.T) {
	cases := []struct {
		name string
		want ContentKind
	}{
		{"main.go", KindCode},
		{"script.py", KindCode},
		{"query.sql", KindCode},
		{"essay.md", KindNaturalLanguage},
		{"page.html", KindNaturalLanguage},
		{"archive.tar.gz", KindUnknown},
		{"Makefile", KindUnknown},
		{"dir.with.dots/readme", KindUnknown},
	}
	for _, tc := range cases {
		if got := KindFromFileName(tc.name); got != tc.want {
			t.Errorf("KindFromFileName(%q) = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestAnalyzableUnits(t *testing.T) {
	sub := &Submission{Units: []ContentUnit{
		{FileName: "a.go"},
		{FileName: "b.go", Unusable: true},
		{FileName: "c.go"},
	}}
	got := sub.AnalyzableUnits()
	if len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("Expected indices [0 2], got %v", got)
	}
}
