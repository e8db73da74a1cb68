package authorship

import (
	"strings"
	"testing"
)

func TestParseTriageVerdict_Tolerant(t *testing.T) {
	cases := []struct {
		in   string
		want TriageVerdict
	}{
		{"obviously_ai", TriageObviouslyAI},
		{"Obviously AI!", TriageObviouslyAI},
		{"verdict: obviously-ai", TriageObviouslyAI},
		{"OBVIOUSLY_HUMAN", TriageObviouslyHuman},
		{"  uncertain  ", TriageUncertain},
		{"probably human", TriageUnknown},
		{"", TriageUnknown},
		{"aibviously", TriageUnknown},
	}
	for _, tc := range cases {
		if got := ParseTriageVerdict(tc.in); got != tc.want {
			t.Errorf("ParseTriageVerdict(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseTriageResponse_StrictJSON(t *testing.T) {
	got, err := parseTriageResponse(`{"verdict": "uncertain", "score": 55, "reason": "mixed"}`)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got.Verdict != TriageUncertain {
		t.Errorf("Expected uncertain, got %s", got.Verdict)
	}
	if got.Score != 55 {
		t.Errorf("Expected score 55, got %d", got.Score)
	}
	if got.Evidence != "mixed" {
		t.Errorf("Expected evidence 'mixed', got %q", got.Evidence)
	}
}

func TestParseTriageResponse_JSONEmbeddedInProse(t *testing.T) {
	text := "Here is my assessment:\n```json\n" +
		`{"verdict": "obviously_ai", "score": 88, "reason": "template phrasing"}` +
		"\n```\nLet me know if you need more."

	got, err := parseTriageResponse(text)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got.Verdict != TriageObviouslyAI {
		t.Errorf("Expected obviously_ai, got %s", got.Verdict)
	}
	if got.Score != 88 {
		t.Errorf("Expected score 88, got %d", got.Score)
	}
}

func TestParseTriageResponse_FreeText(t *testing.T) {
	got, err := parseTriageResponse("The file is obviously_human, I'd say 12 out of 100.")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got.Verdict != TriageObviouslyHuman {
		t.Errorf("Expected obviously_human, got %s", got.Verdict)
	}
	if got.Score != 12 {
		t.Errorf("Expected score 12, got %d", got.Score)
	}
}

func TestParseTriageResponse_Garbage(t *testing.T) {
	if _, err := parseTriageResponse("I cannot help with that."); err == nil {
		t.Error("Expected an error for output with no verdict")
	}
}

func TestParseTriageResponse_ScoreReconciledWithVerdict(t *testing.T) {
	// obviously_ai with a sub-band score is floored into its band
	got, err := parseTriageResponse(`{"verdict": "obviously_ai", "score": 40, "reason": "x"}`)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got.Score != 70 {
		t.Errorf("Expected score floored to 70, got %d", got.Score)
	}

	// obviously_human with an over-band score is capped below 30
	got, err = parseTriageResponse(`{"verdict": "obviously_human", "score": 80, "reason": "x"}`)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got.Score != 29 {
		t.Errorf("Expected score capped at 29, got %d", got.Score)
	}
}

func TestParseDeepResponse_RegexFallbackPerDimension(t *testing.T) {
	var b strings.Builder
	for _, d := range Dimensions {
		b.WriteString(d.Key + ": 60\n")
	}

	rationale, confidence, err := parseDeepResponse(b.String())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if confidence != 60 {
		t.Errorf("Expected confidence 60, got %d", confidence)
	}
	if len(rationale) != len(Dimensions) {
		t.Errorf("Expected %d entries, got %d", len(Dimensions), len(rationale))
	}
}

func TestParseDeepResponse_MissingDimensionFails(t *testing.T) {
	_, _, err := parseDeepResponse(`{"documentation": {"score": 50, "evidence": "x"}}`)
	if err == nil {
		t.Error("Expected an error when dimensions are missing")
	}
}
