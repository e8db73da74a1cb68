package similarity

import (
	"reflect"
	"testing"
)

func TestFingerprint_RenameInvariance(t *testing.T) {
	original := `func sum(a, b int) int {
	if a > b {
		return a + b
	}
	return a - b
}`
	renamed := `func total(first, second int) int {
	if first > second {
		return first + second
	}
	return first - second
}`

	skA := Fingerprint(original)
	skB := Fingerprint(renamed)

	if skA.ParseFailed || skB.ParseFailed {
		t.Fatal("Expected both snippets to fingerprint cleanly")
	}
	if !reflect.DeepEqual(skA.Tokens, skB.Tokens) {
		t.Errorf("Expected identical skeletons after renaming:\n%v\n%v", skA.Tokens, skB.Tokens)
	}
	if got := CompareSkeletons(skA, skB); got != 1.0 {
		t.Errorf("Expected similarity 1.0 for renamed code, got %f", got)
	}
}

func TestFingerprint_PythonInlineBody(t *testing.T) {
	inline := `def add(a, b): return a + b`
	expanded := `def add(a, b):
    return a + b`

	skA := Fingerprint(inline)
	skB := Fingerprint(expanded)

	if !reflect.DeepEqual(skA.Tokens, skB.Tokens) {
		t.Errorf("Expected inline and expanded bodies to match:\n%v\n%v", skA.Tokens, skB.Tokens)
	}
	if got := CompareSkeletons(skA, skB); got != 1.0 {
		t.Errorf("Expected similarity 1.0, got %f", got)
	}
}

func TestFingerprint_SemicolonStatements(t *testing.T) {
	joined := Fingerprint(`x = 1; y = 2; z = x + y`)
	split := Fingerprint("x = 1\ny = 2\nz = x + y")

	if !reflect.DeepEqual(joined.Tokens, split.Tokens) {
		t.Errorf("Expected semicolon-joined statements to split:\n%v\n%v", joined.Tokens, split.Tokens)
	}
}

func TestFingerprint_SemicolonInsideString(t *testing.T) {
	sk := Fingerprint(`greeting = "hello; world"`)
	if len(sk.Tokens) != 1 {
		t.Errorf("Expected one statement when the semicolon is quoted, got %v", sk.Tokens)
	}
}

func TestFingerprint_EmptyInputIsOpaque(t *testing.T) {
	sk := Fingerprint("")
	if !sk.ParseFailed {
		t.Error("Expected ParseFailed for empty input")
	}
	if len(sk.Tokens) != 1 || sk.Tokens[0] != opaqueToken {
		t.Errorf("Expected the single opaque token, got %v", sk.Tokens)
	}
}

func TestCompareSkeletons_OpaqueNeverMatches(t *testing.T) {
	opaque := Fingerprint("")
	if got := CompareSkeletons(opaque, opaque); got != 0.0 {
		t.Errorf("Expected opaque skeletons to score 0, got %f", got)
	}
}

func TestCompareSkeletons_DifferentStructure(t *testing.T) {
	loops := Fingerprint(`for i := 0; i < 10; i++ {
	process(i)
}
for j := 0; j < 20; j++ {
	process(j)
}`)
	flat := Fingerprint(`import "fmt"
x = 1
y = 2`)

	got := CompareSkeletons(loops, flat)
	if got >= 0.5 {
		t.Errorf("Expected low similarity for unrelated structures, got %f", got)
	}
}

func TestFingerprint_DepthTracking(t *testing.T) {
	nested := Fingerprint(`if outer {
	if inner {
		return 1
	}
}`)
	for _, tok := range nested.Tokens {
		if tok == "return@2" {
			return
		}
	}
	t.Errorf("Expected a return token at depth 2, got %v", nested.Tokens)
}
