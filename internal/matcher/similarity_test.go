package matcher

import "testing"

func TestSimilarityIdentical(t *testing.T) {
	t.Parallel()

	if got := Similarity("Eliud Kipchoge", "Eliud Kipchoge"); got != 1 {
		t.Fatalf("Similarity(identical) = %v, want 1", got)
	}
}

func TestSimilarityIgnoresCaseAndWhitespace(t *testing.T) {
	t.Parallel()

	if got := Similarity("Mo  Farah", "mo farah"); got != 1 {
		t.Fatalf("Similarity(case/space variants) = %v, want 1", got)
	}
}

func TestSimilarityDisjoint(t *testing.T) {
	t.Parallel()

	if got := Similarity("abcdef", "uvwxyz"); got != 0 {
		t.Fatalf("Similarity(disjoint) = %v, want 0", got)
	}
}

func TestSimilarityEmpty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
	}{
		{"both empty", "", ""},
		{"one empty", "Eliud", ""},
		{"single char", "a", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); got != 0 {
				t.Fatalf("Similarity(%q, %q) = %v, want 0", tt.a, tt.b, got)
			}
		})
	}
}

func TestSimilarityPartial(t *testing.T) {
	t.Parallel()

	got := Similarity("Mo Farrah", "Mo Farah")
	if got <= 0.8 || got >= 1 {
		t.Fatalf("Similarity(near miss) = %v, want in (0.8, 1)", got)
	}
}
