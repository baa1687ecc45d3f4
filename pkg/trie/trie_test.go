package trie

import "testing"

func tokens(vs ...interface{}) []Token {
	out := make([]Token, len(vs))

	for i, v := range vs {
		switch x := v.(type) {
		case int:
			out[i] = NumToken(int64(x))
		case Op:
			out[i] = OpToken(x)
		default:
			panic("tokens: unsupported literal")
		}
	}

	return out
}

func TestShortenNoMatch(t *testing.T) {
	tr := New()

	expr := tokens(1, 2, OpSum)
	got, ok := tr.Shorten(expr)

	if ok {
		t.Fatalf("expected no match on empty trie")
	}

	if len(got) != len(expr) {
		t.Fatalf("expected unchanged tokens, got %v", got)
	}
}

func TestInsertThenShortenScenarioE(t *testing.T) {
	// spec.md §8 Scenario E: "1 2 + 3 +" and "1 2 + 4 +" share "1 2 +".
	tr := New()

	prefix := tokens(1, 2, OpSum)
	tr.Insert(prefix, 10)

	expr := tokens(1, 2, OpSum, 4, OpSum)
	got, ok := tr.Shorten(expr)

	if !ok {
		t.Fatalf("expected a shortening match")
	}

	want := tokens(10, 4, OpSum)
	if len(got) != len(want) {
		t.Fatalf("Shorten() = %v, want %v", got, want)
	}

	for i := range got {
		if !got[i].Equal(want[i]) {
			t.Fatalf("Shorten() = %v, want %v", got, want)
		}
	}
}

func TestReInsertUpdatesLabel(t *testing.T) {
	tr := New()

	prefix := tokens(1, 2, OpSum)
	tr.Insert(prefix, 10)
	tr.Insert(prefix, 20)

	got, ok := tr.Shorten(tokens(1, 2, OpSum, 4, OpSum))
	if !ok {
		t.Fatalf("expected a match")
	}

	if !got[0].Equal(NumToken(20)) {
		t.Fatalf("expected re-insertion to update the label, got %v", got[0])
	}
}

func TestShortenPrefersDeepestMatch(t *testing.T) {
	tr := New()

	tr.Insert(tokens(1, 2, OpSum), 10)
	tr.Insert(tokens(1, 2, OpSum, 3, OpSum), 20)

	got, ok := tr.Shorten(tokens(1, 2, OpSum, 3, OpSum, 4, OpSum))
	if !ok {
		t.Fatalf("expected a match")
	}

	want := tokens(20, 4, OpSum)
	if len(got) != len(want) || !got[0].Equal(want[0]) || !got[1].Equal(want[1]) || !got[2].Equal(want[2]) {
		t.Fatalf("Shorten() = %v, want deepest-prefix match %v", got, want)
	}
}
