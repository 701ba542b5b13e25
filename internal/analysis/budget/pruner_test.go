package budget

import (
	"strings"
	"testing"

	"github.com/manu-sreesanth/echojournal/internal/model/chat"
)

func turns(contents ...string) []chat.Turn {
	out := make([]chat.Turn, 0, len(contents))
	for i, c := range contents {
		role := chat.RoleUser
		if i%2 == 1 {
			role = chat.RoleAssistant
		}
		out = append(out, chat.Turn{Role: role, Content: c})
	}
	return out
}

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 400), 100},
	}
	for _, tc := range cases {
		if got := EstimateTokens(tc.text); got != tc.want {
			t.Fatalf("EstimateTokens(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestPruneKeepsContiguousSuffix(t *testing.T) {
	h := turns(
		strings.Repeat("a", 40), // 10 tokens
		strings.Repeat("b", 40), // 10 tokens
		strings.Repeat("c", 40), // 10 tokens
	)

	got := Prune(h, 25)
	if len(got) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(got))
	}
	if got[0].Content != h[1].Content || got[1].Content != h[2].Content {
		t.Fatal("pruned history is not the newest contiguous suffix")
	}
}

func TestPruneNewestTurnTooLarge(t *testing.T) {
	h := turns(strings.Repeat("x", 400))
	if got := Prune(h, 50); len(got) != 0 {
		t.Fatalf("expected empty result, got %d turns", len(got))
	}
}

func TestPruneEmptyAndZeroBudget(t *testing.T) {
	if got := Prune(nil, 100); got != nil {
		t.Fatal("expected nil for empty history")
	}
	if got := Prune(turns("hello"), 0); got != nil {
		t.Fatal("expected nil for zero budget")
	}
}

func TestPruneIdempotent(t *testing.T) {
	h := turns(
		strings.Repeat("a", 80),
		strings.Repeat("b", 80),
		strings.Repeat("c", 80),
		strings.Repeat("d", 80),
	)

	once := Prune(h, 45)
	twice := Prune(once, 45)
	if len(once) != len(twice) {
		t.Fatalf("re-pruning changed length: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].Content != twice[i].Content {
			t.Fatalf("re-pruning changed turn %d", i)
		}
	}
}

func TestPruneMonotoneInBudget(t *testing.T) {
	h := turns(
		strings.Repeat("a", 60),
		strings.Repeat("b", 60),
		strings.Repeat("c", 60),
		strings.Repeat("d", 60),
		strings.Repeat("e", 60),
	)

	prev := -1
	for _, b := range []int{0, 10, 20, 40, 60, 100, 1000} {
		n := len(Prune(h, b))
		if n < prev {
			t.Fatalf("budget %d produced fewer turns (%d) than a smaller budget (%d)", b, n, prev)
		}
		prev = n
	}
}

func TestPruneAlwaysKeepsNewestWhenItFits(t *testing.T) {
	h := turns(strings.Repeat("old", 200), "any tips?")
	got := Prune(h, 5)
	if len(got) != 1 || got[0].Content != "any tips?" {
		t.Fatalf("expected only the newest turn, got %+v", got)
	}
}
