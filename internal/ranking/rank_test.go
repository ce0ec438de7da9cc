package ranking

import (
	"math/rand"
	"testing"

	"github.com/FranksOps/shopscout/internal/places"
)

func rated(id string, rating float64) places.Match {
	return places.Match{PlaceID: &id, Rating: &rating}
}

func unrated(id string) places.Match {
	return places.Match{PlaceID: &id}
}

func ids(matches []places.Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = *m.PlaceID
	}
	return out
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	in := []places.Match{rated("first", 4.5), rated("second", 4.5), rated("third", 3.0)}

	got := Rank(in, 2)

	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if *got[0].PlaceID != "first" || *got[1].PlaceID != "second" {
		t.Errorf("expected [first second], got %v", ids(got))
	}
}

func TestRank_MissingRatingSortsLast(t *testing.T) {
	in := []places.Match{unrated("none"), rated("low", 0.1), rated("zero", 0)}

	got := ids(Rank(in, 10))

	// the unrated match scores 0 and ties with "zero"; it came first in the input
	want := []string{"low", "none", "zero"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestRank_Empty(t *testing.T) {
	if got := Rank(nil, 5); len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}
}

func TestRank_DefaultLimit(t *testing.T) {
	in := make([]places.Match, 75)
	for i := range in {
		in[i] = rated("m", float64(i%5))
	}
	if got := Rank(in, 0); len(got) != DefaultLimit {
		t.Errorf("expected %d results, got %d", DefaultLimit, len(got))
	}
}

func TestRank_DoesNotModifyInput(t *testing.T) {
	in := []places.Match{rated("a", 1), rated("b", 5), rated("c", 3)}

	_ = Rank(in, 2)

	got := ids(in)
	if got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("input was reordered: %v", got)
	}
}

func TestRank_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(40)
		limit := 1 + rng.Intn(50)

		in := make([]places.Match, n)
		pos := make(map[*string]int, n)
		for i := range in {
			id := string(rune('A' + i%26))
			if rng.Intn(4) == 0 {
				in[i] = unrated(id)
			} else {
				// coarse ratings so ties are common
				in[i] = rated(id, float64(rng.Intn(6))/2)
			}
			pos[in[i].PlaceID] = i
		}

		out := Rank(in, limit)

		if want := min(n, limit); len(out) != want {
			t.Fatalf("len(Rank) = %d, want %d", len(out), want)
		}
		for i := 1; i < len(out); i++ {
			prev, cur := out[i-1], out[i]
			if prev.Score() < cur.Score() {
				t.Fatalf("not descending at %d: %v then %v", i, prev.Score(), cur.Score())
			}
			if prev.Score() == cur.Score() && pos[prev.PlaceID] > pos[cur.PlaceID] {
				t.Fatalf("tie at %d broke input order", i)
			}
		}
	}
}

func TestRank_PermutationWhenLimitCoversInput(t *testing.T) {
	in := []places.Match{rated("a", 2.5), rated("b", 4.9), rated("c", 1.0), rated("d", 3.3)}

	out := Rank(in, len(in))

	if len(out) != len(in) {
		t.Fatalf("expected %d results, got %d", len(in), len(out))
	}
	seen := map[*string]int{}
	for _, m := range out {
		seen[m.PlaceID]++
	}
	for _, m := range in {
		if seen[m.PlaceID] != 1 {
			t.Errorf("match %s appears %d times", *m.PlaceID, seen[m.PlaceID])
		}
	}
	if got := ids(out); got[0] != "b" || got[3] != "c" {
		t.Errorf("unexpected order %v", got)
	}
}
