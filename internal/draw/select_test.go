package draw

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"testing"
)

func pool(n int) []Candidate {
	out := make([]Candidate, n)
	for i := range out {
		out[i] = Candidate{Position: i, Name: fmt.Sprintf("viewer%02d", i)}
	}
	return out
}

func TestSelectExcludesRecentWinners(t *testing.T) {
	candidates := pool(15)
	ring := NewRing(DefaultRingSize)
	sel := NewSelector(ring, WithSource(rand.NewPCG(1, 2)))

	// Five draws of two fill the ring; no draw may repeat a ring member.
	seen := make(map[string]bool)
	for round := 0; round < 5; round++ {
		before := ring.Names()
		winners, err := sel.Select(candidates, 2, nil)
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		for _, w := range winners {
			for _, r := range before {
				if w.Name == r {
					t.Fatalf("round %d drew recent winner %s", round, w.Name)
				}
			}
			if seen[w.Name] {
				t.Fatalf("round %d repeated %s within ring window", round, w.Name)
			}
			seen[w.Name] = true
		}
	}

	if ring.Len() != 10 {
		t.Errorf("ring holds %d names, want 10", ring.Len())
	}
}

func TestSelectPoolTooSmall(t *testing.T) {
	ring := NewRing(DefaultRingSize)
	ring.Push("viewer00", "viewer01")
	sel := NewSelector(ring, WithSource(rand.NewPCG(3, 4)))

	excluded := map[string]bool{"viewer02": true}
	_, err := sel.Select(pool(4), 2, excluded)
	if !errors.Is(err, ErrPoolTooSmall) {
		t.Fatalf("err = %v, want ErrPoolTooSmall", err)
	}
	if got := ring.Names(); !reflect.DeepEqual(got, []string{"viewer00", "viewer01"}) {
		t.Errorf("failed draw changed ring: %v", got)
	}
}

func TestSelectSkipsExcluded(t *testing.T) {
	sel := NewSelector(NewRing(DefaultRingSize), WithSource(rand.NewPCG(5, 6)))
	excluded := map[string]bool{"viewer00": true, "viewer01": true}

	winners, err := sel.Select(pool(3), 1, excluded)
	if err != nil {
		t.Fatal(err)
	}
	if len(winners) != 1 || winners[0].Name != "viewer02" {
		t.Errorf("winners = %v, want [viewer02]", winners)
	}
}

func TestRingEvictsOldest(t *testing.T) {
	ring := NewRing(3)
	ring.Push("a", "b", "c")
	ring.Push("d")

	if ring.Contains("a") {
		t.Error("oldest name not evicted")
	}
	if got := ring.Names(); !reflect.DeepEqual(got, []string{"b", "c", "d"}) {
		t.Errorf("Names() = %v, want [b c d]", got)
	}

	ring.Reset()
	if ring.Len() != 0 {
		t.Errorf("Len after Reset = %d", ring.Len())
	}
}
