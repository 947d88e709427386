package setgen

import (
	"math/rand"
	"strconv"
	"strings"
	"testing"
)

func drainAll(t *testing.T, gen Generator) [][]string {
	t.Helper()
	var sets [][]string
	for {
		ids, ok := gen.Next()
		if !ok {
			break
		}
		sets = append(sets, ids)
	}
	// Exhaustion is final.
	if _, ok := gen.Next(); ok {
		t.Fatalf("Generator yielded a set after exhaustion")
	}
	return sets
}

func assertIDsInUniverse(t *testing.T, sets [][]string, universeSize int64) {
	t.Helper()
	for i, ids := range sets {
		for _, id := range ids {
			v, err := strconv.ParseInt(id, 10, 64)
			if err != nil {
				t.Fatalf("Set %d: id %q is not an integer: %v", i, id, err)
			}
			if v < 0 || v >= universeSize {
				t.Errorf("Set %d: id %d outside universe [0, %d)", i, v, universeSize)
			}
		}
	}
}

func TestIndependentGenerator(t *testing.T) {
	const (
		universeSize = 10000
		numSets      = 5
		setSize      = 100
	)
	factory := NewIndependentFactory(universeSize, numSets, setSize)
	sets := drainAll(t, factory(rand.New(rand.NewSource(1))))

	if len(sets) != numSets {
		t.Fatalf("Expected %d sets, got %d", numSets, len(sets))
	}
	for i, ids := range sets {
		if len(ids) != setSize {
			t.Errorf("Set %d: expected %d ids, got %d", i, setSize, len(ids))
		}
	}
	assertIDsInUniverse(t, sets, universeSize)
}

func TestIndependentGeneratorDeterministic(t *testing.T) {
	factory := NewIndependentFactory(1000000, 3, 20)
	first := drainAll(t, factory(rand.New(rand.NewSource(7))))
	second := drainAll(t, factory(rand.New(rand.NewSource(7))))

	for i := range first {
		if strings.Join(first[i], ",") != strings.Join(second[i], ",") {
			t.Errorf("Set %d differs between identically seeded generators", i)
		}
	}
}

func TestIndependentGeneratorAdvancesSharedStream(t *testing.T) {
	// Consecutive generators from one stream must not repeat data.
	factory := NewIndependentFactory(1000000000, 1, 20)
	rng := rand.New(rand.NewSource(3))
	first := drainAll(t, factory(rng))
	second := drainAll(t, factory(rng))

	if strings.Join(first[0], ",") == strings.Join(second[0], ",") {
		t.Errorf("Consecutive trials produced identical sets; stream did not advance")
	}
}

func TestFullyOverlappedGenerator(t *testing.T) {
	const numSets = 4
	factory := NewFullyOverlappedFactory(100000, numSets, 50)
	sets := drainAll(t, factory(rand.New(rand.NewSource(1))))

	if len(sets) != numSets {
		t.Fatalf("Expected %d sets, got %d", numSets, len(sets))
	}
	base := strings.Join(sets[0], ",")
	for i, ids := range sets[1:] {
		if strings.Join(ids, ",") != base {
			t.Errorf("Set %d differs from the first; expected full overlap", i+1)
		}
	}
	assertIDsInUniverse(t, sets, 100000)
}

func TestExponentialBowGenerator(t *testing.T) {
	const (
		universeSize = 100000
		numSets      = 3
		setSize      = 200
	)
	factory := NewExponentialBowFactory(universeSize, numSets, setSize, 10)
	sets := drainAll(t, factory(rand.New(rand.NewSource(1))))

	if len(sets) != numSets {
		t.Fatalf("Expected %d sets, got %d", numSets, len(sets))
	}
	for i, ids := range sets {
		if len(ids) != setSize {
			t.Errorf("Set %d: expected %d ids, got %d", i, setSize, len(ids))
		}
	}
	assertIDsInUniverse(t, sets, universeSize)
}

func TestExponentialBowGeneratorSkew(t *testing.T) {
	// With decay rate 10 the bulk of draws land in the low end of the
	// universe.
	const universeSize = 100000
	factory := NewExponentialBowFactory(universeSize, 1, 1000, 10)
	sets := drainAll(t, factory(rand.New(rand.NewSource(1))))

	low := 0
	for _, id := range sets[0] {
		v, _ := strconv.ParseInt(id, 10, 64)
		if v < universeSize/2 {
			low++
		}
	}
	if low < 900 {
		t.Errorf("Expected heavy skew toward low ids, got %d/1000 below midpoint", low)
	}
}
