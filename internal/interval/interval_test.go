package interval

import (
	"reflect"
	"testing"
)

func TestMaximalIntervals(t *testing.T) {
	got := MaximalIntervals([]uint64{1, 2, 3, 7, 8, 10})
	want := []Interval{{1, 4}, {7, 9}, {10, 11}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MaximalIntervals = %v, want %v", got, want)
	}
}

func TestMaximalIntervalsEmpty(t *testing.T) {
	if got := MaximalIntervals(nil); got != nil {
		t.Fatalf("MaximalIntervals(nil) = %v, want nil", got)
	}
}

func TestInflateRoundTrip(t *testing.T) {
	xs := []uint64{1, 2, 3, 7, 8, 10}
	ivs := MaximalIntervals(xs)
	got := Inflate(ivs)
	if !reflect.DeepEqual(got, xs) {
		t.Fatalf("Inflate(MaximalIntervals(xs)) = %v, want %v", got, xs)
	}
}

func TestCoalesce(t *testing.T) {
	in := []Interval{{0, 3}, {3, 5}, {7, 9}, {8, 12}}
	want := []Interval{{0, 5}, {7, 12}}
	if got := Coalesce(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("Coalesce = %v, want %v", got, want)
	}
}

func TestContains(t *testing.T) {
	ivs := []Interval{{0, 5}, {10, 15}, {20, 21}}
	cases := []struct {
		x    uint64
		want bool
	}{
		{0, true}, {4, true}, {5, false}, {9, false},
		{10, true}, {14, true}, {15, false}, {20, true}, {21, false},
	}
	for _, c := range cases {
		if got := Contains(ivs, c.x); got != c.want {
			t.Errorf("Contains(ivs, %d) = %v, want %v", c.x, got, c.want)
		}
	}
}

func TestContainsEmpty(t *testing.T) {
	if Contains(nil, 5) {
		t.Fatal("Contains(nil, 5) = true, want false")
	}
}

func TestUnion(t *testing.T) {
	left := []Interval{{0, 3}, {10, 12}}
	right := []Interval{{2, 6}, {20, 21}}
	want := []Interval{{0, 6}, {10, 12}, {20, 21}}
	if got := Union(left, right); !reflect.DeepEqual(got, want) {
		t.Fatalf("Union = %v, want %v", got, want)
	}
}

func TestUnionEmptySides(t *testing.T) {
	left := []Interval{{0, 3}}
	if got := Union(left, nil); !reflect.DeepEqual(got, left) {
		t.Fatalf("Union(left, nil) = %v, want %v", got, left)
	}
	if got := Union(nil, left); !reflect.DeepEqual(got, left) {
		t.Fatalf("Union(nil, left) = %v, want %v", got, left)
	}
}

func TestIntersection(t *testing.T) {
	left := []Interval{{0, 5}, {10, 20}}
	right := []Interval{{3, 12}, {15, 25}}
	want := []Interval{{3, 5}, {10, 12}, {15, 20}}
	if got := Intersection(left, right); !reflect.DeepEqual(got, want) {
		t.Fatalf("Intersection = %v, want %v", got, want)
	}
}

func TestIntersectionDisjoint(t *testing.T) {
	left := []Interval{{0, 5}}
	right := []Interval{{5, 10}}
	if got := Intersection(left, right); len(got) != 0 {
		t.Fatalf("Intersection of touching-but-disjoint = %v, want empty", got)
	}
}

func TestDifference(t *testing.T) {
	left := []Interval{{0, 10}}
	right := []Interval{{3, 5}, {7, 8}}
	want := []Interval{{0, 3}, {5, 7}, {8, 10}}
	if got := Difference(left, right); !reflect.DeepEqual(got, want) {
		t.Fatalf("Difference = %v, want %v", got, want)
	}
}

func TestDifferenceDisjoint(t *testing.T) {
	left := []Interval{{0, 5}}
	right := []Interval{{10, 15}}
	if got := Difference(left, right); !reflect.DeepEqual(got, left) {
		t.Fatalf("Difference with disjoint subtrahend = %v, want %v", got, left)
	}
}

func TestDifferenceEmptyRight(t *testing.T) {
	left := []Interval{{0, 5}}
	if got := Difference(left, nil); !reflect.DeepEqual(got, left) {
		t.Fatalf("Difference(left, nil) = %v, want %v", got, left)
	}
}

func TestDifferenceAsymmetric(t *testing.T) {
	left := []Interval{{0, 10}}
	right := []Interval{{0, 5}}
	a := Difference(left, right)
	b := Difference(right, left)
	if reflect.DeepEqual(a, b) {
		t.Fatalf("Difference should be asymmetric, got equal results %v", a)
	}
	if !reflect.DeepEqual(a, []Interval{{5, 10}}) {
		t.Fatalf("Difference(left, right) = %v, want [{5 10}]", a)
	}
	if len(b) != 0 {
		t.Fatalf("Difference(right, left) = %v, want empty", b)
	}
}

func TestChunk(t *testing.T) {
	ivs := []Interval{{0, 7}, {10, 14}}
	got := Chunk(ivs, 5)
	want := [][]Interval{
		{{0, 5}},
		{{5, 7}, {10, 13}},
		{{13, 14}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Chunk = %v, want %v", got, want)
	}
	for _, chunk := range got[:len(got)-1] {
		if Size(chunk) != 5 {
			t.Fatalf("chunk %v has size %d, want 5", chunk, Size(chunk))
		}
	}
}

func TestChunkExactMultiple(t *testing.T) {
	ivs := []Interval{{0, 10}}
	got := Chunk(ivs, 5)
	want := [][]Interval{{{0, 5}}, {{5, 10}}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Chunk = %v, want %v", got, want)
	}
}

func TestChunkOverflowSafe(t *testing.T) {
	const maxU64 = ^uint64(0)
	ivs := []Interval{{maxU64 - 3, maxU64}}
	got := Chunk(ivs, 100)
	want := [][]Interval{{{maxU64 - 3, maxU64}}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Chunk near uint64 max = %v, want %v", got, want)
	}
}

func TestAccumulatorDrainsAndFinishes(t *testing.T) {
	acc := NewAccumulator(4)
	for _, x := range []uint64{5, 1, 2, 3, 10, 2, 4} {
		acc.Push(x)
	}
	got := acc.Finish()
	want := []Interval{{1, 6}, {10, 11}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Accumulator.Finish = %v, want %v", got, want)
	}
}

func TestAccumulatorSmallerThanCapacity(t *testing.T) {
	acc := NewAccumulator(1024)
	for _, x := range []uint64{3, 4, 5} {
		acc.Push(x)
	}
	got := acc.Finish()
	want := []Interval{{3, 6}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Accumulator.Finish = %v, want %v", got, want)
	}
}

func TestAccumulatorZeroCapacityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewAccumulator(0) did not panic")
		}
	}()
	NewAccumulator(0)
}

func TestAccumulatorBackPlusOneSkipsDrain(t *testing.T) {
	acc := NewAccumulator(4)
	for _, x := range []uint64{0, 1, 2, 3} {
		acc.Push(x)
	}
	if acc.Len() != 4 {
		t.Fatalf("Len = %d, want 4 after filling to capacity", acc.Len())
	}
	// Continuing the open run at capacity must not force a drain.
	acc.Push(4)
	if acc.Len() != 5 {
		t.Fatalf("Len = %d, want 5 (push extending the back run should skip the drain)", acc.Len())
	}
	// A push that breaks the run must drain first.
	acc.Push(10)
	if acc.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (push breaking the run should drain first)", acc.Len())
	}

	got := acc.Finish()
	want := []Interval{{0, 5}, {10, 11}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Accumulator.Finish = %v, want %v", got, want)
	}
}

func TestAccumulatorAbsorb(t *testing.T) {
	acc := NewAccumulator(16)
	acc.Push(0)
	acc.Push(1)
	acc.Absorb([]Interval{{10, 12}, {20, 21}})
	got := acc.Finish()
	want := []Interval{{0, 2}, {10, 12}, {20, 21}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Finish after Absorb = %v, want %v", got, want)
	}
}
