package visitor

import (
	"testing"

	"github.com/jbosboom/pushfight-solver/internal/board"
	"github.com/jbosboom/pushfight-solver/internal/interval"
	"github.com/jbosboom/pushfight-solver/internal/state"
	"github.com/jbosboom/pushfight-solver/internal/wludb"
)

// fakeDatabase answers Query from a fixed rank->Outcome map, defaulting
// to wludb.Unknown for any rank not present.
type fakeDatabase map[uint64]wludb.Outcome

func (f fakeDatabase) Query(rank uint64) wludb.Outcome {
	if o, ok := f[rank]; ok {
		return o
	}
	return wludb.Unknown
}

func TestCompositeValueVisitorWinsOnEnemyRemoval(t *testing.T) {
	b := board.Traditional()
	v := NewCompositeValueVisitor(b, fakeDatabase{})
	s := traditionalState(5)

	v.Begin(s)
	if v.Accept(state.State{}, 'e') {
		t.Fatal("Accept('e') should stop expansion")
	}
	v.End(s)

	win, loss := v.Results()
	rank, _ := state.Rank(b, s)
	if !interval.Contains(win, rank) {
		t.Fatalf("win intervals %v do not contain source rank %d", win, rank)
	}
	if len(loss) != 0 {
		t.Fatalf("loss intervals = %v, want empty", loss)
	}
}

func TestCompositeValueVisitorWinsOnLossSuccessor(t *testing.T) {
	b := board.Traditional()
	successor := traditionalState(2)
	succRank, _ := state.Rank(b, successor)
	db := fakeDatabase{succRank: wludb.Loss}

	v := NewCompositeValueVisitor(b, db)
	s := traditionalState(5)

	v.Begin(s)
	if v.Accept(successor, ' ') {
		t.Fatal("Accept should stop expansion once a losing successor is found")
	}
	v.End(s)

	win, _ := v.Results()
	rank, _ := state.Rank(b, s)
	if !interval.Contains(win, rank) {
		t.Fatalf("win intervals %v do not contain source rank %d", win, rank)
	}
}

func TestCompositeValueVisitorLosesWhenAllRepliesWin(t *testing.T) {
	b := board.Traditional()
	successor := traditionalState(2)
	succRank, _ := state.Rank(b, successor)
	db := fakeDatabase{succRank: wludb.Win}

	v := NewCompositeValueVisitor(b, db)
	s := traditionalState(5)

	v.Begin(s)
	v.Accept(successor, ' ')
	v.Accept(state.State{}, 'A') // excluded from the proof either way
	v.End(s)

	win, loss := v.Results()
	if len(win) != 0 {
		t.Fatalf("win intervals = %v, want empty", win)
	}
	rank, _ := state.Rank(b, s)
	if !interval.Contains(loss, rank) {
		t.Fatalf("loss intervals %v do not contain source rank %d", loss, rank)
	}
}

func TestCompositeValueVisitorNeitherOnUnknownSuccessor(t *testing.T) {
	b := board.Traditional()
	successor := traditionalState(2)
	v := NewCompositeValueVisitor(b, fakeDatabase{}) // Query returns Unknown for everything
	s := traditionalState(5)

	v.Begin(s)
	v.Accept(successor, ' ')
	v.End(s)

	win, loss := v.Results()
	if len(win) != 0 || len(loss) != 0 {
		t.Fatalf("win=%v loss=%v, want both empty when a successor's outcome is unknown", win, loss)
	}
}

func TestCompositeValueVisitorNeitherWithOnlyAllyRemovals(t *testing.T) {
	b := board.Traditional()
	v := NewCompositeValueVisitor(b, fakeDatabase{})
	s := traditionalState(5)

	v.Begin(s)
	v.Accept(state.State{}, 'A')
	v.Accept(state.State{}, 'a')
	v.End(s)

	win, loss := v.Results()
	if len(win) != 0 || len(loss) != 0 {
		t.Fatalf("win=%v loss=%v, want both empty when every successor is an ally removal", win, loss)
	}
}

func TestCompositeValueVisitorMergeCombinesAcrossWorkers(t *testing.T) {
	b := board.Traditional()
	db := fakeDatabase{}
	parent := NewCompositeValueVisitor(b, db)

	winStates := []state.State{traditionalState(2), traditionalState(5)}
	for _, s := range winStates {
		clone := parent.Clone().(*CompositeValueVisitor)
		clone.Begin(s)
		clone.Accept(state.State{}, 'E')
		clone.End(s)
		parent.Merge(clone)
	}

	win, _ := parent.Results()
	for _, s := range winStates {
		rank, _ := state.Rank(b, s)
		if !interval.Contains(win, rank) {
			t.Errorf("merged win intervals %v do not contain rank %d for %+v", win, rank, s)
		}
	}
}
