package visitor

import (
	"testing"

	"github.com/jbosboom/pushfight-solver/internal/board"
	"github.com/jbosboom/pushfight-solver/internal/interval"
	"github.com/jbosboom/pushfight-solver/internal/state"
	"github.com/jbosboom/pushfight-solver/internal/wludb"
)

func TestOutcountingVisitorSkipsAlreadyClassifiedSource(t *testing.T) {
	b := board.Traditional()
	s := traditionalState(5)
	rank, _ := state.Rank(b, s)
	db := fakeDatabase{rank: wludb.Win}

	v := NewOutcountingVisitor(b, db, OutcountingConfig{})
	if v.Begin(s) {
		t.Fatal("Begin should return false for a source the database already classified")
	}
}

func TestOutcountingVisitorWinsOnEnemyRemoval(t *testing.T) {
	b := board.Traditional()
	s := traditionalState(5)
	db := fakeDatabase{}

	v := NewOutcountingVisitor(b, db, OutcountingConfig{})
	if !v.Begin(s) {
		t.Fatal("Begin returned false")
	}
	v.Accept(state.State{}, 'e')
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

func TestOutcountingVisitorLosesWithNoSuccessors(t *testing.T) {
	b := board.Traditional()
	s := traditionalState(5)
	db := fakeDatabase{}

	v := NewOutcountingVisitor(b, db, OutcountingConfig{})
	v.Begin(s)
	v.Accept(state.State{}, 'A') // excluded, leaves zero tracked successors
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

func TestOutcountingVisitorWinsWhenASuccessorIsALoss(t *testing.T) {
	b := board.Traditional()
	source := traditionalState(5)
	successor := traditionalState(2)
	succRank, _ := state.Rank(b, successor)
	db := fakeDatabase{succRank: wludb.Loss}

	v := NewOutcountingVisitor(b, db, OutcountingConfig{})
	v.Begin(source)
	v.Accept(successor, ' ')
	v.End(source)

	win, _ := v.Results()
	rank, _ := state.Rank(b, source)
	if !interval.Contains(win, rank) {
		t.Fatalf("win intervals %v do not contain source rank %d", win, rank)
	}
}

func TestOutcountingVisitorLosesWhenEverySuccessorIsAWin(t *testing.T) {
	b := board.Traditional()
	source := traditionalState(5)
	successor := traditionalState(2)
	succRank, _ := state.Rank(b, successor)
	db := fakeDatabase{succRank: wludb.Win}

	v := NewOutcountingVisitor(b, db, OutcountingConfig{})
	v.Begin(source)
	v.Accept(successor, ' ')
	v.End(source)

	win, loss := v.Results()
	if len(win) != 0 {
		t.Fatalf("win intervals = %v, want empty", win)
	}
	rank, _ := state.Rank(b, source)
	if !interval.Contains(loss, rank) {
		t.Fatalf("loss intervals %v do not contain source rank %d", loss, rank)
	}
}

func TestOutcountingVisitorHoldsWithAnUnknownSuccessor(t *testing.T) {
	b := board.Traditional()
	source := traditionalState(5)
	successor := traditionalState(2)
	db := fakeDatabase{} // successor stays Unknown

	v := NewOutcountingVisitor(b, db, OutcountingConfig{})
	v.Begin(source)
	v.Accept(successor, ' ')
	v.End(source)

	win, loss := v.Results()
	if len(win) != 0 || len(loss) != 0 {
		t.Fatalf("win=%v loss=%v, want both empty while an outcount is still pending", win, loss)
	}
}

func TestOutcountingVisitorEarlyFlushTriggersOnConfiguredMargin(t *testing.T) {
	b := board.Traditional()
	source := traditionalState(5)
	successor := traditionalState(2)
	succRank, _ := state.Rank(b, successor)
	db := fakeDatabase{succRank: wludb.Loss}

	// FlushCapacity-EarlyFlushMargin == 1, so appending a single pair in
	// End already meets the early-flush threshold and doFlush runs
	// before Results is ever called.
	v := NewOutcountingVisitor(b, db, OutcountingConfig{FlushCapacity: 2, EarlyFlushMargin: 1})
	v.Begin(source)
	v.Accept(successor, ' ')
	v.End(source)

	if len(v.flush) != 0 {
		t.Fatalf("flush buffer = %v, want drained by the early-flush margin", v.flush)
	}
	win, _ := v.Results()
	rank, _ := state.Rank(b, source)
	if !interval.Contains(win, rank) {
		t.Fatalf("win intervals %v do not contain source rank %d", win, rank)
	}
}

func TestOutcountingVisitorMergeFlushesBeforeAbsorbing(t *testing.T) {
	b := board.Traditional()
	source := traditionalState(5)
	successor := traditionalState(2)
	succRank, _ := state.Rank(b, successor)
	db := fakeDatabase{succRank: wludb.Loss}

	parent := NewOutcountingVisitor(b, db, OutcountingConfig{})
	clone := parent.Clone().(*OutcountingVisitor)
	clone.Begin(source)
	clone.Accept(successor, ' ')
	clone.End(source)

	parent.Merge(clone)
	win, _ := parent.Results()
	rank, _ := state.Rank(b, source)
	if !interval.Contains(win, rank) {
		t.Fatalf("win intervals %v do not contain source rank %d after merge", win, rank)
	}
}
