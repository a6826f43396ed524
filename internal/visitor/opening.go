package visitor

import (
	"github.com/jbosboom/pushfight-solver/internal/board"
	"github.com/jbosboom/pushfight-solver/internal/interval"
	"github.com/jbosboom/pushfight-solver/internal/state"
	"github.com/jbosboom/pushfight-solver/internal/wludb"
)

// OpeningProcedureVisitor classifies legal opening positions into
// won/lost/drawn lists. Its classification logic mirrors
// CompositeValueVisitor's one-ply lookup, but against a database that
// is assumed final rather than a still-growing generation: a position
// that lookup leaves unresolved is recorded as drawn rather than left
// for a later generation to revisit.
//
// Successors are always mid-game positions, already anchored, so they
// rank (and query db) through state.Rank exactly as CompositeValueVisitor
// does. Sources, though, are placement half-states with no anchor yet:
// state.Rank's anchored-state rank space does not cover them, so the
// source rank comes from a caller-supplied function over a separate
// placement-half-state numbering instead.
type OpeningProcedureVisitor struct {
	b       *board.Board
	db      Database
	srcRank func(state.State) (uint64, error)

	won  *interval.Accumulator
	lost *interval.Accumulator
	draw *interval.Accumulator

	proven           bool
	anyNonRemoval    bool
	allNonRemovalWin bool
	err              error
}

// NewOpeningProcedureVisitor returns a visitor ready to drive over b's
// placement half-state space, consulting db for the finished solve.
// srcRank numbers the placement half-states that reach Begin/End; it is
// distinct from state.Rank, which only covers already-anchored states.
func NewOpeningProcedureVisitor(b *board.Board, db Database, srcRank func(state.State) (uint64, error)) *OpeningProcedureVisitor {
	return &OpeningProcedureVisitor{
		b:       b,
		db:      db,
		srcRank: srcRank,
		won:     interval.NewAccumulator(accumulatorCapacity),
		lost:    interval.NewAccumulator(accumulatorCapacity),
		draw:    interval.NewAccumulator(accumulatorCapacity),
	}
}

func (v *OpeningProcedureVisitor) Begin(s state.State) bool {
	v.proven = false
	v.anyNonRemoval = false
	v.allNonRemovalWin = true
	return true
}

func (v *OpeningProcedureVisitor) Accept(succ state.State, removed byte) bool {
	if removed == 'E' || removed == 'e' {
		v.proven = true
		return false
	}
	if removed == 'A' || removed == 'a' {
		return true
	}
	v.anyNonRemoval = true
	rank, err := state.Rank(v.b, succ)
	if err != nil {
		if v.err == nil {
			v.err = err
		}
		return true
	}
	switch v.db.Query(rank) {
	case wludb.Loss:
		v.proven = true
		return false
	case wludb.Win:
		// leaves allNonRemovalWin alone
	default:
		v.allNonRemovalWin = false
	}
	return true
}

func (v *OpeningProcedureVisitor) End(s state.State) {
	rank, err := v.srcRank(s)
	if err != nil {
		if v.err == nil {
			v.err = err
		}
		return
	}
	switch {
	case v.proven:
		v.won.Push(rank)
	case v.anyNonRemoval && v.allNonRemovalWin:
		v.lost.Push(rank)
	default:
		v.draw.Push(rank)
	}
}

// Err returns the first error state.Rank raised while driving this
// visitor, if any.
func (v *OpeningProcedureVisitor) Err() error {
	return v.err
}

// Results drains all three accumulators into their final sorted,
// disjoint, maximal interval lists. It must be called at most once,
// after every worker clone has been merged back into this visitor.
func (v *OpeningProcedureVisitor) Results() (won, lost, drawn []interval.Interval) {
	return v.won.Finish(), v.lost.Finish(), v.draw.Finish()
}

func (v *OpeningProcedureVisitor) Clone() ForkableVisitor {
	return NewOpeningProcedureVisitor(v.b, v.db, v.srcRank)
}

func (v *OpeningProcedureVisitor) Merge(other ForkableVisitor) {
	o := other.(*OpeningProcedureVisitor)
	v.won.Absorb(o.won.Finish())
	v.lost.Absorb(o.lost.Finish())
	v.draw.Absorb(o.draw.Finish())
	if v.err == nil {
		v.err = o.err
	}
}
