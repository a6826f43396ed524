package visitor

import (
	"github.com/jbosboom/pushfight-solver/internal/board"
	"github.com/jbosboom/pushfight-solver/internal/interval"
	"github.com/jbosboom/pushfight-solver/internal/state"
	"github.com/jbosboom/pushfight-solver/internal/wludb"
)

// CompositeValueVisitor classifies a source position by looking one ply
// ahead through an already-frozen database: any successor that removes
// an enemy piece, or any non-removal successor the database already
// knows is a LOSS, proves the source a WIN. A source not proven a WIN
// that has at least one non-removal successor, every one of which the
// database knows is a WIN, is a LOSS. Successors that remove only an allied piece never
// participate in either proof (state.Rank must never be called on
// them, and the spec excludes them from the opponent's menu of replies
// regardless).
type CompositeValueVisitor struct {
	b  *board.Board
	db Database

	win  *interval.Accumulator
	loss *interval.Accumulator

	proven           bool
	anyNonRemoval    bool
	allNonRemovalWin bool
	err              error
}

// NewCompositeValueVisitor returns a visitor ready to drive over b's
// position space, consulting db for the target generation's one-ply
// lookahead.
func NewCompositeValueVisitor(b *board.Board, db Database) *CompositeValueVisitor {
	return &CompositeValueVisitor{
		b:    b,
		db:   db,
		win:  interval.NewAccumulator(accumulatorCapacity),
		loss: interval.NewAccumulator(accumulatorCapacity),
	}
}

func (v *CompositeValueVisitor) Begin(s state.State) bool {
	v.proven = false
	v.anyNonRemoval = false
	v.allNonRemovalWin = true
	return true
}

func (v *CompositeValueVisitor) Accept(succ state.State, removed byte) bool {
	if removed == 'E' || removed == 'e' {
		v.proven = true
		return false // already a proven win, nothing else to learn
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
		return false // opponent has a reply that loses for them, source is a win
	case wludb.Win:
		// leaves allNonRemovalWin alone
	default:
		v.allNonRemovalWin = false
	}
	return true
}

func (v *CompositeValueVisitor) End(s state.State) {
	isLoss := !v.proven && v.anyNonRemoval && v.allNonRemovalWin
	if !v.proven && !isLoss {
		return
	}
	rank, err := state.Rank(v.b, s)
	if err != nil {
		if v.err == nil {
			v.err = err
		}
		return
	}
	if v.proven {
		v.win.Push(rank)
	} else {
		v.loss.Push(rank)
	}
}

// Err returns the first error state.Rank raised while driving this
// visitor, if any.
func (v *CompositeValueVisitor) Err() error {
	return v.err
}

// Results drains both accumulators into their final sorted, disjoint,
// maximal interval lists. It must be called at most once, after every
// worker clone has been merged back into this visitor.
func (v *CompositeValueVisitor) Results() (win, loss []interval.Interval) {
	return v.win.Finish(), v.loss.Finish()
}

func (v *CompositeValueVisitor) Clone() ForkableVisitor {
	return NewCompositeValueVisitor(v.b, v.db)
}

func (v *CompositeValueVisitor) Merge(other ForkableVisitor) {
	o := other.(*CompositeValueVisitor)
	v.win.Absorb(o.win.Finish())
	v.loss.Absorb(o.loss.Finish())
	if v.err == nil {
		v.err = o.err
	}
}
