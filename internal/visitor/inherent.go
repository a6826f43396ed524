package visitor

import (
	"github.com/jbosboom/pushfight-solver/internal/board"
	"github.com/jbosboom/pushfight-solver/internal/interval"
	"github.com/jbosboom/pushfight-solver/internal/state"
)

// InherentValueVisitor classifies generation 0: a position is an
// inherent win if any successor removes an enemy piece, an inherent
// loss if every successor removes only an allied piece (no
// non-suicidal option exists), and otherwise left for a later
// generation to resolve.
type InherentValueVisitor struct {
	b    *board.Board
	win  *interval.Accumulator
	loss *interval.Accumulator

	sawSuccessor  bool
	sawEnemyLoss  bool
	allAllyLosses bool
	err           error
}

// NewInherentValueVisitor returns a visitor ready to drive over b's
// position space.
func NewInherentValueVisitor(b *board.Board) *InherentValueVisitor {
	return &InherentValueVisitor{
		b:    b,
		win:  interval.NewAccumulator(accumulatorCapacity),
		loss: interval.NewAccumulator(accumulatorCapacity),
	}
}

func (v *InherentValueVisitor) Begin(s state.State) bool {
	v.sawSuccessor = false
	v.sawEnemyLoss = false
	v.allAllyLosses = true
	return true
}

func (v *InherentValueVisitor) Accept(succ state.State, removed byte) bool {
	v.sawSuccessor = true
	if removed == 'E' || removed == 'e' {
		v.sawEnemyLoss = true
		return false // the source is already a proven win, nothing else to learn
	}
	if removed != 'A' && removed != 'a' {
		v.allAllyLosses = false
	}
	return true
}

func (v *InherentValueVisitor) End(s state.State) {
	if !v.sawEnemyLoss && !(v.sawSuccessor && v.allAllyLosses) {
		return
	}
	rank, err := state.Rank(v.b, s)
	if err != nil {
		if v.err == nil {
			v.err = err
		}
		return
	}
	if v.sawEnemyLoss {
		v.win.Push(rank)
	} else {
		v.loss.Push(rank)
	}
}

// Err returns the first error Rank raised while committing a source
// position, if any. A source that reached End only ever comes from
// enumerate's output, so this should never trigger outside a bug.
func (v *InherentValueVisitor) Err() error {
	return v.err
}

// Results drains both accumulators into their final sorted, disjoint,
// maximal interval lists. It must be called at most once, after every
// worker clone has been merged back into this visitor.
func (v *InherentValueVisitor) Results() (win, loss []interval.Interval) {
	return v.win.Finish(), v.loss.Finish()
}

func (v *InherentValueVisitor) Clone() ForkableVisitor {
	return NewInherentValueVisitor(v.b)
}

func (v *InherentValueVisitor) Merge(other ForkableVisitor) {
	o := other.(*InherentValueVisitor)
	v.win.Absorb(o.win.Finish())
	v.loss.Absorb(o.loss.Finish())
	if v.err == nil {
		v.err = o.err
	}
}
