// Package visitor implements the four classifier shapes the driver
// runs over every starting position: inherent-value classification for
// generation 0, outcount-based classification for generation >= 1, a
// one-ply composite classifier, and the opening-procedure variant that
// feeds the opening-book commands. They share the Visitor/ForkableVisitor
// protocol (the capability-trait split that replaces the original's
// virtual-inheritance hierarchy) and the interval.Accumulator streaming
// discipline for their win/loss rank output.
package visitor

import (
	"github.com/jbosboom/pushfight-solver/internal/board"
	"github.com/jbosboom/pushfight-solver/internal/movegen"
	"github.com/jbosboom/pushfight-solver/internal/state"
	"github.com/jbosboom/pushfight-solver/internal/wludb"
)

// Database is the read surface a visitor needs from the WLU store;
// *wludb.Database satisfies it. Visitors depend on the interface, not
// the concrete type, so they can be driven against a fake in tests.
type Database interface {
	Query(rank uint64) wludb.Outcome
}

// Visitor is the protocol Successors drives a source position through:
// Begin decides whether the source is worth expanding at all, Accept
// sees each successor (and the removed-piece tag movegen computed for
// it), and End commits whatever Accept observed. Begin/Accept returning
// false stops expansion early; the caller still owes the visitor an End
// call for any source whose Begin returned true.
type Visitor interface {
	Begin(s state.State) bool
	Accept(succ state.State, removed byte) bool
	End(s state.State)
}

// ForkableVisitor is a Visitor that RunGeneration can hand one clone
// per worker goroutine and fold back into a single accumulated result.
type ForkableVisitor interface {
	Visitor
	Clone() ForkableVisitor
	Merge(other ForkableVisitor)
}

// accumulatorCapacity bounds each rank accumulator's raw buffer at 16
// MiB of uint64 ranks, per spec.md's streaming-accumulator discipline.
const accumulatorCapacity = 16 * 1024 * 1024 / 8

// Drive runs v's Begin/Accept/End protocol over a single source
// position, expanding its successors via movegen.Successors when Begin
// returns true. When Begin returns false it returns true without
// expanding anything; otherwise it returns what movegen.Successors
// returns, false when an Accept cut the expansion short.
func Drive(b *board.Board, v Visitor, s state.State) bool {
	if !v.Begin(s) {
		return true
	}
	end := scopedEnd(v, s)
	defer end()
	return movegen.Successors(b, s, 0, v.Accept)
}

// scopedEnd returns a closure that calls v.End(s) the first time it is
// invoked and is a no-op afterward, so a deferred call right after a
// true Begin covers every exit path out of the enclosing function —
// the idiomatic replacement for a "goto end" block.
func scopedEnd(v Visitor, s state.State) func() {
	done := false
	return func() {
		if !done {
			done = true
			v.End(s)
		}
	}
}
