package visitor

import (
	"sort"

	"github.com/jbosboom/pushfight-solver/internal/board"
	"github.com/jbosboom/pushfight-solver/internal/interval"
	"github.com/jbosboom/pushfight-solver/internal/pferr"
	"github.com/jbosboom/pushfight-solver/internal/state"
	"github.com/jbosboom/pushfight-solver/internal/wludb"
)

// maxOutcount is the widest outcount a single source rank may carry, per
// spec.md's 16-bit counter budget; a source with more successors than
// this indicates a board or rule change needing a wider counter.
const maxOutcount = 65535

// OutcountingConfig configures an OutcountingVisitor's flush buffer.
// Zero values take the spec defaults.
type OutcountingConfig struct {
	// FlushCapacity bounds the (successor, predecessor) pair buffer.
	FlushCapacity int
	// EarlyFlushMargin flushes the buffer once it is within this many
	// entries of FlushCapacity, rather than waiting to hit it exactly.
	EarlyFlushMargin int
}

const (
	defaultFlushCapacity    = 64 * 1024 * 1024
	defaultEarlyFlushMargin = 25000
)

func (cfg OutcountingConfig) withDefaults() OutcountingConfig {
	if cfg.FlushCapacity == 0 {
		cfg.FlushCapacity = defaultFlushCapacity
	}
	if cfg.EarlyFlushMargin == 0 {
		cfg.EarlyFlushMargin = defaultEarlyFlushMargin
	}
	return cfg
}

type outcountPair struct {
	succ, pred uint64
}

// OutcountingVisitor classifies generation >= 1: a source not already
// classified by the previous generation's database collects its
// non-suicidal successor ranks, records how many it has, and emits
// (successor, source) pairs into a buffer. Flushing the buffer queries
// the database once per distinct successor rank: a LOSS successor
// proves every one of its predecessors a new WIN; a WIN successor
// decrements each predecessor's outcount, and any predecessor whose
// outcount reaches zero (every option loses) is a new LOSS.
//
// Successors that remove an enemy piece are an immediate win and never
// enter the outcount bookkeeping; successors that remove only an
// allied piece are excluded from it entirely (equi-classified with the
// source, since movegen's piece-count invariant is violated on any
// removal successor and state.Rank must never be called on one).
type OutcountingVisitor struct {
	b   *board.Board
	db  Database
	cfg OutcountingConfig

	win  *interval.Accumulator
	loss *interval.Accumulator

	outcount map[uint64]int
	flush    []outcountPair

	sourceRank      uint64
	successorRanks  []uint64
	sawEnemyRemoval bool

	err error
}

// NewOutcountingVisitor returns a visitor ready to drive over b's
// position space, consulting db for the previous generation's results.
func NewOutcountingVisitor(b *board.Board, db Database, cfg OutcountingConfig) *OutcountingVisitor {
	cfg = cfg.withDefaults()
	return &OutcountingVisitor{
		b:        b,
		db:       db,
		cfg:      cfg,
		win:      interval.NewAccumulator(accumulatorCapacity),
		loss:     interval.NewAccumulator(accumulatorCapacity),
		outcount: make(map[uint64]int),
	}
}

func (v *OutcountingVisitor) Begin(s state.State) bool {
	rank, err := state.Rank(v.b, s)
	if err != nil {
		if v.err == nil {
			v.err = err
		}
		return false
	}
	if v.db.Query(rank) != wludb.Unknown {
		return false // already classified by an earlier generation
	}
	v.sourceRank = rank
	v.sawEnemyRemoval = false
	v.successorRanks = v.successorRanks[:0]
	return true
}

func (v *OutcountingVisitor) Accept(succ state.State, removed byte) bool {
	if removed == 'E' || removed == 'e' {
		v.sawEnemyRemoval = true
		return false
	}
	if removed == 'A' || removed == 'a' {
		return true
	}
	rank, err := state.Rank(v.b, succ)
	if err != nil {
		if v.err == nil {
			v.err = err
		}
		return true
	}
	v.successorRanks = append(v.successorRanks, rank)
	return true
}

func (v *OutcountingVisitor) End(s state.State) {
	if v.sawEnemyRemoval {
		v.win.Push(v.sourceRank)
		return
	}
	if len(v.successorRanks) == 0 {
		v.loss.Push(v.sourceRank)
		return
	}
	if len(v.successorRanks) > maxOutcount {
		if v.err == nil {
			v.err = &pferr.OverflowError{Rank: v.sourceRank, Count: len(v.successorRanks)}
		}
		return
	}
	v.outcount[v.sourceRank] = len(v.successorRanks)
	for _, succRank := range v.successorRanks {
		v.flush = append(v.flush, outcountPair{succ: succRank, pred: v.sourceRank})
	}
	if len(v.flush) >= v.cfg.FlushCapacity-v.cfg.EarlyFlushMargin {
		v.doFlush()
	}
}

// doFlush sorts the pending buffer by successor rank and resolves one
// distinct successor at a time, querying db exactly once per distinct
// rank in the buffer.
func (v *OutcountingVisitor) doFlush() {
	if len(v.flush) == 0 {
		return
	}
	sort.Slice(v.flush, func(i, j int) bool { return v.flush[i].succ < v.flush[j].succ })

	for i := 0; i < len(v.flush); {
		succ := v.flush[i].succ
		j := i + 1
		for j < len(v.flush) && v.flush[j].succ == succ {
			j++
		}
		switch v.db.Query(succ) {
		case wludb.Loss:
			for k := i; k < j; k++ {
				pred := v.flush[k].pred
				if _, ok := v.outcount[pred]; ok {
					v.win.Push(pred)
					delete(v.outcount, pred)
				}
			}
		case wludb.Win:
			for k := i; k < j; k++ {
				pred := v.flush[k].pred
				cnt, ok := v.outcount[pred]
				if !ok {
					continue
				}
				cnt--
				if cnt == 0 {
					v.loss.Push(pred)
					delete(v.outcount, pred)
				} else {
					v.outcount[pred] = cnt
				}
			}
		}
		i = j
	}
	v.flush = v.flush[:0]
}

// Err returns the first error state.Rank raised while driving this
// visitor, if any.
func (v *OutcountingVisitor) Err() error {
	return v.err
}

// Results flushes any buffered pairs and drains both accumulators into
// their final sorted, disjoint, maximal interval lists. It must be
// called at most once, after every worker clone has been merged back
// into this visitor.
func (v *OutcountingVisitor) Results() (win, loss []interval.Interval) {
	v.doFlush()
	return v.win.Finish(), v.loss.Finish()
}

func (v *OutcountingVisitor) Clone() ForkableVisitor {
	return NewOutcountingVisitor(v.b, v.db, v.cfg)
}

func (v *OutcountingVisitor) Merge(other ForkableVisitor) {
	o := other.(*OutcountingVisitor)
	o.doFlush()
	v.win.Absorb(o.win.Finish())
	v.loss.Absorb(o.loss.Finish())
	if v.err == nil {
		v.err = o.err
	}
}
