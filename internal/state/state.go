// Package state defines the 20-byte position value the rest of the
// solver enumerates, generates successors for, and ranks: four 32-bit
// occupancy masks plus a 32-bit anchored-piece mask.
package state

import (
	"math/bits"

	"github.com/jbosboom/pushfight-solver/internal/bitset"
	"github.com/jbosboom/pushfight-solver/internal/board"
	"github.com/jbosboom/pushfight-solver/internal/pferr"
)

// State is the unit of enumeration: a value type, never boxed, passed
// by value through the generator's hot path.
type State struct {
	EnemyPushers   uint32
	EnemyPawns     uint32
	AlliedPushers  uint32
	AlliedPawns    uint32
	AnchoredPieces uint32
}

// Blockers is the union of all four occupancy masks: squares a moving
// piece cannot traverse.
func (s State) Blockers() uint32 {
	return s.EnemyPushers | s.EnemyPawns | s.AlliedPushers | s.AlliedPawns
}

// Masks returns the four occupancy masks in the canonical order used by
// bitset.MoveBit and bitset.RemoveBit: enemy pushers, enemy pawns,
// allied pushers, allied pawns.
func (s *State) Masks() [4]*uint32 {
	return [4]*uint32{&s.EnemyPushers, &s.EnemyPawns, &s.AlliedPushers, &s.AlliedPawns}
}

// Validate checks every invariant in the State contract against b's
// piece counts and square range, returning an *pferr.InvalidStateError
// describing the first violation found.
func (s State) Validate(b *board.Board) error {
	full := fullMask(b.Squares())
	all := s.EnemyPushers | s.EnemyPawns | s.AlliedPushers | s.AlliedPawns | s.AnchoredPieces
	if all&^full != 0 {
		return &pferr.InvalidStateError{Reason: "a set bit lies outside [0, squares)"}
	}
	if s.EnemyPushers&s.EnemyPawns != 0 || s.EnemyPushers&s.AlliedPushers != 0 ||
		s.EnemyPushers&s.AlliedPawns != 0 || s.EnemyPawns&s.AlliedPushers != 0 ||
		s.EnemyPawns&s.AlliedPawns != 0 || s.AlliedPushers&s.AlliedPawns != 0 {
		return &pferr.InvalidStateError{Reason: "occupancy masks are not pairwise disjoint"}
	}
	if bits.OnesCount32(s.EnemyPushers) != b.Pushers() || bits.OnesCount32(s.AlliedPushers) != b.Pushers() {
		return &pferr.InvalidStateError{Reason: "pusher count does not match the board"}
	}
	if bits.OnesCount32(s.EnemyPawns) != b.Pawns() || bits.OnesCount32(s.AlliedPawns) != b.Pawns() {
		return &pferr.InvalidStateError{Reason: "pawn count does not match the board"}
	}
	if bits.OnesCount32(s.AnchoredPieces) != 1 {
		return &pferr.InvalidStateError{Reason: "anchored_pieces must have exactly one set bit"}
	}
	if s.AnchoredPieces&^s.EnemyPushers != 0 {
		return &pferr.InvalidStateError{Reason: "anchored_pieces is not a subset of enemy_pushers"}
	}
	return nil
}

func fullMask(squares int) uint32 {
	return uint32(1)<<uint(squares) - 1
}

// pieceGroups returns, in rank order, the four non-anchor piece masks
// to encode: the remaining enemy pushers, then enemy pawns, then
// allied pushers, then allied pawns.
func pieceGroups(s State) [4]uint32 {
	return [4]uint32{s.EnemyPushers &^ s.AnchoredPieces, s.EnemyPawns, s.AlliedPushers, s.AlliedPawns}
}

// groupSizes returns the four piece-group cardinalities in the order
// pieceGroups enumerates them: the remaining enemy pushers, enemy
// pawns, allied pushers, allied pawns.
func groupSizes(b *board.Board) [4]int {
	return [4]int{b.Pushers() - 1, b.Pawns(), b.Pushers(), b.Pawns()}
}

// maxGroupSize bounds the largest piece group this package will ever
// rank, keeping the per-group ordinal scratch space a stack array
// instead of a heap-escaping slice.
const maxGroupSize = 32

// Rank computes the perfect hash of s over b's position space: the
// anchor square's index, then one combinatorial-number-system digit per
// piece group (remaining enemy pushers, enemy pawns, allied pushers,
// allied pawns), each digit the dense rank of that group's squares
// among the still-unoccupied squares. A naive per-piece digit (piece
// square's ordinal position, radix the remaining count) would double
// count: the same combination reached via different piece orderings
// would consume different amounts of the digit's range, leaving gaps.
// Ranking the whole group at once with bitset.CombinationRank is what
// keeps the result dense over [0, N) for N the slice's position count.
// Rank validates every State invariant first and never allocates.
func Rank(b *board.Board, s State) (uint64, error) {
	if err := s.Validate(b); err != nil {
		return 0, err
	}
	anchorSquare := uint(bits.TrailingZeros32(s.AnchoredPieces))
	if int(anchorSquare) >= b.AnchorableSquares() {
		return 0, &pferr.InvalidStateError{Reason: "anchored piece is not on an anchorable square"}
	}

	rank := uint64(anchorSquare)
	remaining := fullMask(b.Squares()) &^ s.AnchoredPieces

	for _, groupMask := range pieceGroups(s) {
		k := bits.OnesCount32(groupMask)
		m := bits.OnesCount32(remaining)
		var ordinals [maxGroupSize]uint
		n := 0
		for sq := range bitset.Bits(groupMask) {
			ordinals[n] = uint(bitset.Ordinal(remaining, sq))
			n++
		}
		rank = rank*bitset.Binomial(uint64(m), uint64(k)) + bitset.CombinationRank(ordinals[:n])
		remaining &^= groupMask
	}
	return rank, nil
}

// Unrank is Rank's inverse, used by tests; it is not on the generator's
// hot path.
func Unrank(b *board.Board, rank uint64) (State, error) {
	squares := b.Squares()
	sizes := groupSizes(b)

	// poolSize[i] is the number of squares available to group i, before
	// any of that group's own pieces are placed.
	var poolSize [4]int
	poolSize[0] = squares - 1
	for i := 1; i < len(sizes); i++ {
		poolSize[i] = poolSize[i-1] - sizes[i-1]
	}

	// Peel digits from the least significant (last group) backward,
	// mirroring the forward multiply-then-add order Rank built the
	// number in.
	var digitRank [4]uint64
	value := rank
	for i := len(sizes) - 1; i >= 0; i-- {
		radix := bitset.Binomial(uint64(poolSize[i]), uint64(sizes[i]))
		digitRank[i] = value % radix
		value /= radix
	}
	anchorSquare := uint(value)
	if int(anchorSquare) >= b.AnchorableSquares() {
		return State{}, &pferr.InvalidStateError{Reason: "rank decodes to an anchor outside the anchorable squares"}
	}

	var s State
	s.AnchoredPieces = uint32(1) << anchorSquare
	s.EnemyPushers = s.AnchoredPieces
	remaining := fullMask(squares) &^ s.AnchoredPieces

	dests := [4]*uint32{&s.EnemyPushers, &s.EnemyPawns, &s.AlliedPushers, &s.AlliedPawns}
	for i, size := range sizes {
		var chosen uint32
		for _, o := range bitset.CombinationUnrank(poolSize[i], size, digitRank[i]) {
			chosen |= uint32(1) << bitset.Select(remaining, int(o))
		}
		*dests[i] |= chosen
		remaining &^= chosen
	}

	if err := s.Validate(b); err != nil {
		return State{}, err
	}
	return s, nil
}
