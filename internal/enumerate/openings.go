package enumerate

import (
	"github.com/jbosboom/pushfight-solver/internal/bitset"
	"github.com/jbosboom/pushfight-solver/internal/board"
	"github.com/jbosboom/pushfight-solver/internal/pferr"
	"github.com/jbosboom/pushfight-solver/internal/state"
)

// maxPlacementGroup bounds the largest single placement group (pushers
// or pawns) this package ranks, the same stack-array sizing trick
// state.Rank uses for its piece groups.
const maxPlacementGroup = 32

// Openings visits every legal opening placement: the side to move
// (ally) placed in b's Placement0Mask squares, the opponent (enemy) in
// Placement1Mask squares, with no piece yet anchored. spec.md §1 calls
// this enumeration out of the core's scope ("a distinct top-level entry
// that reuses the generator but enumerates placement half-states rather
// than all anchored states"); it is supplied here because cmd/opening
// needs a concrete source of starting positions to drive
// OpeningProcedureVisitor over, and movegen.Successors already handles
// an empty AnchoredPieces mask correctly (no square is anchor-abandoned
// when nothing has been anchored yet, which is exactly the opening
// move's rule: no pusher has pushed, so none can be anchored).
func Openings(b *board.Board, visit func(state.State) bool) bool {
	p0, p1 := b.Placement0Mask(), b.Placement1Mask()
	return groupCombinations(p0, b.Pushers(), func(alliedPushers uint32) bool {
		afterAlliedPushers := p0 &^ alliedPushers
		return groupCombinations(afterAlliedPushers, b.Pawns(), func(alliedPawns uint32) bool {
			return groupCombinations(p1, b.Pushers(), func(enemyPushers uint32) bool {
				afterEnemyPushers := p1 &^ enemyPushers
				return groupCombinations(afterEnemyPushers, b.Pawns(), func(enemyPawns uint32) bool {
					return visit(state.State{
						EnemyPushers:  enemyPushers,
						EnemyPawns:    enemyPawns,
						AlliedPushers: alliedPushers,
						AlliedPawns:   alliedPawns,
					})
				})
			})
		})
	})
}

// OpeningCount returns the number of opening placements Openings visits.
func OpeningCount(b *board.Board) uint64 {
	return placementHalfCount(b.Placement0Mask(), b.Pushers(), b.Pawns()) *
		placementHalfCount(b.Placement1Mask(), b.Pushers(), b.Pawns())
}

func placementHalfCount(pool uint32, pushers, pawns int) uint64 {
	m := bitset.Count(pool)
	pusherCount := bitset.Binomial(uint64(m), uint64(pushers))
	pawnCount := bitset.Binomial(uint64(m-pushers), uint64(pawns))
	return pusherCount * pawnCount
}

// OpeningRank computes the dense rank of an opening placement s in the
// same nested order Openings visits them (allied pushers, allied pawns,
// enemy pushers, enemy pawns), for use as the srcRank function an
// OpeningProcedureVisitor numbers its won/lost/drawn lists by. Unlike
// state.Rank, it does not require (or accept) an anchored piece: an
// opening placement has none.
func OpeningRank(b *board.Board, s state.State) (uint64, error) {
	if err := validateOpening(b, s); err != nil {
		return 0, err
	}
	alliedRank, _ := rankPlacementHalf(b.Placement0Mask(), b.Pushers(), b.Pawns(), s.AlliedPushers, s.AlliedPawns)
	enemyRank, enemyCount := rankPlacementHalf(b.Placement1Mask(), b.Pushers(), b.Pawns(), s.EnemyPushers, s.EnemyPawns)
	return alliedRank*enemyCount + enemyRank, nil
}

func validateOpening(b *board.Board, s state.State) error {
	if s.AnchoredPieces != 0 {
		return &pferr.InvalidStateError{Reason: "an opening placement has no anchored piece"}
	}
	if s.EnemyPushers&s.EnemyPawns != 0 || s.EnemyPushers&s.AlliedPushers != 0 ||
		s.EnemyPushers&s.AlliedPawns != 0 || s.EnemyPawns&s.AlliedPushers != 0 ||
		s.EnemyPawns&s.AlliedPawns != 0 || s.AlliedPushers&s.AlliedPawns != 0 {
		return &pferr.InvalidStateError{Reason: "occupancy masks are not pairwise disjoint"}
	}
	if s.AlliedPushers&^b.Placement0Mask() != 0 || s.AlliedPawns&^b.Placement0Mask() != 0 {
		return &pferr.InvalidStateError{Reason: "allied piece placed outside placement0"}
	}
	if s.EnemyPushers&^b.Placement1Mask() != 0 || s.EnemyPawns&^b.Placement1Mask() != 0 {
		return &pferr.InvalidStateError{Reason: "enemy piece placed outside placement1"}
	}
	if bitset.Count(s.AlliedPushers) != b.Pushers() || bitset.Count(s.EnemyPushers) != b.Pushers() {
		return &pferr.InvalidStateError{Reason: "pusher count does not match the board"}
	}
	if bitset.Count(s.AlliedPawns) != b.Pawns() || bitset.Count(s.EnemyPawns) != b.Pawns() {
		return &pferr.InvalidStateError{Reason: "pawn count does not match the board"}
	}
	return nil
}

// rankPlacementHalf ranks one side's placement within pool: pushers
// first (a CombinationRank digit over pool), then pawns (a
// CombinationRank digit over whatever pool squares the pushers left
// behind), combined by multiplying through the pawn digit's radix —
// the same mixed-radix technique state.Rank uses for its piece groups.
// count is the total number of distinct placements pool admits, used by
// the caller to combine this side's rank with the other side's.
func rankPlacementHalf(pool uint32, pushers, pawns int, chosenPushers, chosenPawns uint32) (rank, count uint64) {
	m := bitset.Count(pool)
	pusherCount := bitset.Binomial(uint64(m), uint64(pushers))
	var pusherOrdinals [maxPlacementGroup]uint
	n := 0
	for sq := range bitset.Bits(chosenPushers) {
		pusherOrdinals[n] = uint(bitset.Ordinal(pool, sq))
		n++
	}
	pusherRank := bitset.CombinationRank(pusherOrdinals[:n])

	remaining := pool &^ chosenPushers
	m2 := bitset.Count(remaining)
	pawnCount := bitset.Binomial(uint64(m2), uint64(pawns))
	var pawnOrdinals [maxPlacementGroup]uint
	n2 := 0
	for sq := range bitset.Bits(chosenPawns) {
		pawnOrdinals[n2] = uint(bitset.Ordinal(remaining, sq))
		n2++
	}
	pawnRank := bitset.CombinationRank(pawnOrdinals[:n2])

	return pusherRank*pawnCount + pawnRank, pusherCount * pawnCount
}
