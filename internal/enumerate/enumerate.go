// Package enumerate walks the legal starting-position space in rank
// order: fix an anchor square (the "slice"), decode one combination of
// the remaining enemy pushers (the "subslice"), then nest combinations
// of enemy pawns, allied pushers and allied pawns, each drawn from the
// squares not yet claimed by an earlier group. Every group is ranked
// and unranked with the same bitset.CombinationRank/CombinationUnrank
// pair state.Rank uses, so AllStartingPositions and Subslice visit
// exactly the ranks state.Rank assigns, in ascending order — the "rank
// is bijective" property.
package enumerate

import (
	"github.com/jbosboom/pushfight-solver/internal/bitset"
	"github.com/jbosboom/pushfight-solver/internal/board"
	"github.com/jbosboom/pushfight-solver/internal/state"
)

// AllStartingPositions visits every legal starting position whose
// anchor square is slice, in ascending rank order within the slice. It
// returns false as soon as visit does, short-circuiting the rest.
func AllStartingPositions(b *board.Board, slice int, visit func(state.State) bool) bool {
	n := SubsliceCount(b, slice)
	for subslice := uint64(0); subslice < n; subslice++ {
		if !Subslice(b, slice, int(subslice), visit) {
			return false
		}
	}
	return true
}

// Subslice visits every legal starting position whose anchor square is
// slice and whose combination of additional enemy pushers is the
// subslice-th in bitset.CombinationRank's order. It is the unit the
// driver shards resumable generation >= 1 work by.
func Subslice(b *board.Board, slice, subslice int, visit func(state.State) bool) bool {
	anchor := uint(slice)
	available := squaresMask(b.Squares()) &^ (uint32(1) << anchor)

	extra := decodeGroup(available, b.Pushers()-1, uint64(subslice))

	var base state.State
	base.AnchoredPieces = uint32(1) << anchor
	base.EnemyPushers = base.AnchoredPieces | extra
	remaining := available &^ extra

	return groupCombinations(remaining, b.Pawns(), func(enemyPawns uint32) bool {
		s1 := base
		s1.EnemyPawns = enemyPawns
		afterEnemyPawns := remaining &^ enemyPawns

		return groupCombinations(afterEnemyPawns, b.Pushers(), func(alliedPushers uint32) bool {
			s2 := s1
			s2.AlliedPushers = alliedPushers
			afterAlliedPushers := afterEnemyPawns &^ alliedPushers

			return groupCombinations(afterAlliedPushers, b.Pawns(), func(alliedPawns uint32) bool {
				s3 := s2
				s3.AlliedPawns = alliedPawns
				return visit(s3)
			})
		})
	})
}

// SubsliceCount returns the number of subslices in slice: the number of
// ways to choose the additional enemy pushers from the squares other
// than the anchor. The board's anchor square count does not affect the
// formula, but the board is needed for its pusher and square counts.
func SubsliceCount(b *board.Board, slice int) uint64 {
	return bitset.Binomial(uint64(b.Squares()-1), uint64(b.Pushers()-1))
}

func squaresMask(n int) uint32 {
	return uint32(1)<<uint(n) - 1
}
