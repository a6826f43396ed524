// Package movegen implements the move/push generator: the bit-parallel
// successor function for a single source State, covering the push
// phase (multi-piece push chains with rail/anchor abandonment and
// void ejection) and the move phase (sliding moves via a bitwise BFS
// over reachable empty space). Grounded in the English description of
// the generator, using original_source/src/state.cpp's do_all_pushes
// and next_states only for the operations they implement correctly —
// that file's chain construction drops the final empty destination
// square and recurses on the wrong state in next_states, neither of
// which this package reproduces.
package movegen

import (
	"github.com/jbosboom/pushfight-solver/internal/bitset"
	"github.com/jbosboom/pushfight-solver/internal/board"
	"github.com/jbosboom/pushfight-solver/internal/state"
)

// maxChainLen bounds a push chain's length by the board's square count
// (spec.md requires S <= 26); a fixed-size array keeps chain
// construction off the heap.
const maxChainLen = 32

// Successors generates every successor of src at the given move number,
// delivering each to visit along with the removed-piece tag. It
// implements spec §4.5's two nested phases: pushes (if allowed at this
// move number) then, if under the per-turn move cap, sliding moves
// recursing with moveNumber+1. visit returning false stops expanding
// src's subtree immediately; Successors propagates that signal back to
// its caller so a single source position's expansion short-circuits
// cleanly without affecting any sibling source position.
func Successors(b *board.Board, src state.State, moveNumber int, visit func(state.State, byte) bool) bool {
	if b.AllowedMovesMask()&(1<<uint(moveNumber)) != 0 {
		if !allPushes(b, src, visit) {
			return false
		}
	}

	if moveNumber < b.MaxMoves() {
		blockers := src.Blockers()
		for from := range bitset.Bits(src.AlliedPushers) {
			dest := connectedEmptySpace(b, blockers, from)
			for to := range bitset.Bits(dest) {
				next := src
				next.AlliedPushers &^= uint32(1) << from
				next.AlliedPushers |= uint32(1) << to
				if !Successors(b, next, moveNumber+1, visit) {
					return false
				}
			}
		}
		for from := range bitset.Bits(src.AlliedPawns) {
			dest := connectedEmptySpace(b, blockers, from)
			for to := range bitset.Bits(dest) {
				next := src
				next.AlliedPawns &^= uint32(1) << from
				next.AlliedPawns |= uint32(1) << to
				if !Successors(b, next, moveNumber+1, visit) {
					return false
				}
			}
		}
	}
	return true
}

// connectedEmptySpace computes the bitwise BFS of spec §4.5: starting
// from source, repeatedly OR in neighbor masks restricted to the
// squares not in blockers, until a fixed point, then clear the source
// bit (a piece never "moves" to its own square).
func connectedEmptySpace(b *board.Board, blockers uint32, source uint) uint32 {
	free := ^blockers
	result := uint32(1) << source
	for {
		next := result
		for sq := range bitset.Bits(result) {
			next |= b.NeighborsMask(sq) & free
		}
		if next == result {
			break
		}
		result = next
	}
	result &^= uint32(1) << source
	return result
}

// allPushes tries every direction from every allied pusher, delivering
// a successor for each chain that actually displaces something.
func allPushes(b *board.Board, src state.State, visit func(state.State, byte) bool) bool {
	blockers := src.Blockers()
	for start := range bitset.Bits(src.AlliedPushers) {
		if b.NeighborsMask(start)&(blockers&^src.AnchoredPieces) == 0 {
			continue // no occupied, unanchored neighbor in any direction
		}
		for dir := board.Left; dir <= board.Down; dir++ {
			chain, chainLen, removedSquare, voided, ok := buildChain(b, src, start, dir)
			if !ok {
				continue
			}
			pieceCount := chainLen
			if !voided {
				pieceCount-- // the chain's last slot is the empty landing square, not a piece
			}
			if pieceCount < 2 {
				continue // nothing to push: a lone pusher moving into empty space is not a push
			}

			next := src
			removed := byte(' ')
			if voided {
				removed = removeAndClassify(&next, removedSquare)
			}
			masks := next.Masks()
			for i := chainLen - 2; i >= 0; i-- {
				bitset.MoveBit(masks, chain[i], chain[i+1])
			}
			next.AnchoredPieces = uint32(1) << chain[1]

			next = swapSides(next)
			next = canonicalize(b, next)
			if !visit(next, removed) {
				return false
			}
		}
	}
	return true
}

// buildChain walks the push chain starting at start in direction dir.
// chain[:chainLen] holds the pieces displaced by the push, in order
// from the pusher outward; if the chain ends by landing on an empty
// square rather than ejecting a piece into the void, that empty square
// is appended as the chain's last (non-piece) slot. ok is false if a
// rail or an anchored piece blocked the push outright, in which case
// the chain did not complete and must be ignored regardless of length.
func buildChain(b *board.Board, src state.State, start uint, dir board.Dir) (chain [maxChainLen]uint, chainLen int, removedSquare uint, voided, ok bool) {
	blockers := src.Blockers()
	chain[0] = start
	chainLen = 1
	for {
		current := chain[chainLen-1]
		if b.AdjacentToVoid(dir)&(uint32(1)<<current) != 0 {
			return chain, chainLen, current, true, true
		}
		if b.AdjacentToRail(dir)&(uint32(1)<<current) != 0 {
			return chain, 0, 0, false, false
		}
		next := b.Neighbor(current, dir)
		if src.AnchoredPieces&(uint32(1)<<next) != 0 {
			return chain, 0, 0, false, false
		}
		chain[chainLen] = uint(next)
		chainLen++
		if blockers&(uint32(1)<<next) == 0 {
			return chain, chainLen, 0, false, true
		}
	}
}

// removeAndClassify removes the piece at sq from whichever of s's four
// masks holds it and returns the removed-piece tag, computed before any
// turn swap so uppercase/lowercase and ally/enemy are relative to the
// side that is currently pushing.
func removeAndClassify(s *state.State, sq uint) byte {
	owner := bitset.RemoveBit(s.Masks(), sq)
	switch owner {
	case 0:
		return 'E'
	case 1:
		return 'e'
	case 2:
		return 'A'
	case 3:
		return 'a'
	default:
		panic("movegen: RemoveBit returned an impossible mask index")
	}
}

func swapSides(s state.State) state.State {
	s.EnemyPushers, s.AlliedPushers = s.AlliedPushers, s.EnemyPushers
	s.EnemyPawns, s.AlliedPawns = s.AlliedPawns, s.EnemyPawns
	return s
}

// canonicalize rotates s 180 degrees when its anchor lands on the
// second player's placement half, folding the two halves of the
// position space together per spec §4.5.
func canonicalize(b *board.Board, s state.State) state.State {
	if s.AnchoredPieces&b.Placement1Mask() == 0 {
		return s
	}
	var out state.State
	for sq := range bitset.Bits(s.EnemyPushers) {
		out.EnemyPushers |= uint32(1) << b.Canonicalize180(sq)
	}
	for sq := range bitset.Bits(s.EnemyPawns) {
		out.EnemyPawns |= uint32(1) << b.Canonicalize180(sq)
	}
	for sq := range bitset.Bits(s.AlliedPushers) {
		out.AlliedPushers |= uint32(1) << b.Canonicalize180(sq)
	}
	for sq := range bitset.Bits(s.AlliedPawns) {
		out.AlliedPawns |= uint32(1) << b.Canonicalize180(sq)
	}
	for sq := range bitset.Bits(s.AnchoredPieces) {
		out.AnchoredPieces |= uint32(1) << b.Canonicalize180(sq)
	}
	return out
}
