package enumerate

import "github.com/jbosboom/pushfight-solver/internal/bitset"

// groupCombinations calls visit once for every k-combination's chosen
// squares (as a uint32 mask) drawn from available, in ascending
// bitset.CombinationRank order — the same order and encoding
// state.Rank's per-group digit assumes. It returns false as soon as
// visit does.
func groupCombinations(available uint32, k int, visit func(uint32) bool) bool {
	m := bitset.Count(available)
	total := bitset.Binomial(uint64(m), uint64(k))
	for rank := uint64(0); rank < total; rank++ {
		if !visit(decodeGroup(available, k, rank)) {
			return false
		}
	}
	return true
}

// decodeGroup decodes a single known combination rank directly, the
// primitive groupCombinations loops over and Subslice uses once to fix
// its subslice's combination without enumerating the rest.
func decodeGroup(available uint32, k int, rank uint64) uint32 {
	var mask uint32
	for _, o := range bitset.CombinationUnrank(bitset.Count(available), k, rank) {
		mask |= uint32(1) << bitset.Select(available, int(o))
	}
	return mask
}
