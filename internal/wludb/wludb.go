// Package wludb implements the read side of the win/loss/unknown
// database: memory-mapped (starts, lengths) interval pairs, one pair
// per generation's WIN output and one per its LOSS output, queried by
// rank via upper-bound-then-decrement binary search.
package wludb

import (
	"encoding/binary"
	"os"

	"golang.org/x/sys/unix"

	"github.com/jbosboom/pushfight-solver/internal/pferr"
)

// Outcome is the classification a rank's query against the database
// resolves to.
type Outcome int

const (
	Unknown Outcome = iota
	Win
	Loss
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "WIN"
	case Loss:
		return "LOSS"
	default:
		return "UNKNOWN"
	}
}

// Triple names one (starts file, lengths file) pair and the outcome it
// records, mirroring the C++ constructor's parallel arrays.
type Triple struct {
	StartsPath, LengthsPath string
	Value                   Outcome
}

type mappedPair struct {
	starts  []byte
	lengths []byte
	value   Outcome
}

func (p mappedPair) count() int {
	return len(p.lengths)
}

func (p mappedPair) start(i int) uint64 {
	return binary.LittleEndian.Uint64(p.starts[i*8 : i*8+8])
}

func (p mappedPair) length(i int) uint8 {
	return p.lengths[i]
}

// Database is a read-only, process-lifetime handle on a set of mapped
// interval pairs. The intervals within and across pairs never overlap
// by construction (they come from disjoint generations), so Query's
// search order across pairs does not affect correctness.
type Database struct {
	pairs []mappedPair
}

// Open memory-maps every non-empty triple and hints MADV_RANDOM, the
// access pattern a binary search over ranks actually has. A triple
// whose files are both empty is skipped; one empty and one not is a
// malformed database.
func Open(triples []Triple) (*Database, error) {
	db := &Database{}
	for _, t := range triples {
		startsSize, err := fileSize(t.StartsPath)
		if err != nil {
			return nil, err
		}
		lengthsSize, err := fileSize(t.LengthsPath)
		if err != nil {
			return nil, err
		}
		if startsSize == 0 && lengthsSize == 0 {
			continue
		}
		if startsSize == 0 || lengthsSize == 0 {
			return nil, &pferr.LengthMismatchError{
				StartsPath: t.StartsPath, LengthsPath: t.LengthsPath,
				StartsLen: int(startsSize / 8), LengthsLen: int(lengthsSize),
			}
		}

		starts, err := mapReadOnly(t.StartsPath, startsSize)
		if err != nil {
			return nil, err
		}
		lengths, err := mapReadOnly(t.LengthsPath, lengthsSize)
		if err != nil {
			unix.Munmap(starts)
			return nil, err
		}
		if startsSize/8 != lengthsSize {
			unix.Munmap(starts)
			unix.Munmap(lengths)
			return nil, &pferr.LengthMismatchError{
				StartsPath: t.StartsPath, LengthsPath: t.LengthsPath,
				StartsLen: int(startsSize / 8), LengthsLen: int(lengthsSize),
			}
		}

		db.pairs = append(db.pairs, mappedPair{starts: starts, lengths: lengths, value: t.Value})
	}
	return db, nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, &pferr.IOError{Path: path, Op: "stat", Err: err}
	}
	return info.Size(), nil
}

func mapReadOnly(path string, size int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &pferr.IOError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, &pferr.IOError{Path: path, Op: "mmap", Err: err}
	}
	if err := unix.Madvise(data, unix.MADV_RANDOM); err != nil {
		unix.Munmap(data)
		return nil, &pferr.IOError{Path: path, Op: "madvise", Err: err}
	}
	return data, nil
}

// Query returns the outcome recorded for rank, or Unknown if no mapped
// pair's intervals contain it.
func (db *Database) Query(rank uint64) Outcome {
	for _, p := range db.pairs {
		if idx, ok := upperBoundDecrement(p, rank); ok {
			if rank < p.start(idx)+uint64(p.length(idx)) {
				return p.value
			}
		}
	}
	return Unknown
}

// upperBoundDecrement finds the greatest index i such that
// p.start(i) <= rank, i.e. the interval rank can possibly fall within.
func upperBoundDecrement(p mappedPair, rank uint64) (int, bool) {
	n := p.count()
	if n == 0 {
		return 0, false
	}
	lo, hi := 0, n // first index with start > rank
	for lo < hi {
		mid := (lo + hi) / 2
		if p.start(mid) > rank {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	if lo == 0 {
		return 0, false
	}
	return lo - 1, true
}

// Close unmaps every pair this Database holds. It must be called
// exactly once, after which the Database is no longer usable.
func (db *Database) Close() error {
	var first error
	for _, p := range db.pairs {
		if err := unix.Munmap(p.starts); err != nil && first == nil {
			first = &pferr.IOError{Op: "munmap", Err: err}
		}
		if err := unix.Munmap(p.lengths); err != nil && first == nil {
			first = &pferr.IOError{Op: "munmap", Err: err}
		}
	}
	return first
}
