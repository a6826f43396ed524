package wludb

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jbosboom/pushfight-solver/internal/interval"
	"github.com/jbosboom/pushfight-solver/internal/pferr"
)

func TestWriteIntervalsThenQueryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	startsPath := filepath.Join(dir, "win.starts")
	lengthsPath := filepath.Join(dir, "win.lengths")

	ivs := []interval.Interval{{Start: 10, End: 15}, {Start: 100, End: 103}}
	if err := WriteIntervals(startsPath, lengthsPath, ivs); err != nil {
		t.Fatalf("WriteIntervals: %v", err)
	}

	db, err := Open([]Triple{{StartsPath: startsPath, LengthsPath: lengthsPath, Value: Win}})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	cases := []struct {
		rank uint64
		want Outcome
	}{
		{9, Unknown}, {10, Win}, {14, Win}, {15, Unknown},
		{99, Unknown}, {100, Win}, {102, Win}, {103, Unknown},
	}
	for _, c := range cases {
		if got := db.Query(c.rank); got != c.want {
			t.Errorf("Query(%d) = %v, want %v", c.rank, got, c.want)
		}
	}
}

func TestWriteIntervalsSplitsLongRuns(t *testing.T) {
	dir := t.TempDir()
	startsPath := filepath.Join(dir, "loss.starts")
	lengthsPath := filepath.Join(dir, "loss.lengths")

	// 600 consecutive ranks must split into records of length <= 255.
	ivs := []interval.Interval{{Start: 0, End: 600}}
	if err := WriteIntervals(startsPath, lengthsPath, ivs); err != nil {
		t.Fatalf("WriteIntervals: %v", err)
	}

	db, err := Open([]Triple{{StartsPath: startsPath, LengthsPath: lengthsPath, Value: Loss}})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	for _, rank := range []uint64{0, 254, 255, 400, 599} {
		if got := db.Query(rank); got != Loss {
			t.Errorf("Query(%d) = %v, want LOSS", rank, got)
		}
	}
	if got := db.Query(600); got != Unknown {
		t.Errorf("Query(600) = %v, want UNKNOWN (end of range is exclusive)", got)
	}
}

func TestOpenSkipsBothEmpty(t *testing.T) {
	dir := t.TempDir()
	startsPath := filepath.Join(dir, "empty.starts")
	lengthsPath := filepath.Join(dir, "empty.lengths")
	if err := WriteIntervals(startsPath, lengthsPath, nil); err != nil {
		t.Fatalf("WriteIntervals: %v", err)
	}

	db, err := Open([]Triple{{StartsPath: startsPath, LengthsPath: lengthsPath, Value: Win}})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	if len(db.pairs) != 0 {
		t.Fatalf("Open mapped %d pairs for an empty triple, want 0", len(db.pairs))
	}
	if got := db.Query(0); got != Unknown {
		t.Fatalf("Query on an empty database = %v, want UNKNOWN", got)
	}
}

func TestOpenRejectsMismatchedEmptiness(t *testing.T) {
	dir := t.TempDir()
	startsPath := filepath.Join(dir, "mismatch.starts")
	lengthsPath := filepath.Join(dir, "mismatch.lengths")
	if err := WriteIntervals(startsPath, lengthsPath, []interval.Interval{{Start: 0, End: 5}}); err != nil {
		t.Fatalf("WriteIntervals: %v", err)
	}
	// Truncate the lengths file back to empty to simulate a malformed pair.
	if err := os.Truncate(lengthsPath, 0); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	_, err := Open([]Triple{{StartsPath: startsPath, LengthsPath: lengthsPath, Value: Win}})
	var mismatch *pferr.LengthMismatchError
	if err == nil {
		t.Fatal("Open did not reject a mismatched starts/lengths pair")
	}
	if !errors.As(err, &mismatch) {
		t.Fatalf("Open returned %v, want *pferr.LengthMismatchError", err)
	}
}

func TestMultiplePairsDoNotOverlapQueries(t *testing.T) {
	dir := t.TempDir()
	winStarts, winLengths := filepath.Join(dir, "w.starts"), filepath.Join(dir, "w.lengths")
	lossStarts, lossLengths := filepath.Join(dir, "l.starts"), filepath.Join(dir, "l.lengths")

	if err := WriteIntervals(winStarts, winLengths, []interval.Interval{{Start: 0, End: 3}}); err != nil {
		t.Fatalf("WriteIntervals win: %v", err)
	}
	if err := WriteIntervals(lossStarts, lossLengths, []interval.Interval{{Start: 10, End: 13}}); err != nil {
		t.Fatalf("WriteIntervals loss: %v", err)
	}

	db, err := Open([]Triple{
		{StartsPath: winStarts, LengthsPath: winLengths, Value: Win},
		{StartsPath: lossStarts, LengthsPath: lossLengths, Value: Loss},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if got := db.Query(1); got != Win {
		t.Errorf("Query(1) = %v, want WIN", got)
	}
	if got := db.Query(11); got != Loss {
		t.Errorf("Query(11) = %v, want LOSS", got)
	}
	if got := db.Query(5); got != Unknown {
		t.Errorf("Query(5) = %v, want UNKNOWN", got)
	}
}
