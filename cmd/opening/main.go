// Command opening classifies every legal opening placement — the full
// set of starting arrangements before any piece has moved — into won,
// lost, and drawn lists, by one-ply lookup against a finished retrograde
// solve. It is the "opening-placement enumeration" spec.md §1 calls a
// distinct top-level entry outside the core's scope: it reuses
// enumerate.Openings and movegen.Successors (the shared core) but walks
// placement half-states rather than anchored states, and its own rank
// space (enumerate.OpeningRank) is unrelated to state.Rank.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jbosboom/pushfight-solver/internal/board"
	"github.com/jbosboom/pushfight-solver/internal/enumerate"
	"github.com/jbosboom/pushfight-solver/internal/interval"
	"github.com/jbosboom/pushfight-solver/internal/logx"
	"github.com/jbosboom/pushfight-solver/internal/state"
	"github.com/jbosboom/pushfight-solver/internal/visitor"
	"github.com/jbosboom/pushfight-solver/internal/wludb"
)

func main() {
	var (
		dataDir = flag.String("data-dir", "./data", "Directory holding every completed generation's WLU files")
	)
	flag.Parse()

	logger := logx.NewLogger("opening")

	b := board.Traditional()
	db, generations, err := openAllGenerations(*dataDir)
	if err != nil {
		logger.Error().Err(err).Msg("open WLU database")
		os.Exit(1)
	}
	defer db.Close()
	if generations == 0 {
		fmt.Fprintf(os.Stderr, "no generation-wide WLU files found under %s\n", *dataDir)
		os.Exit(1)
	}
	logger.Info().Int("generations", generations).Msg("opening database loaded")

	outPaths := map[string]string{
		"won":   filepath.Join(*dataDir, "opening-won"),
		"lost":  filepath.Join(*dataDir, "opening-lost"),
		"drawn": filepath.Join(*dataDir, "opening-drawn"),
	}
	for _, base := range outPaths {
		if _, err := os.Stat(base + ".bin"); err == nil {
			fmt.Fprintf(os.Stderr, "refusing to overwrite existing output %s.bin\n", base)
			os.Exit(1)
		}
	}

	v := visitor.NewOpeningProcedureVisitor(b, db, func(s state.State) (uint64, error) {
		return enumerate.OpeningRank(b, s)
	})

	count := 0
	enumerate.Openings(b, func(s state.State) bool {
		visitor.Drive(b, v, s)
		count++
		return true
	})

	if err := v.Err(); err != nil {
		logger.Error().Err(err).Msg("opening classification failed")
		os.Exit(1)
	}

	won, lost, drawn := v.Results()
	logger.Info().
		Int("placements", count).
		Uint64("won", interval.Size(won)).
		Uint64("lost", interval.Size(lost)).
		Uint64("drawn", interval.Size(drawn)).
		Msg("opening classification complete")

	tmpDir := filepath.Join(*dataDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		logger.Error().Err(err).Msg("create tmp dir")
		os.Exit(1)
	}

	results := map[string][]interval.Interval{"won": won, "lost": lost, "drawn": drawn}
	for name, ivs := range results {
		base := outPaths[name]
		startsPath, lengthsPath := base+".bin", base+".len"
		tmpStarts := filepath.Join(tmpDir, filepath.Base(startsPath)+".tmp")
		tmpLengths := filepath.Join(tmpDir, filepath.Base(lengthsPath)+".tmp")
		if err := wludb.WriteIntervals(tmpStarts, tmpLengths, ivs); err != nil {
			logger.Error().Err(err).Str("kind", name).Msg("write output")
			os.Exit(1)
		}
		if err := wludb.Promote(tmpStarts, startsPath); err != nil {
			logger.Error().Err(err).Str("kind", name).Msg("promote output")
			os.Exit(1)
		}
		if err := wludb.Promote(tmpLengths, lengthsPath); err != nil {
			logger.Error().Err(err).Str("kind", name).Msg("promote output")
			os.Exit(1)
		}
	}
}

// openAllGenerations maps every generation-wide win/loss file pair it
// finds starting at 0, stopping at the first gap, and memory-maps them
// all into a single Database. generations reports how many it found.
func openAllGenerations(dataDir string) (*wludb.Database, int, error) {
	var triples []wludb.Triple
	g := 0
	for {
		winStarts := filepath.Join(dataDir, fmt.Sprintf("win-%d.bin", g))
		winLengths := filepath.Join(dataDir, fmt.Sprintf("win-%d.len", g))
		lossStarts := filepath.Join(dataDir, fmt.Sprintf("loss-%d.bin", g))
		lossLengths := filepath.Join(dataDir, fmt.Sprintf("loss-%d.len", g))
		if _, err := os.Stat(winStarts); err != nil {
			break
		}
		triples = append(triples,
			wludb.Triple{StartsPath: winStarts, LengthsPath: winLengths, Value: wludb.Win},
			wludb.Triple{StartsPath: lossStarts, LengthsPath: lossLengths, Value: wludb.Loss},
		)
		g++
	}
	db, err := wludb.Open(triples)
	if err != nil {
		return nil, 0, err
	}
	return db, g, nil
}
