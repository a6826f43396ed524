// Command solve drives one retrograde-analysis generation: generation 0
// labels inherent wins/losses directly; generation >= 1 outcounts
// against every prior generation's win/loss database. It is the thin
// CLI collaborator spec.md §6 describes — process-level sharding across
// many invocations, wall-clock orchestration, and renaming temp files
// across processes are an external responsibility; this binary runs
// one generation, or with --slice/--subslice one shard of it, to
// completion using an in-process worker pool and exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/jbosboom/pushfight-solver/internal/board"
	"github.com/jbosboom/pushfight-solver/internal/driver"
	"github.com/jbosboom/pushfight-solver/internal/enumerate"
	"github.com/jbosboom/pushfight-solver/internal/interval"
	"github.com/jbosboom/pushfight-solver/internal/logx"
	"github.com/jbosboom/pushfight-solver/internal/pferr"
	"github.com/jbosboom/pushfight-solver/internal/visitor"
	"github.com/jbosboom/pushfight-solver/internal/wludb"

	"github.com/rs/zerolog"
)

func main() {
	var (
		generation = flag.Int("generation", -1, "Generation to compute (0 = inherent values)")
		slice      = flag.Int("slice", -1, "Restrict to one anchor square (-1 = every slice)")
		subslice   = flag.Int("subslice", -1, "Restrict to one subslice within --slice, generation >= 1 only (-1 = every subslice)")
		dataDir    = flag.String("data-dir", "./data", "Directory holding generation-wide and shard WLU files")
		numWorkers = flag.Int("num-workers", runtime.NumCPU(), "Worker goroutines for in-process parallelism")
	)
	flag.Parse()

	logger := logx.NewLogger("solve")

	if *generation < 0 {
		fmt.Fprintln(os.Stderr, "Usage: solve --generation N [--slice S [--subslice K]] [--data-dir DIR] [--num-workers N]")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *subslice >= 0 && *slice < 0 {
		fmt.Fprintln(os.Stderr, "--subslice requires --slice")
		os.Exit(1)
	}
	if *subslice >= 0 && *generation == 0 {
		fmt.Fprintln(os.Stderr, "generation 0 shards by slice only; it has no subslices")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	b := board.Traditional()
	cfg := runConfig{
		b:          b,
		generation: *generation,
		slice:      *slice,
		subslice:   *subslice,
		dataDir:    *dataDir,
		numWorkers: *numWorkers,
		logger:     logger,
	}

	if err := cfg.run(ctx); err != nil {
		logger.Error().Err(err).Str("kind", errorKind(err)).Msg("generation run failed")
		os.Exit(1)
	}
}

// errorKind names which of spec.md §7's error kinds err is, for the
// log line; unrecognized errors (context cancellation, a worker's raw
// error) log as "other".
func errorKind(err error) string {
	var invalid *pferr.InvalidStateError
	var ioErr *pferr.IOError
	var missing *pferr.MissingGenerationError
	var overflow *pferr.OverflowError
	switch {
	case errors.As(err, &invalid):
		return "invalid-state"
	case errors.As(err, &ioErr):
		return "io"
	case errors.As(err, &missing):
		return "missing-generation"
	case errors.As(err, &overflow):
		return "overflow"
	default:
		return "other"
	}
}

type runConfig struct {
	b          *board.Board
	generation int
	slice      int
	subslice   int
	dataDir    string
	numWorkers int
	logger     zerolog.Logger
}

func (cfg runConfig) run(ctx context.Context) error {
	tmpDir := filepath.Join(cfg.dataDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return &pferr.IOError{Path: tmpDir, Op: "mkdir", Err: err}
	}

	var db *wludb.Database
	if cfg.generation > 0 {
		var err error
		db, err = loadPriorGenerations(cfg.dataDir, cfg.generation)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	slices := []int{cfg.slice}
	if cfg.slice < 0 {
		slices = make([]int, cfg.b.AnchorableSquares())
		for i := range slices {
			slices[i] = i
		}
	}

	var win, loss []interval.Interval
	for _, sl := range slices {
		w, l, err := cfg.runSlice(ctx, tmpDir, db, sl)
		if err != nil {
			return err
		}
		// Whole-generation mode accumulates every slice's shard output
		// directly instead of re-reading it back off disk: slices are
		// already disjoint, contiguous rank ranges, so a plain
		// concatenation in ascending slice order is already sorted.
		if cfg.slice < 0 {
			win = append(win, w...)
			loss = append(loss, l...)
		}
	}

	if cfg.slice < 0 {
		winStarts, winLengths := generationWidePaths(cfg.dataDir, "win", cfg.generation)
		lossStarts, lossLengths := generationWidePaths(cfg.dataDir, "loss", cfg.generation)
		if err := writeFinal(tmpDir, winStarts, winLengths, win); err != nil {
			return err
		}
		if err := writeFinal(tmpDir, lossStarts, lossLengths, loss); err != nil {
			return err
		}
		cfg.logger.Info().Int("generation", cfg.generation).
			Uint64("win_count", interval.Size(win)).
			Uint64("loss_count", interval.Size(loss)).
			Msg("generation complete")
	}
	return nil
}

// runSlice runs every subslice the flags select within slice sl,
// returning that slice's merged win/loss intervals (already written to
// its shard files unless the caller is aggregating a whole-generation
// run, in which case only the aggregate files are written).
func (cfg runConfig) runSlice(ctx context.Context, tmpDir string, db *wludb.Database, sl int) ([]interval.Interval, []interval.Interval, error) {
	if cfg.generation == 0 {
		return cfg.runGeneration0Slice(ctx, tmpDir, sl)
	}
	return cfg.runGenerationNSlice(ctx, tmpDir, db, sl)
}

func (cfg runConfig) runGeneration0Slice(ctx context.Context, tmpDir string, sl int) ([]interval.Interval, []interval.Interval, error) {
	n := enumerate.SubsliceCount(cfg.b, sl)
	tasks := make([]driver.Task, n)
	for i := range tasks {
		tasks[i] = driver.Task{Slice: sl, Subslice: i}
	}
	parent := visitor.NewInherentValueVisitor(cfg.b)
	dcfg := driver.Config{NumWorkers: cfg.numWorkers, Logger: cfg.logger}
	if err := driver.RunGeneration(ctx, cfg.b, parent, dcfg, tasks); err != nil {
		return nil, nil, fmt.Errorf("generation 0 slice %d: %w", sl, err)
	}
	if err := parent.Err(); err != nil {
		return nil, nil, err
	}
	win, loss := parent.Results()
	if cfg.slice >= 0 {
		winStarts, winLengths := shardPaths(cfg.dataDir, "win", 0, sl, -1)
		lossStarts, lossLengths := shardPaths(cfg.dataDir, "loss", 0, sl, -1)
		if err := writeFinal(tmpDir, winStarts, winLengths, win); err != nil {
			return nil, nil, err
		}
		if err := writeFinal(tmpDir, lossStarts, lossLengths, loss); err != nil {
			return nil, nil, err
		}
	}
	return win, loss, nil
}

func (cfg runConfig) runGenerationNSlice(ctx context.Context, tmpDir string, db *wludb.Database, sl int) ([]interval.Interval, []interval.Interval, error) {
	subslices := []int{cfg.subslice}
	if cfg.subslice < 0 {
		n := enumerate.SubsliceCount(cfg.b, sl)
		subslices = make([]int, n)
		for i := range subslices {
			subslices[i] = i
		}
	}

	tasks := make([]driver.Task, len(subslices))
	for i, sub := range subslices {
		tasks[i] = driver.Task{Slice: sl, Subslice: sub}
	}
	parent := visitor.NewOutcountingVisitor(cfg.b, db, visitor.OutcountingConfig{})
	dcfg := driver.Config{NumWorkers: cfg.numWorkers, Logger: cfg.logger}
	if err := driver.RunGeneration(ctx, cfg.b, parent, dcfg, tasks); err != nil {
		return nil, nil, fmt.Errorf("generation %d slice %d: %w", cfg.generation, sl, err)
	}
	if err := parent.Err(); err != nil {
		return nil, nil, err
	}
	win, loss := parent.Results()
	if cfg.slice >= 0 {
		winStarts, winLengths := shardPaths(cfg.dataDir, "win", cfg.generation, sl, cfg.subslice)
		lossStarts, lossLengths := shardPaths(cfg.dataDir, "loss", cfg.generation, sl, cfg.subslice)
		if err := writeFinal(tmpDir, winStarts, winLengths, win); err != nil {
			return nil, nil, err
		}
		if err := writeFinal(tmpDir, lossStarts, lossLengths, loss); err != nil {
			return nil, nil, err
		}
	}
	return win, loss, nil
}

func loadPriorGenerations(dataDir string, generation int) (*wludb.Database, error) {
	var triples []wludb.Triple
	for g := 0; g < generation; g++ {
		winStarts, winLengths := generationWidePaths(dataDir, "win", g)
		lossStarts, lossLengths := generationWidePaths(dataDir, "loss", g)
		for _, p := range []string{winStarts, winLengths, lossStarts, lossLengths} {
			if _, err := os.Stat(p); err != nil {
				return nil, &pferr.MissingGenerationError{Generation: g, Path: p}
			}
		}
		triples = append(triples,
			wludb.Triple{StartsPath: winStarts, LengthsPath: winLengths, Value: wludb.Win},
			wludb.Triple{StartsPath: lossStarts, LengthsPath: lossLengths, Value: wludb.Loss},
		)
	}
	return wludb.Open(triples)
}

func generationWidePaths(dataDir, tag string, generation int) (starts, lengths string) {
	base := filepath.Join(dataDir, fmt.Sprintf("%s-%d", tag, generation))
	return base + ".bin", base + ".len"
}

// shardPaths names a per-shard file pair per spec.md §6: gen 0 shards
// by slice only; later generations also carry the subslice. Pass
// subslice < 0 for a gen-0 shard name.
func shardPaths(dataDir, tag string, generation, slice, subslice int) (starts, lengths string) {
	var base string
	if subslice < 0 {
		base = filepath.Join(dataDir, fmt.Sprintf("%s-%d-%02d", tag, generation, slice))
	} else {
		base = filepath.Join(dataDir, fmt.Sprintf("%s-%d-%02d-%03d", tag, generation, slice, subslice))
	}
	return base + ".bin", base + ".len"
}

// writeFinal refuses to clobber an already-existing output file pair,
// writes the new pair into tmpDir under unique names, and promotes both
// into place only once both are fully and durably written.
func writeFinal(tmpDir, startsPath, lengthsPath string, ivs []interval.Interval) error {
	for _, p := range []string{startsPath, lengthsPath} {
		if _, err := os.Stat(p); err == nil {
			return &pferr.IOError{Path: p, Op: "create", Err: fmt.Errorf("refusing to overwrite existing output file")}
		}
	}
	tmpStarts := filepath.Join(tmpDir, filepath.Base(startsPath)+".tmp")
	tmpLengths := filepath.Join(tmpDir, filepath.Base(lengthsPath)+".tmp")
	if err := wludb.WriteIntervals(tmpStarts, tmpLengths, ivs); err != nil {
		return err
	}
	if err := wludb.Promote(tmpStarts, startsPath); err != nil {
		return err
	}
	return wludb.Promote(tmpLengths, lengthsPath)
}
