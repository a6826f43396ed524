package logx

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog logger configured for console output,
// with every line it emits carrying component as a base field. The
// driver and worker clones it spawns inherit whatever component the
// owning cmd passed in, so a mixed solve/opening run's interleaved
// output can still be told apart by component alone (cmd/solve passes
// "solve", cmd/opening passes "opening").
func NewLogger(component string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		short := file
		for i := len(file) - 1; i > 0; i-- {
			if file[i] == '/' {
				short = file[i+1:]
				break
			}
		}
		return fmt.Sprintf("%-28s", fmt.Sprintf("%s:%d", short, line))
	}
	logger := zerolog.New(output).With().Timestamp().Caller().Str("component", component).Logger()
	return logger
}
