// Package stopwatch reports elapsed wall-clock and CPU time, and
// resource-usage deltas, between two points in a run. Ported in shape
// from original_source/src/stopwatch.hpp's Stopwatch/Result split, with
// the thread-affine getrusage(RUSAGE_THREAD) variant dropped: Go does
// not expose per-OS-thread rusage (a goroutine isn't pinned to one), so
// every Stopwatch here reports RUSAGE_SELF, process-wide figures.
package stopwatch

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Snapshot is a point-in-time capture of wall time and process rusage.
type Snapshot struct {
	t   time.Time
	rus unix.Rusage
}

// Now captures the current wall time and process-wide resource usage.
func Now() (Snapshot, error) {
	var rus unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &rus); err != nil {
		return Snapshot{}, fmt.Errorf("stopwatch: getrusage: %w", err)
	}
	return Snapshot{t: time.Now(), rus: rus}, nil
}

// Result is the delta between two Snapshots.
type Result struct {
	start, end Snapshot
}

// Elapsed returns the Result between start and end. end must not
// precede start.
func Elapsed(start, end Snapshot) Result {
	return Result{start: start, end: end}
}

// Seconds returns the wall-clock duration between the two snapshots.
func (r Result) Seconds() float64 {
	return r.end.t.Sub(r.start.t).Seconds()
}

func timevalSeconds(tv unix.Timeval) float64 {
	return float64(tv.Sec) + float64(tv.Usec)/1e6
}

// UserSeconds returns the user-mode CPU time consumed between the two
// snapshots, summed across every thread the process ran during that span.
func (r Result) UserSeconds() float64 {
	return timevalSeconds(r.end.rus.Utime) - timevalSeconds(r.start.rus.Utime)
}

// SystemSeconds returns the kernel-mode CPU time consumed between the
// two snapshots.
func (r Result) SystemSeconds() float64 {
	return timevalSeconds(r.end.rus.Stime) - timevalSeconds(r.start.rus.Stime)
}

// CPUSeconds returns UserSeconds + SystemSeconds.
func (r Result) CPUSeconds() float64 {
	return r.UserSeconds() + r.SystemSeconds()
}

// Utilization returns CPUSeconds / Seconds, the average number of CPUs
// kept busy over the elapsed span (>1 when multiple threads ran
// concurrently).
func (r Result) Utilization() float64 {
	wall := r.Seconds()
	if wall == 0 {
		return 0
	}
	return r.CPUSeconds() / wall
}

// HighwaterBytes returns the process's peak resident set size observed
// at the end snapshot. Maxrss is already a highwater mark maintained by
// the kernel, not a delta, so the start snapshot is unused here.
func (r Result) HighwaterBytes() int64 {
	// Linux reports Maxrss in kibibytes.
	return r.end.rus.Maxrss * 1024
}

// MinorFaults returns the page faults serviced without disk I/O between
// the two snapshots.
func (r Result) MinorFaults() int64 {
	return r.end.rus.Minflt - r.start.rus.Minflt
}

// MajorFaults returns the page faults serviced with disk I/O between the
// two snapshots.
func (r Result) MajorFaults() int64 {
	return r.end.rus.Majflt - r.start.rus.Majflt
}

// VoluntarySwitches returns the number of times the process voluntarily
// yielded the CPU (e.g. blocking on I/O) between the two snapshots.
func (r Result) VoluntarySwitches() int64 {
	return r.end.rus.Nvcsw - r.start.rus.Nvcsw
}

// InvoluntarySwitches returns the number of times the process was
// preempted between the two snapshots.
func (r Result) InvoluntarySwitches() int64 {
	return r.end.rus.Nivcsw - r.start.rus.Nivcsw
}
