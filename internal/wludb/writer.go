package wludb

import (
	"bufio"
	"encoding/binary"
	"os"

	"github.com/jbosboom/pushfight-solver/internal/interval"
	"github.com/jbosboom/pushfight-solver/internal/pferr"
)

// WriteIntervals writes ivs to startsPath/lengthsPath as parallel
// little-endian uint64 starts and uint8 lengths, one record per piece
// of length <= 255. Each source interval is split independently: the
// record budget resets to 255 at the start of every interval, so one
// interval's leftover budget never carries into the next (this is why
// writeRecords does its own splitting rather than reusing
// interval.Chunk, which pools budget across the whole list for task
// splitting, not per-interval record splitting). Every handle is
// synced then closed before WriteIntervals returns success.
func WriteIntervals(startsPath, lengthsPath string, ivs []interval.Interval) error {
	startsFile, err := os.Create(startsPath)
	if err != nil {
		return &pferr.IOError{Path: startsPath, Op: "create", Err: err}
	}
	lengthsFile, err := os.Create(lengthsPath)
	if err != nil {
		startsFile.Close()
		return &pferr.IOError{Path: lengthsPath, Op: "create", Err: err}
	}

	if err := writeRecords(startsFile, lengthsFile, ivs); err != nil {
		startsFile.Close()
		lengthsFile.Close()
		return err
	}
	if err := startsFile.Sync(); err != nil {
		startsFile.Close()
		lengthsFile.Close()
		return &pferr.IOError{Path: startsPath, Op: "sync", Err: err}
	}
	if err := lengthsFile.Sync(); err != nil {
		startsFile.Close()
		lengthsFile.Close()
		return &pferr.IOError{Path: lengthsPath, Op: "sync", Err: err}
	}
	if err := startsFile.Close(); err != nil {
		lengthsFile.Close()
		return &pferr.IOError{Path: startsPath, Op: "close", Err: err}
	}
	if err := lengthsFile.Close(); err != nil {
		return &pferr.IOError{Path: lengthsPath, Op: "close", Err: err}
	}
	return nil
}

func writeRecords(startsFile, lengthsFile *os.File, ivs []interval.Interval) error {
	startsW := bufio.NewWriter(startsFile)
	lengthsW := bufio.NewWriter(lengthsFile)

	var startBuf [8]byte
	for _, iv := range ivs {
		for start := iv.Start; start != iv.End; {
			n := iv.End - start
			if n > 255 {
				n = 255
			}
			binary.LittleEndian.PutUint64(startBuf[:], start)
			if _, err := startsW.Write(startBuf[:]); err != nil {
				return &pferr.IOError{Path: startsFile.Name(), Op: "write", Err: err}
			}
			if err := lengthsW.WriteByte(byte(n)); err != nil {
				return &pferr.IOError{Path: lengthsFile.Name(), Op: "write", Err: err}
			}
			start += n
		}
	}

	if err := startsW.Flush(); err != nil {
		return &pferr.IOError{Path: startsFile.Name(), Op: "flush", Err: err}
	}
	if err := lengthsW.Flush(); err != nil {
		return &pferr.IOError{Path: lengthsFile.Name(), Op: "flush", Err: err}
	}
	return nil
}

// Promote renames tmpPath to finalPath, the step that publishes a shard
// only once WriteIntervals has fully and durably written it.
func Promote(tmpPath, finalPath string) error {
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return &pferr.IOError{Path: finalPath, Op: "rename", Err: err}
	}
	return nil
}
