package sched

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
)

var csvHeader = []string{"millis", "event", "runner", "task_id", "task", "pending"}

// CSVRecorder writes scheduler events as CSV rows. Ticks are not recorded.
type CSVRecorder struct {
	w   *csv.Writer
	c   io.Closer
	err error
}

// NewCSVRecorder writes the header to w and returns a recorder.
func NewCSVRecorder(w io.Writer) *CSVRecorder {
	r := &CSVRecorder{w: csv.NewWriter(w)}
	r.write(csvHeader)
	return r
}

// CreateCSVRecorder creates (or truncates) the file at path.
func CreateCSVRecorder(path string) (*CSVRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	r := NewCSVRecorder(f)
	r.c = f
	return r, nil
}

// Observe records ev. It satisfies Observer.
func (r *CSVRecorder) Observe(ev StatusEvent) {
	if ev.Kind == StatusTick {
		return
	}
	r.write([]string{
		strconv.FormatUint(ev.AtMillis, 10),
		ev.Kind.String(),
		ev.Runner,
		strconv.FormatUint(uint64(ev.TaskID), 10),
		ev.Task,
		strconv.Itoa(ev.Pending),
	})
}

func (r *CSVRecorder) write(rec []string) {
	if r.err != nil {
		return
	}
	if err := r.w.Write(rec); err != nil {
		r.err = err
		return
	}
	r.w.Flush()
	r.err = r.w.Error()
}

// Err returns the first write error, if any.
func (r *CSVRecorder) Err() error { return r.err }

// Close flushes and closes the underlying file, if the recorder owns one.
func (r *CSVRecorder) Close() error {
	r.w.Flush()
	if err := r.w.Error(); err != nil && r.err == nil {
		r.err = err
	}
	if r.c != nil {
		if err := r.c.Close(); err != nil && r.err == nil {
			r.err = err
		}
	}
	return r.err
}
