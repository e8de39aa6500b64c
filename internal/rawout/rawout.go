// Package rawout implements --raw's line-oriented output mode: one
// tab-separated record per (pid, connection) pair for the interval that
// just closed.
package rawout

import (
	"bufio"
	"fmt"
	"io"

	"github.com/googlesky/bandhawk/internal/model"
)

// Writer emits one line per connection per Snapshot, in a fixed
// tab-separated format meant for scripting and log pipelines:
//
//	interval_index\tpid\tprocess\tproto\tlocal\tremote\tup_bytes\tdown_bytes\n
type Writer struct {
	w *bufio.Writer
}

// New wraps w for raw-mode output.
func New(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteSnapshot writes one line per connection in snap and flushes.
func (rw *Writer) WriteSnapshot(snap model.Snapshot) error {
	for _, c := range snap.Connections {
		pid := uint32(0)
		process := "<unknown>"
		if c.Process != nil {
			pid = c.Process.PID
			if c.Process.Name != "" {
				process = c.Process.Name
			}
		}
		_, err := fmt.Fprintf(rw.w, "%d\t%d\t%s\t%s\t%s\t%s\t%d\t%d\n",
			snap.Interval, pid, process, c.Key.Proto, c.Key.Local, c.Key.Remote, c.Up, c.Down)
		if err != nil {
			return err
		}
	}
	return rw.w.Flush()
}
