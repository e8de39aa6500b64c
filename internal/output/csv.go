package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/googlesky/bandhawk/internal/model"
)

// CSVWriter writes one CSV row per process per snapshot.
type CSVWriter struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewCSVWriter wraps w for CSV output.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// Write emits one row per process in snap.
func (c *CSVWriter) Write(snap model.Snapshot) error {
	if !c.wroteHeader {
		if err := c.w.Write([]string{
			"timestamp", "interval", "pid", "process", "up_bytes", "down_bytes", "connections", "listen_ports",
		}); err != nil {
			return err
		}
		c.wroteHeader = true
	}

	ts := snap.Timestamp.Format("2006-01-02T15:04:05.000Z07:00")
	for _, p := range snap.Processes {
		if err := c.w.Write([]string{
			ts,
			fmt.Sprintf("%d", snap.Interval),
			fmt.Sprintf("%d", p.PID),
			p.Name,
			fmt.Sprintf("%d", p.Up),
			fmt.Sprintf("%d", p.Down),
			fmt.Sprintf("%d", p.ConnCount),
			fmt.Sprintf("%d", p.ListenCount),
		}); err != nil {
			return err
		}
	}
	c.w.Flush()
	return c.w.Error()
}
