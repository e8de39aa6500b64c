// Package output implements the non-interactive --json and --csv
// streaming modes, writing one record per snapshot instead of driving
// the TUI.
package output

import (
	"encoding/json"
	"io"

	"github.com/googlesky/bandhawk/internal/model"
)

// WriteJSON writes a single snapshot as one NDJSON line.
func WriteJSON(w io.Writer, snap model.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(snap)
}
