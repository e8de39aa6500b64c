// Package procinfo answers the small per-pid questions the hub needs to
// enrich a ProcessSummary once a connection has been attributed: its
// parent pid, and, on Linux, the container or systemd unit it belongs to.
package procinfo

// Namer implements hub.ProcessNamer. Its methods read /proc on Linux and
// return zero values elsewhere.
type Namer struct{}

// New returns a Namer. Every exported method degrades to its zero value
// when the underlying platform facility is unavailable.
func New() *Namer { return &Namer{} }
