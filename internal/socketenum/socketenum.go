// Package socketenum produces point-in-time snapshots of open sockets,
// mapping each to the owning process. Three platform implementations
// (Linux, Darwin, Windows) share the Enumerator interface; the build
// selects exactly one at compile time, so the enumeration strategy for
// the running OS is fixed once at startup.
package socketenum

import "github.com/googlesky/bandhawk/internal/model"

// Enumerator produces a SocketSnapshot on demand. Implementations must
// tolerate partial failure: a permission error degrades to an empty
// snapshot rather than propagating.
type Enumerator interface {
	Snapshot() (model.SocketSnapshot, error)
	Close() error
}

const tcpListenState = 10 // Linux TCP_LISTEN; shared by procfs and netlink state codes.
