package model

// SocketSnapshot is the contract shared by every socket enumerator
// implementation (procfs, netlink, lsof, WinAPI): a point-in-time view of
// open sockets, keyed for O(1) lookup by the hub's attach step.
type SocketSnapshot struct {
	// Established maps a connection's key to the process that owns it.
	// The key's Local side is the bound endpoint; orientation is resolved
	// by the enumerator (not the caller).
	Established map[ConnectionKey]ProcessInfo

	// Listening holds sockets bound but not connected (no remote peer).
	Listening []ListenPortEntry

	// Collisions counts duplicate keys observed while building Established
	// (e.g. SO_REUSEPORT) where the first process seen was kept.
	Collisions int
}
