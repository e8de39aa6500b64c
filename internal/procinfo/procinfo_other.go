//go:build !linux

package procinfo

// PPID has no portable equivalent outside Linux's /proc; process-tree and
// container tagging are Linux-only enrichments (spec's process detail view
// degrades gracefully when they're unavailable).
func (n *Namer) PPID(pid uint32) uint32 { return 0 }

// ContainerTag returns empty values outside Linux.
func (n *Namer) ContainerTag(pid uint32) (containerID, serviceName string) { return "", "" }
