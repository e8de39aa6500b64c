// Package model holds the data types shared across capture, socket
// enumeration, DNS resolution, aggregation and rendering: the common
// vocabulary every other package speaks.
package model

import (
	"fmt"
	"net/netip"
	"strings"
	"time"
)

// Protocol is a transport-layer protocol carried by a Packet or ConnectionKey.
type Protocol uint8

const (
	ProtoTCP Protocol = iota
	ProtoUDP
)

func (p Protocol) String() string {
	switch p {
	case ProtoTCP:
		return "TCP"
	case ProtoUDP:
		return "UDP"
	default:
		return "???"
	}
}

// Direction classifies which side of a Packet is local to this host.
type Direction uint8

const (
	DirUnknown Direction = iota
	DirUp                // src matches a local interface address
	DirDown              // dst matches a local interface address
)

// Packet is a parsed L3/L4 descriptor yielded by the capture source.
// Length is transport-layer bytes: IP total length minus the IP header.
type Packet struct {
	Proto     Protocol
	Src       netip.AddrPort
	Dst       netip.AddrPort
	Length    int
	Direction Direction
}

// ConnectionKey is the immutable 5-tuple identifying a flow. Local is the
// endpoint bound on this host; Remote is the other side. netip.AddrPort is
// comparable, so ConnectionKey is directly usable as a map key.
type ConnectionKey struct {
	Proto  Protocol
	Local  netip.AddrPort
	Remote netip.AddrPort
}

func (k ConnectionKey) String() string {
	return fmt.Sprintf("%s %s<->%s", k.Proto, k.Local, k.Remote)
}

// Swapped exchanges Local and Remote. Used when matching a capture-derived
// key against a socket-table entry built from the opposite perspective.
func (k ConnectionKey) Swapped() ConnectionKey {
	return ConnectionKey{Proto: k.Proto, Local: k.Remote, Remote: k.Local}
}

// ProcessInfo identifies the process that owns a socket.
type ProcessInfo struct {
	PID     uint32
	Name    string
	Cmdline string
	UID     uint32
}

// HistSample is one interval's closed counters, the unit of sparkline history.
type HistSample struct {
	Up   uint64
	Down uint64
}

// Total is Up+Down, the value sparklines plot.
func (s HistSample) Total() float64 { return float64(s.Up + s.Down) }

// ConnectionView is a read-only per-connection row inside a Snapshot.
type ConnectionView struct {
	Key        ConnectionKey
	Process    *ProcessInfo // nil renders as <unknown>
	Up         uint64       // bytes in the just-closed interval
	Down       uint64
	History    []HistSample // oldest first, always len == H in steady state
	Age        time.Duration
	RemoteHost string // resolved hostname, or "" if unresolved/disabled
	Service    string // well-known service name for the remote port (else the local port), or ""
	Listening  bool   // true for a listening socket rather than a connection
}

// ProcessSummary aggregates every connection owned by one pid.
type ProcessSummary struct {
	PID         uint32
	PPID        uint32
	Name        string
	Cmdline     string
	Up          uint64 // just-closed interval
	Down        uint64
	CumUp       uint64 // cumulative since the process was first observed
	CumDown     uint64
	ConnCount   int
	ListenCount int
	History     []float64 // total rate history, oldest first
	ContainerID string
	ServiceName string
}

// RemoteHostSummary aggregates bandwidth by remote IP across all processes.
type RemoteHostSummary struct {
	Host      string // hostname if resolved, else the IP string
	IP        netip.Addr
	Up        uint64
	Down      uint64
	ConnCount int
	Processes []string
	Country   string
}

// ListenPortEntry is a system-wide listening socket with its owning process.
type ListenPortEntry struct {
	Proto   Protocol
	Addr    netip.AddrPort
	PID     uint32
	Process string
	Cmdline string
}

// Snapshot is the immutable, per-tick view of aggregation state delivered
// to the renderer. The hub never mutates a Snapshot after handing it out.
type Snapshot struct {
	Timestamp    time.Time
	Interval     int // monotonically increasing tick number
	Connections  []ConnectionView
	Processes    []ProcessSummary
	RemoteHosts  []RemoteHostSummary
	ListenPorts  []ListenPortEntry
	TotalUp      uint64
	TotalDown    uint64
	TotalDropped uint64 // packets dropped since start because neither endpoint is local; non-IP and malformed packets are not counted here
	TotalHistory []HistSample
	ActiveIface  string
}

// SessionStats holds cumulative session statistics shown on exit.
type SessionStats struct {
	Duration   time.Duration
	TotalUp    uint64
	TotalDown  uint64
	TopProcess []ProcessCumulative // top 5 by total bytes
}

// ProcessCumulative tracks cumulative bytes for a single process.
type ProcessCumulative struct {
	PID       uint32
	Name      string
	BytesUp   uint64
	BytesDown uint64
}

// Summary renders the session stats for terminal display on exit.
func (s SessionStats) Summary() string {
	if s.TotalUp == 0 && s.TotalDown == 0 && len(s.TopProcess) == 0 {
		return ""
	}

	var b strings.Builder
	dur := s.Duration.Truncate(time.Second)
	b.WriteString(fmt.Sprintf("\nbandhawk session: %s\n", dur))
	b.WriteString(fmt.Sprintf("Total: ▲ %s  ▼ %s\n", fmtBytes(s.TotalUp), fmtBytes(s.TotalDown)))

	if len(s.TopProcess) > 0 {
		b.WriteString("Top processes:\n")
		for i, p := range s.TopProcess {
			if p.BytesUp == 0 && p.BytesDown == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("  %d. %-16s ▲ %-10s ▼ %s\n",
				i+1, p.Name, fmtBytes(p.BytesUp), fmtBytes(p.BytesDown)))
		}
	}
	return b.String()
}

func fmtBytes(b uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)
	switch {
	case b >= TB:
		return fmt.Sprintf("%.1f TB", float64(b)/float64(TB))
	case b >= GB:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
