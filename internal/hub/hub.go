// Package hub implements the shared, tick-synchronized aggregation state:
// the one place in the pipeline that needs a lock. Capture ingestion, the
// socket enumerator and the DNS resolver all write into it concurrently;
// the UI only ever reads the immutable Snapshot a Tick hands back.
package hub

import (
	"net/netip"
	"sort"
	"sync"
	"time"

	"github.com/googlesky/bandhawk/internal/geo"
	"github.com/googlesky/bandhawk/internal/model"
)

const (
	// DefaultHistory is the ring-buffer depth kept per record: enough
	// samples for the widest plausible terminal sparkline.
	DefaultHistory = 300
	// DefaultRetireAfter is the number of consecutive zero-traffic
	// intervals before a quiet record is dropped to bound memory.
	DefaultRetireAfter = 5
)

// ProcessNamer resolves auxiliary process metadata (parent pid, cgroup tag)
// that the socket enumerator doesn't carry. Implementations are platform
// specific; a nil ProcessNamer means the fields are left zero.
type ProcessNamer interface {
	PPID(pid uint32) uint32
	ContainerTag(pid uint32) (containerID, serviceName string)
}

// record is the hub's internal, mutable per-connection state. Never handed
// to callers directly — Tick copies out the data a Snapshot needs.
type record struct {
	key        model.ConnectionKey
	process    *model.ProcessInfo
	curUp      uint64
	curDown    uint64
	cumUp      uint64
	cumDown    uint64
	history    *ringBuffer
	zeroStreak int
	firstSeen  time.Time
	lastSeen   time.Time
}

// Hub is the shared aggregation state. Zero value is not usable; construct
// with New.
type Hub struct {
	mu sync.Mutex

	historyLen  int
	retireAfter int

	records    map[model.ConnectionKey]*record
	sockets    model.SocketSnapshot
	haveAttach bool

	tickNum      int
	dropped      uint64
	sessionStart time.Time
	totalCumUp   uint64
	totalCumDown uint64
	totalHistory *ringBuffer
	procHistory  map[uint32]*ringBuffer

	dnsEnqueue func(netip.Addr)
	dnsLookup  func(netip.Addr) (string, bool)
	namer      ProcessNamer
}

// New constructs a Hub. dnsEnqueue and dnsLookup may be nil (DNS disabled);
// namer may be nil (no ppid/cgroup enrichment, e.g. non-Linux).
func New(historyLen, retireAfter int, dnsEnqueue func(netip.Addr), dnsLookup func(netip.Addr) (string, bool), namer ProcessNamer) *Hub {
	if historyLen < 1 {
		historyLen = DefaultHistory
	}
	if retireAfter < 1 {
		retireAfter = DefaultRetireAfter
	}
	return &Hub{
		historyLen:   historyLen,
		retireAfter:  retireAfter,
		records:      make(map[model.ConnectionKey]*record),
		sessionStart: time.Now(),
		dnsEnqueue:   dnsEnqueue,
		dnsLookup:    dnsLookup,
		namer:        namer,
		totalHistory: newRingBuffer(historyLen),
		procHistory:  make(map[uint32]*ringBuffer),
	}
}

func (h *Hub) getOrCreate(key model.ConnectionKey, now time.Time) *record {
	r, ok := h.records[key]
	if ok {
		return r
	}
	r = &record{
		key:       key,
		history:   newRingBuffer(h.historyLen),
		firstSeen: now,
	}
	h.records[key] = r
	return r
}

// Ingest accumulates one packet's bytes into its connection's current
// interval counters. Packets whose direction is unknown are not keyable
// and are counted in the dropped metric instead. The per-packet update is
// atomic: no reader ever observes a half-applied counter.
func (h *Hub) Ingest(pkt model.Packet) {
	key, ok := pkt.Key()
	if !ok {
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
		return
	}

	now := time.Now()
	h.mu.Lock()
	defer h.mu.Unlock()

	r := h.getOrCreate(key, now)
	r.lastSeen = now
	switch pkt.Direction {
	case model.DirUp:
		r.curUp += uint64(pkt.Length)
	case model.DirDown:
		r.curDown += uint64(pkt.Length)
	}

	// Lazy attribution: if a prior socket snapshot already named this key
	// (in either orientation) and this record hasn't been attributed yet,
	// attach it now rather than waiting for the next enumerator pass.
	if r.process == nil && h.haveAttach {
		if p, found := h.sockets.Established[key]; found {
			pc := p
			r.process = &pc
		} else if p, found := h.sockets.Established[key.Swapped()]; found {
			pc := p
			r.process = &pc
		}
	}
}

// Attach replaces the current socket-table view. Records without a process
// yet are resolved against either orientation of their key; the remote IP
// of every record is then enqueued for reverse DNS.
func (h *Hub) Attach(sockets model.SocketSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sockets = sockets
	h.haveAttach = true

	for _, r := range h.records {
		if r.process != nil {
			continue
		}
		if p, found := sockets.Established[r.key]; found {
			pc := p
			r.process = &pc
		} else if p, found := sockets.Established[r.key.Swapped()]; found {
			pc := p
			r.process = &pc
		}
	}

	if h.dnsEnqueue != nil {
		for _, r := range h.records {
			if addr := r.key.Remote.Addr(); addr.IsValid() {
				h.dnsEnqueue(addr)
			}
		}
	}
}

// Tick is the only global serialization point: it advances history, zeroes
// current counters, retires quiet records, and returns the just-closed
// interval as an immutable Snapshot.
func (h *Hub) Tick(activeIface string) model.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	h.tickNum++

	var (
		totalUp, totalDown uint64
		connections        []model.ConnectionView
	)

	type procAgg struct {
		info      model.ProcessInfo
		up, down  uint64
		cumUp     uint64
		cumDown   uint64
		connCount int
		history   []float64
	}
	procs := make(map[uint32]*procAgg)

	type hostAgg struct {
		addr      netip.Addr
		up, down  uint64
		connCount int
		procNames map[string]struct{}
	}
	hosts := make(map[netip.Addr]*hostAgg)

	for key, r := range h.records {
		sample := model.HistSample{Up: r.curUp, Down: r.curDown}
		r.history.push(sample)
		r.cumUp += r.curUp
		r.cumDown += r.curDown
		totalUp += r.curUp
		totalDown += r.curDown
		h.totalCumUp += r.curUp
		h.totalCumDown += r.curDown

		if r.curUp == 0 && r.curDown == 0 {
			r.zeroStreak++
		} else {
			r.zeroStreak = 0
		}
		if r.zeroStreak >= h.retireAfter {
			delete(h.records, key)
			continue
		}

		var remoteHost string
		if h.dnsLookup != nil {
			if addr := r.key.Remote.Addr(); addr.IsValid() {
				remoteHost, _ = h.dnsLookup(addr)
			}
		}

		cv := model.ConnectionView{
			Key:        r.key,
			Process:    r.process,
			Up:         r.curUp,
			Down:       r.curDown,
			History:    r.history.samples(),
			Age:        now.Sub(r.firstSeen),
			RemoteHost: remoteHost,
			Service:    model.ServiceName(r.key.Remote.Port(), r.key.Local.Port()),
		}
		connections = append(connections, cv)

		var pid uint32
		var pinfo model.ProcessInfo
		if r.process != nil {
			pid = r.process.PID
			pinfo = *r.process
		}
		pa, ok := procs[pid]
		if !ok {
			pa = &procAgg{info: pinfo}
			procs[pid] = pa
		}
		pa.up += r.curUp
		pa.down += r.curDown
		pa.cumUp += r.cumUp
		pa.cumDown += r.cumDown
		pa.connCount++

		if addr := r.key.Remote.Addr(); addr.IsValid() {
			ha, ok := hosts[addr]
			if !ok {
				ha = &hostAgg{addr: addr, procNames: make(map[string]struct{})}
				hosts[addr] = ha
			}
			ha.up += r.curUp
			ha.down += r.curDown
			ha.connCount++
			if pinfo.Name != "" {
				ha.procNames[pinfo.Name] = struct{}{}
			}
		}

		r.curUp, r.curDown = 0, 0
	}

	h.totalHistory.push(model.HistSample{Up: totalUp, Down: totalDown})

	liveProcs := make(map[uint32]struct{}, len(procs))
	processes := make([]model.ProcessSummary, 0, len(procs))
	for pid, pa := range procs {
		liveProcs[pid] = struct{}{}
		rb, ok := h.procHistory[pid]
		if !ok {
			rb = newRingBuffer(h.historyLen)
			h.procHistory[pid] = rb
		}
		rb.push(model.HistSample{Up: pa.up, Down: pa.down})

		ps := model.ProcessSummary{
			PID:       pid,
			Name:      pa.info.Name,
			Cmdline:   pa.info.Cmdline,
			Up:        pa.up,
			Down:      pa.down,
			CumUp:     pa.cumUp,
			CumDown:   pa.cumDown,
			ConnCount: pa.connCount,
			History:   rb.totals(),
		}
		if ps.Name == "" {
			ps.Name = "<unknown>"
		}
		if h.namer != nil && pid != 0 {
			ps.PPID = h.namer.PPID(pid)
			ps.ContainerID, ps.ServiceName = h.namer.ContainerTag(pid)
		}
		processes = append(processes, ps)
	}

	// Listening sockets contribute listen counts, and a row for processes
	// that only listen (no active connection yet).
	listenCounts := make(map[uint32]int)
	for _, lp := range h.sockets.Listening {
		listenCounts[lp.PID]++
	}
	for i := range processes {
		processes[i].ListenCount = listenCounts[processes[i].PID]
	}
	// Processes that only listen (no active connection yet) still deserve a row.
	for _, lp := range h.sockets.Listening {
		found := false
		for _, ps := range processes {
			if ps.PID == lp.PID {
				found = true
				break
			}
		}
		if !found {
			processes = append(processes, model.ProcessSummary{
				PID:         lp.PID,
				Name:        nonEmpty(lp.Process, "<unknown>"),
				Cmdline:     lp.Cmdline,
				ListenCount: listenCounts[lp.PID],
			})
		}
	}

	remoteHosts := make([]model.RemoteHostSummary, 0, len(hosts))
	for _, ha := range hosts {
		names := make([]string, 0, len(ha.procNames))
		for n := range ha.procNames {
			names = append(names, n)
		}
		sort.Strings(names)
		host := ha.addr.String()
		if h.dnsLookup != nil {
			if name, ok := h.dnsLookup(ha.addr); ok && name != "" {
				host = name
			}
		}
		remoteHosts = append(remoteHosts, model.RemoteHostSummary{
			Host:      host,
			IP:        ha.addr,
			Up:        ha.up,
			Down:      ha.down,
			ConnCount: ha.connCount,
			Processes: names,
			Country:   geo.Lookup(ha.addr).Format(),
		})
	}
	sort.Slice(remoteHosts, func(i, j int) bool {
		return remoteHosts[i].Up+remoteHosts[i].Down > remoteHosts[j].Up+remoteHosts[j].Down
	})

	listenPorts := make([]model.ListenPortEntry, len(h.sockets.Listening))
	copy(listenPorts, h.sockets.Listening)
	sort.Slice(listenPorts, func(i, j int) bool {
		if listenPorts[i].Addr.Port() != listenPorts[j].Addr.Port() {
			return listenPorts[i].Addr.Port() < listenPorts[j].Addr.Port()
		}
		return listenPorts[i].Proto < listenPorts[j].Proto
	})

	sort.Slice(connections, func(i, j int) bool {
		return connections[i].Up+connections[i].Down > connections[j].Up+connections[j].Down
	})
	sort.Slice(processes, func(i, j int) bool {
		return processes[i].Up+processes[i].Down > processes[j].Up+processes[j].Down
	})

	for pid := range h.procHistory {
		if _, ok := liveProcs[pid]; !ok {
			delete(h.procHistory, pid)
		}
	}

	return model.Snapshot{
		Timestamp:    now,
		Interval:     h.tickNum,
		Connections:  connections,
		Processes:    processes,
		RemoteHosts:  remoteHosts,
		ListenPorts:  listenPorts,
		TotalUp:      totalUp,
		TotalDown:    totalDown,
		TotalDropped: h.dropped,
		TotalHistory: h.totalHistory.samples(),
		ActiveIface:  activeIface,
	}
}

// SessionStats returns cumulative totals since the hub was created.
func (h *Hub) SessionStats() model.SessionStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	byPID := make(map[uint32]*model.ProcessCumulative)
	for _, r := range h.records {
		if r.process == nil {
			continue
		}
		pc, ok := byPID[r.process.PID]
		if !ok {
			pc = &model.ProcessCumulative{PID: r.process.PID, Name: r.process.Name}
			byPID[r.process.PID] = pc
		}
		pc.BytesUp += r.cumUp
		pc.BytesDown += r.cumDown
	}
	all := make([]model.ProcessCumulative, 0, len(byPID))
	for _, pc := range byPID {
		all = append(all, *pc)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].BytesUp+all[i].BytesDown > all[j].BytesUp+all[j].BytesDown
	})
	if len(all) > 5 {
		all = all[:5]
	}

	return model.SessionStats{
		Duration:   time.Since(h.sessionStart),
		TotalUp:    h.totalCumUp,
		TotalDown:  h.totalCumDown,
		TopProcess: all,
	}
}

// Dropped returns the cumulative count of unkeyable packets.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
