package hub

import (
	"net/netip"
	"testing"

	"github.com/googlesky/bandhawk/internal/model"
)

func mustAddrPort(s string) netip.AddrPort {
	return netip.MustParseAddrPort(s)
}

// TestIngestSumsMatchObservedBytes checks that summed Up+Down across all
// records across all closed intervals equals the sum of observed length
// on keyable packets — no bytes gained or lost in aggregation.
func TestIngestSumsMatchObservedBytes(t *testing.T) {
	h := New(10, 5, nil, nil, nil)

	local := mustAddrPort("10.0.0.2:5000")
	remote := mustAddrPort("1.2.3.4:80")

	const n = 100
	const length = 1000
	for i := 0; i < n; i++ {
		h.Ingest(model.Packet{
			Proto:     model.ProtoTCP,
			Src:       local,
			Dst:       remote,
			Length:    length,
			Direction: model.DirUp,
		})
	}

	snap := h.Tick("eth0")
	if len(snap.Connections) != 1 {
		t.Fatalf("expected 1 connection, got %d", len(snap.Connections))
	}
	got := snap.Connections[0].Up + snap.Connections[0].Down
	want := uint64(n * length)
	if got != want {
		t.Fatalf("ingest sum = %d, want %d", got, want)
	}
	if snap.TotalUp != want || snap.TotalDown != 0 {
		t.Fatalf("snapshot totals = up=%d down=%d, want up=%d down=0", snap.TotalUp, snap.TotalDown, want)
	}
}

// TestUnattributedThenAttributedNoDoubleCounting is scenario 2: a
// connection observed with an empty socket map first shows as <unknown>;
// once attributed, later intervals show the process without re-counting
// prior bytes.
func TestUnattributedThenAttributedNoDoubleCounting(t *testing.T) {
	h := New(10, 5, nil, nil, nil)
	local := mustAddrPort("10.0.0.2:5000")
	remote := mustAddrPort("1.2.3.4:80")
	pkt := model.Packet{Proto: model.ProtoTCP, Src: local, Dst: remote, Length: 1000, Direction: model.DirUp}

	for i := 0; i < 10; i++ {
		h.Ingest(pkt)
	}
	snap1 := h.Tick("eth0")
	if snap1.Connections[0].Process != nil {
		t.Fatalf("expected unattributed record before attach")
	}
	firstUp := snap1.Connections[0].Up
	if firstUp != 10000 {
		t.Fatalf("first interval up = %d, want 10000", firstUp)
	}

	h.Attach(model.SocketSnapshot{Established: map[model.ConnectionKey]model.ProcessInfo{
		{Proto: model.ProtoTCP, Local: local, Remote: remote}: {PID: 42, Name: "curl"},
	}})

	for i := 0; i < 5; i++ {
		h.Ingest(pkt)
	}
	snap2 := h.Tick("eth0")
	if snap2.Connections[0].Process == nil || snap2.Connections[0].Process.Name != "curl" {
		t.Fatalf("expected attribution to curl after attach")
	}
	if snap2.Connections[0].Up != 5000 {
		t.Fatalf("second interval up = %d, want 5000 (no double counting)", snap2.Connections[0].Up)
	}
}

// TestHistoryZeroFillAndRetirement checks that a record's history is
// zero-filled to its full length from the first tick, and that a record
// idle for K consecutive ticks is absent from the snapshot of the K-th.
func TestHistoryZeroFillAndRetirement(t *testing.T) {
	const K = 5
	h := New(20, K, nil, nil, nil)
	local := mustAddrPort("10.0.0.2:1111")
	remote := mustAddrPort("9.9.9.9:443")
	h.Ingest(model.Packet{Proto: model.ProtoTCP, Src: local, Dst: remote, Length: 500, Direction: model.DirUp})

	snap := h.Tick("eth0")
	if len(snap.Connections[0].History) != 20 {
		t.Fatalf("history length = %d, want 20", len(snap.Connections[0].History))
	}

	for i := 0; i < K-1; i++ {
		snap = h.Tick("eth0")
		if len(snap.Connections) != 1 {
			t.Fatalf("record retired too early at idle tick %d", i+1)
		}
	}

	snap = h.Tick("eth0")
	if len(snap.Connections) != 0 {
		t.Fatalf("record should be retired after %d consecutive zero intervals", K)
	}
}

// TestAttachResolvesBothOrientations checks that a record gets attributed
// to a process regardless of which side of the connection the socket
// table reports as local.
func TestAttachResolvesBothOrientations(t *testing.T) {
	h := New(10, 5, nil, nil, nil)
	local := mustAddrPort("10.0.0.2:4444")
	remote := mustAddrPort("5.5.5.5:22")
	h.Ingest(model.Packet{Proto: model.ProtoTCP, Src: remote, Dst: local, Length: 42, Direction: model.DirDown})

	// Socket table stores the key from the opposite perspective.
	swapped := model.ConnectionKey{Proto: model.ProtoTCP, Local: remote, Remote: local}
	h.Attach(model.SocketSnapshot{Established: map[model.ConnectionKey]model.ProcessInfo{
		swapped: {PID: 7, Name: "sshd"},
	}})

	snap := h.Tick("eth0")
	if snap.Connections[0].Process == nil || snap.Connections[0].Process.PID != 7 {
		t.Fatalf("expected attribution via swapped key orientation")
	}
}

// TestDroppedPacketsCounted covers unkeyable (direction-unknown) packets.
func TestDroppedPacketsCounted(t *testing.T) {
	h := New(10, 5, nil, nil, nil)
	h.Ingest(model.Packet{Proto: model.ProtoUDP, Length: 64, Direction: model.DirUnknown})
	h.Ingest(model.Packet{Proto: model.ProtoUDP, Length: 64, Direction: model.DirUnknown})

	if got := h.Dropped(); got != 2 {
		t.Fatalf("Dropped() = %d, want 2", got)
	}
	snap := h.Tick("eth0")
	if len(snap.Connections) != 0 {
		t.Fatalf("unkeyable packets must not create a record")
	}
	if snap.TotalDropped != 2 {
		t.Fatalf("snapshot TotalDropped = %d, want 2", snap.TotalDropped)
	}
}

func TestRingBufferZeroFillAndWrap(t *testing.T) {
	rb := newRingBuffer(3)
	samples := rb.samples()
	if len(samples) != 3 {
		t.Fatalf("expected 3 zero-filled samples, got %d", len(samples))
	}
	for _, s := range samples {
		if s.Up != 0 || s.Down != 0 {
			t.Fatalf("expected zero-filled sample, got %+v", s)
		}
	}

	rb.push(model.HistSample{Up: 1})
	rb.push(model.HistSample{Up: 2})
	rb.push(model.HistSample{Up: 3})
	rb.push(model.HistSample{Up: 4}) // overwrites the oldest (Up:1)

	got := rb.samples()
	want := []uint64{2, 3, 4}
	for i, w := range want {
		if got[i].Up != w {
			t.Fatalf("samples()[%d].Up = %d, want %d", i, got[i].Up, w)
		}
	}
}
