package recorder

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/googlesky/bandhawk/internal/model"
)

func makeTestSnapshot(ts time.Time, nProcs int) model.Snapshot {
	var procs []model.ProcessSummary
	var conns []model.ConnectionView
	for i := 0; i < nProcs; i++ {
		pid := uint32(1000 + i)
		procs = append(procs, model.ProcessSummary{
			PID:       pid,
			Name:      "test-proc",
			Up:        uint64(i * 100),
			Down:      uint64(i * 200),
			ConnCount: 1,
		})
		conns = append(conns, model.ConnectionView{
			Key: model.ConnectionKey{
				Proto:  model.ProtoTCP,
				Local:  netip.MustParseAddrPort("127.0.0.1:30000"),
				Remote: netip.MustParseAddrPort("8.8.8.8:443"),
			},
			Process: &model.ProcessInfo{PID: pid, Name: "test-proc"},
			Up:      uint64(i * 100),
		})
	}
	return model.Snapshot{
		Timestamp:   ts,
		Processes:   procs,
		Connections: conns,
		TotalUp:     500,
		TotalDown:   1000,
		ActiveIface: "eth0",
	}
}

func TestRecordAndPlaybackRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.bwrec")

	baseTime := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	rec, err := NewRecorder(path)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	snaps := make([]model.Snapshot, 5)
	for i := 0; i < 5; i++ {
		snaps[i] = makeTestSnapshot(baseTime.Add(time.Duration(i)*time.Second), i+1)
		if err := rec.Write(snaps[i]); err != nil {
			t.Fatalf("Write[%d]: %v", i, err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close recorder: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("recorded file is empty")
	}

	player, err := NewPlayer(path)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	defer player.Close()

	if player.Len() != 5 {
		t.Fatalf("Len: got %d, want 5", player.Len())
	}

	player.SetSpeed(16)

	ch := player.Play()
	var results []model.Snapshot
	for snap := range ch {
		results = append(results, snap)
	}

	if len(results) != 5 {
		t.Fatalf("got %d snapshots, want 5", len(results))
	}

	for i, snap := range results {
		if len(snap.Processes) != i+1 {
			t.Errorf("snap[%d]: got %d procs, want %d", i, len(snap.Processes), i+1)
		}
		if snap.TotalUp != 500 {
			t.Errorf("snap[%d]: TotalUp got %d, want 500", i, snap.TotalUp)
		}
		if snap.TotalDown != 1000 {
			t.Errorf("snap[%d]: TotalDown got %d, want 1000", i, snap.TotalDown)
		}
		for j, proc := range snap.Processes {
			if proc.PID != uint32(1000+j) {
				t.Errorf("snap[%d] proc[%d]: PID got %d, want %d", i, j, proc.PID, 1000+j)
			}
			if proc.Name != "test-proc" {
				t.Errorf("snap[%d] proc[%d]: Name got %q, want %q", i, j, proc.Name, "test-proc")
			}
		}
		if len(snap.Connections) != i+1 {
			t.Errorf("snap[%d]: got %d connections, want %d", i, len(snap.Connections), i+1)
		}
		if snap.ActiveIface != "eth0" {
			t.Errorf("snap[%d]: ActiveIface got %q, want eth0", i, snap.ActiveIface)
		}
	}
}

func TestRecordSession(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.bwrec")

	in := make(chan model.Snapshot, 3)

	out, _, err := RecordSession(in, path, zerolog.Nop())
	if err != nil {
		t.Fatalf("RecordSession: %v", err)
	}

	baseTime := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		in <- makeTestSnapshot(baseTime.Add(time.Duration(i)*time.Second), 1)
	}
	close(in)

	var results []model.Snapshot
	for snap := range out {
		results = append(results, snap)
	}

	if len(results) != 3 {
		t.Fatalf("got %d snapshots from output, want 3", len(results))
	}

	player, err := NewPlayer(path)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	defer player.Close()

	if player.Len() != 3 {
		t.Fatalf("player Len: got %d, want 3", player.Len())
	}
}

func TestPlayerSpeedBounds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "speed.bwrec")

	rec, err := NewRecorder(path)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	snap := makeTestSnapshot(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 1)
	rec.Write(snap)
	rec.Close()

	player, err := NewPlayer(path)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}

	if player.Speed() != 1.0 {
		t.Errorf("default speed: got %f, want 1.0", player.Speed())
	}

	player.SetSpeed(0.1)
	if player.Speed() != 0.25 {
		t.Errorf("min speed: got %f, want 0.25", player.Speed())
	}

	player.SetSpeed(32)
	if player.Speed() != 16 {
		t.Errorf("max speed: got %f, want 16", player.Speed())
	}

	player.SetSpeed(4)
	if player.Speed() != 4 {
		t.Errorf("set speed 4: got %f, want 4", player.Speed())
	}
}

func TestPlayerPauseToggle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pause.bwrec")

	rec, err := NewRecorder(path)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	snap := makeTestSnapshot(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 1)
	rec.Write(snap)
	rec.Close()

	player, err := NewPlayer(path)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}

	if player.IsPaused() {
		t.Error("should not be paused initially")
	}

	player.TogglePause()
	if !player.IsPaused() {
		t.Error("should be paused after toggle")
	}

	player.TogglePause()
	if player.IsPaused() {
		t.Error("should not be paused after second toggle")
	}
}

func TestEmptyRecording(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.bwrec")

	rec, err := NewRecorder(path)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	rec.Close()

	player, err := NewPlayer(path)
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}

	if player.Len() != 0 {
		t.Errorf("empty recording Len: got %d, want 0", player.Len())
	}

	ch := player.Play()
	count := 0
	for range ch {
		count++
	}
	if count != 0 {
		t.Errorf("empty playback: got %d snapshots, want 0", count)
	}
}
