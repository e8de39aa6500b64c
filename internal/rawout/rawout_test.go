package rawout

import (
	"bytes"
	"net/netip"
	"strconv"
	"strings"
	"testing"

	"github.com/googlesky/bandhawk/internal/model"
)

func TestWriteSnapshotRoundTrip(t *testing.T) {
	snap := model.Snapshot{
		Interval: 7,
		Connections: []model.ConnectionView{
			{
				Key: model.ConnectionKey{
					Proto:  model.ProtoTCP,
					Local:  netip.MustParseAddrPort("10.0.0.2:5000"),
					Remote: netip.MustParseAddrPort("1.2.3.4:443"),
				},
				Process: &model.ProcessInfo{PID: 42, Name: "curl"},
				Up:      1000,
				Down:    2000,
			},
			{
				Key: model.ConnectionKey{
					Proto:  model.ProtoUDP,
					Local:  netip.MustParseAddrPort("10.0.0.2:6000"),
					Remote: netip.MustParseAddrPort("8.8.8.8:53"),
				},
				Up:   53,
				Down: 100,
			},
		},
	}

	var buf bytes.Buffer
	w := New(&buf)
	if err := w.WriteSnapshot(snap); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	fields := strings.Split(lines[0], "\t")
	if len(fields) != 8 {
		t.Fatalf("got %d fields, want 8: %q", len(fields), lines[0])
	}
	if fields[1] != "42" || fields[2] != "curl" {
		t.Errorf("pid/process = %q/%q, want 42/curl", fields[1], fields[2])
	}
	up, _ := strconv.ParseUint(fields[6], 10, 64)
	down, _ := strconv.ParseUint(fields[7], 10, 64)
	if up != 1000 || down != 2000 {
		t.Errorf("up/down = %d/%d, want 1000/2000", up, down)
	}

	fields2 := strings.Split(lines[1], "\t")
	if fields2[1] != "0" || fields2[2] != "<unknown>" {
		t.Errorf("unattributed pid/process = %q/%q, want 0/<unknown>", fields2[1], fields2[2])
	}
}

func TestWriteSnapshotEmptyConnections(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)
	if err := w.WriteSnapshot(model.Snapshot{Interval: 1}); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output for empty snapshot, got %q", buf.String())
	}
}
