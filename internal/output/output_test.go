package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/googlesky/bandhawk/internal/model"
)

func testSnapshot() model.Snapshot {
	return model.Snapshot{
		Timestamp: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		Interval:  7,
		Processes: []model.ProcessSummary{
			{PID: 1234, Name: "firefox", Cmdline: "/usr/bin/firefox", Up: 1024, Down: 2048, ConnCount: 1},
			{PID: 22, Name: "sshd", Cmdline: "/usr/sbin/sshd", ListenCount: 1},
		},
		TotalUp:   1024,
		TotalDown: 2048,
	}
}

func TestWriteJSON(t *testing.T) {
	snap := testSnapshot()
	var buf bytes.Buffer

	if err := WriteJSON(&buf, snap); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("JSON output must end with newline (NDJSON)")
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, buf.String())
	}
	if _, ok := decoded["Processes"]; !ok {
		t.Error("missing Processes field")
	}

	procs, ok := decoded["Processes"].([]any)
	if !ok || len(procs) != 2 {
		t.Fatalf("expected 2 processes, got %v", decoded["Processes"])
	}
	p0 := procs[0].(map[string]any)
	if p0["Name"] != "firefox" {
		t.Errorf("expected process name firefox, got %v", p0["Name"])
	}
}

func TestWriteJSONMultipleSnapshots(t *testing.T) {
	snap := testSnapshot()
	var buf bytes.Buffer
	for i := 0; i < 3; i++ {
		if err := WriteJSON(&buf, snap); err != nil {
			t.Fatalf("WriteJSON iteration %d: %v", i, err)
		}
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 NDJSON lines, got %d", len(lines))
	}
}

func TestCSVWriter(t *testing.T) {
	snap := testSnapshot()
	var buf bytes.Buffer

	w := NewCSVWriter(&buf)
	if err := w.Write(snap); err != nil {
		t.Fatalf("CSV Write: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 CSV lines (header + 2 rows), got %d: %v", len(lines), lines)
	}
	if lines[0] != "timestamp,interval,pid,process,up_bytes,down_bytes,connections,listen_ports" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "firefox") || !strings.Contains(lines[1], "1234") {
		t.Errorf("unexpected first data row: %s", lines[1])
	}
}

func TestCSVWriterNoDoubleHeader(t *testing.T) {
	snap := testSnapshot()
	var buf bytes.Buffer

	w := NewCSVWriter(&buf)
	for i := 0; i < 3; i++ {
		if err := w.Write(snap); err != nil {
			t.Fatalf("CSV Write iteration %d: %v", i, err)
		}
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 7 {
		t.Fatalf("expected 7 CSV lines, got %d", len(lines))
	}
	headerCount := 0
	for _, line := range lines {
		if strings.HasPrefix(line, "timestamp,") {
			headerCount++
		}
	}
	if headerCount != 1 {
		t.Errorf("expected exactly 1 header, got %d", headerCount)
	}
}

func TestCSVWriterEmptySnapshot(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	if err := w.Write(model.Snapshot{Timestamp: time.Now()}); err != nil {
		t.Fatalf("CSV Write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 CSV line (header only), got %d", len(lines))
	}
}
