package ui

import (
	"net/netip"
	"testing"

	"github.com/googlesky/bandhawk/internal/model"
)

func testProc() model.ProcessSummary {
	return model.ProcessSummary{
		PID:         1234,
		Name:        "firefox",
		Cmdline:     "/usr/bin/firefox",
		Up:          1024 * 1024, // 1 MB/s
		Down:        2 * 1024 * 1024,
		ConnCount:   2,
		ListenCount: 1,
	}
}

func testConns() []model.ConnectionView {
	return []model.ConnectionView{
		{
			Key: model.ConnectionKey{
				Proto:  model.ProtoTCP,
				Local:  netip.MustParseAddrPort("192.168.1.5:54321"),
				Remote: netip.MustParseAddrPort("142.250.80.46:443"),
			},
			RemoteHost: "google.com",
			Service:    "HTTPS",
		},
		{
			Key: model.ConnectionKey{
				Proto:  model.ProtoUDP,
				Local:  netip.MustParseAddrPort("192.168.1.5:12345"),
				Remote: netip.MustParseAddrPort("8.8.8.8:53"),
			},
			RemoteHost: "dns.google",
			Service:    "DNS",
		},
		{
			Key: model.ConnectionKey{
				Proto: model.ProtoTCP,
				Local: netip.MustParseAddrPort("0.0.0.0:8080"),
			},
			Listening: true,
		},
	}
}

func TestFilterPlainText(t *testing.T) {
	p := testProc()
	c := testConns()
	f := ParseFilter("firefox")
	if !f.Match(&p, c) {
		t.Error("plain text 'firefox' should match")
	}
	f = ParseFilter("chrome")
	if f.Match(&p, c) {
		t.Error("plain text 'chrome' should not match")
	}
}

func TestFilterPort(t *testing.T) {
	p := testProc()
	c := testConns()
	f := ParseFilter("port:443")
	if !f.Match(&p, c) {
		t.Error("port:443 should match")
	}
	f = ParseFilter("port:8080")
	if !f.Match(&p, c) {
		t.Error("port:8080 should match (listen port)")
	}
	f = ParseFilter("port:9999")
	if f.Match(&p, c) {
		t.Error("port:9999 should not match")
	}
}

func TestFilterUp(t *testing.T) {
	p := testProc()
	c := testConns()
	f := ParseFilter("up>500K")
	if !f.Match(&p, c) {
		t.Error("up>500K should match (1 MB/s)")
	}
	f = ParseFilter("up>2M")
	if f.Match(&p, c) {
		t.Error("up>2M should not match (1 MB/s)")
	}
}

func TestFilterDown(t *testing.T) {
	p := testProc()
	c := testConns()
	f := ParseFilter("down>1M")
	if !f.Match(&p, c) {
		t.Error("down>1M should match (2 MB/s)")
	}
}

func TestFilterProto(t *testing.T) {
	p := testProc()
	c := testConns()
	f := ParseFilter("proto:tcp")
	if !f.Match(&p, c) {
		t.Error("proto:tcp should match")
	}
	f = ParseFilter("proto:udp")
	if !f.Match(&p, c) {
		t.Error("proto:udp should match")
	}
}

func TestFilterHost(t *testing.T) {
	p := testProc()
	c := testConns()
	f := ParseFilter("host:google")
	if !f.Match(&p, c) {
		t.Error("host:google should match")
	}
	f = ParseFilter("host:amazon")
	if f.Match(&p, c) {
		t.Error("host:amazon should not match")
	}
}

func TestFilterConns(t *testing.T) {
	p := testProc()
	c := testConns()
	f := ParseFilter("conns>1")
	if !f.Match(&p, c) {
		t.Error("conns>1 should match (2 conns)")
	}
	f = ParseFilter("conns>5")
	if f.Match(&p, c) {
		t.Error("conns>5 should not match (2 conns)")
	}
}

func TestFilterListen(t *testing.T) {
	p := testProc()
	c := testConns()
	f := ParseFilter("listen:true")
	if !f.Match(&p, c) {
		t.Error("listen:true should match")
	}

	noListen := model.ProcessSummary{Name: "curl"}
	f = ParseFilter("listen:true")
	if f.Match(&noListen, nil) {
		t.Error("listen:true should not match process with no listen ports")
	}
}

func TestFilterService(t *testing.T) {
	p := testProc()
	c := testConns()
	f := ParseFilter("svc:https")
	if !f.Match(&p, c) {
		t.Error("svc:https should match")
	}
	f = ParseFilter("svc:ssh")
	if f.Match(&p, c) {
		t.Error("svc:ssh should not match")
	}
}

func TestFilterEmpty(t *testing.T) {
	f := ParseFilter("")
	if !f.IsEmpty() {
		t.Error("empty filter should be empty")
	}
	p := testProc()
	if !f.Match(&p, testConns()) {
		t.Error("empty filter should match everything")
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"100", 100},
		{"1K", 1024},
		{"1k", 1024},
		{"1M", 1024 * 1024},
		{"1.5M", 1.5 * 1024 * 1024},
		{"1G", 1024 * 1024 * 1024},
		{"", 0},
		{"abc", 0},
	}
	for _, tt := range tests {
		got := parseSize(tt.input)
		if got != tt.want {
			t.Errorf("parseSize(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
