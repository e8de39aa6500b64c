//go:build linux

package socketenum

import "testing"

func TestParseHexAddrPortIPv4(t *testing.T) {
	// 0100007F:0050 = 127.0.0.1:80 (address little-endian, port big-endian)
	got, ok := parseHexAddrPort("0100007F:0050")
	if !ok {
		t.Fatalf("parseHexAddrPort ok = false")
	}
	if got.Addr().String() != "127.0.0.1" {
		t.Errorf("Addr = %s, want 127.0.0.1", got.Addr())
	}
	if got.Port() != 80 {
		t.Errorf("Port = %d, want 80", got.Port())
	}
}

func TestParseHexAddrPortMalformed(t *testing.T) {
	if _, ok := parseHexAddrPort("not-hex"); ok {
		t.Fatalf("expected ok=false for malformed field")
	}
	if _, ok := parseHexAddrPort("0100007F"); ok {
		t.Fatalf("expected ok=false for missing port")
	}
}

func TestParseHexAddrPortIPv6(t *testing.T) {
	// ::1 stored as four little-endian 32-bit words: 00000000 x3, then 01000000.
	addrHex := "00000000" + "00000000" + "00000000" + "01000000"
	got, ok := parseHexAddrPort(addrHex + ":01BB")
	if !ok {
		t.Fatalf("parseHexAddrPort ok = false")
	}
	if got.Port() != 443 {
		t.Errorf("Port = %d, want 443", got.Port())
	}
	if !got.Addr().Is6() {
		t.Errorf("expected IPv6 address, got %s", got.Addr())
	}
}
