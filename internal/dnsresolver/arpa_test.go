package dnsresolver

import (
	"net/netip"
	"testing"
)

func TestReverseNameIPv4(t *testing.T) {
	got := reverseName(netip.MustParseAddr("192.0.2.1"))
	want := "1.2.0.192.in-addr.arpa."
	if got != want {
		t.Errorf("reverseName = %q, want %q", got, want)
	}
}

func TestTrimTrailingDot(t *testing.T) {
	if got := trimTrailingDot("example.com."); got != "example.com" {
		t.Errorf("trimTrailingDot = %q, want example.com", got)
	}
	if got := trimTrailingDot("example.com"); got != "example.com" {
		t.Errorf("trimTrailingDot = %q, want example.com (no-op)", got)
	}
}
