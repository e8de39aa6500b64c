package capture

import (
	"net/netip"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/googlesky/bandhawk/internal/model"
)

func buildTCPPacket(t *testing.T, srcIP, dstIP string, srcPort, dstPort uint16, payloadLen int) gopacket.Packet {
	t.Helper()
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    netip.MustParseAddr(srcIP).AsSlice(),
		DstIP:    netip.MustParseAddr(dstIP).AsSlice(),
	}
	tcp := &layers.TCP{SrcPort: layers.TCPPort(srcPort), DstPort: layers.TCPPort(dstPort), SYN: true}
	tcp.SetNetworkLayerForChecksum(ip)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	payload := gopacket.Payload(make([]byte, payloadLen))
	if err := gopacket.SerializeLayers(buf, opts, ip, tcp, payload); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return gopacket.NewPacket(buf.Bytes(), layers.LayerTypeIPv4, gopacket.Default)
}

func TestDecodeRecoversFiveTuple(t *testing.T) {
	pkt := buildTCPPacket(t, "10.0.0.5", "93.184.216.34", 51000, 443, 100)

	s := &Source{localAddr: map[netip.Addr]struct{}{
		netip.MustParseAddr("10.0.0.5"): {},
	}}

	got, ok := s.decode(pkt)
	if !ok {
		t.Fatalf("decode() ok = false, want true")
	}
	if got.Proto != model.ProtoTCP {
		t.Errorf("Proto = %v, want TCP", got.Proto)
	}
	if got.Src.Addr().String() != "10.0.0.5" || got.Src.Port() != 51000 {
		t.Errorf("Src = %v, want 10.0.0.5:51000", got.Src)
	}
	if got.Dst.Addr().String() != "93.184.216.34" || got.Dst.Port() != 443 {
		t.Errorf("Dst = %v, want 93.184.216.34:443", got.Dst)
	}
	if got.Direction != model.DirUp {
		t.Errorf("Direction = %v, want DirUp (src is local)", got.Direction)
	}
}

func TestDecodeUnknownDirectionWhenNeitherSideLocal(t *testing.T) {
	pkt := buildTCPPacket(t, "1.1.1.1", "2.2.2.2", 80, 9000, 10)
	s := &Source{localAddr: map[netip.Addr]struct{}{}}

	got, ok := s.decode(pkt)
	if !ok {
		t.Fatalf("decode() ok = false, want true")
	}
	if got.Direction != model.DirUnknown {
		t.Errorf("Direction = %v, want DirUnknown", got.Direction)
	}
	if _, keyOK := got.Key(); keyOK {
		t.Errorf("Key() ok = true for DirUnknown packet, want false (must be dropped)")
	}
}

func TestDecodeRejectsNonIPPacket(t *testing.T) {
	eth := &layers.Ethernet{EthernetType: layers.EthernetTypeARP}
	buf := gopacket.NewSerializeBuffer()
	_ = gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, eth)
	pkt := gopacket.NewPacket(buf.Bytes(), layers.LayerTypeEthernet, gopacket.Default)

	s := &Source{localAddr: map[netip.Addr]struct{}{}}
	if _, ok := s.decode(pkt); ok {
		t.Fatalf("decode() ok = true for non-IP packet, want false")
	}
}
