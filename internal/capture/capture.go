// Package capture opens a live packet capture on a network interface and
// decodes it into the model.Packet shape the hub consumes, using gopacket
// and its libpcap binding the way KleaSCM/netscope wires up a capture
// engine.
package capture

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/rs/zerolog"

	"github.com/googlesky/bandhawk/internal/apperr"
	"github.com/googlesky/bandhawk/internal/model"
)

// Config configures a Source.
type Config struct {
	Interface   string
	SnapLen     int32
	Promiscuous bool
	Timeout     time.Duration
	BufferMB    int
	BPFFilter   string
}

// DefaultConfig returns sane capture defaults for the named interface.
func DefaultConfig(iface string) Config {
	return Config{
		Interface:   iface,
		SnapLen:     65536,
		Promiscuous: true,
		Timeout:     time.Second,
		BufferMB:    16,
	}
}

// DNSQuery is a side-channel observation surfaced when --show-dns is set:
// the question section of an outgoing UDP/53 packet.
type DNSQuery struct {
	Remote netip.Addr
	Name   string
	Type   string
}

// Source is a live capture bound to one interface. Run decodes its packets
// into model.Packet values and hands them to a handler until the context
// passed to Run is cancelled.
type Source struct {
	cfg       Config
	handle    *pcap.Handle
	localAddr map[netip.Addr]struct{}
	log       zerolog.Logger

	onDNS func(DNSQuery)

	parseErrors uint64
}

// Open validates the interface and activates a pcap handle. It does not
// start reading packets; call Run for that.
func Open(cfg Config, log zerolog.Logger) (*Source, error) {
	iface, err := net.InterfaceByName(cfg.Interface)
	if err != nil {
		if cfg.Interface == "any" {
			// "any" is a pseudo-device pcap understands directly; it has
			// no net.Interface entry.
		} else {
			return nil, apperr.New(apperr.KindInterfaceMissing, "capture.Open", err)
		}
	}

	local := map[netip.Addr]struct{}{}
	if iface != nil {
		addrs, err := iface.Addrs()
		if err != nil {
			return nil, apperr.New(apperr.KindInterfaceOpen, "capture.Open", err)
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			if addr, ok := netip.AddrFromSlice(ipNet.IP); ok {
				local[addr.Unmap()] = struct{}{}
			}
		}
	}

	inactive, err := pcap.NewInactiveHandle(cfg.Interface)
	if err != nil {
		return nil, classifyOpenErr(err)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(int(cfg.SnapLen)); err != nil {
		return nil, apperr.New(apperr.KindInterfaceOpen, "SetSnapLen", err)
	}
	if err := inactive.SetPromisc(cfg.Promiscuous); err != nil {
		return nil, apperr.New(apperr.KindInterfaceOpen, "SetPromisc", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}
	if err := inactive.SetTimeout(timeout); err != nil {
		return nil, apperr.New(apperr.KindInterfaceOpen, "SetTimeout", err)
	}
	if cfg.BufferMB > 0 {
		if err := inactive.SetBufferSize(cfg.BufferMB * 1024 * 1024); err != nil {
			log.Warn().Err(err).Msg("capture: failed to set kernel buffer size")
		}
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, classifyOpenErr(err)
	}

	if cfg.BPFFilter != "" {
		if err := handle.SetBPFFilter(cfg.BPFFilter); err != nil {
			handle.Close()
			return nil, apperr.New(apperr.KindInterfaceOpen, "SetBPFFilter", err)
		}
	}

	return &Source{cfg: cfg, handle: handle, localAddr: local, log: log}, nil
}

// classifyOpenErr maps pcap's activation errors onto this program's error
// taxonomy. libpcap does not expose a typed permission/missing/busy
// error, so this is a best-effort string classification over whatever
// message the platform's libpcap build produces.
func classifyOpenErr(err error) error {
	switch {
	case isPermissionErr(err):
		return apperr.New(apperr.KindPermission, "capture.Open", err)
	case containsAny(err.Error(), "no such device", "does not exist", "not found"):
		return apperr.New(apperr.KindInterfaceMissing, "capture.Open", err)
	case containsAny(err.Error(), "device busy", "already in use"):
		return apperr.New(apperr.KindInterfaceOpen, "capture.Open", err)
	default:
		return apperr.New(apperr.KindInterfaceOpen, "capture.Open", err)
	}
}

func isPermissionErr(err error) bool {
	return containsAny(err.Error(), "permission denied", "Operation not permitted", "you don't have permission")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if indexOf(s, sub) >= 0 {
			return true
		}
	}
	return false
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// OnDNSQuery registers a callback invoked for each decoded outgoing UDP/53
// question, used by --show-dns.
func (s *Source) OnDNSQuery(fn func(DNSQuery)) { s.onDNS = fn }

// ParseErrors returns the count of packets that failed to decode far enough
// to be keyed, incremented under no lock (single capture goroutine owns it).
func (s *Source) ParseErrors() uint64 { return s.parseErrors }

// Close releases the pcap handle.
func (s *Source) Close() {
	if s.handle != nil {
		s.handle.Close()
	}
}

// Stats returns libpcap's own drop counters for the interface.
func (s *Source) Stats() (received, dropped, ifDropped int, err error) {
	st, err := s.handle.Stats()
	if err != nil {
		return 0, 0, 0, err
	}
	return st.PacketsReceived, st.PacketsDropped, st.PacketsIfDropped, nil
}

// Run decodes packets from the handle and calls handler for each one that
// parses far enough to be keyable. It blocks until ctx is cancelled or the
// capture handle reports an unrecoverable error.
func (s *Source) Run(ctx context.Context, handler func(model.Packet)) error {
	src := gopacket.NewPacketSource(s.handle, s.handle.LinkType())
	src.DecodeOptions = gopacket.DecodeOptions{Lazy: true, NoCopy: true}
	packets := src.Packets()

	for {
		select {
		case <-ctx.Done():
			return nil
		case pkt, ok := <-packets:
			if !ok {
				return apperr.New(apperr.KindCaptureFault, "capture.Run", fmt.Errorf("packet source closed"))
			}
			if pkt == nil {
				continue
			}
			parsed, ok := s.decode(pkt)
			if !ok {
				s.parseErrors++
				continue
			}
			handler(parsed)
		}
	}
}

// decode turns a raw gopacket.Packet into a model.Packet, classifying
// direction against the interface's bound addresses. ok is false for
// anything that isn't a TCP/UDP segment over IPv4/IPv6.
func (s *Source) decode(pkt gopacket.Packet) (model.Packet, bool) {
	var srcIP, dstIP netip.Addr
	var l3Len int
	haveL3 := false

	if ip4 := pkt.Layer(layers.LayerTypeIPv4); ip4 != nil {
		v := ip4.(*layers.IPv4)
		srcIP, _ = netip.AddrFromSlice(v.SrcIP.To4())
		dstIP, _ = netip.AddrFromSlice(v.DstIP.To4())
		l3Len = int(v.Length) - int(v.IHL)*4
		haveL3 = true
	} else if ip6 := pkt.Layer(layers.LayerTypeIPv6); ip6 != nil {
		v := ip6.(*layers.IPv6)
		srcIP, _ = netip.AddrFromSlice(v.SrcIP)
		dstIP, _ = netip.AddrFromSlice(v.DstIP)
		l3Len = int(v.Length)
		haveL3 = true
	}
	if !haveL3 {
		return model.Packet{}, false
	}

	var proto model.Protocol
	var srcPort, dstPort uint16
	switch {
	case pkt.Layer(layers.LayerTypeTCP) != nil:
		tcp := pkt.Layer(layers.LayerTypeTCP).(*layers.TCP)
		proto = model.ProtoTCP
		srcPort, dstPort = uint16(tcp.SrcPort), uint16(tcp.DstPort)
	case pkt.Layer(layers.LayerTypeUDP) != nil:
		udp := pkt.Layer(layers.LayerTypeUDP).(*layers.UDP)
		proto = model.ProtoUDP
		srcPort, dstPort = uint16(udp.SrcPort), uint16(udp.DstPort)
		if s.onDNS != nil && dstPort == 53 {
			s.decodeDNSQuery(dstIP, udp.Payload)
		}
	default:
		return model.Packet{}, false
	}

	if l3Len < 0 {
		l3Len = len(pkt.Data())
	}

	src := netip.AddrPortFrom(srcIP.Unmap(), srcPort)
	dst := netip.AddrPortFrom(dstIP.Unmap(), dstPort)

	direction := s.classify(src.Addr(), dst.Addr())

	return model.Packet{
		Proto:     proto,
		Src:       src,
		Dst:       dst,
		Length:    l3Len,
		Direction: direction,
	}, true
}

// classify derives a packet's direction: up if src is one of the
// interface's own addresses, down if dst is, unknown otherwise. On
// loopback, src == dst local and the packet is attributed up (it is
// counted once, at the point of origin).
func (s *Source) classify(src, dst netip.Addr) model.Direction {
	_, srcLocal := s.localAddr[src]
	_, dstLocal := s.localAddr[dst]
	switch {
	case srcLocal && dstLocal:
		return model.DirUp
	case srcLocal:
		return model.DirUp
	case dstLocal:
		return model.DirDown
	default:
		return model.DirUnknown
	}
}
