package capture

import (
	"net/netip"

	"github.com/miekg/dns"
)

// decodeDNSQuery decodes the question section of a UDP/53 payload and, on
// success, hands it to the registered --show-dns callback. A malformed or
// truncated payload is dropped silently — it's a passive, best-effort
// observation, not something worth failing the capture loop over.
func (s *Source) decodeDNSQuery(remote netip.Addr, payload []byte) {
	if len(payload) == 0 {
		return
	}
	var msg dns.Msg
	if err := msg.Unpack(payload); err != nil {
		return
	}
	if msg.Response || len(msg.Question) == 0 {
		return
	}
	q := msg.Question[0]
	s.onDNS(DNSQuery{
		Remote: remote,
		Name:   q.Name,
		Type:   dns.TypeToString[q.Qtype],
	})
}
