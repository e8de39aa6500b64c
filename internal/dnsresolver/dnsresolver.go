// Package dnsresolver performs background reverse-DNS lookups for remote
// addresses the hub observes, using github.com/miekg/dns directly against
// a configured or system-discovered upstream server. Resolution never
// blocks the caller: Enqueue fires a bounded worker pool and Lookup reads
// whatever the cache currently holds.
package dnsresolver

import (
	"context"
	"net/netip"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/rs/zerolog"
)

// state is the DNS cache's per-address state machine: Pending is entered
// on enqueue and left on either Resolved or Failed; Failed entries are
// eligible for a fresh Pending after cooldown, Resolved entries never
// change again for the process lifetime.
type state int

const (
	statePending state = iota
	stateResolved
	stateFailed
)

type cacheEntry struct {
	state    state
	hostname string
	at       time.Time
}

// Config configures a Resolver.
type Config struct {
	Workers    int
	Timeout    time.Duration
	Cooldown   time.Duration
	QueueDepth int
	Server     string // explicit upstream "host:port"; empty uses the system resolver
	NoResolve  bool
}

// DefaultConfig returns sane resolver defaults: a small worker pool, a
// short per-lookup timeout, and a cooldown before retrying a failed
// address so one unreachable host doesn't get hammered every tick.
func DefaultConfig() Config {
	return Config{
		Workers:    8,
		Timeout:    2 * time.Second,
		Cooldown:   60 * time.Second,
		QueueDepth: 256,
	}
}

// Resolver is the shared reverse-DNS lookup service.
type Resolver struct {
	cfg    Config
	log    zerolog.Logger
	client *dns.Client
	server string

	mu    sync.Mutex
	cache map[netip.Addr]*cacheEntry

	queue chan netip.Addr

	// resolveFn performs the actual lookup; overridden in tests to avoid
	// real network traffic.
	resolveFn func(context.Context, netip.Addr) (string, bool)
}

// New builds a Resolver. When cfg.NoResolve is set, the returned Resolver
// is inert: Enqueue is a no-op and Lookup always reports not-found.
func New(cfg Config, log zerolog.Logger) *Resolver {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = 64
	}
	r := &Resolver{
		cfg:    cfg,
		log:    log,
		client: &dns.Client{Timeout: cfg.Timeout},
		cache:  make(map[netip.Addr]*cacheEntry),
		queue:  make(chan netip.Addr, cfg.QueueDepth),
	}
	r.server = cfg.Server
	if r.server == "" {
		r.server = systemResolver()
	}
	r.resolveFn = r.resolve
	return r
}

// Run starts the worker pool. It blocks until ctx is cancelled.
func (r *Resolver) Run(ctx context.Context) {
	if r.cfg.NoResolve {
		<-ctx.Done()
		return
	}
	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.worker(ctx)
		}()
	}
	wg.Wait()
}

func (r *Resolver) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ip := <-r.queue:
			host, ok := r.resolveFn(ctx, ip)
			r.mu.Lock()
			if ok {
				r.cache[ip] = &cacheEntry{state: stateResolved, hostname: host, at: time.Now()}
			} else {
				r.cache[ip] = &cacheEntry{state: stateFailed, at: time.Now()}
			}
			r.mu.Unlock()
		}
	}
}

func (r *Resolver) resolve(ctx context.Context, ip netip.Addr) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(reverseName(ip)), dns.TypePTR)
	m.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, m, r.server)
	if err != nil || resp == nil || resp.Rcode != dns.RcodeSuccess {
		return "", false
	}
	for _, ans := range resp.Answer {
		if ptr, ok := ans.(*dns.PTR); ok {
			return trimTrailingDot(ptr.Ptr), true
		}
	}
	return "", false
}

// reverseName builds the in-addr.arpa/ip6.arpa query name for ip.
func reverseName(ip netip.Addr) string {
	return dns.Fqdn(addrToArpa(ip))
}

func addrToArpa(ip netip.Addr) string {
	// dns.ReverseAddr operates on net.IP's textual form; netip's String()
	// output is accepted identically for both v4 and v6 literals.
	name, err := dns.ReverseAddr(ip.String())
	if err != nil {
		return ""
	}
	return name
}

func trimTrailingDot(s string) string {
	if len(s) > 0 && s[len(s)-1] == '.' {
		return s[:len(s)-1]
	}
	return s
}

// Enqueue requests resolution of ip if it isn't already Pending or
// Resolved, and isn't a Failed entry still in cooldown. The enqueue is a
// non-blocking send: a full queue silently drops the request, since
// packet ingestion must never block waiting on DNS.
func (r *Resolver) Enqueue(ip netip.Addr) {
	if r.cfg.NoResolve {
		return
	}
	r.mu.Lock()
	entry, ok := r.cache[ip]
	switch {
	case ok && entry.state == statePending:
		r.mu.Unlock()
		return
	case ok && entry.state == stateResolved:
		r.mu.Unlock()
		return
	case ok && entry.state == stateFailed && time.Since(entry.at) < r.cfg.Cooldown:
		r.mu.Unlock()
		return
	}
	r.cache[ip] = &cacheEntry{state: statePending, at: time.Now()}
	r.mu.Unlock()

	select {
	case r.queue <- ip:
	default:
		// Queue full: revert to unset so a later observation can retry.
		r.mu.Lock()
		if e, ok := r.cache[ip]; ok && e.state == statePending {
			delete(r.cache, ip)
		}
		r.mu.Unlock()
	}
}

// Lookup returns the resolved hostname for ip, if any. It never blocks.
func (r *Resolver) Lookup(ip netip.Addr) (string, bool) {
	if r.cfg.NoResolve {
		return "", false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.cache[ip]
	if !ok || entry.state != stateResolved {
		return "", false
	}
	return entry.hostname, true
}

// systemResolver reads the first nameserver from the system resolver
// configuration, falling back to a well-known public resolver if that
// fails (e.g. inside a minimal container).
func systemResolver() string {
	cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(cfg.Servers) == 0 {
		return "1.1.1.1:53"
	}
	return cfg.Servers[0] + ":" + cfg.Port
}
