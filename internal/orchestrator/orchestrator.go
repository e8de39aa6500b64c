// Package orchestrator brings up and tears down the capture pipeline: the
// socket enumerator, the DNS resolver, packet capture and the aggregation
// hub, each running as its own goroutine and feeding the one shared hub.
// Every other consumer of the pipeline — the TUI, raw mode, JSON/CSV
// streaming — only ever touches the Snapshot channel Start returns.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/googlesky/bandhawk/internal/apperr"
	"github.com/googlesky/bandhawk/internal/capture"
	"github.com/googlesky/bandhawk/internal/dnsresolver"
	"github.com/googlesky/bandhawk/internal/hub"
	"github.com/googlesky/bandhawk/internal/model"
	"github.com/googlesky/bandhawk/internal/options"
	"github.com/googlesky/bandhawk/internal/procinfo"
	"github.com/googlesky/bandhawk/internal/socketenum"
)

// socketPollInterval is how often the socket table is re-enumerated.
// Independent of the hub's tick interval: the socket table changes far
// less often than a sparkline needs to redraw.
const socketPollInterval = time.Second

// Pipeline owns every long-lived stage between a raw packet and a
// model.Snapshot. Zero value is not usable; construct with New.
type Pipeline struct {
	opts options.Options
	log  zerolog.Logger

	iface    string
	source   *capture.Source
	enum     socketenum.Enumerator
	resolver *dnsresolver.Resolver
	hub      *hub.Hub
	ticker   *time.Ticker
	tickerMu sync.Mutex

	snapCh chan model.Snapshot
	errCh  chan error

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New resolves the capture interface and opens every pipeline stage, but
// starts nothing running; call Start for that. A returned error is always
// an *apperr.Error.
func New(opts options.Options, log zerolog.Logger) (*Pipeline, error) {
	iface, err := options.ResolveInterface(opts.Interface)
	if err != nil {
		return nil, apperr.New(apperr.KindInterfaceMissing, "orchestrator.New", err)
	}

	capCfg := capture.DefaultConfig(iface)
	source, err := capture.Open(capCfg, log.With().Str("component", "capture").Logger())
	if err != nil {
		return nil, err // capture.Open already returns a classified *apperr.Error
	}

	enum, err := socketenum.New(log.With().Str("component", "socketenum").Logger())
	if err != nil {
		source.Close()
		return nil, apperr.New(apperr.KindSocketEnum, "orchestrator.New", err)
	}

	resolverCfg := dnsresolver.DefaultConfig()
	resolverCfg.NoResolve = opts.NoResolve
	if opts.DNSServer != "" {
		resolverCfg.Server = opts.DNSServer
	}
	resolver := dnsresolver.New(resolverCfg, log.With().Str("component", "dnsresolver").Logger())

	namer := procinfo.New()
	h := hub.New(hub.DefaultHistory, hub.DefaultRetireAfter, resolver.Enqueue, resolver.Lookup, namer)

	if opts.ShowDNS {
		source.OnDNSQuery(func(q capture.DNSQuery) {
			log.Info().Stringer("remote", q.Remote).Str("name", q.Name).Str("type", q.Type).Msg("dns query observed")
		})
	}

	return &Pipeline{
		opts:     opts,
		log:      log,
		iface:    iface,
		source:   source,
		enum:     enum,
		resolver: resolver,
		hub:      h,
		ticker:   time.NewTicker(opts.Interval),
		snapCh:   make(chan model.Snapshot, 1),
		errCh:    make(chan error, 4),
		stopCh:   make(chan struct{}),
	}, nil
}

// Interface returns the capture interface resolved at construction time.
func (p *Pipeline) Interface() string { return p.iface }

// SetInterval retunes the tick interval at runtime. Implements
// ui.IntervalSetter so the TUI's speed-control keys can drive it directly.
func (p *Pipeline) SetInterval(d time.Duration) {
	p.tickerMu.Lock()
	defer p.tickerMu.Unlock()
	p.ticker.Reset(d)
}

// Start brings every stage up and returns the Snapshot channel. Snapshots
// stop arriving once ctx is cancelled or Stop is called; the channel is
// then closed.
func (p *Pipeline) Start(ctx context.Context) <-chan model.Snapshot {
	ctx, cancel := context.WithCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		<-p.stopCh
		cancel()
	}()

	p.wg.Add(1)
	go p.runResolver(ctx)

	p.wg.Add(1)
	go p.runCapture(ctx)

	p.wg.Add(1)
	go p.runSocketPoll(ctx)

	p.wg.Add(1)
	go p.runTick(ctx)

	return p.snapCh
}

func (p *Pipeline) runResolver(ctx context.Context) {
	defer p.wg.Done()
	p.resolver.Run(ctx)
}

func (p *Pipeline) runCapture(ctx context.Context) {
	defer p.wg.Done()
	if err := p.source.Run(ctx, p.hub.Ingest); err != nil && ctx.Err() == nil {
		p.reportErr(err)
	}
}

func (p *Pipeline) runSocketPoll(ctx context.Context) {
	defer p.wg.Done()

	poll := func() {
		snap, err := p.enum.Snapshot()
		if err != nil {
			p.log.Warn().Err(err).Msg("orchestrator: socket enumeration failed")
			return
		}
		p.hub.Attach(snap)
	}

	poll() // first attribution pass happens before the first tick, not after it
	ticker := time.NewTicker(socketPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll()
		}
	}
}

func (p *Pipeline) runTick(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.snapCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.tickerC():
			snap := p.hub.Tick(p.iface)
			p.send(snap)
			if p.opts.Once {
				return
			}
		}
	}
}

// tickerC reads the ticker's channel under the lock Reset also takes.
// time.Ticker never swaps its channel across a Reset, so this is only
// about making the read-then-Reset sequence race-free under -race.
func (p *Pipeline) tickerC() <-chan time.Time {
	p.tickerMu.Lock()
	defer p.tickerMu.Unlock()
	return p.ticker.C
}

// send is a non-blocking drop-oldest send, so a slow consumer (a paused
// TUI, a stalled terminal) never backs up into the tick loop.
func (p *Pipeline) send(snap model.Snapshot) {
	select {
	case p.snapCh <- snap:
	default:
		select {
		case <-p.snapCh:
		default:
		}
		select {
		case p.snapCh <- snap:
		default:
		}
	}
}

func (p *Pipeline) reportErr(err error) {
	select {
	case p.errCh <- err:
	default:
	}
}

// Errors returns the channel fatal pipeline errors are reported on. Never
// closed; callers select on it alongside other shutdown signals.
func (p *Pipeline) Errors() <-chan error { return p.errCh }

// Stop halts every stage and waits for them to exit. Safe to call more
// than once and safe to call even if Start was never called.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	p.wg.Wait()
	p.ticker.Stop()
	p.source.Close()
	p.enum.Close()
}

// SessionStats returns cumulative session statistics for the exit summary.
func (p *Pipeline) SessionStats() model.SessionStats {
	return p.hub.SessionStats()
}

// Dropped returns the count of packets dropped for being unkeyable.
func (p *Pipeline) Dropped() uint64 {
	return p.hub.Dropped()
}
