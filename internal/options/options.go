// Package options parses and validates the command line, producing a
// fully resolved Options value the orchestrator can act on without
// touching flag state again.
package options

import (
	"fmt"
	"net"
	"time"

	"github.com/spf13/pflag"

	"github.com/googlesky/bandhawk/internal/apperr"
)

// UnitFamily names the byte/bit and binary/decimal formatting base chosen
// with --unit-family. Parse validates it, but nothing reads it: the UI
// formats rates and totals in binary bytes and raw mode prints plain byte
// counts whatever its value.
type UnitFamily string

const (
	UnitBinBytes UnitFamily = "bin-bytes"
	UnitBinBits  UnitFamily = "bin-bits"
	UnitSIBytes  UnitFamily = "si-bytes"
	UnitSIBits   UnitFamily = "si-bits"
)

// ViewRestriction records which single table -p/-c/-a selected. Parse sets
// it, but the UI does not read it and always offers every table.
type ViewRestriction string

const (
	ViewAll         ViewRestriction = ""
	ViewProcesses   ViewRestriction = "processes"
	ViewConnections ViewRestriction = "connections"
	ViewAddresses   ViewRestriction = "addresses"
)

// Options is the fully parsed, validated command line.
type Options struct {
	Interface         string
	Raw               bool
	NoResolve         bool
	ShowDNS           bool
	DNSServer         string
	LogTo             string
	Verbosity         int
	View              ViewRestriction
	UnitFamily        UnitFamily
	TotalUtilization  bool
	Interval          time.Duration
	Once              bool
	JSON              bool
	CSV               bool
	Record            string
	Playback          string
	NoColor           bool
}

// Parse parses args (normally os.Args[1:]) into Options, or returns a
// *apperr.Error with KindUsage describing what was wrong.
func Parse(args []string) (Options, error) {
	fs := pflag.NewFlagSet("bandhawk", pflag.ContinueOnError)

	iface := fs.StringP("interface", "i", "", "capture interface (default: first non-loopback up interface with an IPv4 address)")
	raw := fs.BoolP("raw", "r", false, "line-oriented output mode")
	noResolve := fs.BoolP("no-resolve", "n", false, "disable reverse DNS")
	showDNS := fs.BoolP("show-dns", "s", false, "surface observed DNS queries")
	dnsServer := fs.StringP("dns-server", "d", "", "override resolver upstream (host:port)")
	logTo := fs.String("log-to", "", "enable file logging to this path")
	verbose := fs.CountP("verbose", "v", "raise log verbosity (stackable)")
	quiet := fs.CountP("quiet", "q", "lower log verbosity (stackable)")
	procView := fs.BoolP("processes", "p", false, "restrict UI to the process table (parsed; not applied by the UI)")
	connView := fs.BoolP("connections", "c", false, "restrict UI to the connections table (parsed; not applied by the UI)")
	addrView := fs.BoolP("addresses", "a", false, "restrict UI to the remote addresses table (parsed; not applied by the UI)")
	unitFamily := fs.StringP("unit-family", "u", string(UnitBinBytes), "bin-bytes|bin-bits|si-bytes|si-bits")
	totalUtil := fs.BoolP("total-utilization", "t", false, "show cumulative totals instead of per-interval rate (parsed; not applied by the UI)")
	interval := fs.Duration("interval", time.Second, "tick interval")
	once := fs.Bool("once", false, "single snapshot then exit (raw, JSON and CSV modes only)")
	jsonOut := fs.Bool("json", false, "emit JSONL snapshots instead of the TUI")
	csvOut := fs.Bool("csv", false, "emit CSV rows instead of the TUI")
	record := fs.String("record", "", "record the session to a file")
	playback := fs.String("playback", "", "play back a recorded session file")
	noColor := fs.Bool("no-color", false, "disable ANSI color output")

	if err := fs.Parse(args); err != nil {
		return Options{}, apperr.New(apperr.KindUsage, "options.Parse", err)
	}

	opts := Options{
		Interface:        *iface,
		Raw:              *raw,
		NoResolve:        *noResolve,
		ShowDNS:          *showDNS,
		DNSServer:        *dnsServer,
		LogTo:            *logTo,
		Verbosity:        *verbose - *quiet,
		UnitFamily:       UnitFamily(*unitFamily),
		TotalUtilization: *totalUtil,
		Interval:         *interval,
		Once:             *once,
		JSON:             *jsonOut,
		CSV:              *csvOut,
		Record:           *record,
		Playback:         *playback,
		NoColor:          *noColor,
	}

	switch {
	case *procView:
		opts.View = ViewProcesses
	case *connView:
		opts.View = ViewConnections
	case *addrView:
		opts.View = ViewAddresses
	}

	if err := validate(opts); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func validate(o Options) error {
	switch o.UnitFamily {
	case UnitBinBytes, UnitBinBits, UnitSIBytes, UnitSIBits:
	default:
		return apperr.New(apperr.KindUsage, "options.validate",
			fmt.Errorf("invalid --unit-family %q", o.UnitFamily))
	}
	if o.JSON && o.CSV {
		return apperr.New(apperr.KindUsage, "options.validate", fmt.Errorf("--json and --csv are mutually exclusive"))
	}
	if o.DNSServer != "" {
		if _, _, err := net.SplitHostPort(o.DNSServer); err != nil {
			return apperr.New(apperr.KindUsage, "options.validate", fmt.Errorf("--dns-server must be host:port: %w", err))
		}
	}
	if o.Interval <= 0 {
		return apperr.New(apperr.KindUsage, "options.validate", fmt.Errorf("--interval must be positive"))
	}
	if o.Record != "" && o.Playback != "" {
		return apperr.New(apperr.KindUsage, "options.validate", fmt.Errorf("--record and --playback are mutually exclusive"))
	}
	return nil
}
