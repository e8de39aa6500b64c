package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/googlesky/bandhawk/internal/model"
)

// Filter represents a parsed filter expression.
type Filter struct {
	raw      string
	key      string // empty for plain text search
	op       string // ":", ">", "<"
	value    string
	numValue float64
}

// ParseFilter parses a filter string into a Filter.
// Supports: plain text, key:value, key>value, key<value.
func ParseFilter(input string) Filter {
	input = strings.TrimSpace(input)
	if input == "" {
		return Filter{}
	}

	// Try to find operator
	for _, op := range []string{">", "<", ":"} {
		idx := strings.Index(input, op)
		if idx > 0 {
			key := strings.ToLower(input[:idx])
			value := input[idx+1:]
			f := Filter{raw: input, key: key, op: op, value: value}
			if op == ">" || op == "<" {
				f.numValue = parseSize(value)
			}
			return f
		}
	}

	// Plain text search
	return Filter{raw: input}
}

// IsEmpty returns true if the filter matches everything.
func (f Filter) IsEmpty() bool {
	return f.raw == ""
}

// Match returns true if the process matches the filter. conns is the set of
// connections owned by proc — port/proto/host/svc filters need this since
// ProcessSummary itself only carries aggregate counters.
func (f Filter) Match(proc *model.ProcessSummary, conns []model.ConnectionView) bool {
	if f.raw == "" {
		return true
	}

	// Plain text search (backward compatible)
	if f.key == "" {
		lower := strings.ToLower(f.raw)
		return strings.Contains(strings.ToLower(proc.Name), lower) ||
			strings.Contains(strings.ToLower(proc.Cmdline), lower) ||
			strings.Contains(fmt.Sprintf("%d", proc.PID), f.raw)
	}

	switch f.key {
	case "port":
		return f.matchPort(conns)
	case "up":
		return f.matchNumeric(float64(proc.Up))
	case "down":
		return f.matchNumeric(float64(proc.Down))
	case "proto":
		return f.matchProto(conns)
	case "host":
		return f.matchHost(conns)
	case "conns":
		return f.matchNumeric(float64(proc.ConnCount))
	case "listen":
		return f.matchListen(proc)
	case "svc", "service":
		return f.matchService(conns)
	case "group":
		return f.matchGroup(proc)
	default:
		// Unknown key — fall back to plain text search
		lower := strings.ToLower(f.raw)
		return strings.Contains(strings.ToLower(proc.Name), lower) ||
			strings.Contains(strings.ToLower(proc.Cmdline), lower)
	}
}

func (f Filter) matchPort(conns []model.ConnectionView) bool {
	port, err := strconv.ParseUint(f.value, 10, 16)
	if err != nil {
		return false
	}
	p := uint16(port)
	for _, c := range conns {
		if c.Key.Local.Port() == p || c.Key.Remote.Port() == p {
			return true
		}
	}
	return false
}

func (f Filter) matchNumeric(val float64) bool {
	switch f.op {
	case ">":
		return val > f.numValue
	case "<":
		return val < f.numValue
	case ":":
		return val > f.numValue
	}
	return false
}

func (f Filter) matchProto(conns []model.ConnectionView) bool {
	want := strings.ToUpper(f.value)
	for _, c := range conns {
		if c.Key.Proto.String() == want {
			return true
		}
	}
	return false
}

func (f Filter) matchHost(conns []model.ConnectionView) bool {
	lower := strings.ToLower(f.value)
	for _, c := range conns {
		if strings.Contains(strings.ToLower(c.RemoteHost), lower) {
			return true
		}
		if c.Key.Remote.Addr().IsValid() && strings.Contains(c.Key.Remote.Addr().String(), f.value) {
			return true
		}
	}
	return false
}

func (f Filter) matchListen(proc *model.ProcessSummary) bool {
	v := strings.ToLower(f.value)
	if v == "true" || v == "yes" || v == "1" {
		return proc.ListenCount > 0
	}
	return proc.ListenCount == 0
}

func (f Filter) matchService(conns []model.ConnectionView) bool {
	lower := strings.ToLower(f.value)
	for _, c := range conns {
		if strings.Contains(strings.ToLower(c.Service), lower) {
			return true
		}
	}
	return false
}

func (f Filter) matchGroup(proc *model.ProcessSummary) bool {
	lower := strings.ToLower(f.value)
	// Match against container ID or service name
	if proc.ContainerID != "" && strings.Contains(strings.ToLower(proc.ContainerID), lower) {
		return true
	}
	if proc.ServiceName != "" && strings.Contains(strings.ToLower(proc.ServiceName), lower) {
		return true
	}
	// Match "other" for ungrouped processes
	if lower == "other" && proc.ContainerID == "" && proc.ServiceName == "" {
		return true
	}
	return false
}

// parseSize parses a human-readable size string like "1M", "100K", "1G".
func parseSize(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	multiplier := 1.0
	last := s[len(s)-1]
	switch last {
	case 'k', 'K':
		multiplier = 1024
		s = s[:len(s)-1]
	case 'm', 'M':
		multiplier = 1024 * 1024
		s = s[:len(s)-1]
	case 'g', 'G':
		multiplier = 1024 * 1024 * 1024
		s = s[:len(s)-1]
	case 't', 'T':
		multiplier = 1024 * 1024 * 1024 * 1024
		s = s[:len(s)-1]
	}

	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return val * multiplier
}
