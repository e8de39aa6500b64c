//go:build darwin

package socketenum

import (
	"bufio"
	"io"
	"net/netip"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/googlesky/bandhawk/internal/apperr"
	"github.com/googlesky/bandhawk/internal/model"
)

// darwinEnumerator shells out to lsof, the only portable way to join
// sockets to owning processes on macOS without cgo against libproc.
type darwinEnumerator struct {
	log         zerolog.Logger
	toolMissing bool
}

// New returns the macOS enumerator. It does not fail if lsof is absent;
// a missing tool downgrades to empty snapshots rather than aborting.
func New(log zerolog.Logger) (Enumerator, error) {
	e := &darwinEnumerator{log: log}
	if _, err := exec.LookPath("lsof"); err != nil {
		log.Warn().Msg("socketenum: lsof not found in PATH, socket attribution disabled")
		e.toolMissing = true
	}
	return e, nil
}

func (e *darwinEnumerator) Close() error { return nil }

func (e *darwinEnumerator) Snapshot() (model.SocketSnapshot, error) {
	snap := model.SocketSnapshot{Established: make(map[model.ConnectionKey]model.ProcessInfo)}
	if e.toolMissing {
		return snap, nil
	}

	cmd := exec.Command("lsof", "-nP", "-i", "-F", "pcPn")
	out, err := cmd.StdoutPipe()
	if err != nil {
		return snap, apperr.New(apperr.KindSocketEnum, "socketenum.Snapshot", err)
	}
	if err := cmd.Start(); err != nil {
		if isPermissionErr(err) {
			e.log.Warn().Err(err).Msg("socketenum: lsof permission denied, returning empty snapshot")
			return snap, nil
		}
		return snap, apperr.New(apperr.KindSocketEnum, "socketenum.Snapshot", err)
	}

	parseLsofRecords(out, &snap)

	if err := cmd.Wait(); err != nil {
		// lsof exits non-zero when it finds nothing to report; the records
		// already parsed (possibly none) are still valid.
		e.log.Debug().Err(err).Msg("socketenum: lsof exited non-zero")
	}
	return snap, nil
}

// parseLsofRecords reads lsof's field-output format (-F pcPn): each
// record is a run of lines, each starting with a one-letter field tag —
// p (pid), c (command), P (protocol), n (name: local[-\>remote] or
// local (LISTEN)) — terminated by the next 'p' line or EOF.
func parseLsofRecords(r io.Reader, snap *model.SocketSnapshot) {
	sc := bufio.NewScanner(r)

	var pid uint32
	var comm, proto string

	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		tag, val := line[0], line[1:]
		switch tag {
		case 'p':
			if n, err := strconv.ParseUint(val, 10, 32); err == nil {
				pid = uint32(n)
			}
		case 'c':
			comm = val
		case 'P':
			proto = val
		case 'n':
			addSocketFromName(snap, val, pid, comm, proto)
		}
	}
}

func addSocketFromName(snap *model.SocketSnapshot, name string, pid uint32, comm, protoStr string) {
	var proto model.Protocol
	switch strings.ToUpper(protoStr) {
	case "TCP":
		proto = model.ProtoTCP
	case "UDP":
		proto = model.ProtoUDP
	default:
		return
	}

	if strings.HasSuffix(name, "(LISTEN)") {
		local := strings.TrimSpace(strings.TrimSuffix(name, "(LISTEN)"))
		addr, ok := parseLsofAddr(local)
		if !ok {
			return
		}
		snap.Listening = append(snap.Listening, model.ListenPortEntry{
			Proto: proto, Addr: addr, PID: pid, Process: comm,
		})
		return
	}

	parts := strings.SplitN(name, "->", 2)
	if len(parts) != 2 {
		return
	}
	local, ok := parseLsofAddr(parts[0])
	if !ok {
		return
	}
	remote, ok := parseLsofAddr(parts[1])
	if !ok {
		return
	}
	key := model.ConnectionKey{Proto: proto, Local: local, Remote: remote}
	if _, exists := snap.Established[key]; exists {
		snap.Collisions++
		return
	}
	snap.Established[key] = model.ProcessInfo{PID: pid, Name: comm}
}

// parseLsofAddr parses lsof's "host:port" address syntax, where host may
// be a bracketed IPv6 literal.
func parseLsofAddr(s string) (netip.AddrPort, bool) {
	s = strings.TrimSpace(s)
	ap, err := netip.ParseAddrPort(s)
	if err == nil {
		return ap, true
	}
	// lsof sometimes reports bare "*:port" for wildcard binds.
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return netip.AddrPort{}, false
	}
	host, portStr := s[:idx], s[idx+1:]
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return netip.AddrPort{}, false
	}
	if host == "*" {
		return netip.AddrPortFrom(netip.IPv4Unspecified(), uint16(port)), true
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.AddrPort{}, false
	}
	return netip.AddrPortFrom(addr, uint16(port)), true
}

func isPermissionErr(err error) bool {
	return strings.Contains(err.Error(), "permission denied")
}
