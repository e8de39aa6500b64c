//go:build windows

package socketenum

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"syscall"
	"unsafe"

	"github.com/rs/zerolog"
	"golang.org/x/sys/windows"

	"github.com/googlesky/bandhawk/internal/apperr"
	"github.com/googlesky/bandhawk/internal/model"
)

var (
	modiphlpapi             = windows.NewLazySystemDLL("iphlpapi.dll")
	procGetExtendedTCPTable = modiphlpapi.NewProc("GetExtendedTcpTable")
	procGetExtendedUDPTable = modiphlpapi.NewProc("GetExtendedUdpTable")
)

const (
	afINET              = 2
	tcpTableOwnerPIDAll = 5 // TCP_TABLE_OWNER_PID_ALL
	udpTableOwnerPID    = 1 // UDP_TABLE_OWNER_PID
	mibTCPStateListen   = 2
)

// mibTCPRowOwnerPID mirrors MIB_TCPROW_OWNER_PID (winternl/iphlpapi).
type mibTCPRowOwnerPID struct {
	State      uint32
	LocalAddr  uint32
	LocalPort  uint32
	RemoteAddr uint32
	RemotePort uint32
	OwningPid  uint32
}

type mibUDPRowOwnerPID struct {
	LocalAddr uint32
	LocalPort uint32
	OwningPid uint32
}

// windowsEnumerator queries GetExtendedTcpTable/GetExtendedUdpTable, which
// return the owning pid directly — no separate inode-join step is needed,
// unlike the Linux path.
type windowsEnumerator struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) (Enumerator, error) {
	return &windowsEnumerator{log: log}, nil
}

func (e *windowsEnumerator) Close() error { return nil }

func (e *windowsEnumerator) Snapshot() (model.SocketSnapshot, error) {
	snap := model.SocketSnapshot{Established: make(map[model.ConnectionKey]model.ProcessInfo)}

	tcpRows, err := fetchTCPTable()
	if err != nil {
		return model.SocketSnapshot{}, apperr.New(apperr.KindSocketEnum, "socketenum.Snapshot", err)
	}
	udpRows, err := fetchUDPTable()
	if err != nil {
		e.log.Warn().Err(err).Msg("socketenum: GetExtendedUdpTable failed, TCP-only snapshot")
	}

	pidNames := snapshotProcessNames()

	for _, r := range tcpRows {
		local := netip.AddrPortFrom(addrFromUint32(r.LocalAddr), portFromWire(r.LocalPort))
		name := pidNames[r.OwningPid]
		if r.State == mibTCPStateListen {
			snap.Listening = append(snap.Listening, model.ListenPortEntry{
				Proto: model.ProtoTCP, Addr: local, PID: r.OwningPid, Process: name,
			})
			continue
		}
		remote := netip.AddrPortFrom(addrFromUint32(r.RemoteAddr), portFromWire(r.RemotePort))
		key := model.ConnectionKey{Proto: model.ProtoTCP, Local: local, Remote: remote}
		if _, exists := snap.Established[key]; exists {
			snap.Collisions++
			continue
		}
		snap.Established[key] = model.ProcessInfo{PID: r.OwningPid, Name: name}
	}

	for _, r := range udpRows {
		local := netip.AddrPortFrom(addrFromUint32(r.LocalAddr), portFromWire(r.LocalPort))
		snap.Listening = append(snap.Listening, model.ListenPortEntry{
			Proto: model.ProtoUDP, Addr: local, PID: r.OwningPid, Process: pidNames[r.OwningPid],
		})
	}

	return snap, nil
}

func addrFromUint32(v uint32) netip.Addr {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return netip.AddrFrom4(b)
}

func portFromWire(v uint32) uint16 {
	return uint16(v>>8) | uint16(v<<8)
}

// fetchTCPTable calls GetExtendedTcpTable twice: once to size the buffer,
// once to fill it, which is the documented pattern for this API.
func fetchTCPTable() ([]mibTCPRowOwnerPID, error) {
	var size uint32
	procGetExtendedTCPTable.Call(0, uintptr(unsafe.Pointer(&size)), 0, afINET, tcpTableOwnerPIDAll, 0)
	if size == 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	ret, _, _ := procGetExtendedTCPTable.Call(
		uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&size)), 0, afINET, tcpTableOwnerPIDAll, 0)
	if ret != 0 {
		return nil, fmt.Errorf("GetExtendedTcpTable failed: %d", ret)
	}
	numEntries := binary.LittleEndian.Uint32(buf[0:4])
	rows := make([]mibTCPRowOwnerPID, numEntries)
	for i := uint32(0); i < numEntries; i++ {
		off := 4 + i*uint32(unsafe.Sizeof(mibTCPRowOwnerPID{}))
		rows[i] = *(*mibTCPRowOwnerPID)(unsafe.Pointer(&buf[off]))
	}
	return rows, nil
}

func fetchUDPTable() ([]mibUDPRowOwnerPID, error) {
	var size uint32
	procGetExtendedUDPTable.Call(0, uintptr(unsafe.Pointer(&size)), 0, afINET, udpTableOwnerPID, 0)
	if size == 0 {
		return nil, nil
	}
	buf := make([]byte, size)
	ret, _, _ := procGetExtendedUDPTable.Call(
		uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&size)), 0, afINET, udpTableOwnerPID, 0)
	if ret != 0 {
		return nil, fmt.Errorf("GetExtendedUdpTable failed: %d", ret)
	}
	numEntries := binary.LittleEndian.Uint32(buf[0:4])
	rows := make([]mibUDPRowOwnerPID, numEntries)
	for i := uint32(0); i < numEntries; i++ {
		off := 4 + i*uint32(unsafe.Sizeof(mibUDPRowOwnerPID{}))
		rows[i] = *(*mibUDPRowOwnerPID)(unsafe.Pointer(&buf[off]))
	}
	return rows, nil
}

// snapshotProcessNames resolves pid -> image name via the toolhelp32
// process snapshot API, the standard pure-syscall way to list processes
// on Windows without WMI.
func snapshotProcessNames() map[uint32]string {
	out := make(map[uint32]string)
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return out
	}
	defer windows.CloseHandle(snap)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	if err := windows.Process32First(snap, &entry); err != nil {
		return out
	}
	for {
		name := syscall.UTF16ToString(entry.ExeFile[:])
		out[entry.ProcessID] = name
		if err := windows.Process32Next(snap, &entry); err != nil {
			break
		}
	}
	return out
}
