package options

import (
	"fmt"
	"net"

	"github.com/googlesky/bandhawk/internal/apperr"
)

// ResolveInterface returns requested if set, otherwise the first
// non-loopback, up interface carrying an IPv4 address.
func ResolveInterface(requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", apperr.New(apperr.KindInterfaceMissing, "options.ResolveInterface", err)
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if ok && ipNet.IP.To4() != nil && !ipNet.IP.IsLoopback() {
				return iface.Name, nil
			}
		}
	}
	return "", apperr.New(apperr.KindInterfaceMissing, "options.ResolveInterface",
		fmt.Errorf("no non-loopback interface with an IPv4 address found"))
}
