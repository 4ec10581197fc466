// Network interface collector: addresses and link flags per interface.
// Uses gopsutil for cross-platform interface enumeration.
package collector

import (
	"bufio"
	"context"
	"io"
	"net/netip"
	"os"
	"path/filepath"
	"sort"
	"strings"

	psnet "github.com/shirou/gopsutil/v3/net"

	"github.com/Guliveer/hostsnap/internal/errs"
	"github.com/Guliveer/hostsnap/internal/models"
)

// NetworkInterfaces returns every interface sorted by name.
func (s *System) NetworkInterfaces(ctx context.Context) ([]models.NetworkInterface, error) {
	stats, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.ApiUnavailable, "collector.network_interfaces", err)
	}

	ifaces := make([]models.NetworkInterface, 0, len(stats))
	for _, st := range stats {
		ifaces = append(ifaces, convertInterface(st))
	}
	sort.Slice(ifaces, func(i, j int) bool { return ifaces[i].Name < ifaces[j].Name })
	return ifaces, nil
}

// convertInterface keeps the first address of each family.
func convertInterface(st psnet.InterfaceStat) models.NetworkInterface {
	iface := models.NetworkInterface{Name: st.Name}
	for _, flag := range st.Flags {
		switch flag {
		case "up":
			iface.IsUp = true
		case "loopback":
			iface.IsLoopback = true
		}
	}
	if st.HardwareAddr != "" {
		iface.MACAddress = models.Some(st.HardwareAddr)
	}
	for _, a := range st.Addrs {
		addr, ok := parseAddr(a.Addr)
		if !ok {
			continue
		}
		if addr.Is4() && !iface.IPv4Address.IsSome() {
			iface.IPv4Address = models.Some(addr.String())
		} else if addr.Is6() && !addr.Is4In6() && !iface.IPv6Address.IsSome() {
			iface.IPv6Address = models.Some(addr.String())
		}
	}
	return iface
}

// parseAddr accepts both CIDR ("10.0.0.2/24") and bare addresses.
func parseAddr(s string) (netip.Addr, bool) {
	if p, err := netip.ParsePrefix(s); err == nil {
		return p.Addr(), true
	}
	a, err := netip.ParseAddr(s)
	return a, err == nil
}

// DefaultRouteInterface reads the kernel routing table for the interface
// whose destination is 0.0.0.0.
func (s *System) DefaultRouteInterface(ctx context.Context) (string, error) {
	f, err := os.Open(filepath.Join(s.procfs, "net", "route"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", errs.Wrap(errs.NotSupported, "collector.default_route", err)
		}
		return "", errs.WrapIO("collector.default_route", err)
	}
	defer f.Close()

	name, ok := parseDefaultRoute(f)
	if !ok {
		return "", errs.New(errs.NotFound, "collector.default_route", "no default route")
	}
	return name, nil
}

// parseDefaultRoute scans /proc/net/route content, skipping the header.
func parseDefaultRoute(r io.Reader) (string, bool) {
	sc := bufio.NewScanner(r)
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 11 {
			continue
		}
		if fields[1] == "00000000" {
			return fields[0], true
		}
	}
	return "", false
}
