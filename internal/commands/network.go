package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	psnet "github.com/shirou/gopsutil/v4/net"
)

const (
	DefaultPingCount = 4
	MaxPingCount     = 10
)

// InterfaceAddr is one address bound to a network interface.
type InterfaceAddr struct {
	Family    string `json:"family"`
	Address   string `json:"address"`
	Netmask   string `json:"netmask,omitempty"`
	Broadcast string `json:"broadcast,omitempty"`
}

// InterfaceInfo is the netinfo entry for one interface.
type InterfaceInfo struct {
	Addresses []InterfaceAddr `json:"addresses"`
	IsUp      bool            `json:"is_up"`
	BytesSent uint64          `json:"bytes_sent"`
	BytesRecv uint64          `json:"bytes_recv"`
}

func NetInfo(ctx context.Context, _ Args) (any, error) {
	ifaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}
	counters, err := psnet.IOCountersWithContext(ctx, true)
	if err != nil {
		counters = nil
	}
	byName := make(map[string]psnet.IOCountersStat, len(counters))
	for _, c := range counters {
		byName[c.Name] = c
	}

	out := make(map[string]InterfaceInfo, len(ifaces))
	for _, iface := range ifaces {
		info := InterfaceInfo{
			Addresses: make([]InterfaceAddr, 0, len(iface.Addrs)),
			IsUp:      slices.Contains(iface.Flags, "up"),
		}
		for _, a := range iface.Addrs {
			info.Addresses = append(info.Addresses, parseInterfaceAddr(a.Addr))
		}
		if c, ok := byName[iface.Name]; ok {
			info.BytesSent = c.BytesSent
			info.BytesRecv = c.BytesRecv
		}
		out[iface.Name] = info
	}
	return out, nil
}

// parseInterfaceAddr splits gopsutil's CIDR form into address, netmask and,
// for IPv4 subnets wider than /31, the broadcast address.
func parseInterfaceAddr(cidr string) InterfaceAddr {
	a := InterfaceAddr{Family: addrFamily(cidr), Address: cidr}
	ip, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return a
	}
	a.Address = ip.String()
	a.Netmask = net.IP(ipnet.Mask).String()

	ip4 := ip.To4()
	if ones, bits := ipnet.Mask.Size(); ip4 != nil && bits == 32 && ones < 31 {
		bcast := make(net.IP, net.IPv4len)
		for i := range ip4 {
			bcast[i] = ip4[i] | ^ipnet.Mask[i]
		}
		a.Broadcast = bcast.String()
	}
	return a
}

func addrFamily(addr string) string {
	if strings.Contains(addr, ":") {
		return "inet6"
	}
	return "inet"
}

func Echo(_ context.Context, args Args) (any, error) {
	msg, err := args.String("message", "")
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// NewPing returns the ping handler. timeout bounds each invocation; zero
// leaves it to the ping binary.
func NewPing(timeout time.Duration) Handler {
	return func(ctx context.Context, args Args) (any, error) {
		host, err := args.RequireString("host", "No host specified")
		if err != nil {
			return nil, err
		}
		if err := validateHost(host); err != nil {
			return nil, err
		}
		count, err := args.Int("count", DefaultPingCount)
		if err != nil {
			return nil, err
		}
		if count < 1 || count > MaxPingCount {
			return nil, &ArgError{Name: "count", Reason: fmt.Sprintf("must be between 1 and %d", MaxPingCount)}
		}

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		name, argv := pingCommand(runtime.GOOS, host, count)
		cmd := exec.CommandContext(ctx, name, argv...)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("ping timed out after %s", timeout)
			}
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = strings.TrimSpace(stdout.String())
			}
			if msg == "" {
				msg = err.Error()
			}
			return nil, errors.New(msg)
		}
		return stdout.String(), nil
	}
}

// pingCommand builds the argument list; it never goes through a shell.
func pingCommand(goos, host string, count int) (string, []string) {
	flag := "-c"
	if goos == "windows" {
		flag = "-n"
	}
	return "ping", []string{flag, strconv.Itoa(count), host}
}

func validateHost(host string) error {
	if strings.HasPrefix(host, "-") {
		return &ArgError{Name: "host", Reason: "must not start with '-'"}
	}
	if strings.ContainsFunc(host, func(r rune) bool { return r <= ' ' || r == 0x7f }) {
		return &ArgError{Name: "host", Reason: "must not contain whitespace or control characters"}
	}
	return nil
}
