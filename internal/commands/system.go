package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// DefaultProcessLimit is the processlist size when no limit is given.
const DefaultProcessLimit = 10

func SysInfo(ctx context.Context, _ Args) (any, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read host info: %w", err)
	}
	processor := runtime.GOARCH
	if cpus, err := cpu.InfoWithContext(ctx); err == nil && len(cpus) > 0 && cpus[0].ModelName != "" {
		processor = cpus[0].ModelName
	}
	cwd, _ := os.Getwd()

	return map[string]any{
		"system":    info.OS,
		"node":      info.Hostname,
		"release":   info.KernelVersion,
		"version":   strings.TrimSpace(info.Platform + " " + info.PlatformVersion),
		"machine":   info.KernelArch,
		"processor": processor,
		"cpu_count": runtime.NumCPU(),
		"cwd":       cwd,
	}, nil
}

func MemInfo(ctx context.Context, _ Args) (any, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory stats: %w", err)
	}
	sm, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read swap stats: %w", err)
	}
	return map[string]any{
		"total":        vm.Total,
		"available":    vm.Available,
		"used":         vm.Used,
		"percent":      vm.UsedPercent,
		"swap_total":   sm.Total,
		"swap_used":    sm.Used,
		"swap_percent": sm.UsedPercent,
	}, nil
}

func Uptime(ctx context.Context, _ Args) (any, error) {
	boot, err := host.BootTimeWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read boot time: %w", err)
	}
	now := float64(time.Now().UnixNano()) / float64(time.Second)
	return map[string]any{
		"boot_time":      boot,
		"uptime_seconds": now - float64(boot),
	}, nil
}

func Hostname(_ context.Context, _ Args) (any, error) {
	name, err := os.Hostname()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"hostname": name,
		"fqdn":     fqdn(name),
	}, nil
}

// fqdn resolves the canonical name of host, falling back to host itself.
func fqdn(name string) string {
	addrs, err := net.LookupHost(name)
	if err != nil {
		return name
	}
	for _, addr := range addrs {
		names, err := net.LookupAddr(addr)
		if err == nil && len(names) > 0 {
			return strings.TrimSuffix(names[0], ".")
		}
	}
	return name
}

// ProcessInfo is one processlist row.
type ProcessInfo struct {
	PID           int32   `json:"pid"`
	Name          string  `json:"name"`
	Username      string  `json:"username"`
	MemoryPercent float32 `json:"memory_percent"`
	CPUPercent    float64 `json:"cpu_percent"`
	CreateTime    float64 `json:"create_time"`
}

func ProcessList(ctx context.Context, args Args) (any, error) {
	limit, err := args.Int("limit", DefaultProcessLimit)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, &ArgError{Name: "limit", Reason: "must not be negative"}
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	rows := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		// processes that vanish or deny access mid-scan are skipped
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		row := ProcessInfo{PID: p.Pid, Name: name}
		row.Username, _ = p.UsernameWithContext(ctx)
		row.MemoryPercent, _ = p.MemoryPercentWithContext(ctx)
		row.CPUPercent, _ = p.CPUPercentWithContext(ctx)
		if created, err := p.CreateTimeWithContext(ctx); err == nil {
			row.CreateTime = float64(created) / 1000
		}
		rows = append(rows, row)
	}

	return topByMemory(rows, limit), nil
}

func topByMemory(rows []ProcessInfo, limit int) []ProcessInfo {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].MemoryPercent > rows[j].MemoryPercent
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
