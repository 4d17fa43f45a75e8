package command

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"rcmd/internal/commands"
	"rcmd/internal/microservices/tcp"
)

var header = color.New(color.FgCyan, color.Bold)

type formatter func(out io.Writer, args map[string]any, result any) error

// formatters render the result of each built-in command. Commands without
// one, or results that do not decode, are printed as indented JSON.
var formatters = map[string]formatter{
	"sysinfo":     printSysInfo,
	"listdir":     printListDir,
	"diskspace":   printDiskSpace,
	"processlist": printProcessList,
	"meminfo":     printMemInfo,
	"netinfo":     printNetInfo,
	"fileinfo":    printFileInfo,
	"uptime":      printUptime,
	"hostname":    printHostname,
	"echo":        printEcho,
	"ping":        printPing,
	"findfile":    printFindFile,
}

func printResponse(out io.Writer, command string, args map[string]any, resp tcp.Response) {
	if !resp.OK() {
		fmt.Fprintln(out, color.RedString("[-] Error: %s", resp.Error))
		return
	}
	if f, ok := formatters[command]; ok {
		if err := f(out, args, resp.Result); err == nil {
			return
		}
	}
	printJSON(out, resp.Result)
}

func printJSON(out io.Writer, result any) {
	if s, ok := result.(string); ok {
		fmt.Fprintln(out, s)
		return
	}
	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintln(out, color.RedString("[-] cannot format result: %v", err))
		return
	}
	fmt.Fprintln(out, string(pretty))
}

// decodeResult converts the generic JSON result into v.
func decodeResult(result any, v any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func printSysInfo(out io.Writer, _ map[string]any, result any) error {
	var info map[string]any
	if err := decodeResult(result, &info); err != nil {
		return err
	}
	header.Fprintln(out, "=== System Information ===")
	for _, key := range []string{"system", "node", "release", "version", "machine", "processor", "cpu_count", "cwd"} {
		if v, ok := info[key]; ok {
			fmt.Fprintf(out, "%s: %v\n", strings.ToUpper(key[:1])+key[1:], v)
		}
	}
	return nil
}

func printListDir(out io.Writer, args map[string]any, result any) error {
	var entries []commands.DirEntry
	if err := decodeResult(result, &entries); err != nil {
		return err
	}
	path := "."
	if p, ok := args["path"].(string); ok && p != "" {
		path = p
	}
	header.Fprintf(out, "=== Directory Listing: %s ===\n", path)
	fmt.Fprintf(out, "%-8s %-10s %-22s %s\n", "Type", "Size", "Modified", "Name")
	fmt.Fprintln(out, strings.Repeat("-", 70))
	for _, e := range entries {
		kind, size := "FILE", fmt.Sprint(e.Size)
		if e.IsDir {
			kind, size = "DIR", "-"
		}
		fmt.Fprintf(out, "%-8s %-10s %-22s %s\n", kind, size, formatTime(e.Modified), e.Name)
	}
	fmt.Fprintf(out, "Total: %d items\n", len(entries))
	return nil
}

func printDiskSpace(out io.Writer, _ map[string]any, result any) error {
	var usage struct {
		Total       float64 `json:"total"`
		Used        float64 `json:"used"`
		Free        float64 `json:"free"`
		PercentUsed float64 `json:"percent_used"`
	}
	if err := decodeResult(result, &usage); err != nil {
		return err
	}
	header.Fprintln(out, "=== Disk Space Information ===")
	fmt.Fprintf(out, "Total: %s\n", formatSize(usage.Total))
	fmt.Fprintf(out, "Used:  %s (%.1f%%)\n", formatSize(usage.Used), usage.PercentUsed)
	fmt.Fprintf(out, "Free:  %s\n", formatSize(usage.Free))
	return nil
}

func printProcessList(out io.Writer, _ map[string]any, result any) error {
	var procs []commands.ProcessInfo
	if err := decodeResult(result, &procs); err != nil {
		return err
	}
	header.Fprintln(out, "=== Process List ===")
	fmt.Fprintf(out, "%-7s %-15s %-10s %-8s %-22s %s\n", "PID", "User", "Memory %", "CPU %", "Created", "Name")
	fmt.Fprintln(out, strings.Repeat("-", 80))
	for _, p := range procs {
		created := "-"
		if p.CreateTime > 0 {
			created = formatTime(p.CreateTime)
		}
		fmt.Fprintf(out, "%-7d %-15s %-10.1f %-8.1f %-22s %s\n",
			p.PID, p.Username, p.MemoryPercent, p.CPUPercent, created, p.Name)
	}
	return nil
}

func printMemInfo(out io.Writer, _ map[string]any, result any) error {
	var m struct {
		Total       float64 `json:"total"`
		Available   float64 `json:"available"`
		Used        float64 `json:"used"`
		Percent     float64 `json:"percent"`
		SwapTotal   float64 `json:"swap_total"`
		SwapUsed    float64 `json:"swap_used"`
		SwapPercent float64 `json:"swap_percent"`
	}
	if err := decodeResult(result, &m); err != nil {
		return err
	}
	header.Fprintln(out, "=== Memory Information ===")
	fmt.Fprintln(out, "Physical Memory:")
	fmt.Fprintf(out, "  Total:     %s\n", formatSize(m.Total))
	fmt.Fprintf(out, "  Available: %s\n", formatSize(m.Available))
	fmt.Fprintf(out, "  Used:      %s (%.1f%%)\n", formatSize(m.Used), m.Percent)
	fmt.Fprintln(out, "Swap Memory:")
	fmt.Fprintf(out, "  Total:     %s\n", formatSize(m.SwapTotal))
	fmt.Fprintf(out, "  Used:      %s (%.1f%%)\n", formatSize(m.SwapUsed), m.SwapPercent)
	return nil
}

func printNetInfo(out io.Writer, _ map[string]any, result any) error {
	var ifaces map[string]commands.InterfaceInfo
	if err := decodeResult(result, &ifaces); err != nil {
		return err
	}
	names := make([]string, 0, len(ifaces))
	for name := range ifaces {
		names = append(names, name)
	}
	sort.Strings(names)

	header.Fprintln(out, "=== Network Interfaces ===")
	for _, name := range names {
		info := ifaces[name]
		status := "DOWN"
		if info.IsUp {
			status = "UP"
		}
		fmt.Fprintf(out, "Interface: %s\n", name)
		fmt.Fprintf(out, "  Status: %s\n", status)
		fmt.Fprintf(out, "  Bytes Sent: %s\n", formatSize(float64(info.BytesSent)))
		fmt.Fprintf(out, "  Bytes Received: %s\n", formatSize(float64(info.BytesRecv)))
		fmt.Fprintln(out, "  Addresses:")
		for _, a := range info.Addresses {
			fmt.Fprintf(out, "    %s - %s\n", a.Family, a.Address)
			if a.Netmask != "" {
				fmt.Fprintf(out, "      Netmask: %s\n", a.Netmask)
			}
			if a.Broadcast != "" {
				fmt.Fprintf(out, "      Broadcast: %s\n", a.Broadcast)
			}
		}
	}
	return nil
}

func printFileInfo(out io.Writer, _ map[string]any, result any) error {
	var f struct {
		Name     string  `json:"name"`
		Path     string  `json:"path"`
		Size     float64 `json:"size"`
		Created  float64 `json:"created"`
		Modified float64 `json:"modified"`
		Accessed float64 `json:"accessed"`
		IsDir    bool    `json:"is_dir"`
	}
	if err := decodeResult(result, &f); err != nil {
		return err
	}
	kind := "File"
	if f.IsDir {
		kind = "Directory"
	}
	header.Fprintln(out, "=== File Information ===")
	fmt.Fprintf(out, "Name: %s\n", f.Name)
	fmt.Fprintf(out, "Path: %s\n", f.Path)
	fmt.Fprintf(out, "Type: %s\n", kind)
	fmt.Fprintf(out, "Size: %s\n", formatSize(f.Size))
	fmt.Fprintf(out, "Created: %s\n", formatTime(f.Created))
	fmt.Fprintf(out, "Modified: %s\n", formatTime(f.Modified))
	fmt.Fprintf(out, "Accessed: %s\n", formatTime(f.Accessed))
	return nil
}

func printUptime(out io.Writer, _ map[string]any, result any) error {
	var u struct {
		BootTime      float64 `json:"boot_time"`
		UptimeSeconds float64 `json:"uptime_seconds"`
	}
	if err := decodeResult(result, &u); err != nil {
		return err
	}
	total := int64(u.UptimeSeconds)
	days, hours := total/86400, total%86400/3600
	minutes, seconds := total%3600/60, total%60

	header.Fprintln(out, "=== System Uptime ===")
	fmt.Fprintf(out, "Boot Time: %s\n", formatTime(u.BootTime))
	fmt.Fprintf(out, "Uptime: %d days, %d hours, %d minutes, %d seconds\n", days, hours, minutes, seconds)
	return nil
}

func printHostname(out io.Writer, _ map[string]any, result any) error {
	var h struct {
		Hostname string `json:"hostname"`
		FQDN     string `json:"fqdn"`
	}
	if err := decodeResult(result, &h); err != nil {
		return err
	}
	header.Fprintln(out, "=== Hostname Information ===")
	fmt.Fprintf(out, "Hostname: %s\n", h.Hostname)
	fmt.Fprintf(out, "FQDN: %s\n", h.FQDN)
	return nil
}

func printEcho(out io.Writer, _ map[string]any, result any) error {
	s, ok := result.(string)
	if !ok {
		return fmt.Errorf("unexpected echo result %T", result)
	}
	fmt.Fprintf(out, "Server echo: %s\n", s)
	return nil
}

func printPing(out io.Writer, _ map[string]any, result any) error {
	s, ok := result.(string)
	if !ok {
		return fmt.Errorf("unexpected ping result %T", result)
	}
	header.Fprintln(out, "=== Ping Results ===")
	fmt.Fprintln(out, strings.TrimRight(s, "\n"))
	return nil
}

func printFindFile(out io.Writer, _ map[string]any, result any) error {
	var matches []commands.Match
	if err := decodeResult(result, &matches); err != nil {
		return err
	}
	header.Fprintln(out, "=== Find Results ===")
	fmt.Fprintf(out, "Found %d matches:\n", len(matches))
	for _, m := range matches {
		kind := "[FILE]"
		if m.IsDir {
			kind = "[DIR]"
		}
		fmt.Fprintf(out, "%s %s\n", kind, m.Path)
	}
	return nil
}

// formatSize renders a byte count with two decimals, e.g. "1.50 KB".
func formatSize(size float64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	for _, unit := range units[:len(units)-1] {
		if size < 1024 {
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.2f %s", size, units[len(units)-1])
}

func formatTime(unix float64) string {
	return time.Unix(int64(unix), 0).Format(time.DateTime)
}
