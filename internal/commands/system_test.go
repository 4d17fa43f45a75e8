package commands

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireKeys(t *testing.T, res any, keys ...string) map[string]any {
	t.Helper()
	m, ok := res.(map[string]any)
	require.True(t, ok, "expected map result, got %T", res)
	for _, k := range keys {
		assert.Contains(t, m, k)
	}
	assert.Len(t, m, len(keys))
	return m
}

func TestSysInfo(t *testing.T) {
	res, err := SysInfo(context.Background(), Args{})
	require.NoError(t, err)

	m := requireKeys(t, res, "system", "node", "release", "version", "machine", "processor", "cpu_count", "cwd")
	cwd, _ := os.Getwd()
	assert.Equal(t, cwd, m["cwd"])
	assert.Greater(t, m["cpu_count"], 0)
}

func TestMemInfo(t *testing.T) {
	res, err := MemInfo(context.Background(), Args{})
	require.NoError(t, err)

	m := requireKeys(t, res, "total", "available", "used", "percent", "swap_total", "swap_used", "swap_percent")
	assert.Greater(t, m["total"], uint64(0))
}

func TestUptime(t *testing.T) {
	res, err := Uptime(context.Background(), Args{})
	require.NoError(t, err)

	m := requireKeys(t, res, "boot_time", "uptime_seconds")
	assert.Greater(t, m["uptime_seconds"], 0.0)
}

func TestHostname(t *testing.T) {
	res, err := Hostname(context.Background(), Args{})
	require.NoError(t, err)

	m := requireKeys(t, res, "hostname", "fqdn")
	name, _ := os.Hostname()
	assert.Equal(t, name, m["hostname"])
	assert.NotEmpty(t, m["fqdn"])
}

func TestNetInfo(t *testing.T) {
	res, err := NetInfo(context.Background(), Args{})
	require.NoError(t, err)

	ifaces, ok := res.(map[string]InterfaceInfo)
	require.True(t, ok, "expected interface map, got %T", res)
	for name, info := range ifaces {
		assert.NotEmpty(t, name)
		assert.NotNil(t, info.Addresses)
	}
}

func TestProcessList(t *testing.T) {
	res, err := ProcessList(context.Background(), Args{"limit": 3})
	require.NoError(t, err)

	rows, ok := res.([]ProcessInfo)
	require.True(t, ok, "expected process rows, got %T", res)
	assert.LessOrEqual(t, len(rows), 3)
	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, rows[i-1].MemoryPercent, rows[i].MemoryPercent)
	}

	_, err = ProcessList(context.Background(), Args{"limit": -1})
	assert.Error(t, err)

	_, err = ProcessList(context.Background(), Args{"limit": "ten"})
	assert.Error(t, err)
}
