// Package sysinfo reports host memory and Go runtime figures for the dev
// server's admin endpoint.
package sysinfo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
)

const memInfoPath = "/proc/meminfo"

// Metrics is a point-in-time resource snapshot
type Metrics struct {
	CPUCount      int     `json:"cpu_count"`
	Goroutines    int     `json:"goroutines"`
	HeapAllocMB   float64 `json:"heap_alloc_mb"`
	MemoryTotalGB float64 `json:"memory_total_gb"`
	MemoryUsedGB  float64 `json:"memory_used_gb"`
	MemoryFreeGB  float64 `json:"memory_free_gb"`
}

// Collect returns the process figures and, where /proc is available, host
// memory. On error the runtime fields are still filled in.
func Collect() (Metrics, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	metrics := Metrics{
		CPUCount:    runtime.NumCPU(),
		Goroutines:  runtime.NumGoroutine(),
		HeapAllocMB: float64(ms.HeapAlloc) / (1024 * 1024),
	}

	file, err := os.Open(memInfoPath)
	if err != nil {
		return metrics, fmt.Errorf("failed to open %s: %w", memInfoPath, err)
	}
	defer file.Close()

	if err := readMemInfo(file, &metrics); err != nil {
		return metrics, err
	}
	return metrics, nil
}

// readMemInfo parses meminfo formatted input
func readMemInfo(r io.Reader, metrics *Metrics) error {
	var memTotal, memAvailable float64
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "MemTotal:"):
			memTotal = value / (1024 * 1024) // KB to GB
		case strings.HasPrefix(line, "MemAvailable:"):
			memAvailable = value / (1024 * 1024) // KB to GB
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading meminfo: %w", err)
	}
	if memTotal == 0 {
		return fmt.Errorf("meminfo has no MemTotal line")
	}

	metrics.MemoryTotalGB = memTotal
	metrics.MemoryFreeGB = memAvailable
	metrics.MemoryUsedGB = memTotal - memAvailable
	return nil
}
