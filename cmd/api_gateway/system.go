package main

import (
	"bufio"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ---- System Metrics ----

type SystemMetrics struct {
	CPULoad1    float64 `json:"cpu_load_1"`
	CPULoad5    float64 `json:"cpu_load_5"`
	CPULoad15   float64 `json:"cpu_load_15"`
	CPUPercent  float64 `json:"cpu_percent"`
	CPUCores    int     `json:"cpu_cores"`
	MemUsedMB   float64 `json:"mem_used_mb"`
	MemTotalMB  float64 `json:"mem_total_mb"`
	MemPercent  float64 `json:"mem_percent"`
	HeapAllocMB float64 `json:"heap_alloc_mb"`
	SysMB       float64 `json:"sys_mb"`
	GCRuns      uint32  `json:"gc_runs"`
	Goroutines  int     `json:"goroutines"`
	UptimeSec   int64   `json:"uptime_sec"`
	TS          string  `json:"ts"`
}

type cpuSample struct {
	idle  uint64
	total uint64
}

// systemSampler keeps the previous /proc/stat sample so CPU percent is
// measured between calls.
type systemSampler struct {
	start time.Time

	mu   sync.Mutex
	prev cpuSample
}

// parseCPUSample reads the aggregate "cpu " line of /proc/stat.
func parseCPUSample(r io.Reader) cpuSample {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			break
		}
		var total, idle uint64
		for i := 1; i < len(fields); i++ {
			v, _ := strconv.ParseUint(fields[i], 10, 64)
			total += v
			if i == 4 {
				idle = v
			}
		}
		return cpuSample{idle: idle, total: total}
	}
	return cpuSample{}
}

func parseLoadAvg(r io.Reader, m *SystemMetrics) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return
	}
	fields := strings.Fields(scanner.Text())
	if len(fields) < 3 {
		return
	}
	m.CPULoad1, _ = strconv.ParseFloat(fields[0], 64)
	m.CPULoad5, _ = strconv.ParseFloat(fields[1], 64)
	m.CPULoad15, _ = strconv.ParseFloat(fields[2], 64)
}

func parseMemInfo(r io.Reader, m *SystemMetrics) {
	var total, available uint64
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			total, _ = strconv.ParseUint(fields[1], 10, 64)
		case "MemAvailable:":
			available, _ = strconv.ParseUint(fields[1], 10, 64)
		}
	}
	if total > 0 {
		used := total - available
		m.MemTotalMB = float64(total) / 1024
		m.MemUsedMB = float64(used) / 1024
		m.MemPercent = float64(used) / float64(total) * 100
	}
}

func readProc(path string, fn func(io.Reader)) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	fn(f)
}

// Collect samples the process and host. Host fields stay zero where /proc
// is unavailable.
func (s *systemSampler) Collect() SystemMetrics {
	m := SystemMetrics{
		Goroutines: runtime.NumGoroutine(),
		UptimeSec:  int64(time.Since(s.start).Seconds()),
		TS:         time.Now().UTC().Format(time.RFC3339Nano),
		CPUCores:   runtime.NumCPU(),
	}

	var cur cpuSample
	readProc("/proc/stat", func(r io.Reader) { cur = parseCPUSample(r) })
	s.mu.Lock()
	m.CPUPercent = cpuPercent(s.prev, cur)
	s.prev = cur
	s.mu.Unlock()

	readProc("/proc/loadavg", func(r io.Reader) { parseLoadAvg(r, &m) })
	readProc("/proc/meminfo", func(r io.Reader) { parseMemInfo(r, &m) })

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.HeapAllocMB = float64(ms.HeapAlloc) / 1024 / 1024
	m.SysMB = float64(ms.Sys) / 1024 / 1024
	m.GCRuns = ms.NumGC
	return m
}

func cpuPercent(prev, cur cpuSample) float64 {
	if prev.total == 0 || cur.total <= prev.total {
		return 0
	}
	dTotal := float64(cur.total - prev.total)
	dIdle := float64(cur.idle - prev.idle)
	return (1.0 - dIdle/dTotal) * 100.0
}
