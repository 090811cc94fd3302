// Package performance samples process resource usage around block
// workloads such as the CLI benchmark.
package performance

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/ajitpratap0/strata/pkg/errors"
)

// ResourceMonitor monitors resources of the current process
type ResourceMonitor struct {
	process      *process.Process
	startCPUTime float64
	startTime    time.Time
	mu           sync.Mutex
	peakRSS      uint64
}

// NewResourceMonitor creates a resource monitor for the current process.
func NewResourceMonitor() (*ResourceMonitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to inspect current process")
	}

	rm := &ResourceMonitor{
		process:   proc,
		startTime: time.Now(),
	}
	if cpuTime, err := proc.Times(); err == nil {
		rm.startCPUTime = cpuTime.Total()
	}
	return rm, nil
}

// ResourceUsage contains resource usage information
type ResourceUsage struct {
	Elapsed               time.Duration `json:"elapsed"`
	CPUPercent            float64       `json:"cpu_percent"`
	MemoryRSS             uint64        `json:"memory_rss"`
	PeakRSS               uint64        `json:"peak_rss"`
	HeapAlloc             uint64        `json:"heap_alloc"`
	SystemMemoryPercent   float64       `json:"system_memory_percent"`
	SystemMemoryAvailable uint64        `json:"system_memory_available"`
	GoroutineCount        int           `json:"goroutines"`
	ThreadCount           int32         `json:"threads"`
}

// Sample returns current resource usage. Fields the platform cannot report
// are left zero.
func (rm *ResourceMonitor) Sample() *ResourceUsage {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	usage := &ResourceUsage{Elapsed: time.Since(rm.startTime)}

	// CPU usage
	if cpuTime, err := rm.process.Times(); err == nil && usage.Elapsed > 0 {
		usage.CPUPercent = ((cpuTime.Total() - rm.startCPUTime) / usage.Elapsed.Seconds()) * 100
	}

	// Memory usage
	if memInfo, err := rm.process.MemoryInfo(); err == nil {
		usage.MemoryRSS = memInfo.RSS
		if memInfo.RSS > rm.peakRSS {
			rm.peakRSS = memInfo.RSS
		}
	}
	usage.PeakRSS = rm.peakRSS

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	usage.HeapAlloc = memStats.HeapAlloc

	// System memory
	if vmStat, err := mem.VirtualMemory(); err == nil {
		usage.SystemMemoryPercent = vmStat.UsedPercent
		usage.SystemMemoryAvailable = vmStat.Available
	}

	usage.GoroutineCount = runtime.NumGoroutine()
	usage.ThreadCount, _ = rm.process.NumThreads()

	return usage
}
