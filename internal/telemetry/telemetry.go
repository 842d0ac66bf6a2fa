package telemetry

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// Stats is a point-in-time snapshot of host and process resource usage.
type Stats struct {
	Timestamp time.Time    `json:"timestamp"`
	CPU       CPUStats     `json:"cpu"`
	Memory    MemoryStats  `json:"memory"`
	Disk      DiskStats    `json:"disk"`
	Process   ProcessStats `json:"process"`
	GPU       GPUStats     `json:"gpu"`
}

type CPUStats struct {
	Percent float64 `json:"percent"`
	Cores   int     `json:"cores"`
}

type MemoryStats struct {
	TotalBytes uint64  `json:"total_bytes"`
	UsedBytes  uint64  `json:"used_bytes"`
	Percent    float64 `json:"percent"`
}

type DiskStats struct {
	TotalBytes uint64  `json:"total_bytes"`
	UsedBytes  uint64  `json:"used_bytes"`
	Percent    float64 `json:"percent"`
}

type ProcessStats struct {
	PID        int32   `json:"pid"`
	RSSBytes   uint64  `json:"rss_bytes"`
	CPUPercent float64 `json:"cpu_percent"`
	Goroutines int     `json:"goroutines"`
}

type GPUStats struct {
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

// Collector samples host and process metrics. Probe failures degrade to
// zeroed sections instead of failing the whole snapshot.
type Collector struct {
	proc *process.Process
}

func NewCollector() *Collector {
	// Errors here mean the process table is unreadable; the collector
	// still works for host metrics.
	proc, _ := process.NewProcess(int32(os.Getpid()))
	return &Collector{proc: proc}
}

// CurrentStats gathers a fresh snapshot.
func (c *Collector) CurrentStats(ctx context.Context) Stats {
	stats := Stats{
		Timestamp: time.Now().UTC(),
		GPU:       GPUStats{Available: false, Detail: "no GPU probe on this host"},
	}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		stats.CPU.Percent = percents[0]
	}
	stats.CPU.Cores = runtime.NumCPU()

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.Memory = MemoryStats{
			TotalBytes: vm.Total,
			UsedBytes:  vm.Used,
			Percent:    vm.UsedPercent,
		}
	}

	if du, err := disk.UsageWithContext(ctx, "/"); err == nil {
		stats.Disk = DiskStats{
			TotalBytes: du.Total,
			UsedBytes:  du.Used,
			Percent:    du.UsedPercent,
		}
	}

	stats.Process.Goroutines = runtime.NumGoroutine()
	if c.proc != nil {
		stats.Process.PID = c.proc.Pid
		if mi, err := c.proc.MemoryInfoWithContext(ctx); err == nil {
			stats.Process.RSSBytes = mi.RSS
		}
		if cp, err := c.proc.CPUPercentWithContext(ctx); err == nil {
			stats.Process.CPUPercent = cp
		}
	}

	return stats
}
