package diagnostics

import (
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot captures resource state at a point in time.
type Snapshot struct {
	Timestamp      time.Time     `json:"timestamp"`
	ProcessUptime  time.Duration `json:"process_uptime"`
	Goroutines     int           `json:"goroutines"`
	OpenFDs        int           `json:"open_fds"`
	MaxFDs         int           `json:"max_fds"`
	FDUsagePercent float64       `json:"fd_usage_percent"`
	HeapAllocMB    float64       `json:"heap_alloc_mb"`
	HeapInUseMB    float64       `json:"heap_in_use_mb"`
	StackInUseMB   float64       `json:"stack_in_use_mb"`
	NumGC          uint32        `json:"num_gc"`
	GCPauseNS      uint64        `json:"gc_pause_ns"`

	// System-wide, zero when unavailable.
	MemTotalMB float64 `json:"mem_total_mb"`
	MemUsedMB  float64 `json:"mem_used_mb"`
	MemPercent float64 `json:"mem_percent"`
	LoadAvg1   float64 `json:"load_avg_1"`
	LoadAvg5   float64 `json:"load_avg_5"`
	LoadAvg15  float64 `json:"load_avg_15"`
}

// Collector takes snapshots of the running process.
type Collector struct {
	started time.Time
	now     func() time.Time
}

// NewCollector creates a collector measuring uptime from started.
func NewCollector(started time.Time) *Collector {
	return &Collector{started: started, now: time.Now}
}

// Take captures the current resource state. Figures that cannot be read are
// left at zero.
func (c *Collector) Take() Snapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	now := c.now()
	s := Snapshot{
		Timestamp:     now,
		ProcessUptime: now.Sub(c.started),
		Goroutines:    runtime.NumGoroutine(),
		HeapAllocMB:   float64(memStats.HeapAlloc) / 1024 / 1024,
		HeapInUseMB:   float64(memStats.HeapInuse) / 1024 / 1024,
		StackInUseMB:  float64(memStats.StackInuse) / 1024 / 1024,
		NumGC:         memStats.NumGC,
		GCPauseNS:     memStats.PauseNs[(memStats.NumGC+255)%256],
	}

	s.OpenFDs, s.MaxFDs = CountFDs()
	if s.MaxFDs > 0 {
		s.FDUsagePercent = float64(s.OpenFDs) / float64(s.MaxFDs) * 100
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemTotalMB = float64(vm.Total) / 1024 / 1024
		s.MemUsedMB = float64(vm.Used) / 1024 / 1024
		s.MemPercent = vm.UsedPercent
	}
	if avg, err := load.Avg(); err == nil {
		s.LoadAvg1 = avg.Load1
		s.LoadAvg5 = avg.Load5
		s.LoadAvg15 = avg.Load15
	}

	return s
}

// WriteSnapshot renders s as an indented block.
func WriteSnapshot(w io.Writer, s Snapshot) error {
	fds := fmt.Sprintf("%d of %d (%.1f%%)", s.OpenFDs, s.MaxFDs, s.FDUsagePercent)
	if s.MaxFDs == 0 {
		fds = fmt.Sprintf("%d (no limit)", s.OpenFDs)
	}
	_, err := fmt.Fprintf(w, `resources at %s (uptime %s)
  goroutines: %d
  heap:       %.1f MB allocated, %.1f MB in use
  stacks:     %.1f MB in use
  gc:         %d cycles, last pause %s
  fds:        %s
  system mem: %.0f of %.0f MB (%.1f%%)
  load:       %.2f %.2f %.2f
`,
		s.Timestamp.Format(time.RFC3339), s.ProcessUptime.Round(time.Second),
		s.Goroutines,
		s.HeapAllocMB, s.HeapInUseMB,
		s.StackInUseMB,
		s.NumGC, time.Duration(s.GCPauseNS),
		fds,
		s.MemUsedMB, s.MemTotalMB, s.MemPercent,
		s.LoadAvg1, s.LoadAvg5, s.LoadAvg15,
	)
	return err
}

// DumpHandler returns a stack dump handler that appends a snapshot.
// Register it with fault.OnDumpSignal.
func DumpHandler(c *Collector) func(w io.Writer) {
	return func(w io.Writer) {
		_ = WriteSnapshot(w, c.Take())
	}
}
