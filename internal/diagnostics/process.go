package diagnostics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcessInfo describes a process about to be signalled.
type ProcessInfo struct {
	PID        int32     `json:"pid"`
	Name       string    `json:"name"`
	Cmdline    string    `json:"cmdline"`
	Status     string    `json:"status"`
	Started    time.Time `json:"started"`
	NumThreads int32     `json:"num_threads"`
	RSSMB      float64   `json:"rss_mb"`
}

// DescribeProcess looks up pid. It fails when the process does not exist;
// every other detail is best-effort.
func DescribeProcess(ctx context.Context, pid int32) (ProcessInfo, error) {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return ProcessInfo{}, fmt.Errorf("process %d: %w", pid, err)
	}

	info := ProcessInfo{PID: pid}
	if name, err := p.NameWithContext(ctx); err == nil {
		info.Name = name
	}
	if cmdline, err := p.CmdlineWithContext(ctx); err == nil {
		info.Cmdline = cmdline
	}
	if status, err := p.StatusWithContext(ctx); err == nil {
		info.Status = strings.Join(status, ",")
	}
	if ms, err := p.CreateTimeWithContext(ctx); err == nil {
		info.Started = time.UnixMilli(ms)
	}
	if n, err := p.NumThreadsWithContext(ctx); err == nil {
		info.NumThreads = n
	}
	if m, err := p.MemoryInfoWithContext(ctx); err == nil && m != nil {
		info.RSSMB = float64(m.RSS) / 1024 / 1024
	}
	return info, nil
}

// String renders a one-line summary.
func (i ProcessInfo) String() string {
	name := i.Name
	if name == "" {
		name = "?"
	}
	return fmt.Sprintf("%d (%s, %d threads, %.1f MB rss)", i.PID, name, i.NumThreads, i.RSSMB)
}
