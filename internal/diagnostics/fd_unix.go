//go:build !windows && !darwin

package diagnostics

import (
	"os"

	"golang.org/x/sys/unix"
)

// CountFDs returns the number of open file descriptors and the soft limit.
// A zero limit means unlimited or unavailable.
func CountFDs() (open, limit int) {
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		return 0, 0
	}
	// ReadDir itself holds one descriptor while listing.
	open = len(entries) - 1

	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err == nil {
		limit = fdLimit(rlim.Cur)
	}
	return open, limit
}
