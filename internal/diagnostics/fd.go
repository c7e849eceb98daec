package diagnostics

import "math"

// fdLimit converts a RLIMIT_NOFILE soft limit to an int. Unlimited
// (RLIM_INFINITY) and out-of-range values are reported as 0.
func fdLimit[T ~int64 | ~uint64](cur T) int {
	if cur <= 0 || uint64(cur) > math.MaxInt32 {
		return 0
	}
	return int(cur)
}
