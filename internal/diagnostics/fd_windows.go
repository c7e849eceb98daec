//go:build windows

package diagnostics

// CountFDs reports 0, 0: windows has no descriptor table to list.
func CountFDs() (open, limit int) {
	return 0, 0
}
