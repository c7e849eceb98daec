//go:build windows

package fault

import "os"

// DumpSignal is nil on windows, which has no user-defined signals.
var DumpSignal os.Signal

func notifyDump(chan<- os.Signal) bool {
	return false
}
