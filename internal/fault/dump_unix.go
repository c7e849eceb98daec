//go:build !windows

package fault

import (
	"os"
	"os/signal"
	"syscall"
)

// DumpSignal triggers a stack dump without terminating the process.
var DumpSignal os.Signal = syscall.SIGUSR2

func notifyDump(ch chan<- os.Signal) bool {
	signal.Notify(ch, syscall.SIGUSR2)
	return true
}
