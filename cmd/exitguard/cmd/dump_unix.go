//go:build !windows

package cmd

import "golang.org/x/sys/unix"

func sendDumpSignal(pid int) error {
	return unix.Kill(pid, unix.SIGUSR2)
}
