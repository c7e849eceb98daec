//go:build windows

package cmd

import "errors"

func sendDumpSignal(int) error {
	return errors.New("stack dumps on signal are not supported on windows")
}
