package cmd

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hugo-lorenzo-mato/exitguard/internal/diagnostics"
	"github.com/hugo-lorenzo-mato/exitguard/internal/fault"
)

// maxDumpParallel bounds concurrent process lookups.
const maxDumpParallel = 8

var dumpCmd = &cobra.Command{
	Use:   "dump PID...",
	Short: "Ask running processes for a goroutine stack dump",
	Long: `Send the stack dump signal (SIGUSR2) to each PID.

Processes running under exitguard write the stacks of all goroutines,
followed by a resource summary, to their configured trace file or stderr.
Processes without a handler for the signal are terminated by it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	pids := make([]int32, 0, len(args))
	for _, a := range args {
		pid, err := strconv.ParseInt(a, 10, 32)
		if err != nil || pid <= 0 {
			return fault.Exitf(fault.ExitUsage, "invalid pid %q", a)
		}
		pids = append(pids, int32(pid))
	}

	var (
		mu  sync.Mutex
		out = cmd.OutOrStdout()
	)
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(maxDumpParallel)
	for _, pid := range pids {
		g.Go(func() error {
			info, err := diagnostics.DescribeProcess(ctx, pid)
			if err != nil {
				return err
			}
			if err := sendDumpSignal(int(pid)); err != nil {
				return fmt.Errorf("signalling %s: %w", info, err)
			}
			logger.Debug("stack dump requested", "pid", pid, "name", info.Name)

			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(out, "sent %v to %s\n", fault.DumpSignal, info)
			return nil
		})
	}
	return g.Wait()
}
