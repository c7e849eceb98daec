package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/exitguard/internal/fault"
)

var (
	crashKind string

	// crashWait is how long a goroutine fault is given to terminate the
	// process.
	crashWait = 10 * time.Second
)

var errDeliberateCrash = errors.New("deliberate crash")

var crashCmd = &cobra.Command{
	Use:   "crash",
	Short: "Raise a fault to exercise crash handling",
	Long: `Raise an uncaught fault on purpose. The process reports it, appends a
record to the crash log and exits with status 1.

Kinds:
  panic      panic with a string on the main goroutine
  error      panic with an error value on the main goroutine
  goroutine  panic inside a goroutine started with the fault controller`,
	Args: cobra.NoArgs,
	RunE: runCrash,
}

func init() {
	crashCmd.Flags().StringVar(&crashKind, "kind", "panic", "fault kind (panic, error, goroutine)")
	rootCmd.AddCommand(crashCmd)
}

func runCrash(_ *cobra.Command, _ []string) error {
	logger.Info("raising deliberate fault", "kind", crashKind, "workdir", controller().WorkDir())

	switch crashKind {
	case "panic":
		panic("deliberate crash requested with exitguard crash")
	case "error":
		panic(fmt.Errorf("kind %s: %w", crashKind, errDeliberateCrash))
	case "goroutine":
		controller().Go(func() {
			panic(fmt.Errorf("kind %s: %w", crashKind, errDeliberateCrash))
		})
		time.Sleep(crashWait)
		return errors.New("goroutine fault did not terminate the process")
	default:
		return fault.Exitf(fault.ExitUsage, "unknown crash kind %q (want panic, error or goroutine)", crashKind)
	}
}
