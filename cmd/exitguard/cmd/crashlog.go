package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/exitguard/internal/fault"
)

var (
	crashlogLimit  int
	crashlogFollow bool
	crashlogJSON   bool

	// crashFs is where the crash log is read from. fsnotify only watches
	// the OS filesystem, so --follow always uses the real paths.
	crashFs afero.Fs = afero.NewOsFs()
)

var crashlogCmd = &cobra.Command{
	Use:   "crashlog",
	Short: "Print recorded faults",
	Long: `Print the records of <workdir>/logs/exceptions.log, oldest first.

With --follow, keep running and print records as they are appended.`,
	Args: cobra.NoArgs,
	RunE: runCrashlog,
}

func init() {
	crashlogCmd.Flags().IntVarP(&crashlogLimit, "limit", "n", 0,
		"print only the last N records (0 = all)")
	crashlogCmd.Flags().BoolVarP(&crashlogFollow, "follow", "f", false,
		"wait for and print new records")
	crashlogCmd.Flags().BoolVar(&crashlogJSON, "json", false,
		"print one JSON object per record")
	rootCmd.AddCommand(crashlogCmd)
}

func runCrashlog(cmd *cobra.Command, _ []string) error {
	if crashlogLimit < 0 {
		return fault.Exitf(fault.ExitUsage, "--limit must not be negative")
	}
	dir := controller().WorkDir()

	records, err := fault.LoadRecords(crashFs, dir)
	if err != nil {
		return err
	}
	seen := len(records)
	if crashlogLimit > 0 && len(records) > crashlogLimit {
		records = records[len(records)-crashlogLimit:]
	}
	if err := printRecords(cmd.OutOrStdout(), records, crashlogJSON); err != nil {
		return err
	}
	if !crashlogFollow {
		if seen == 0 && !crashlogJSON {
			fmt.Fprintf(cmd.ErrOrStderr(), "no faults recorded in %s\n", fault.LogPath(dir))
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return followCrashLog(ctx, dir, seen, cmd.OutOrStdout(), crashlogJSON)
}

func printRecords(w io.Writer, records []fault.Record, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("encoding record: %w", err)
			}
		}
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(w, "=== %s  pid %d\n", r.Timestamp.Format(time.RFC3339), r.PID)
		fmt.Fprintf(w, "    %s\n", strings.Join(r.Args, " "))
		fmt.Fprint(w, r.Message)
		if !strings.HasSuffix(r.Message, "\n") {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// followCrashLog prints records beyond the first seen ones whenever the
// crash log changes, until ctx is done.
func followCrashLog(ctx context.Context, dir string, seen int, w io.Writer, asJSON bool) error {
	logDir := filepath.Dir(fault.LogPath(dir))
	if err := crashFs.MkdirAll(logDir, 0o750); err != nil {
		return fmt.Errorf("creating crash log dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// The directory is watched so a log created after startup is seen.
	if err := watcher.Add(logDir); err != nil {
		return fmt.Errorf("watching %s: %w", logDir, err)
	}
	logger.Debug("following crash log", "path", fault.LogPath(dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("crash log watcher error", "error", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != fault.LogFileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			records, err := fault.LoadRecords(crashFs, dir)
			if err != nil {
				// A record may be half written; retry on the next event.
				logger.Debug("crash log not readable yet", "error", err)
				continue
			}
			if len(records) < seen {
				// Truncated or replaced.
				seen = 0
			}
			if err := printRecords(w, records[seen:], asJSON); err != nil {
				return err
			}
			seen = len(records)
		}
	}
}
