package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/exitguard/internal/config"
	"github.com/hugo-lorenzo-mato/exitguard/internal/fault"
	"github.com/hugo-lorenzo-mato/exitguard/internal/logging"
)

var (
	cfgFile     string
	logLevel    string
	logFormat   string
	workDir     string
	noBacktrace bool

	// Version info - set via SetVersion()
	appVersion string
	appCommit  string
	appDate    string

	ctl       *fault.Controller
	logger    = logging.NewNop()
	loadedCfg *config.Config
	traceFile *os.File
)

var rootCmd = &cobra.Command{
	Use:   "exitguard",
	Short: "Crash handling and controlled exits for long-running processes",
	Long: `exitguard records uncaught faults to <workdir>/logs/exceptions.log,
dumps goroutine stacks on SIGUSR2 and inspects the resulting crash log.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initConfig(cmd)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion injects build information.
func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// SetController sets the fault controller commands configure and report
// through.
func SetController(c *fault.Controller) {
	ctl = c
}

func controller() *fault.Controller {
	if ctl == nil {
		ctl = fault.New()
	}
	return ctl
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: .exitguard/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto",
		"log format (auto, text, json)")
	rootCmd.PersistentFlags().StringVar(&workDir, "workdir", "",
		"crash log base directory (default: .exitguard)")
	rootCmd.PersistentFlags().BoolVar(&noBacktrace, "no-backtrace", false,
		"omit stack traces from reported faults")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fault.Exitf(fault.ExitUsage, "%v", err)
	})
}

func initConfig(cmd *cobra.Command) error {
	v := viper.New()
	flags := cmd.Root().PersistentFlags()
	// Errors are nil when the flag exists.
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	if flags.Changed("workdir") {
		v.Set("fault.workdir", workDir)
	}

	loader := config.NewLoaderWithViper(v)
	if cfgFile != "" && !creatingConfig(cmd) {
		loader.WithConfigFile(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if noBacktrace {
		cfg.Fault.PrintBacktrace = false
	}
	if err := config.Validate(cfg); err != nil {
		return fault.Exitf(fault.ExitUsage, "%v", err)
	}

	logger = logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	loadedCfg = cfg

	c := controller()
	c.ApplyConfiguration(cfg.Fault.PrintBacktrace, cfg.Fault.WorkDir)
	if err := redirectTrace(c, cfg.Fault.TraceFile); err != nil {
		return err
	}

	logger.Debug("configuration loaded",
		"file", loader.ConfigFileUsed(),
		"workdir", cfg.Fault.WorkDir,
		"print_backtrace", cfg.Fault.PrintBacktrace)
	return nil
}

// creatingConfig reports whether cmd is `config init` targeting a file that
// does not exist yet.
func creatingConfig(cmd *cobra.Command) bool {
	if cmd != configInitCmd {
		return false
	}
	_, err := os.Stat(cfgFile)
	return errors.Is(err, os.ErrNotExist)
}

// redirectTrace re-arms the stack dump towards path. The file stays open
// for the life of the process. A previous trace file is closed only after
// InstallGlobalHook returns, when its dump loop has stopped writing.
func redirectTrace(c *fault.Controller, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening trace file: %w", err)
	}
	c.InstallGlobalHook(f, "")
	if traceFile != nil {
		if err := traceFile.Close(); err != nil {
			logger.Warn("closing previous trace file failed", "path", traceFile.Name(), "error", err)
		}
	}
	traceFile = f
	logger.Info("stack dumps redirected", "path", path, "signal", fault.DumpSignal)
	return nil
}
