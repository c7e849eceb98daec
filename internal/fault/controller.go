package fault

import (
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/hugo-lorenzo-mato/exitguard/internal/logging"
)

// DefaultPrintBacktrace is the backtrace setting used until ApplyConfiguration.
const DefaultPrintBacktrace = true

// Controller intercepts uncaught faults, writes crash records and performs
// every intentional termination of the process.
type Controller struct {
	// Bound once in New and never looked up again, so they stay usable while
	// the rest of the program is being torn down.
	terminate   func(code int)
	formatTrace func(trace []byte) string
	stderr      io.Writer
	args        []string
	pid         int
	now         func() time.Time

	fs     afero.Fs
	logger *logging.Logger

	mu             sync.Mutex // guards printBacktrace, workDir and dump
	printBacktrace bool
	workDir        string
	dump           *dumpTrigger

	logMu sync.Mutex // serializes crash log appends within the process
}

// Option configures a Controller.
type Option func(*Controller)

// WithTerminate replaces os.Exit as the termination primitive.
func WithTerminate(fn func(code int)) Option {
	return func(c *Controller) { c.terminate = fn }
}

// WithTraceFormatter replaces FormatTrace.
func WithTraceFormatter(fn func(trace []byte) string) Option {
	return func(c *Controller) { c.formatTrace = fn }
}

// WithPrintBacktrace sets the initial backtrace setting.
func WithPrintBacktrace(enabled bool) Option {
	return func(c *Controller) { c.printBacktrace = enabled }
}

// WithWorkDir sets the initial crash log base directory.
func WithWorkDir(dir string) Option {
	return func(c *Controller) { c.workDir = dir }
}

// WithLogger sets the fallback reporter. Its sanitizer also redacts the
// args line of crash records.
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithFs sets the filesystem the crash log is written to.
func WithFs(fs afero.Fs) Option {
	return func(c *Controller) { c.fs = fs }
}

// WithStderr replaces os.Stderr as the default message and dump stream.
func WithStderr(w io.Writer) Option {
	return func(c *Controller) { c.stderr = w }
}

// WithArgs replaces os.Args in crash records.
func WithArgs(args []string) Option {
	return func(c *Controller) { c.args = append([]string(nil), args...) }
}

// WithClock replaces time.Now for crash record timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a controller. Nothing is installed until InstallGlobalHook.
func New(opts ...Option) *Controller {
	c := &Controller{
		terminate:      os.Exit,
		formatTrace:    FormatTrace,
		stderr:         os.Stderr,
		args:           append([]string(nil), os.Args...),
		pid:            os.Getpid(),
		now:            time.Now,
		fs:             afero.NewOsFs(),
		printBacktrace: DefaultPrintBacktrace,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.New(logging.Config{Level: "warn", Format: "text", Output: c.stderr})
	}
	return c
}

// InstallGlobalHook arms the SIGUSR2 stack dump and makes c the active
// fault hook. A nil traceStream means stderr; an empty workDir keeps the
// current one. Calling it again re-arms the dump with the new stream.
func (c *Controller) InstallGlobalHook(traceStream io.Writer, workDir string) {
	if traceStream == nil {
		traceStream = c.stderr
	}
	if workDir != "" {
		c.mu.Lock()
		c.workDir = workDir
		c.mu.Unlock()
	}

	c.armDumpTrigger(traceStream)

	debug.SetTraceback("all")
	if f, ok := traceStream.(*os.File); ok && f != os.Stderr {
		if err := debug.SetCrashOutput(f, debug.CrashOptions{}); err != nil {
			c.logger.Warn("mirroring runtime crash output failed", "path", f.Name(), "error", err)
		}
	}

	if prev := Install(c); prev != nil && prev != c {
		c.logger.Debug("replaced active fault controller")
	}
}

// ApplyConfiguration overwrites the backtrace setting and work directory.
// Values are used as given.
func (c *Controller) ApplyConfiguration(printBacktrace bool, workDir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printBacktrace = printBacktrace
	c.workDir = workDir
}

// PrintBacktrace reports whether faults are formatted with their trace.
func (c *Controller) PrintBacktrace() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.printBacktrace
}

// WorkDir returns the configured crash log base directory.
func (c *Controller) WorkDir() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workDir
}

// Exit writes message (if any) to w, or stderr when w is nil, and
// terminates with code. It never returns.
func (c *Controller) Exit(code int, message string, w io.Writer) {
	if message != "" {
		if w == nil {
			w = c.stderr
		}
		if !strings.HasSuffix(message, "\n") {
			message += "\n"
		}
		_, _ = io.WriteString(w, message)
	}
	c.terminate(code)
	panic(ErrTerminateReturned)
}

// ExitAndFail terminates with ExitFailure, writing message to stderr.
func (c *Controller) ExitAndFail(message string) {
	c.Exit(ExitFailure, message, nil)
}

// HandleUncaughtFault formats the fault, records it in the crash log and
// terminates with ExitFailure. Logging failures do not change the outcome.
func (c *Controller) HandleUncaughtFault(kind string, fault any, trace []byte) {
	text := c.FormatFault(kind, fault, trace, c.PrintBacktrace())
	c.LogFault(text, "")
	c.ExitAndFail(text)
}

// Recover is the hook itself. Defer it at the top of main and of every
// goroutine:
//
//	defer ctl.Recover()
func (c *Controller) Recover() {
	r := recover()
	if r == nil {
		return
	}
	c.HandleUncaughtFault(KindOf(r), r, Stack(false))
}

// Go runs fn in a new goroutine guarded by Recover.
func (c *Controller) Go(fn func()) {
	go func() {
		defer c.Recover()
		fn()
	}()
}

// Run executes the program body under the hook and terminates with the
// code its result maps to: nil is ExitSuccess, an *ExitError carries its
// own code, anything else is ExitFailure.
func (c *Controller) Run(fn func() error) {
	code, msg := exitCodeOf(c.guard(fn))
	c.Exit(code, msg, nil)
}

// guard recovers faults raised by fn only. Exit is never called beneath it.
func (c *Controller) guard(fn func() error) error {
	defer c.Recover()
	return fn()
}
