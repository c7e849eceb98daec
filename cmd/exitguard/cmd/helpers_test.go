package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hugo-lorenzo-mato/exitguard/internal/fault"
	"github.com/hugo-lorenzo-mato/exitguard/internal/logging"
)

// exitSentinel is raised by the test terminate in place of os.Exit.
type exitSentinel int

func captureExit(fn func()) (code int, exited bool) {
	defer func() {
		if r := recover(); r != nil {
			s, ok := r.(exitSentinel)
			if !ok {
				panic(r)
			}
			code, exited = int(s), true
		}
	}()
	fn()
	return 0, false
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// testEnv isolates one command test: a scratch cwd and HOME, a controller
// that panics instead of exiting and captured output streams.
type testEnv struct {
	t       *testing.T
	dir     string
	ctl     *fault.Controller
	stdout  *syncBuffer
	stderr  *syncBuffer
	faults  *syncBuffer
	workDir string
}

func newTestEnv(t *testing.T, opts ...fault.Option) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())

	env := &testEnv{
		t:       t,
		dir:     dir,
		stdout:  &syncBuffer{},
		stderr:  &syncBuffer{},
		faults:  &syncBuffer{},
		workDir: filepath.Join(dir, "work"),
	}
	base := []fault.Option{
		fault.WithTerminate(func(code int) { panic(exitSentinel(code)) }),
		fault.WithStderr(env.faults),
		fault.WithLogger(logging.NewNop()),
		fault.WithArgs([]string{"exitguard"}),
	}
	env.ctl = fault.New(append(base, opts...)...)
	SetController(env.ctl)

	t.Cleanup(func() {
		env.ctl.Close()
		SetController(nil)
		loadedCfg = nil
		logger = logging.NewNop()
		if traceFile != nil {
			_ = traceFile.Close()
			traceFile = nil
		}
	})
	return env
}

// execute runs the root command with args, resetting flags left over from
// earlier runs.
func (e *testEnv) execute(args ...string) error {
	e.t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(e.stdout)
	rootCmd.SetErr(e.stderr)
	return rootCmd.Execute()
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}
