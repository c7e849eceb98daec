package fault

import (
	"bytes"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/hugo-lorenzo-mato/exitguard/internal/logging"
)

// exitSentinel is the panic value raised by the test terminate. Its value is
// the exit code.
type exitSentinel int

func panicTerminate(code int) {
	panic(exitSentinel(code))
}

// captureExit runs fn and reports the code it exited with.
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

// syncBuffer is a bytes.Buffer safe for the dump goroutine and the test.
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

type testController struct {
	*Controller
	stderr *syncBuffer
	logs   *syncBuffer
	fs     afero.Fs
}

var fixedTime = time.Date(2024, 3, 9, 14, 5, 6, 123456789, time.UTC)

func newTestController(t *testing.T, opts ...Option) *testController {
	t.Helper()
	tc := &testController{
		stderr: &syncBuffer{},
		logs:   &syncBuffer{},
		fs:     afero.NewMemMapFs(),
	}
	base := []Option{
		WithTerminate(panicTerminate),
		WithStderr(tc.stderr),
		WithFs(tc.fs),
		WithLogger(logging.New(logging.Config{Level: "debug", Format: "text", Output: tc.logs})),
		WithArgs([]string{"exitguard", "crash", "--kind", "panic"}),
		WithClock(func() time.Time { return fixedTime }),
	}
	tc.Controller = New(append(base, opts...)...)
	return tc
}

// failingFs injects failures into the crash log write path.
type failingFs struct {
	afero.Fs
	mkdirErr    error
	openErr     error
	writeErr    error
	panicOnOpen bool

	mu     sync.Mutex
	closed bool
}

func (f *failingFs) MkdirAll(path string, perm os.FileMode) error {
	if f.mkdirErr != nil {
		return f.mkdirErr
	}
	return f.Fs.MkdirAll(path, perm)
}

func (f *failingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if f.panicOnOpen {
		panic("disk on fire")
	}
	if f.openErr != nil {
		return nil, f.openErr
	}
	file, err := f.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	if f.writeErr != nil {
		return &failingFile{File: file, fs: f}, nil
	}
	return file, nil
}

func (f *failingFs) wasClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type failingFile struct {
	afero.File
	fs *failingFs
}

func (f *failingFile) Write([]byte) (int, error) {
	return 0, f.fs.writeErr
}

func (f *failingFile) WriteString(string) (int, error) {
	return 0, f.fs.writeErr
}

func (f *failingFile) Close() error {
	f.fs.mu.Lock()
	f.fs.closed = true
	f.fs.mu.Unlock()
	return f.File.Close()
}
