package fault

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Crash log location relative to the work directory.
const (
	LogDirName  = "logs"
	LogFileName = "exceptions.log"
)

// ErrNoWorkDir is reported when a fault is logged before any work directory
// is known.
var ErrNoWorkDir = errors.New("no work directory configured for the crash log")

// LogPath returns the crash log path under workDir.
func LogPath(workDir string) string {
	return filepath.Join(workDir, LogDirName, LogFileName)
}

// LogFault appends a crash record for message to the crash log under
// workDir, or under the configured work directory when workDir is empty.
//
// It never fails outwardly. Errors and panics from any stage are reported
// through the fallback logger and swallowed, because LogFault runs while a
// fault is already being handled.
func (c *Controller) LogFault(message, workDir string) {
	defer func() {
		if r := recover(); r != nil {
			c.reportLogFailure(fmt.Errorf("panic while writing crash log: %v", r))
		}
	}()

	if err := c.appendRecord(message, workDir); err != nil {
		c.reportLogFailure(err)
	}
}

func (c *Controller) appendRecord(message, workDir string) (err error) {
	if workDir == "" {
		workDir = c.WorkDir()
	}
	if workDir == "" {
		return ErrNoWorkDir
	}

	path := LogPath(workDir)

	c.logMu.Lock()
	defer c.logMu.Unlock()

	if err := c.fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating crash log dir: %w", err)
	}

	f, err := c.fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening crash log: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing crash log: %w", cerr)
		}
	}()

	// One write per record keeps O_APPEND records whole.
	if _, err := io.WriteString(f, c.formatRecord(message)); err != nil {
		return fmt.Errorf("writing crash log %s: %w", path, err)
	}
	return nil
}

func (c *Controller) formatRecord(message string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s\n", timestampPrefix, c.now().Format(time.RFC3339Nano))
	fmt.Fprintf(&b, "%s%q\n", argsPrefix, c.logger.Sanitizer().SanitizeArgs(c.args))
	fmt.Fprintf(&b, "%s%d\n", pidPrefix, c.pid)
	b.WriteString(message)
	if !strings.HasSuffix(message, "\n") {
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return b.String()
}

func (c *Controller) reportLogFailure(err error) {
	defer func() { _ = recover() }()
	c.logger.Error("problem logging original fault", "error", err)
}
