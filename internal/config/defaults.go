package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ProjectDir is the per-project directory holding config.yaml and, by
// default, the crash log.
const ProjectDir = ".exitguard"

// DefaultConfigPath is where `exitguard config init` writes.
var DefaultConfigPath = filepath.Join(ProjectDir, "config.yaml")

// ErrConfigExists is returned by WriteDefault when the file is present and
// force is not set.
var ErrConfigExists = errors.New("config file already exists")

// DefaultConfigYAML contains the default configuration YAML content.
const DefaultConfigYAML = `# exitguard configuration
#
# Every key can be overridden with an EXITGUARD_ environment variable,
# e.g. EXITGUARD_FAULT_PRINT_BACKTRACE=false.

log:
  # debug, info, warn, error
  level: info
  # auto, text, json
  format: auto

fault:
  # Include the stack trace in reported faults.
  print_backtrace: true
  # Crash records go to <workdir>/logs/exceptions.log.
  workdir: .exitguard
  # Destination of SIGUSR2 stack dumps. Empty means stderr.
  trace_file: ""
`

// WriteDefault atomically writes DefaultConfigYAML to path.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s: %w", path, ErrConfigExists)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := atomicWriteFile(path, []byte(DefaultConfigYAML), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
