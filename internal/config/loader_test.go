package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoader_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.Format != "auto" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "auto")
	}
	if !cfg.Fault.PrintBacktrace {
		t.Error("Fault.PrintBacktrace = false, want true")
	}
	if cfg.Fault.WorkDir != ".exitguard" {
		t.Errorf("Fault.WorkDir = %q, want %q", cfg.Fault.WorkDir, ".exitguard")
	}
	if cfg.Fault.TraceFile != "" {
		t.Errorf("Fault.TraceFile = %q, want empty", cfg.Fault.TraceFile)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoader_ConfigFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "log:\n  level: debug\nfault:\n  print_backtrace: false\n  workdir: /var/lib/app\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader().WithConfigFile(path)
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Log.Format != "auto" {
		t.Errorf("Log.Format = %q, want default auto", cfg.Log.Format)
	}
	if cfg.Fault.PrintBacktrace {
		t.Error("Fault.PrintBacktrace = true, want false")
	}
	if cfg.Fault.WorkDir != "/var/lib/app" {
		t.Errorf("Fault.WorkDir = %q", cfg.Fault.WorkDir)
	}
	if loader.ConfigFileUsed() != path {
		t.Errorf("ConfigFileUsed() = %q, want %q", loader.ConfigFileUsed(), path)
	}
}

func TestLoader_ProjectConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	if err := WriteDefault(DefaultConfigPath, false); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(DefaultConfigPath, []byte("fault:\n  workdir: from-project\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Fault.WorkDir != "from-project" {
		t.Errorf("Fault.WorkDir = %q, want from-project", cfg.Fault.WorkDir)
	}
}

func TestLoader_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("EXITGUARD_FAULT_PRINT_BACKTRACE", "false")
	t.Setenv("EXITGUARD_LOG_FORMAT", "json")

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Fault.PrintBacktrace {
		t.Error("env override of fault.print_backtrace ignored")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}
}

func TestLoader_ViperOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	v := viper.New()
	v.Set("fault.workdir", "/from/flag")

	cfg, err := NewLoaderWithViper(v).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Fault.WorkDir != "/from/flag" {
		t.Errorf("Fault.WorkDir = %q, want /from/flag", cfg.Fault.WorkDir)
	}
}

func TestLoader_InvalidFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log: [unterminated\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLoader().WithConfigFile(path).Load(); err == nil {
		t.Error("Load() accepted malformed yaml")
	}
}
