package config

// Config holds the exitguard configuration.
type Config struct {
	Log   LogConfig   `mapstructure:"log" yaml:"log"`
	Fault FaultConfig `mapstructure:"fault" yaml:"fault"`
}

// LogConfig configures the diagnostic logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// FaultConfig configures fault handling.
type FaultConfig struct {
	// PrintBacktrace includes the stack trace in reported faults.
	PrintBacktrace bool `mapstructure:"print_backtrace" yaml:"print_backtrace"`
	// WorkDir is the base of the crash log, <workdir>/logs/exceptions.log.
	WorkDir string `mapstructure:"workdir" yaml:"workdir"`
	// TraceFile receives diagnostic stack dumps. Empty means stderr.
	TraceFile string `mapstructure:"trace_file" yaml:"trace_file"`
}
