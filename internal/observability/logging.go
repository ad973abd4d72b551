// Package observability wires structured logging for the CLI and
// server surfaces.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// CLILogger is the logger used by command implementations. It defaults
// to a no-op logger so library code can log unconditionally; Init
// replaces it once configuration is known.
var CLILogger = zap.NewNop()

// Init builds the process logger at the given level and installs it as
// CLILogger. Output goes to stderr so JSONL results on stdout stay
// machine-parseable.
func Init(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	CLILogger = logger
	return nil
}

// Sync flushes buffered log entries. Call on process exit.
func Sync() {
	_ = CLILogger.Sync()
}
