/*
PURPOSE:
  Provides a structured logger for the WST ETC front end.
  Wraps zap for consistent output.

REQUIREMENTS:
  User-specified:
  - "Sane" server output. Not spammy.

  Implementation-discovered:
  - Needs Debug/Info/Warn/Error levels, set from config or --log-level.
  - JSON output for the service, console output for the compute command.

ARCHITECTURE INTEGRATION:
  - Used everywhere.

ERROR HANDLING:
  - Configure returns an error for unknown levels or formats.

IMPLEMENTATION RULES:
  - Use go.uber.org/zap; key/value style via the SugaredLogger (Infow, Errorw).

USAGE:
  output.Logger.Infow("message", "key", "value")

RELATED FILES:
  - internal/cli/root.go
*/

package output

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Logger *zap.SugaredLogger

func init() {
	// Default generic logger until Configure is called by the CLI.
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	Logger = l.Sugar()
}

// SetLogger allows overriding the default logger (e.g. for testing or config changes)
func SetLogger(l *zap.SugaredLogger) {
	Logger = l
}

// Configure builds the global logger from a level ("debug", "info", ...) and a
// format ("json" or "console").
func Configure(level, format string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "", "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return fmt.Errorf("invalid log format %q (want json or console)", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	Logger = l.Sugar()
	return nil
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Logger.Sync()
}
