package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the global logger instance for the application
var Logger *zap.SugaredLogger

var level = zap.NewAtomicLevelAt(zap.InfoLevel)

func init() {
	Logger = newLogger().Sugar()
}

// newLogger writes JSON to stderr so stdout stays free for the stdio MCP transport.
func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// SetLevel changes the level of the global logger. Accepts zap level names
// (debug, info, warn, error).
func SetLevel(name string) error {
	if name == "" {
		return nil
	}
	l, err := zapcore.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	level.SetLevel(l)
	return nil
}

// Base returns the underlying zap logger without the helper caller skip.
func Base() *zap.Logger {
	return Logger.Desugar().WithOptions(zap.AddCallerSkip(-1))
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Logger.Sync()
}

// Top-level helpers for package alias usage
func Infof(format string, args ...interface{})  { Logger.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { Logger.Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { Logger.Errorf(format, args...) }
func Debugf(format string, args ...interface{}) { Logger.Debugf(format, args...) }
func Fatalf(format string, args ...interface{}) { Logger.Fatalf(format, args...) }
