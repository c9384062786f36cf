package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "CO2VIEWER_LOG_LEVEL"

// Initialize creates a logger writing to stdout at the given level.
// If level is empty, CO2VIEWER_LOG_LEVEL is consulted. If neither is set,
// logging is disabled (silent mode).
func Initialize(level string) error {
	return initialize(level, "stdout")
}

// InitializeToFile is Initialize for programs that own the terminal (the
// monitor TUI). Entries are appended to path instead of stdout so they never
// tear the rendered screen.
func InitializeToFile(level, path string) error {
	if resolveLevel(level) != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	return initialize(level, path)
}

func initialize(level, output string) error {
	level = resolveLevel(level)
	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(level)),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	if output == "stdout" {
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	l, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	return nil
}

func resolveLevel(level string) string {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	return strings.ToLower(strings.TrimSpace(level))
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		// Explicitly set to something unknown
		return zapcore.InfoLevel
	}
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// SetLogger replaces the global logger. Tests use it with zaptest/observer.
func SetLogger(l *zap.Logger) {
	logger = l
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// LogPoll records the outcome of one fetch cycle.
func LogPoll(address string, seq uint64, raw string, err error) {
	if err != nil {
		Warn("Sensor poll failed",
			zap.String("address", address),
			zap.Uint64("cycle", seq),
			zap.Error(err),
		)
		return
	}
	Debug("Sensor poll completed",
		zap.String("address", address),
		zap.Uint64("cycle", seq),
		zap.String("raw", raw),
	)
}

// LogStoreError records a failed read or write of the persisted address.
func LogStoreError(op string, path string, err error) {
	Error("Address store operation failed",
		zap.String("op", op),
		zap.String("path", path),
		zap.Error(err),
	)
}

// LogRelayClient records a relay subscriber connecting or leaving.
func LogRelayClient(remoteAddr string, event string) {
	Info("Relay client event",
		zap.String("remote_addr", remoteAddr),
		zap.String("event", event),
	)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
