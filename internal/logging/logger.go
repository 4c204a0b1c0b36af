package logging

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides structured logging for apply operations.
type Logger struct {
	zap *zap.Logger
}

// New creates a Logger that writes JSON records to a file. If logPath is
// empty, logging is disabled. If development is true, uses the development
// encoder config with readable output.
func New(logPath string, development bool) (*Logger, error) {
	if logPath == "" {
		return &Logger{zap: zap.NewNop()}, nil
	}

	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	var encoderConfig zapcore.EncoderConfig
	if development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logFile),
		zapcore.InfoLevel,
	)

	return &Logger{zap: zap.New(core)}, nil
}

// Nop returns a Logger that discards everything. Handy for tests and library
// callers that do not care about logs.
func Nop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// Close syncs the logger (should be called on shutdown).
func (l *Logger) Close() error {
	return l.zap.Sync()
}

// ToolRun logs one external tool invocation.
func (l *Logger) ToolRun(dryRun bool, strip, exitCode int, duration time.Duration) {
	l.zap.Info("tool run",
		zap.Bool("dry_run", dryRun),
		zap.Int("strip", strip),
		zap.Int("exit_code", exitCode),
		zap.Duration("duration", duration),
	)
}

// FallbackUsed logs a successful fallback application.
func (l *Logger) FallbackUsed(strategy string, files int) {
	l.zap.Info("fallback applied",
		zap.String("strategy", strategy),
		zap.Int("files", files),
	)
}

// Normalized logs the outcome of diff normalization.
func (l *Logger) Normalized(untrustworthyHeaders bool, bytes int) {
	l.zap.Debug("diff normalized",
		zap.Bool("untrustworthy_headers", untrustworthyHeaders),
		zap.Int("bytes", bytes),
	)
}

// Error logs an error.
func (l *Logger) Error(msg string, err error) {
	l.zap.Error(msg, zap.Error(err))
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, fields...)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, fields...)
}
