package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kingrea/blockout/internal/config"
)

// Options selects the zap level and encoding.
type Options struct {
	Level  string
	Format string // "console" or "json"
}

// Logger writes structured lines to .blockout/logs/blockout.log so users
// can inspect failures after the command or TUI exits.
type Logger struct {
	zap  *zap.Logger
	path string
}

// New creates (or reuses) the log file for the current project directory.
func New(projectDir string, opts Options) (*Logger, error) {
	logDir := filepath.Join(projectDir, config.BlockoutDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, "blockout.log")

	zapConfig := zap.NewProductionConfig()
	level, err := zap.ParseAtomicLevel(strings.TrimSpace(opts.Level))
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapConfig.Level = level
	if opts.Format == "json" {
		zapConfig.Encoding = "json"
	} else {
		zapConfig.Encoding = "console"
	}
	zapConfig.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	zapConfig.Sampling = nil
	zapConfig.OutputPaths = []string{path}
	zapConfig.ErrorOutputPaths = []string{path}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}
	return &Logger{zap: logger, path: path}, nil
}

// FromConfig builds a logger using the project's logging section.
func FromConfig(cfg *config.Config) (*Logger, error) {
	return New(cfg.ProjectDir, Options{Level: cfg.Project.Logging.Level, Format: cfg.Project.Logging.Format})
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// Path returns the log file, or "" for Nop.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Zap exposes the underlying logger for structured fields.
func (l *Logger) Zap() *zap.Logger {
	if l == nil || l.zap == nil {
		return zap.NewNop()
	}
	return l.zap
}

// With returns a child logger carrying the given fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zap: l.Zap().With(fields...), path: l.Path()}
}

// Close flushes buffered entries.
func (l *Logger) Close() error {
	if l == nil || l.zap == nil {
		return nil
	}
	_ = l.zap.Sync()
	return nil
}

// Printf writes a single info line to the log file.
func (l *Logger) Printf(format string, args ...any) {
	l.Zap().Info(line(format, args...))
}

// Warnf writes a warning line.
func (l *Logger) Warnf(format string, args ...any) {
	l.Zap().Warn(line(format, args...))
}

// Errorf writes an error line.
func (l *Logger) Errorf(format string, args ...any) {
	l.Zap().Error(line(format, args...))
}

func line(format string, args ...any) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
