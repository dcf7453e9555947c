// Package logger owns the process-wide zap logger. Console output goes to
// stderr; an optional rotating file is handled by lumberjack.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the global logger. It discards everything until Init.
var Log = zap.NewNop()

// Rotation describes the rotating log file.
type Rotation struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultRotation returns the rotation used for logging.log_file.
func DefaultRotation(path string) Rotation {
	return Rotation{Path: path, MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 7, Compress: true}
}

// Options selects where log entries go.
type Options struct {
	Level   string
	Console bool
	File    Rotation // File.Path == "" disables file output
}

var file *lumberjack.Logger

// Init installs a logger writing to stderr and, when logFile is set, to a
// rotating file.
func Init(level, logFile string) error {
	opts := Options{Level: level, Console: true}
	if logFile != "" {
		opts.File = DefaultRotation(logFile)
	}
	return Setup(opts)
}

// Setup replaces the global logger. Any previously opened log file is closed.
func Setup(opts Options) error {
	lvl := levelOf(opts.Level)
	closeFile()

	var cores []zapcore.Core
	if opts.Console {
		enc := newEncoder(zapcore.TimeEncoderOfLayout("15:04:05"), zapcore.CapitalColorLevelEncoder)
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lvl))
	}
	if opts.File.Path != "" {
		file = &lumberjack.Logger{
			Filename:   opts.File.Path,
			MaxSize:    opts.File.MaxSizeMB,
			MaxBackups: opts.File.MaxBackups,
			MaxAge:     opts.File.MaxAgeDays,
			Compress:   opts.File.Compress,
			LocalTime:  true,
		}
		enc := newEncoder(zapcore.ISO8601TimeEncoder, zapcore.CapitalLevelEncoder)
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(file), lvl))
	}

	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return nil
}

func newEncoder(ts zapcore.TimeEncoder, lv zapcore.LevelEncoder) zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeTime = ts
	cfg.EncodeLevel = lv
	cfg.ConsoleSeparator = " "
	cfg.StacktraceKey = ""
	return zapcore.NewConsoleEncoder(cfg)
}

// levelOf maps a config level name to a zap level. Unknown names mean info.
func levelOf(name string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(name)
	if err != nil || lvl < zapcore.DebugLevel || lvl > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return lvl
}

// Named returns a child of the global logger for one component.
func Named(component string) *zap.Logger {
	return Log.Named(component)
}

// Close flushes pending entries and closes the log file.
func Close() {
	_ = Log.Sync()
	closeFile()
}

func closeFile() {
	if file == nil {
		return
	}
	_ = file.Close()
	file = nil
}
