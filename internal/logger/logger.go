// internal/logger/logger.go
//
// Structured JSON logger (Zap + Lumberjack).
//
// Context
// -------
// The service writes lifecycle, print, and error events to one JSON log per
// day under `<log dir>/YYYY-MM-DD.log`.  When running in an interactive TTY
// the same events are teed to stdout in console form.  Rotation,
// compression, and retention are handled by Lumberjack; no external
// log-rotate job is required.
//
// Usage
// -----
//
//	log, err := logger.New(logger.Options{Dir: cfg.Abs(cfg.Log.Dir), Level: cfg.Log.Level, Tee: logger.IsTTY()})
//	if err != nil { … }
//	log.Infow("server online", "addr", addr)
//
// Notes
// -----
// • JSON fields follow zap's production encoder with an ISO-8601 "ts".
// • zap's own internal errors land in the same file.
// • Oxford commas, two spaces after periods.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the sink directory, minimum level, and console tee.
type Options struct {
	Dir   string
	Level string // debug, info, warn, error; empty means info
	Tee   bool
}

// New returns a *zap.SugaredLogger that writes JSON to <Dir>/YYYY-MM-DD.log
// and installs it as the process-wide default via zap.ReplaceGlobals.
func New(opts Options) (*zap.SugaredLogger, error) {
	level := zap.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", opts.Level, err)
		}
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("log dir: %w", err)
	}
	sink := dailyFile(opts.Dir, time.Now())

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), sink, level)
	if opts.Tee {
		console := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stdout), level)
		core = zapcore.NewTee(core, console)
	}

	l := zap.New(core, zap.ErrorOutput(sink), zap.AddCaller())
	zap.ReplaceGlobals(l)

	s := l.Sugar()
	s.Infow("logger ready", "dir", opts.Dir, "level", level.String(), "console", opts.Tee)
	return s, nil
}

// dailyFile opens <dir>/YYYY-MM-DD.log behind lumberjack, which rotates at
// 50 MB, keeps seven backups, and prunes after two weeks.
func dailyFile(dir string, day time.Time) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(dir, day.Format(time.DateOnly)+".log"),
		MaxSize:    50,
		MaxBackups: 7,
		MaxAge:     14,
		Compress:   true,
	})
}

// Bootstrap installs a console logger for the window before config is
// loaded, so config errors are visible.
func Bootstrap() {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if l, err := cfg.Build(); err == nil {
		zap.ReplaceGlobals(l)
	}
}

// IsTTY reports whether stdout is a character device.
func IsTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
