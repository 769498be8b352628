// Package logger holds the process-wide zap logger. The helpers are no-ops
// until Init or InitWriter installs one, so packages log unconditionally.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	L *zap.Logger
	S *zap.SugaredLogger

	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sink  io.Closer
)

// Init installs a logger writing to the file named by Path. The file is
// truncated every run.
func Init(debug bool) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	InitWriter(f, debug)
	sink = f
	Info("logger initialized", "path", path, "debug", debug)
	return nil
}

// InitWriter installs a logger writing console lines to w.
func InitWriter(w io.Writer, debug bool) {
	Close()
	SetDebug(debug)

	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeCaller = zapcore.ShortCallerEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	L = zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	).Named("qvim")
	S = L.Sugar()
}

// SetDebug switches debug lines on or off for the installed logger.
func SetDebug(on bool) {
	if on {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.InfoLevel)
	}
}

// Close flushes the logger and releases the log file.
func Close() {
	if L != nil {
		_ = L.Sync()
	}
	if sink != nil {
		_ = sink.Close()
		sink = nil
	}
	L, S = nil, nil
}

// Path is QVIM_LOG_FILE when set, otherwise qvim.log under the config
// directory.
func Path() (string, error) {
	if v := os.Getenv("QVIM_LOG_FILE"); v != "" {
		return v, nil
	}
	if v := os.Getenv("QVIM_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "qvim.log"), nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "qvim", "qvim.log"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "qvim", "qvim.log"), nil
}

func Debug(msg string, kv ...any) {
	if S != nil {
		S.Debugw(msg, kv...)
	}
}

func Info(msg string, kv ...any) {
	if S != nil {
		S.Infow(msg, kv...)
	}
}

func Warn(msg string, kv ...any) {
	if S != nil {
		S.Warnw(msg, kv...)
	}
}

func Error(msg string, kv ...any) {
	if S != nil {
		S.Errorw(msg, kv...)
	}
}
