// Package logging builds the process-wide zap logger.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the logger handed to every stage.
type Logger = *zap.SugaredLogger

// EncoderConfig is zap's production encoder config without stacktraces and
// with human readable times.
func EncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// New returns a logger writing to stderr, or to a rotating logfile when one
// is given. Debug enables per-sample logging. The returned func flushes and
// closes the sink and must be called once the run is over.
func New(debug bool, logfile string) (Logger, func() error) {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if debug {
		level.SetLevel(zap.DebugLevel)
	}

	var sink zapcore.WriteSyncer
	closeSink := func() error { return nil }
	if logfile != "" {
		lj := &lumberjack.Logger{
			Filename:   logfile,
			MaxSize:    10,
			MaxBackups: 3,
		}
		sink = zapcore.AddSync(lj)
		closeSink = lj.Close
	} else {
		sink = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(EncoderConfig()), sink, level)
	logger := zap.New(core).Named("yadl").Sugar()
	return logger, func() error {
		_ = logger.Sync()
		return closeSink()
	}
}

// NewNop returns a logger that discards everything.
func NewNop() Logger {
	return zap.NewNop().Sugar()
}
