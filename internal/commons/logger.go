// Package commons holds an ambient concern that several packages in this
// module depend on but that belongs to no single domain component: a
// structured logger. Process configuration lives in engineconfig.
package commons

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the structured logging contract every package in this module
// takes as a dependency rather than reaching for a package-level global.
// Tracef and Benchmark exist alongside the plain level methods for sampled,
// high-frequency events (a per-tick trace, a decode benchmark); both log at
// debug level, below the default level of NewProduction.
type Logger interface {
	Level() zapcore.Level

	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	DPanic(args ...interface{})
	DPanicf(template string, args ...interface{})
	Panic(args ...interface{})
	Panicf(template string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(template string, args ...interface{})

	// Tracef logs at debug level with a request-scoped context attached;
	// it exists separately from Debugf so callers can later swap in a
	// context-propagated tracer without changing call sites.
	Tracef(ctx context.Context, format string, args ...interface{})
	// Benchmark records how long a named operation took.
	Benchmark(operation string, duration time.Duration)
}

// ZapLogger adapts a *zap.SugaredLogger to Logger.
type ZapLogger struct {
	*zap.SugaredLogger
}

func NewZapLogger(sugared *zap.SugaredLogger) *ZapLogger {
	return &ZapLogger{SugaredLogger: sugared}
}

// NewDevelopment builds a Logger suitable for local runs and tests: human
// readable, debug level, synchronous.
func NewDevelopment() (*ZapLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(base.Sugar()), nil
}

// ProductionOptions configures the rotating log file NewProduction writes
// to, via lumberjack. Sizes are in megabytes, ages in days.
type ProductionOptions struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewProduction builds a Logger suitable for a long-running audio agent
// process: JSON-encoded, info level, writing to a size- and age-rotated
// file via lumberjack rather than growing an unbounded log on disk.
func NewProduction(opts ProductionOptions) (*ZapLogger, error) {
	rotator := &lumberjack.Logger{
		Filename:   opts.Filename,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(rotator),
		zapcore.InfoLevel,
	)
	base := zap.New(core)
	return NewZapLogger(base.Sugar()), nil
}

func (l *ZapLogger) Level() zapcore.Level {
	return l.SugaredLogger.Level()
}

func (l *ZapLogger) Tracef(_ context.Context, format string, args ...interface{}) {
	l.SugaredLogger.Debugf(format, args...)
}

func (l *ZapLogger) Benchmark(operation string, duration time.Duration) {
	l.SugaredLogger.Debugw("benchmark", "operation", operation, "duration", duration)
}
