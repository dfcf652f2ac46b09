package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/GriffinCanCode/playground/internal/shared/id"
)

// Logger is the zap logger handed to every component
type Logger struct {
	*zap.Logger
}

// Config selects level, encoding and destination
type Config struct {
	Level       string // "debug", "info", "warn", "error"; empty means info
	Development bool
	Output      zapcore.WriteSyncer // stdout when nil
}

// New builds a logger. Development mode writes colored console lines and
// attaches stack traces from warn up; production writes JSON.
func New(cfg Config) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	out := cfg.Output
	if out == nil {
		out = zapcore.Lock(os.Stdout)
	}

	core := zapcore.NewCore(encoder(cfg.Development), out, zap.NewAtomicLevelAt(level))
	opts := []zap.Option{zap.AddCaller(), zap.ErrorOutput(zapcore.Lock(os.Stderr))}
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	} else {
		opts = append(opts, zap.AddStacktrace(zapcore.DPanicLevel))
	}
	return &Logger{Logger: zap.New(core, opts...)}, nil
}

// NewFromLevel builds a stdout logger, falling back to a no-op logger when
// the level cannot be parsed.
func NewFromLevel(level string, development bool) *Logger {
	logger, err := New(Config{Level: level, Development: development})
	if err != nil {
		return NewNop()
	}
	return logger
}

// NewCLI builds a console logger on stderr so it never mixes with artifacts
// written to stdout.
func NewCLI(level string) *Logger {
	logger, err := New(Config{Level: level, Development: true, Output: zapcore.Lock(os.Stderr)})
	if err != nil {
		return NewNop()
	}
	return logger
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Named returns a child logger scoped to a component
func (l *Logger) Named(component string) *Logger {
	return &Logger{Logger: l.Logger.Named(component)}
}

// With returns a child logger carrying fields
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// ForBuild tags every line with the build ID
func (l *Logger) ForBuild(build id.BuildID) *Logger {
	return l.With(zap.String("build_id", build.String()))
}

// ForRun tags every line with the session and its run number
func (l *Logger) ForRun(session id.SessionID, run uint64) *Logger {
	return l.With(zap.String("session_id", session.String()), zap.Uint64("run", run))
}

func encoder(development bool) zapcore.Encoder {
	if development {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		return zapcore.NewConsoleEncoder(cfg)
	}

	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.MillisDurationEncoder
	return zapcore.NewJSONEncoder(cfg)
}
