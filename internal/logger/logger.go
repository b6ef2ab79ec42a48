package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects how a binary logs
type Options struct {
	// Environment is production, development or test
	Environment string
	// Level overrides the environment default when set
	Level string
	// Service and Version are stamped on every entry
	Service string
	Version string
}

// New builds the process logger. Production writes sampled JSON with ISO8601
// timestamps; development and test write unsampled console output.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	switch opts.Environment {
	case "production":
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "development", "test":
		cfg = zap.NewDevelopmentConfig()
		cfg.Sampling = nil
	default:
		return nil, fmt.Errorf("logger: unknown environment %q", opts.Environment)
	}

	if opts.Level != "" {
		level, err := ParseLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	fields := make([]zap.Field, 0, 3)
	if opts.Service != "" {
		fields = append(fields, zap.String("service", opts.Service))
	}
	if opts.Version != "" {
		fields = append(fields, zap.String("version", opts.Version))
	}
	if opts.Environment == "production" {
		fields = append(fields, zap.String("env", opts.Environment))
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel), zap.Fields(fields...))
	if err != nil {
		return nil, fmt.Errorf("logger: build: %w", err)
	}
	return l, nil
}

// ParseLevel reads a logging.level value. It is case-insensitive and accepts
// "warning" for warn.
func ParseLevel(s string) (zapcore.Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warning" {
		name = "warn"
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return level, fmt.Errorf("logger: invalid level %q: %w", s, err)
	}
	switch level {
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return level, fmt.Errorf("logger: level %q is above error", s)
	}
	return level, nil
}
