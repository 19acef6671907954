// Package logging builds the zap logger shared by every command.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger flavour.
type Options struct {
	Level   string // debug, info, warn, error
	JSON    bool   // production JSON encoding instead of console
	Verbose bool   // forces debug level
	// OutputPaths overrides the default stderr sink, e.g. a file while the
	// terminal UI owns the screen.
	OutputPaths []string
}

// ParseLevel maps a level name to a zap level. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return 0, fmt.Errorf("niveau de log inconnu %q", s)
	}
	return lvl, nil
}

// New builds a logger from opts.
func New(opts Options) (*zap.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		lvl = zapcore.DebugLevel
	}

	var config zap.Config
	if opts.JSON {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.Development = false
		config.DisableStacktrace = true
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	if len(opts.OutputPaths) > 0 {
		config.OutputPaths = opts.OutputPaths
		config.ErrorOutputPaths = opts.OutputPaths
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("initialisation du logger impossible: %w", err)
	}
	return logger, nil
}
