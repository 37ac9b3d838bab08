package tlog

import (
	"fmt"
	"testing"

	"github.com/ridge/must/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// New creates a top-level logger writing to stderr
func New(config Config) *zap.Logger {
	ec := DefaultEncoderConfig
	var encoding string
	development := true
	switch config.Format {
	case FormatJSON:
		encoding = "json"
		development = false
	case FormatText:
		encoding = "console"
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		if useColor(config.Color) {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	default:
		panic(fmt.Errorf("unexpected --log-format value: %s", config.Format))
	}

	level := zapcore.InfoLevel
	if config.Verbose {
		level = zapcore.DebugLevel
	}

	logger := must.OK1(zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      development,
		Encoding:         encoding,
		EncoderConfig:    ec,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}.Build())

	if config.Name != "" {
		logger = logger.Named(config.Name)
	}
	return logger
}

func useColor(color Color) bool {
	switch color {
	case ColorYes:
		return true
	case ColorNo:
		return false
	case ColorAuto:
		return term.IsTerminal(unix.Stderr)
	default:
		panic(fmt.Errorf("unexpected --log-color value: %s", color))
	}
}

// NewForTesting creates a verbose text logger for unit tests
func NewForTesting(t *testing.T) *zap.Logger {
	return New(Config{
		Name:    t.Name(),
		Format:  FormatText,
		Color:   ColorAuto,
		Verbose: true,
	})
}
