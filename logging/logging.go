// Package logging builds the application logger. The terminal belongs to the
// UI, so logs go to a file.
package logging

import (
	"github.com/adrg/xdg"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logFile = "netsuji/netsuji.log"

// New returns a JSON logger writing to the xdg state dir at the given level.
func New(level string) (*zap.Logger, error) {
	absPath, err := xdg.StateFile(logFile)
	if err != nil {
		return nil, err
	}
	return NewFile(absPath, level)
}

// NewFile returns a JSON logger appending to path.
func NewFile(path, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	encoder := zap.NewProductionEncoderConfig()
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         "json",
		EncoderConfig:    encoder,
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{path},
	}
	return cfg.Build()
}
