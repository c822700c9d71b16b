package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NotNil(t, cfg.Logger)
	assert.False(t, cfg.Debug)
	assert.False(t, cfg.OverwriteExisting)
	assert.False(t, cfg.Compress)
}

func TestNewDebugConfig(t *testing.T) {
	cfg := NewDebugConfig()
	assert.NotNil(t, cfg.Logger)
	assert.True(t, cfg.Debug)
}

func TestConfigBuilders(t *testing.T) {
	logger := zap.NewNop()
	cfg := DefaultConfig().
		WithLogger(logger).
		WithOverwriteExisting(true).
		WithCompress(true)

	assert.Same(t, logger, cfg.Logger)
	assert.True(t, cfg.OverwriteExisting)
	assert.True(t, cfg.Compress)
}

func TestGetLoggerNeverNil(t *testing.T) {
	cfg := &Config{}
	assert.NotNil(t, cfg.GetLogger())
}
