package config

import (
	"go.uber.org/zap"
)

// Config contains SDK common configuration
type Config struct {
	// Logger log instance, if nil will use default nop logger
	Logger *zap.Logger
	// Debug whether to enable debug mode
	Debug bool
	// OverwriteExisting whether to overwrite existing report files, default false
	// When false, writing a report that already exists returns an error
	// When true, directly overwrites the existing report
	OverwriteExisting bool
	// Compress whether to gzip report files before upload, default false
	Compress bool
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Logger: zap.NewNop(), // default use nop logger
		Debug:  false,
	}
}

// NewDebugConfig returns configuration with debug mode enabled
func NewDebugConfig() *Config {
	debugLogger, err := zap.NewDevelopment()
	if err != nil {
		debugLogger = zap.NewNop()
	}

	return &Config{
		Logger: debugLogger,
		Debug:  true,
	}
}

// WithLogger sets custom logger
func (c *Config) WithLogger(logger *zap.Logger) *Config {
	c.Logger = logger
	return c
}

// WithProductionLogger sets production environment logger
func (c *Config) WithProductionLogger() *Config {
	logger, err := zap.NewProduction()
	if err != nil {
		c.Logger = zap.NewNop()
	} else {
		c.Logger = logger
	}
	return c
}

// WithDevelopmentLogger sets debug logger
func (c *Config) WithDevelopmentLogger() *Config {
	devLogger, err := zap.NewDevelopment()
	if err != nil {
		return c
	}
	c.Logger = devLogger
	c.Debug = true
	return c
}

// GetLogger gets logger instance
func (c *Config) GetLogger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// WithOverwriteExisting sets whether to overwrite existing report files
func (c *Config) WithOverwriteExisting(overwrite bool) *Config {
	c.OverwriteExisting = overwrite
	return c
}

// WithCompress sets whether to gzip report files before upload
func (c *Config) WithCompress(compress bool) *Config {
	c.Compress = compress
	return c
}
