package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects the log level and an optional rotated log file.
type Config struct {
	// Level is a zerolog level name: debug, info, warn or error.
	Level string `json:"level"`
	// File duplicates the log stream to a rotated file when set.
	File string `json:"file"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.File != "" && c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 50
	}
}

// Validate checks the level name and rotation bounds.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Level)); err != nil {
		return fmt.Errorf("logging level: %w", err)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("logging rotation values must be positive")
	}
	return nil
}

var (
	outMu  sync.RWMutex
	output io.Writer = os.Stdout
)

func currentOutput() io.Writer {
	outMu.RLock()
	defer outMu.RUnlock()
	return output
}

// Configure applies cfg to every logger created afterwards. The returned
// closer releases the log file, if any.
func Configure(cfg Config) (io.Closer, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lvl, _ := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	zerolog.SetGlobalLevel(lvl)

	var w io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		if dir := filepath.Dir(cfg.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		w = zerolog.MultiLevelWriter(os.Stdout, lj)
		closer = lj
	}
	outMu.Lock()
	output = w
	outMu.Unlock()
	return closer, nil
}

// SetOutput redirects loggers created afterwards to w. A nil writer restores
// standard output.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	outMu.Lock()
	output = w
	outMu.Unlock()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
