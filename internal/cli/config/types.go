// Package config provides configuration management for the MiniSQL CLI.
package config

import (
	"fmt"
	"log/slog"
	"slices"
)

// Config holds all CLI configuration options.
type Config struct {
	DataDir     string   `koanf:"data_dir"`
	Output      string   `koanf:"output"`
	Color       string   `koanf:"color"`
	HistoryFile string   `koanf:"history_file"`
	LogLevel    string   `koanf:"log_level"`
	Verbose     bool     `koanf:"verbose"`
	Autoload    []string `koanf:"autoload"`
	Prompt      string   `koanf:"prompt"`
}

// Default configuration values.
const (
	DefaultDataDir     = "."
	DefaultOutput      = "table"
	DefaultColor       = "auto"
	DefaultHistoryFile = "~/.minisql_history"
	DefaultLogLevel    = "warn"
	DefaultPrompt      = "minisql> "
)

// Accepted values for the enumerated keys.
var (
	OutputFormats = []string{"table", "json", "csv", "markdown"}
	ColorModes    = []string{"auto", "always", "never"}
	LogLevels     = []string{"debug", "info", "warn", "error"}
)

// Default returns a Config populated with the default values.
func Default() *Config {
	return &Config{
		DataDir:     DefaultDataDir,
		Output:      DefaultOutput,
		Color:       DefaultColor,
		HistoryFile: DefaultHistoryFile,
		LogLevel:    DefaultLogLevel,
		Prompt:      DefaultPrompt,
	}
}

// Validate checks the enumerated keys.
func (c *Config) Validate() error {
	if !slices.Contains(OutputFormats, c.Output) {
		return fmt.Errorf("invalid output %q: expected one of %v", c.Output, OutputFormats)
	}
	if !slices.Contains(ColorModes, c.Color) {
		return fmt.Errorf("invalid color %q: expected one of %v", c.Color, ColorModes)
	}
	if !slices.Contains(LogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log_level %q: expected one of %v", c.LogLevel, LogLevels)
	}
	return nil
}

// Level returns the slog level for the configuration. Verbose forces debug.
func (c *Config) Level() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return l
}
