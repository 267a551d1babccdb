// Package config provides configuration loading and management for priomatrix.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/spektr-org/priomatrix/dataset"
	"github.com/spektr-org/priomatrix/engine"
	"github.com/spektr-org/priomatrix/helpers"
	"github.com/spektr-org/priomatrix/render"
)

// Output formats understood by the CLI.
const (
	FormatTable  = "table"
	FormatJSON   = "json"
	FormatPretty = "pretty"
	FormatCSV    = "csv"
)

// Config represents the complete priomatrix configuration
type Config struct {
	Selection SelectionConfig `yaml:"selection"`
	Ranking   RankingConfig   `yaml:"ranking"`
	Histogram HistogramConfig `yaml:"histogram"`
	Output    OutputConfig    `yaml:"output"`
	Chart     ChartConfig     `yaml:"chart"`
	Server    ServerConfig    `yaml:"server"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Log       LogConfig       `yaml:"log"`
}

// SelectionConfig is the initial selection. A nil list means the catalog
// default; an explicit empty list selects nothing.
type SelectionConfig struct {
	Sources    []string `yaml:"sources,omitempty"`
	Categories []string `yaml:"categories,omitempty"`
	Principles []string `yaml:"principles,omitempty"`
	Mode       string   `yaml:"mode"`
}

// RankingConfig configures the top/bottom lists
type RankingConfig struct {
	// Top is the length of each ranking list (default: 10)
	Top int `yaml:"top"`
}

// HistogramConfig configures the distribution charts
type HistogramConfig struct {
	Bins int `yaml:"bins"`
}

// OutputConfig configures CLI output
type OutputConfig struct {
	// Format is one of table, json, pretty, csv
	Format string `yaml:"format"`
	// File is the CSV artifact written by the export command
	File string `yaml:"file"`
}

// ChartConfig configures rendered images
type ChartConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Format string `yaml:"format"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

// DatasetConfig points at an alternative principle catalog
type DatasetConfig struct {
	// Path to a catalog YAML file (empty = embedded dataset)
	Path string `yaml:"path"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Selection: SelectionConfig{
			Mode: string(engine.ModeRaw),
		},
		Ranking:   RankingConfig{Top: engine.DefaultTopN},
		Histogram: HistogramConfig{Bins: engine.DefaultHistogramBins},
		Output: OutputConfig{
			Format: FormatTable,
			File:   helpers.DefaultFileName,
		},
		Chart: ChartConfig{
			Width:  render.DefaultWidth,
			Height: render.DefaultHeight,
			Format: string(render.PNG),
		},
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if _, err := engine.ParseMode(c.Selection.Mode); err != nil {
		return fmt.Errorf("selection.mode: %w", err)
	}
	if c.Ranking.Top <= 0 {
		return fmt.Errorf("ranking.top must be positive")
	}
	if c.Histogram.Bins <= 0 || c.Histogram.Bins > 100 {
		return fmt.Errorf("histogram.bins must be between 1 and 100")
	}
	switch c.Output.Format {
	case FormatTable, FormatJSON, FormatPretty, FormatCSV:
	default:
		return fmt.Errorf("output.format must be one of table, json, pretty, csv")
	}
	if c.Output.File == "" {
		return fmt.Errorf("output.file is required")
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart.width and chart.height must be positive")
	}
	if _, err := render.ParseFormat(c.Chart.Format); err != nil {
		return fmt.Errorf("chart.format: %w", err)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values; selection lists override whenever they are non-nil)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Selection
	if other.Selection.Sources != nil {
		c.Selection.Sources = other.Selection.Sources
	}
	if other.Selection.Categories != nil {
		c.Selection.Categories = other.Selection.Categories
	}
	if other.Selection.Principles != nil {
		c.Selection.Principles = other.Selection.Principles
	}
	if other.Selection.Mode != "" {
		c.Selection.Mode = other.Selection.Mode
	}

	if other.Ranking.Top != 0 {
		c.Ranking.Top = other.Ranking.Top
	}
	if other.Histogram.Bins != 0 {
		c.Histogram.Bins = other.Histogram.Bins
	}

	// Output
	if other.Output.Format != "" {
		c.Output.Format = other.Output.Format
	}
	if other.Output.File != "" {
		c.Output.File = other.Output.File
	}

	// Chart
	if other.Chart.Width != 0 {
		c.Chart.Width = other.Chart.Width
	}
	if other.Chart.Height != 0 {
		c.Chart.Height = other.Chart.Height
	}
	if other.Chart.Format != "" {
		c.Chart.Format = other.Chart.Format
	}

	// Server
	if other.Server.Addr != "" {
		c.Server.Addr = other.Server.Addr
	}
	if other.Server.ReadHeaderTimeout != 0 {
		c.Server.ReadHeaderTimeout = other.Server.ReadHeaderTimeout
	}
	if other.Server.ShutdownTimeout != 0 {
		c.Server.ShutdownTimeout = other.Server.ShutdownTimeout
	}

	if other.Dataset.Path != "" {
		c.Dataset.Path = other.Dataset.Path
	}
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}

// ============================================================================
// RESOLUTION — Config → catalog, selection, engine options
// ============================================================================

// Catalog returns the embedded dataset or the one at Dataset.Path.
func (c *Config) Catalog() (*dataset.Catalog, error) {
	if c.Dataset.Path == "" {
		return dataset.Default(), nil
	}
	data, err := os.ReadFile(c.Dataset.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	return dataset.Parse(data)
}

// EngineSelection fills nil lists from the catalog defaults. Identifiers
// are resolved later by the engine.
func (c *Config) EngineSelection(cat *dataset.Catalog) engine.Selection {
	sel := engine.DefaultSelection(cat)
	if c.Selection.Sources != nil {
		sel.Sources = c.Selection.Sources
	}
	if c.Selection.Categories != nil {
		sel.Categories = c.Selection.Categories
	}
	if c.Selection.Principles != nil {
		sel.Principles = c.Selection.Principles
	}
	sel.Mode = engine.Mode(c.Selection.Mode)
	return sel
}

// EngineOptions maps the ranking and histogram settings onto engine options.
func (c *Config) EngineOptions(logger *zap.Logger) []engine.Option {
	opts := []engine.Option{
		engine.WithTopN(c.Ranking.Top),
		engine.WithHistogramBins(c.Histogram.Bins),
	}
	if logger != nil {
		opts = append(opts, engine.WithLogger(logger))
	}
	return opts
}

// Level returns the configured log level, falling back to info.
func (c *Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
