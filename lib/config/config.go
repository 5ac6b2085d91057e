// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable [Load] reads the config path
// from.
const EnvVar = "GRIDKIT_CONFIG"

// Rendering modes for GridConfig.Mode.
const (
	// ModeVirtual renders only the rows in the viewport.
	ModeVirtual = "virtual"
	// ModeFlow renders every loaded row in order.
	ModeFlow = "flow"
)

// Measurement settings for GridConfig.Measurement.
const (
	// MeasureAuto measures rows unless the terminal cannot report
	// rendered sizes reliably.
	MeasureAuto = "auto"
	MeasureOn   = "on"
	MeasureOff  = "off"
)

// Config is the complete gridkit configuration.
type Config struct {
	// Source selects where rows come from. Command-line flags take
	// precedence over these values.
	Source SourceConfig `yaml:"source" json:"source"`

	// Grid holds the grid's behavior defaults.
	Grid GridConfig `yaml:"grid" json:"grid"`

	// Columns lists the displayed columns in order. Empty means one
	// column per field the source reports.
	Columns []ColumnConfig `yaml:"columns" json:"columns"`

	// Log configures diagnostics.
	Log LogConfig `yaml:"log" json:"log"`
}

// SourceConfig selects and configures the row source. At most one of
// File, SQLite and Socket may be set.
type SourceConfig struct {
	// File is a JSONL file, watched for changes.
	File string `yaml:"file" json:"file"`

	// SQLite is a database file; Table names the table to show.
	SQLite string `yaml:"sqlite" json:"sqlite"`
	Table  string `yaml:"table" json:"table"`

	// Socket is the unix socket of a gridkit source server.
	Socket string `yaml:"socket" json:"socket"`

	// KeyField is the field (or column) holding each row's key.
	// Default: id for JSONL, the table's rowid for SQLite.
	KeyField string `yaml:"key_field" json:"key_field"`

	// DetailField is shown as markdown in a row's expansion panel.
	DetailField string `yaml:"detail_field" json:"detail_field"`

	// SearchFields limits what the filter matches against.
	SearchFields []string `yaml:"search_fields" json:"search_fields"`
}

// GridConfig holds the grid defaults.
type GridConfig struct {
	// PageSize is the number of rows fetched per page.
	// Default: 50
	PageSize int `yaml:"page_size" json:"page_size"`

	// EstimateRowHeight is the height assumed for rows not yet
	// rendered.
	// Default: 1
	EstimateRowHeight int `yaml:"estimate_row_height" json:"estimate_row_height"`

	// Overscan is the number of rows rendered beyond each edge of the
	// viewport. Negative disables overscan.
	// Default: 10
	Overscan int `yaml:"overscan" json:"overscan"`

	// ThresholdLines, when positive, is the distance from the bottom
	// at which the next page is requested. Otherwise
	// ThresholdFraction of the viewport height is used.
	ThresholdLines    int     `yaml:"threshold_lines" json:"threshold_lines"`
	ThresholdFraction float64 `yaml:"threshold_fraction" json:"threshold_fraction"`

	// MultiSort keeps other sorted columns when one is toggled;
	// EnableRemoval lets a third toggle remove a column's sort.
	MultiSort     bool `yaml:"multi_sort" json:"multi_sort"`
	EnableRemoval bool `yaml:"enable_removal" json:"enable_removal"`

	// Mode is "virtual" or "flow".
	// Default: virtual
	Mode string `yaml:"mode" json:"mode"`

	// Measurement is "auto", "on" or "off".
	// Default: auto
	Measurement string `yaml:"measurement" json:"measurement"`

	// Sort is the initial sort as a query string, for example
	// "sort=NAME_ASC&sort=AGE_DESC".
	Sort string `yaml:"sort" json:"sort"`

	// EmptyText replaces the table when no rows match.
	EmptyText string `yaml:"empty_text" json:"empty_text"`
}

// ColumnConfig describes one displayed column.
type ColumnConfig struct {
	// Field is the record field shown. Required and unique.
	Field string `yaml:"field" json:"field"`

	// Title is the header label. Default: Field.
	Title string `yaml:"title" json:"title"`

	// Width in cells; zero shares the remaining width.
	Width int `yaml:"width" json:"width"`

	// SortKey is the ascending sort token, such as CREATED_AT_ASC.
	// Empty derives it from Field; "-" makes the column unsortable.
	SortKey string `yaml:"sort_key" json:"sort_key"`

	// Wrap lets long values wrap instead of being truncated.
	Wrap bool `yaml:"wrap" json:"wrap"`

	// Align is "left", "right" or "center".
	// Default: left
	Align string `yaml:"align" json:"align"`
}

// Sortable reports whether the column may be sorted.
func (column ColumnConfig) Sortable() bool {
	return column.SortKey != "-"
}

// LogConfig configures diagnostics.
type LogConfig struct {
	// Level is debug, info, warn or error.
	// Default: info
	Level string `yaml:"level" json:"level"`

	// Output is a file receiving every record as JSON. Empty disables.
	Output string `yaml:"output" json:"output"`
}

// SlogLevel parses Level. Validate has already rejected bad values.
func (log LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Default returns the default configuration. Loaded files are merged
// over it, so every field a file omits keeps its default.
func Default() *Config {
	return &Config{
		Grid: GridConfig{
			PageSize:          50,
			EstimateRowHeight: 1,
			Overscan:          10,
			ThresholdFraction: 0.2,
			Mode:              ModeVirtual,
			Measurement:       MeasureAuto,
			EmptyText:         "No rows.",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the file named by GRIDKIT_CONFIG.
// There is no fallback: an unset variable is an error.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvVar)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your gridkit config file, or use --config", EnvVar)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path over the defaults, expands
// path variables and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// loadFile decodes one file into the config, choosing the format by
// extension.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(c); err != nil {
			return fmt.Errorf("config: parsing %s: %w", path, err)
		}
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		// An empty file decodes to io.EOF and leaves the defaults.
		if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Source.File = expandVars(c.Source.File, vars)
	c.Source.SQLite = expandVars(c.Source.SQLite, vars)
	c.Source.Socket = expandVars(c.Source.Socket, vars)
	c.Log.Output = expandVars(c.Log.Output, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// sortKeyPattern matches an ascending or descending sort token.
var sortKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*_(ASC|DESC)$`)

// Validate checks the configuration, reporting every problem found.
func (c *Config) Validate() error {
	var errs []error

	sources := 0
	for _, value := range []string{c.Source.File, c.Source.SQLite, c.Source.Socket} {
		if value != "" {
			sources++
		}
	}
	if sources > 1 {
		errs = append(errs, fmt.Errorf("source: only one of file, sqlite and socket may be set"))
	}
	if c.Source.SQLite != "" && c.Source.Table == "" {
		errs = append(errs, fmt.Errorf("source.table is required with source.sqlite"))
	}

	if c.Grid.PageSize < 1 {
		errs = append(errs, fmt.Errorf("grid.page_size must be at least 1, got %d", c.Grid.PageSize))
	}
	if c.Grid.EstimateRowHeight < 1 {
		errs = append(errs, fmt.Errorf("grid.estimate_row_height must be at least 1, got %d", c.Grid.EstimateRowHeight))
	}
	if c.Grid.ThresholdLines < 0 {
		errs = append(errs, fmt.Errorf("grid.threshold_lines must not be negative"))
	}
	if c.Grid.ThresholdFraction < 0 || c.Grid.ThresholdFraction >= 1 {
		errs = append(errs, fmt.Errorf("grid.threshold_fraction must be in [0, 1), got %g", c.Grid.ThresholdFraction))
	}
	if modes := []string{ModeVirtual, ModeFlow}; !slices.Contains(modes, c.Grid.Mode) {
		errs = append(errs, fmt.Errorf("grid.mode must be one of: %v", modes))
	}
	if settings := []string{MeasureAuto, MeasureOn, MeasureOff}; !slices.Contains(settings, c.Grid.Measurement) {
		errs = append(errs, fmt.Errorf("grid.measurement must be one of: %v", settings))
	}

	seen := make(map[string]bool, len(c.Columns))
	alignments := []string{"", "left", "right", "center"}
	for index, column := range c.Columns {
		if column.Field == "" {
			errs = append(errs, fmt.Errorf("columns[%d].field is required", index))
			continue
		}
		if seen[column.Field] {
			errs = append(errs, fmt.Errorf("columns[%d]: duplicate field %q", index, column.Field))
		}
		seen[column.Field] = true
		if column.Width < 0 {
			errs = append(errs, fmt.Errorf("columns[%d].width must not be negative", index))
		}
		if column.SortKey != "" && column.Sortable() && !sortKeyPattern.MatchString(column.SortKey) {
			errs = append(errs, fmt.Errorf("columns[%d].sort_key %q must look like FIELD_ASC", index, column.SortKey))
		}
		if !slices.Contains(alignments, column.Align) {
			errs = append(errs, fmt.Errorf("columns[%d].align must be one of: left, right, center", index))
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}

// Flow reports whether the grid renders in flow mode.
func (grid GridConfig) Flow() bool {
	return grid.Mode == ModeFlow
}

// MeasureRows resolves Measurement against whether the terminal
// supports measuring.
func (grid GridConfig) MeasureRows(supported bool) bool {
	switch grid.Measurement {
	case MeasureOn:
		return true
	case MeasureOff:
		return false
	default:
		return supported
	}
}
