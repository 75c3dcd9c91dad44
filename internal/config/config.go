package config

import (
	"os"
	"strconv"
	"strings"

	"psychoplot/domain/significance"
	"psychoplot/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Render   RenderConfig
	Input    InputConfig
	Heatmap  HeatmapConfig
	Server   ServerConfig
	LogLevel string
}

// RenderConfig controls where and how figures are written
type RenderConfig struct {
	OutputDir string
	Format    string
	CellSize  float64 // curve panel edge in inches
}

// InputConfig holds table loading settings
type InputConfig struct {
	XLSXSheet string
	Transpose bool
}

// HeatmapConfig holds the significance levels used when none are given explicitly
type HeatmapConfig struct {
	Levels   []float64
	FontSize float64 // annotation and tick label size in points
}

// ServerConfig holds figure viewer settings
type ServerConfig struct {
	Port string
}

var supportedFormats = map[string]bool{
	"png": true, "svg": true, "pdf": true, "jpg": true, "jpeg": true,
	"tif": true, "tiff": true, "eps": true,
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	levels := significance.DefaultLevels()
	if raw := os.Getenv("SIGNIFICANCE_LEVELS"); raw != "" {
		parsed, err := significance.ParseLevels(raw)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse SIGNIFICANCE_LEVELS")
		}
		levels = parsed
	}

	cellSize, err := getEnvFloatOrDefault("CURVE_CELL_SIZE", 1.5)
	if err != nil {
		return nil, err
	}
	fontSize, err := getEnvFloatOrDefault("HEATMAP_FONT_SIZE", 13)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Render: RenderConfig{
			OutputDir: getEnvOrDefault("OUTPUT_DIR", "."),
			Format:    strings.ToLower(getEnvOrDefault("FIGURE_FORMAT", "png")),
			CellSize:  cellSize,
		},
		Input: InputConfig{
			XLSXSheet: getEnvOrDefault("XLSX_SHEET", ""),
			Transpose: getEnvBoolOrDefault("TRANSPOSE_MATRICES", false),
		},
		Heatmap:  HeatmapConfig{Levels: levels, FontSize: fontSize},
		Server:   ServerConfig{Port: getEnvOrDefault("PORT", "8080")},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if !supportedFormats[config.Render.Format] {
		return errors.ConfigInvalid("unsupported FIGURE_FORMAT " + strconv.Quote(config.Render.Format))
	}
	if config.Render.CellSize <= 0 {
		return errors.ConfigInvalid("CURVE_CELL_SIZE must be positive")
	}
	if config.Heatmap.FontSize <= 0 {
		return errors.ConfigInvalid("HEATMAP_FONT_SIZE must be positive")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if _, err := strconv.Atoi(config.Server.Port); err != nil {
		return errors.ConfigInvalid("PORT must be numeric")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, errors.ConfigInvalid(key + " must be a number, got " + strconv.Quote(value))
	}
	return f, nil
}
