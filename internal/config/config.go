// Package config loads server configuration from JSONC files and the
// environment.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/tidwall/jsonc"

	"github.com/codementor-ai/codementor/pkg/types"
)

const (
	// DefaultModel is used when no model is configured anywhere.
	DefaultModel = "anthropic/claude-3.7-sonnet"
	// DefaultBaseURL is the OpenRouter chat completions endpoint root.
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultPort is the HTTP listen port.
	DefaultPort = 8000
	// DefaultIdleTimeoutMinutes is how long an untouched session survives.
	DefaultIdleTimeoutMinutes = 120
)

// Load loads configuration from multiple sources (priority order):
//  1. Global config (~/.config/codementor/codementor.jsonc)
//  2. Project config (./codementor.jsonc, ./codementor.json)
//  3. Environment variables
func Load(directory string) (*types.Config, error) {
	config := &types.Config{}

	if home := os.Getenv("HOME"); home != "" {
		globalDir := filepath.Join(home, ".config", "codementor")
		loadConfigFile(filepath.Join(globalDir, "codementor.jsonc"), config)
		loadConfigFile(filepath.Join(globalDir, "codementor.json"), config)
	}

	if directory != "" {
		loadConfigFile(filepath.Join(directory, "codementor.jsonc"), config)
		loadConfigFile(filepath.Join(directory, "codementor.json"), config)
	}

	applyEnvOverrides(config)
	applyDefaults(config)

	return config, nil
}

// loadConfigFile loads a single config file with {env:VAR} interpolation.
// Missing files are skipped.
func loadConfigFile(path string, config *types.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	data = jsonc.ToJSON(data)
	data = interpolate(data)

	var fileConfig types.Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return err
	}

	mergeConfig(config, &fileConfig)
	return nil
}

var envPattern = regexp.MustCompile(`\{env:([^}]+)\}`)

// interpolate replaces {env:VAR_NAME} placeholders with environment values.
func interpolate(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(varName)))
	})
}

// mergeConfig merges source config into target. Later sources win.
func mergeConfig(target, source *types.Config) {
	if source.Schema != "" {
		target.Schema = source.Schema
	}
	if source.Model != "" {
		target.Model = source.Model
	}
	if source.Temperature != 0 {
		target.Temperature = source.Temperature
	}
	if source.Port != 0 {
		target.Port = source.Port
	}
	if len(source.AllowedOrigins) > 0 {
		target.AllowedOrigins = source.AllowedOrigins
	}
	if source.SessionIdleTimeout != nil {
		target.SessionIdleTimeout = source.SessionIdleTimeout
	}
	if source.Provider.APIKey != "" {
		target.Provider.APIKey = source.Provider.APIKey
	}
	if source.Provider.BaseURL != "" {
		target.Provider.BaseURL = source.Provider.BaseURL
	}
	if source.Provider.Referer != "" {
		target.Provider.Referer = source.Provider.Referer
	}
	if source.Provider.Title != "" {
		target.Provider.Title = source.Provider.Title
	}
}

// applyEnvOverrides applies environment variable overrides (highest priority).
func applyEnvOverrides(config *types.Config) {
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		config.Provider.APIKey = key
	}
	if baseURL := os.Getenv("OPENROUTER_BASE_URL"); baseURL != "" {
		config.Provider.BaseURL = baseURL
	}
	if model := os.Getenv("CODEMENTOR_MODEL"); model != "" {
		config.Model = model
	}
	if port := os.Getenv("CODEMENTOR_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Port = p
		}
	}
}

// applyDefaults fills in defaults for anything still unset.
func applyDefaults(config *types.Config) {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Provider.BaseURL == "" {
		config.Provider.BaseURL = DefaultBaseURL
	}
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.SessionIdleTimeout == nil {
		minutes := DefaultIdleTimeoutMinutes
		config.SessionIdleTimeout = &minutes
	}
	if config.Temperature == 0 {
		config.Temperature = 0.2
	}
}
