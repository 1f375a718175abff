package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the client settings Livra reads at startup.
type Config struct {
	BackendURL string
	StatePath  string
	LogFile    string
	LogLevel   string
	LogFormat  string
}

// EnvBackendURL overrides backend_url when set.
const EnvBackendURL = "LIVRA_BACKEND_URL"

const (
	defaultConfigPath = "~/.config/livra/config.toml"
	defaultBackendURL = "http://127.0.0.1:8000"
	defaultStatePath  = "~/.config/livra/state.toml"
	defaultLogFile    = "~/.local/state/livra/livra.log"
	defaultLogLevel   = "info"
	defaultLogFormat  = "text"
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw struct {
		BackendURL string `toml:"backend_url"`
		StatePath  string `toml:"state_path"`
		LogFile    string `toml:"log_file"`
		LogLevel   string `toml:"log_level"`
		LogFormat  string `toml:"log_format"`
	}

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg := Config{
		BackendURL: orDefault(raw.BackendURL, defaultBackendURL),
		StatePath:  mustExpand(orDefault(raw.StatePath, defaultStatePath)),
		LogFile:    mustExpand(orDefault(raw.LogFile, defaultLogFile)),
		LogLevel:   strings.ToLower(orDefault(raw.LogLevel, defaultLogLevel)),
		LogFormat:  strings.ToLower(orDefault(raw.LogFormat, defaultLogFormat)),
	}
	if env := strings.TrimSpace(os.Getenv(EnvBackendURL)); env != "" {
		cfg.BackendURL = env
	}
	return cfg, nil
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
