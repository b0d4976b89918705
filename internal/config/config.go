// Package config provides configuration loading and structs for the solarlist server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug       bool           `yaml:"debug"`
	Server      ServerConfig   `yaml:"server"`
	Storage     StorageConfig  `yaml:"storage"`
	CatalogPath string         `yaml:"catalog_path"`
	Branding    BrandingConfig `yaml:"branding"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the history database and rendered documents.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	DocumentsDir string `yaml:"documents_dir"`
}

// BrandingConfig holds the company identity printed on generated documents.
type BrandingConfig struct {
	CompanyName string `yaml:"company_name"`
	LogoPath    string `yaml:"logo_path"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.DocumentsDir = expandPath(cfg.Storage.DocumentsDir, configDir)
	if cfg.CatalogPath != "" {
		cfg.CatalogPath = expandPath(cfg.CatalogPath, configDir)
	}
	if cfg.Branding.LogoPath != "" {
		cfg.Branding.LogoPath = expandPath(cfg.Branding.LogoPath, configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
