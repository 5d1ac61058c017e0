// ABOUTME: Patient-mcp configuration management.
// ABOUTME: JSON config under XDG paths plus storage and archive factories.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nmrastogi/patient-mcp/internal/archive"
	"github.com/nmrastogi/patient-mcp/internal/ingest"
	"github.com/nmrastogi/patient-mcp/internal/storage"
)

// DefaultListenAddr is where the HTTP receiver binds when unconfigured.
const DefaultListenAddr = ":5000"

// Config stores patient-mcp configuration.
type Config struct {
	// DataDir is the root directory for data storage. patient.db and the
	// archive/ directory live here. Supports ~ expansion. Defaults to
	// ~/.local/share/patient-mcp.
	DataDir string `json:"data_dir,omitempty"`

	// ListenAddr is the HTTP receiver bind address, defaulting to :5000.
	ListenAddr string `json:"listen_addr,omitempty"`

	// PatientID scopes every stored sample, defaulting to cgm_patient.
	PatientID string `json:"patient_id,omitempty"`
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetListenAddr returns the configured bind address or the default.
func (c *Config) GetListenAddr() string {
	if c.ListenAddr == "" {
		return DefaultListenAddr
	}
	return c.ListenAddr
}

// GetPatientID returns the configured patient or the default.
func (c *Config) GetPatientID() string {
	if c.PatientID == "" {
		return ingest.DefaultPatientID
	}
	return c.PatientID
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage opens the SQLite store under the configured data directory.
func (c *Config) OpenStorage() (*storage.DB, error) {
	dbPath := filepath.Join(c.GetDataDir(), "patient.db")
	return storage.Open(dbPath)
}

// OpenArchive opens the raw-batch archive under the configured data directory.
func (c *Config) OpenArchive() (*archive.Archive, error) {
	dir := filepath.Join(c.GetDataDir(), "archive")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return archive.Open(dir)
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "patient-mcp", "config.json")
}

// Load reads config from disk.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
