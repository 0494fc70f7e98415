// ABOUTME: Client and reference-backend configuration stored as TOML at XDG paths
// ABOUTME: Applies .env files and OMW_CRM_* environment overrides on top of the file
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// AppName names the XDG sub-directories used for config and data.
const AppName = "omw-crm"

type Config struct {
	API    APIConfig    `toml:"api"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// APIConfig controls how the client reaches the REST backend.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	PageSize       int    `toml:"page_size"`
	Verbose        bool   `toml:"verbose"`
}

// StoreConfig locates the local key/value store holding the session.
type StoreConfig struct {
	Path string `toml:"path"`
}

// ServerConfig is read by the reference backend (crmd).
type ServerConfig struct {
	Addr          string   `toml:"addr"`
	DBPath        string   `toml:"db_path"`
	AllowOrigins  []string `toml:"allow_origins"`
	TokenTTLHours int      `toml:"token_ttl_hours"`
}

func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:3001/api",
			TimeoutSeconds: 30,
			PageSize:       20,
		},
		Store: StoreConfig{
			Path: filepath.Join(xdg.DataHome, AppName, "store"),
		},
		Server: ServerConfig{
			Addr:          ":3001",
			DBPath:        filepath.Join(xdg.DataHome, AppName, "crmd.db"),
			AllowOrigins:  []string{"http://localhost:3000"},
			TokenTTLHours: 24 * 7,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/omw-crm/config.toml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.toml")
}

// Timeout is the HTTP client timeout.
func (a APIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// TokenTTL is how long a session token issued by the reference backend lives.
func (s ServerConfig) TokenTTL() time.Duration {
	if s.TokenTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.TokenTTLHours) * time.Hour
}

// Load reads the config file at path (DefaultPath when empty). A missing file
// yields defaults. A .env file in the working directory is loaded first, then
// OMW_CRM_* variables override file values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.API.BaseURL == "" {
		c.API.BaseURL = def.API.BaseURL
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.PageSize <= 0 {
		c.API.PageSize = def.API.PageSize
	}
	if c.Store.Path == "" {
		c.Store.Path = def.Store.Path
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.DBPath == "" {
		c.Server.DBPath = def.Server.DBPath
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OMW_CRM_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("OMW_CRM_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("OMW_CRM_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.PageSize = n
		}
	}
	if v := os.Getenv("OMW_CRM_VERBOSE"); v != "" {
		cfg.API.Verbose = v == "true" || v == "1"
	}
	if v := os.Getenv("OMW_CRM_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("OMW_CRM_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("OMW_CRM_DB_PATH"); v != "" {
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("OMW_CRM_CORS_ORIGINS"); v != "" {
		cfg.Server.AllowOrigins = strings.Split(v, ",")
	}
}

// Save writes the config as TOML with owner-only permissions.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
