package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/christopherklint97/nova/internal/nova"
)

type Config struct {
	Nova      NovaConfig     `toml:"nova"`
	Endpoints nova.Endpoints `toml:"endpoints"`
	Log       LogConfig      `toml:"log"`
}

type NovaConfig struct {
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	ClientID       string `toml:"client_id"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
}

// LogConfig controls the local activity log.
type LogConfig struct {
	Enabled bool   `toml:"enabled"`
	DBPath  string `toml:"db_path"` // empty means nova.db next to the config file
}

func DefaultConfig() Config {
	return Config{
		Nova: NovaConfig{
			ClientID:       nova.DefaultClientID,
			TimeoutSeconds: int(nova.DefaultTimeout / time.Second),
		},
		Endpoints: nova.DefaultEndpoints(),
		Log: LogConfig{
			Enabled: true,
		},
	}
}

// ClientOptions converts the file settings into options for nova.NewClient.
func (c *Config) ClientOptions() nova.Options {
	return nova.Options{
		Endpoints: c.Endpoints,
		ClientID:  c.Nova.ClientID,
		Timeout:   time.Duration(c.Nova.TimeoutSeconds) * time.Second,
		UserAgent: c.Nova.UserAgent,
	}
}

func (c *Config) Validate() error {
	if c.Nova.Username == "" || c.Nova.Password == "" {
		return fmt.Errorf("nova username and password must be set in the [nova] table")
	}
	if c.Nova.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative")
	}
	return c.Endpoints.WithDefaults().Validate()
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "nova"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config at path, or at ConfigPath when path is empty. A
// missing file yields DefaultConfig.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Endpoints = cfg.Endpoints.WithDefaults()
	if cfg.Log.DBPath == "" {
		cfg.Log.DBPath = filepath.Join(filepath.Dir(path), "nova.db")
	}

	return &cfg, nil
}

// WriteDefault writes DefaultConfig to path unless a file already exists there.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	out, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return false, fmt.Errorf("marshaling config: %w", err)
	}
	if err := writeFile(path, out); err != nil {
		return false, err
	}
	return true, nil
}

// SaveCredentials persists the username and password to the config file
// using a read-modify-write approach to preserve other settings.
func SaveCredentials(path, username, password string) error {
	cfg := make(map[string]any)

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}
	if len(data) > 0 {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	n, ok := cfg["nova"].(map[string]any)
	if !ok {
		n = make(map[string]any)
	}
	n["username"] = username
	n["password"] = password
	cfg["nova"] = n

	out, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return writeFile(path, out)
}

// writeFile replaces path atomically (tmp + rename) with 0600 permissions,
// since the file holds the password.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing temp config file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming config file: %w", err)
	}

	return nil
}
