package internal

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppName is the application directory name.
const AppName = "taskdeck"

// ConfigFile is the optional YAML configuration filename.
const ConfigFile = "config.yaml"

// Config holds client configuration: backend location, timeouts and the
// config directory holding the token files.
type Config struct {
	ServerURL      string `yaml:"server_url"`
	RequestTimeout int    `yaml:"request_timeout_seconds"`
	ChatTimeout    int    `yaml:"chat_timeout_seconds"`

	Dir string `yaml:"-"`
}

// DefaultConfigDir returns XDG_CONFIG_HOME/taskdeck, falling back to
// $HOME/.config/taskdeck.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// DefaultCacheDir returns the offline cache location.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName + "-cache"
	}
	return filepath.Join(home, "."+AppName+"-cache")
}

// LoadConfig builds the configuration for the given directory (empty means
// the default). Resolution order: defaults, config.yaml, then environment
// (a .env file in the working directory is honored).
func LoadConfig(dir string) (*Config, error) {
	if dir == "" {
		dir = DefaultConfigDir()
	}

	cfg := &Config{
		ServerURL:      "http://localhost:8000",
		RequestTimeout: int(DefaultRequestTimeout / time.Second),
		ChatTimeout:    int(DefaultChatTimeout / time.Second),
		Dir:            dir,
	}

	path := filepath.Join(dir, ConfigFile)
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		cfg.Dir = dir
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// .env is optional; ignore a missing file.
	if err := godotenv.Load(); err == nil {
		LogDebug("Loaded environment from .env")
	}
	if url := os.Getenv("TASKDECK_SERVER_URL"); url != "" {
		cfg.ServerURL = url
	}

	return cfg, nil
}

// EnsureDir creates the config directory with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// RequestTimeoutDuration returns the task/auth call timeout.
func (c *Config) RequestTimeoutDuration() time.Duration {
	if c.RequestTimeout <= 0 {
		return DefaultRequestTimeout
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

// ChatTimeoutDuration returns the chat call timeout.
func (c *Config) ChatTimeoutDuration() time.Duration {
	if c.ChatTimeout <= 0 {
		return DefaultChatTimeout
	}
	return time.Duration(c.ChatTimeout) * time.Second
}
