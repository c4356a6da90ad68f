package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

type Settings struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	LLM      LLMConfig      `toml:"llm"`
	Redis    RedisConfig    `toml:"redis"`
	Chat     ChatConfig     `toml:"chat"`
	Log      LogConfig      `toml:"log"`
}

type ServerConfig struct {
	Addr           string        `toml:"addr"`
	AllowedOrigins []string      `toml:"allowed_origins"`
	ReadTimeout    time.Duration `toml:"read_timeout"`
	WriteTimeout   time.Duration `toml:"write_timeout"`
}

type DatabaseConfig struct {
	// Driver is "libsql" or "sqlite" (pure Go).
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
}

type LLMConfig struct {
	Enabled     bool          `toml:"enabled"`
	Provider    string        `toml:"provider"`
	URL         string        `toml:"url"`
	Model       string        `toml:"model"`
	APIKey      string        `toml:"api_key"`
	Timeout     time.Duration `toml:"timeout"`
	MaxTokens   int           `toml:"max_tokens"`
	Temperature float32       `toml:"temperature"`
}

type RedisConfig struct {
	Enabled  bool          `toml:"enabled"`
	Addr     string        `toml:"addr"`
	Password string        `toml:"password"`
	DB       int           `toml:"db"`
	Prefix   string        `toml:"prefix"`
	TTL      time.Duration `toml:"ttl"`
}

type ChatConfig struct {
	HistoryLimit int `toml:"history_limit"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultSettings returns the settings used when no config file exists
func DefaultSettings() *Settings {
	dbPath := "buddy.db"
	if dataDir, err := GetDataDir(); err == nil {
		dbPath = filepath.Join(dataDir, "buddy.db")
	}

	return &Settings{
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"*"},
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "libsql",
			Path:   dbPath,
		},
		LLM: LLMConfig{
			Enabled:     false,
			Provider:    "ollama",
			URL:         "http://localhost:11434",
			Model:       "phi3:mini",
			Timeout:     30 * time.Second,
			MaxTokens:   100,
			Temperature: 0.8,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			Prefix:  "buddy",
			TTL:     24 * time.Hour,
		},
		Chat: ChatConfig{
			HistoryLimit: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadSettings reads config.toml from the config directory
func LoadSettings() (*Settings, error) {
	configPath, err := GetConfigFile()
	if err != nil {
		return DefaultSettings(), nil
	}
	return LoadSettingsFrom(configPath)
}

// LoadSettingsFrom reads settings from path, layered over the defaults
func LoadSettingsFrom(path string) (*Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, err
	}

	if _, err := toml.Decode(string(data), settings); err != nil {
		return nil, err
	}

	return settings, nil
}
