package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "buddy"

// GetConfigDir returns the OS-appropriate configuration directory for buddy
func GetConfigDir() (string, error) {
	if xdg.ConfigHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(homeDir, ".config", appName), nil
	}
	return filepath.Join(xdg.ConfigHome, appName), nil
}

// GetDataDir returns the directory holding the database and pid file
func GetDataDir() (string, error) {
	if xdg.DataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(homeDir, ".local", "share", appName), nil
	}
	return filepath.Join(xdg.DataHome, appName), nil
}

// GetPersonasDir returns the directory where custom persona templates are stored
func GetPersonasDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "personas"), nil
}

// GetConfigFile returns the default settings file path
func GetConfigFile() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// EnsureDirs creates the config, personas and data directories if they don't exist
func EnsureDirs() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	personasDir, err := GetPersonasDir()
	if err != nil {
		return err
	}

	dataDir, err := GetDataDir()
	if err != nil {
		return err
	}

	for _, dir := range []string{configDir, personasDir, dataDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}
