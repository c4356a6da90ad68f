package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"buddy/src/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage buddy configuration",
	Long: `Manage buddy configuration settings.

Examples:
  buddy config get llm.model
  buddy config set llm.enabled true
  buddy config set redis.addr localhost:6379
  buddy config list
  buddy config path
  buddy config edit`,
}

// configGetCmd represents the config get command
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if value := viper.Get(key); value != nil && fmt.Sprint(value) != "" {
			fmt.Println(value)
			return nil
		}

		settings, err := loadSettings()
		if err != nil {
			return err
		}
		value, ok := settingsMap(settings)[key]
		if !ok {
			return fmt.Errorf("key '%s' not found", key)
		}
		fmt.Println(value)
		return nil
	},
}

// configSetCmd represents the config set command
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		value := args[1]

		viper.Set(key, parseValue(value))

		configFile, err := configFilePath()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
			return err
		}

		if err := viper.WriteConfigAs(configFile); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		fmt.Printf("Set %s = %v\n", key, value)
		fmt.Printf("Config saved to %s\n", configFile)
		return nil
	},
}

// configListCmd represents the config list command
var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration values, defaults included",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		flattened := settingsMap(settings)

		keys := make([]string, 0, len(flattened))
		for k := range flattened {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Println("Configuration settings:")
		for _, key := range keys {
			fmt.Printf("  %s = %v\n", key, flattened[key])
		}

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Printf("\nConfig file: %s\n", configFile)
		}
		return nil
	},
}

// configPathCmd prints the config file location
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, err := configFilePath()
		if err != nil {
			return err
		}
		fmt.Println(configFile)
		return nil
	},
}

// configEditCmd represents the config edit command
var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file in your default editor",
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, err := configFilePath()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
			return err
		}
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			if err := os.WriteFile(configFile, []byte("# buddy configuration file\n"), 0644); err != nil {
				return err
			}
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = os.Getenv("VISUAL")
		}
		if editor == "" {
			for _, e := range []string{"vim", "vi", "nano", "emacs"} {
				if _, err := exec.LookPath(e); err == nil {
					editor = e
					break
				}
			}
		}
		if editor == "" {
			return fmt.Errorf("no editor found; set $EDITOR or $VISUAL")
		}

		editorCmd := exec.Command(editor, configFile)
		editorCmd.Stdin = os.Stdin
		editorCmd.Stdout = os.Stdout
		editorCmd.Stderr = os.Stderr

		return editorCmd.Run()
	},
}

func configFilePath() (string, error) {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		return configFile, nil
	}
	return config.GetConfigFile()
}

// parseValue converts CLI input to bool, int or float where it parses.
func parseValue(value string) interface{} {
	if b, err := strconv.ParseBool(value); err == nil && (value == "true" || value == "false") {
		return b
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

// settingsMap flattens settings into dot-notation keys.
func settingsMap(s *config.Settings) map[string]interface{} {
	apiKey := ""
	if s.LLM.APIKey != "" {
		apiKey = "********"
	}
	redisPassword := ""
	if s.Redis.Password != "" {
		redisPassword = "********"
	}

	return map[string]interface{}{
		"server.addr":            s.Server.Addr,
		"server.allowed_origins": strings.Join(s.Server.AllowedOrigins, ", "),
		"server.read_timeout":    s.Server.ReadTimeout,
		"server.write_timeout":   s.Server.WriteTimeout,
		"database.driver":        s.Database.Driver,
		"database.path":          s.Database.Path,
		"llm.enabled":            s.LLM.Enabled,
		"llm.provider":           s.LLM.Provider,
		"llm.url":                s.LLM.URL,
		"llm.model":              s.LLM.Model,
		"llm.api_key":            apiKey,
		"llm.timeout":            s.LLM.Timeout,
		"llm.max_tokens":         s.LLM.MaxTokens,
		"llm.temperature":        s.LLM.Temperature,
		"redis.enabled":          s.Redis.Enabled,
		"redis.addr":             s.Redis.Addr,
		"redis.password":         redisPassword,
		"redis.db":               s.Redis.DB,
		"redis.prefix":           s.Redis.Prefix,
		"redis.ttl":              s.Redis.TTL,
		"chat.history_limit":     s.Chat.HistoryLimit,
		"log.level":              s.Log.Level,
		"log.format":             s.Log.Format,
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configEditCmd)
}
