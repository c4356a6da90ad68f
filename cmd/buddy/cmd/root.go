package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"buddy/src/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "buddy",
	Short: "Conversational buddy backend with personality-driven replies",
	Long: `buddy serves chat buddies whose replies are shaped by a persona's
trait vector and a mood derived from each message.

Replies come from an optional generative model (Ollama or an
OpenAI-compatible API) and fall back to built-in templates.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/buddy/config.toml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configDir, err := config.GetConfigDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(configDir)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("BUDDY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file means defaults
	_ = viper.ReadInConfig()
}

// loadSettings returns the TOML settings with viper overrides (flags and
// BUDDY_* environment variables) applied.
func loadSettings() (*config.Settings, error) {
	var (
		settings *config.Settings
		err      error
	)
	if path := viper.ConfigFileUsed(); path != "" {
		settings, err = config.LoadSettingsFrom(path)
	} else {
		settings, err = config.LoadSettings()
	}
	if err != nil {
		return nil, err
	}

	applyOverrides(settings)
	return settings, nil
}

func applyOverrides(s *config.Settings) {
	setString := func(key string, dst *string) {
		if viper.IsSet(key) && viper.GetString(key) != "" {
			*dst = viper.GetString(key)
		}
	}
	setBool := func(key string, dst *bool) {
		if viper.IsSet(key) {
			*dst = viper.GetBool(key)
		}
	}
	setInt := func(key string, dst *int) {
		if viper.IsSet(key) {
			*dst = viper.GetInt(key)
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if viper.IsSet(key) {
			if d := viper.GetDuration(key); d > 0 {
				*dst = d
			}
		}
	}

	setString("server.addr", &s.Server.Addr)
	if viper.IsSet("server.allowed_origins") {
		if origins := viper.GetStringSlice("server.allowed_origins"); len(origins) > 0 {
			s.Server.AllowedOrigins = origins
		}
	}
	setDuration("server.read_timeout", &s.Server.ReadTimeout)
	setDuration("server.write_timeout", &s.Server.WriteTimeout)

	setString("database.driver", &s.Database.Driver)
	setString("database.path", &s.Database.Path)

	setBool("llm.enabled", &s.LLM.Enabled)
	setString("llm.provider", &s.LLM.Provider)
	setString("llm.url", &s.LLM.URL)
	setString("llm.model", &s.LLM.Model)
	setString("llm.api_key", &s.LLM.APIKey)
	setDuration("llm.timeout", &s.LLM.Timeout)
	setInt("llm.max_tokens", &s.LLM.MaxTokens)
	if viper.IsSet("llm.temperature") {
		s.LLM.Temperature = float32(viper.GetFloat64("llm.temperature"))
	}

	setBool("redis.enabled", &s.Redis.Enabled)
	setString("redis.addr", &s.Redis.Addr)
	setString("redis.password", &s.Redis.Password)
	setInt("redis.db", &s.Redis.DB)
	setString("redis.prefix", &s.Redis.Prefix)
	setDuration("redis.ttl", &s.Redis.TTL)

	setInt("chat.history_limit", &s.Chat.HistoryLimit)

	setString("log.level", &s.Log.Level)
	setString("log.format", &s.Log.Format)
}
