// Package config loads crewdeck configuration from file, environment and
// defaults, in that order of increasing precedence for env overrides.
//
// Configuration is read from crewdeck.yaml in the working directory or
// ~/.crewdeck/, and from CREWDECK_* environment variables (e.g.
// CREWDECK_ASSIST_API_KEY). A missing config file is not an error; every
// setting has a default.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	// DBPath is the SQLite database location.
	DBPath string `mapstructure:"db_path"`

	// Port is the dashboard WebSocket server port.
	Port int `mapstructure:"port"`

	// SessionFile is the durable local session record location.
	SessionFile string `mapstructure:"session_file"`

	// LogFile, when set, routes the serve daemon log through a rotating
	// file instead of stderr.
	LogFile string `mapstructure:"log_file"`

	Assist AssistConfig `mapstructure:"assist"`
}

// AssistConfig selects and configures the generation service variant.
// The provider is fixed at startup; it is never swapped mid-session.
type AssistConfig struct {
	// Provider is "local" (deterministic fallback matcher) or
	// "anthropic" (remote LLM).
	Provider string `mapstructure:"provider"`

	// APIKey authenticates against the Anthropic API. Required when
	// Provider is "anthropic".
	APIKey string `mapstructure:"api_key"`

	// Model overrides the default Anthropic model.
	Model string `mapstructure:"model"`
}

// Load reads configuration. An explicit path overrides the search paths.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("db_path", filepath.Join(dataDir(), "crewdeck.db"))
	v.SetDefault("port", 8080)
	v.SetDefault("session_file", filepath.Join(dataDir(), "session.json"))
	v.SetDefault("log_file", "")
	v.SetDefault("assist.provider", "local")
	v.SetDefault("assist.api_key", "")
	v.SetDefault("assist.model", "")

	v.SetEnvPrefix("CREWDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("crewdeck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(dataDir())
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine unless one was named explicitly.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Assist.Provider != "local" && cfg.Assist.Provider != "anthropic" {
		return nil, fmt.Errorf("invalid assist.provider %q (want local or anthropic)", cfg.Assist.Provider)
	}
	if cfg.Assist.Provider == "anthropic" && cfg.Assist.APIKey == "" {
		return nil, fmt.Errorf("assist.provider is anthropic but assist.api_key is empty")
	}

	return &cfg, nil
}

// dataDir returns the per-user crewdeck data directory.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".crewdeck"
	}
	return filepath.Join(home, ".crewdeck")
}
