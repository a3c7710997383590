package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for ringleader.
type Config struct {
	General    GeneralConfig    `json:"general" yaml:"general"`
	Daemon     DaemonConfig     `json:"daemon" yaml:"daemon"`
	Router     RouterConfig     `json:"router" yaml:"router"`
	Metrics    MetricsConfig    `json:"metrics" yaml:"metrics"`
	Extensions ExtensionsConfig `json:"extensions" yaml:"extensions"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel" yaml:"logLevel"`
	LogFile  string `json:"logFile,omitempty" yaml:"logFile,omitempty"` // optional log file path
}

type DaemonConfig struct {
	// EventBuffer is the capacity of the queue between the signal reader
	// and the dispatch loop.
	EventBuffer int `json:"eventBuffer" yaml:"eventBuffer"`
}

type RouterConfig struct {
	// MonitoredAccounts restricts dispatch to accounts with these
	// usernames. Empty means react on every account except to the bot's
	// own messages.
	MonitoredAccounts []string `json:"monitoredAccounts,omitempty" yaml:"monitoredAccounts,omitempty"`
	DownloadDir       string   `json:"downloadDir" yaml:"downloadDir"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Listen  string `json:"listen" yaml:"listen"`
}

type ExtensionsConfig struct {
	Notes  NotesConfig  `json:"notes" yaml:"notes"`
	Mirror MirrorConfig `json:"mirror" yaml:"mirror"`
}

// NotesConfig configures the built-in note-taking extension.
type NotesConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	DBPath  string `json:"dbPath" yaml:"dbPath"`
}

// MirrorConfig configures the Telegram mirror extension.
type MirrorConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Token   string `json:"token" yaml:"token"`
	ChatID  string `json:"chatId" yaml:"chatId"`
}

// DefaultConfigDir returns the default config directory (~/.ringleader).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ringleader"
	}
	return filepath.Join(home, ".ringleader")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// Load reads and validates a config file. JSON is the default format;
// files ending in .yaml or .yml are parsed as YAML.
func Load(path string) (*Config, error) {
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
		}
	}

	cfg.General.LogFile = expandPath(cfg.General.LogFile)
	cfg.Router.DownloadDir = expandPath(cfg.Router.DownloadDir)
	cfg.Extensions.Notes.DBPath = expandPath(cfg.Extensions.Notes.DBPath)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset
// or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // keep original if no env var and no default
		}
		return val
	})
}

// Save writes cfg to path, creating the directory if needed. The format
// follows the file extension like Load.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}

	if cfg.Daemon.EventBuffer < 1 || cfg.Daemon.EventBuffer > 10000 {
		errs = append(errs, "daemon.eventBuffer must be between 1 and 10000")
	}

	if cfg.Router.DownloadDir == "" {
		errs = append(errs, "router.downloadDir must not be empty")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Listen == "" {
		errs = append(errs, "metrics.listen is required when metrics are enabled")
	}

	if cfg.Extensions.Notes.Enabled && cfg.Extensions.Notes.DBPath == "" {
		errs = append(errs, "extensions.notes.dbPath is required when the notes extension is enabled")
	}

	if cfg.Extensions.Mirror.Enabled {
		if cfg.Extensions.Mirror.Token == "" {
			errs = append(errs, "extensions.mirror.token is required when the mirror extension is enabled")
		}
		if cfg.Extensions.Mirror.ChatID == "" {
			errs = append(errs, "extensions.mirror.chatId is required when the mirror extension is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Level maps the configured level name to a slog.Level.
func (c *Config) Level() slog.Level {
	switch c.General.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
