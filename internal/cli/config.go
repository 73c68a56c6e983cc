package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/tailscale/hujson"

	"github.com/calvinalkan/sysown/pkg/owner"
)

// Config holds all configuration options.
type Config struct {
	// OnCloseError is "log" or "panic": what Drop does when a close fails.
	OnCloseError string `json:"on_close_error,omitempty"`

	// LogLevel is any level logrus.ParseLevel accepts.
	LogLevel string `json:"log_level,omitempty"`

	// TrackLeaks enables GC-based leak reclaim and reporting.
	TrackLeaks *bool `json:"track_leaks,omitempty"`

	// Resolved (computed, not serialized)
	EffectiveCwd string        `json:"-"`
	Sources      ConfigSources `json:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	track := true

	return Config{
		OnCloseError: owner.DropLog.String(),
		LogLevel:     logrus.WarnLevel.String(),
		TrackLeaks:   &track,
	}
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".fdprobe.json"

// getGlobalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/fdprobe/config.json if set, otherwise
// ~/.config/fdprobe/config.json. Returns empty string if home directory
// cannot be determined.
func getGlobalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "fdprobe", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "fdprobe", "config.json")
	}

	return ""
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string            // -c/--config flag value
	Overrides       Config            // flag values; zero fields are not applied
	Env             map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config ($XDG_CONFIG_HOME/fdprobe/config.json)
// 3. Project config file at default location (.fdprobe.json, if exists)
// 4. Explicit config file via ConfigPath (if non-empty)
// 5. CLI overrides.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := DefaultConfig()

	if globalPath := getGlobalConfigPath(input.Env); globalPath != "" {
		globalCfg, loaded, err := loadConfigFile(globalPath, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg.Sources.Global = globalPath
			cfg = mergeConfig(cfg, globalCfg)
		}
	}

	projectCfg, projectPath, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)
	cfg = mergeConfig(cfg, input.Overrides)

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	cfg.EffectiveCwd = workDir

	return cfg, nil
}

// loadProjectConfig loads the project config file (.fdprobe.json) or an
// explicit config file. Returns the config, the path if loaded, and any error.
func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	cfgFile := filepath.Join(workDir, ConfigFileName)
	mustExist := false

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		if _, statErr := os.Stat(cfgFile); statErr != nil {
			return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
	}

	fileCfg, loaded, err := loadConfigFile(cfgFile, mustExist)
	if err != nil || !loaded {
		return Config{}, "", err
	}

	return fileCfg, cfgFile, nil
}

// loadConfigFile loads a config file. If mustExist is false, missing files
// return zero config. Returns the config, whether the file was loaded, and
// any error.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if mustExist {
			return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return Config{}, false, nil
	}

	cfg, parseErr := parseConfig(data)
	if parseErr != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.OnCloseError != "" {
		base.OnCloseError = overlay.OnCloseError
	}

	if overlay.LogLevel != "" {
		base.LogLevel = overlay.LogLevel
	}

	if overlay.TrackLeaks != nil {
		base.TrackLeaks = overlay.TrackLeaks
	}

	return base
}

func validateConfig(cfg Config) error {
	if _, err := owner.ParseDropMode(cfg.OnCloseError); err != nil {
		return fmt.Errorf("on_close_error: %w", err)
	}

	if cfg.LogLevel != "" {
		if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}

	return nil
}

// Options converts cfg into owner options logging to logger.
func (c Config) Options(logger logrus.FieldLogger) owner.Options {
	mode, _ := owner.ParseDropMode(c.OnCloseError)

	opts := owner.DefaultOptions()
	opts.OnDropError = mode
	opts.Logger = logger

	if c.TrackLeaks != nil {
		opts.TrackLeaks = *c.TrackLeaks
	}

	return opts
}

// NewLogger builds the CLI logger: text to w at cfg's level.
func (c Config) NewLogger(w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	return logger
}
