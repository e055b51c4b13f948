package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/metastore/internal/paths"
	"github.com/mesh-intelligence/metastore/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend  = "backend"
	cfgKeyDataDir  = "data_dir"
	cfgKeyLogLevel = "log_level"

	defaultBackend  = types.BackendFilesystem
	defaultLogLevel = "warn"
)

// configFile is the structure written to config.yaml.
type configFile struct {
	Backend  string `yaml:"backend"`
	DataDir  string `yaml:"data_dir,omitempty"`
	LogLevel string `yaml:"log_level,omitempty"`
}

// loadConfig reads config.yaml from configDir. A missing file is not an
// error. METASTORE_BACKEND and METASTORE_LOG_LEVEL override the file.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.BindEnv(cfgKeyBackend, "METASTORE_BACKEND"); err != nil {
		return nil, err
	}
	if err := v.BindEnv(cfgKeyLogLevel, "METASTORE_LOG_LEVEL"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// resolveConfig combines flags, config.yaml, the environment and defaults
// into a validated store configuration.
func resolveConfig() (types.Config, string, error) {
	globalConfig, globalData, err := globalDirs()
	if err != nil {
		return types.Config{}, "", err
	}
	configDir, err := paths.ResolveConfigDir(firstNonEmpty(flags.configDir, globalConfig))
	if err != nil {
		return types.Config{}, "", err
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return types.Config{}, "", err
	}
	dataDir, err := paths.ResolveDataDir(flags.dataDir, firstNonEmpty(v.GetString(cfgKeyDataDir), globalData))
	if err != nil {
		return types.Config{}, "", err
	}

	cfg := types.Config{
		Backend:  firstNonEmpty(flags.backend, v.GetString(cfgKeyBackend)),
		DataDir:  dataDir,
		LogLevel: firstNonEmpty(flags.logLevel, v.GetString(cfgKeyLogLevel)),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, "", fmt.Errorf("config: %w", err)
	}
	return cfg, configDir, nil
}

// globalDirs returns the platform configuration and data directories when
// --global is set, and empty strings otherwise.
func globalDirs() (string, string, error) {
	if !flags.global {
		return "", "", nil
	}
	configDir, err := paths.DefaultConfigDir()
	if err != nil {
		return "", "", err
	}
	dataDir, err := paths.DefaultDataDir()
	if err != nil {
		return "", "", err
	}
	return configDir, dataDir, nil
}

// writeConfigIfMissing creates config.yaml holding cfg. An existing file is
// left alone.
func writeConfigIfMissing(configDir string, cfg types.Config) (bool, error) {
	path := filepath.Join(configDir, configFileExt)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(&configFile{
		Backend:  cfg.Backend,
		DataDir:  cfg.DataDir,
		LogLevel: cfg.LogLevel,
	})
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	return true, os.WriteFile(path, data, 0o644)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
