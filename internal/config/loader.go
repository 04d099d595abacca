package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// configBaseName is the file name (without extension) searched for.
const configBaseName = "checkngn"

// InitViper initializes Viper with the configuration file and environment variables.
// If configFile is empty, it searches for checkngn.yaml/.yml in standard locations.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		// No config file anywhere: ReadInConfig returns ConfigFileNotFoundError,
		// which LoadConfig tolerates.
		viper.SetConfigName(configBaseName)
		viper.SetConfigType("yaml")
	}

	// Environment variable support: CHECKNGN_LOG_LEVEL
	viper.SetEnvPrefix("CHECKNGN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

// configExtensions lists accepted config file extensions in priority order.
// A bare "checkngn" is never matched: that name belongs to the binary.
var configExtensions = []string{".yaml", ".yml"}

// configSearchDirs returns the directories searched when --config is not given:
// the working directory, then the user's ~/.checkngn, then the system directory.
func configSearchDirs() []string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, "."+configBaseName))
	}
	switch {
	case runtime.GOOS != "windows":
		dirs = append(dirs, filepath.Join("/etc", configBaseName))
	case os.Getenv("ProgramData") != "":
		dirs = append(dirs, filepath.Join(os.Getenv("ProgramData"), configBaseName))
	}
	return dirs
}

func findConfigFile() string {
	return findConfigFileInPaths(configSearchDirs())
}

// findConfigFileInPaths returns the first existing checkngn.<ext> in dirs, or "".
// Directories win over extensions: ./checkngn.yml beats ~/.checkngn/checkngn.yaml.
func findConfigFileInPaths(dirs []string) string {
	for _, dir := range dirs {
		for _, ext := range configExtensions {
			candidate := filepath.Join(dir, configBaseName+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds nested config keys so that, for example,
// CHECKNGN_NORMALIZER_NESTED_LISTS overrides normalizer.nested_lists.
func bindNestedEnvKeys() {
	_ = viper.BindEnv("log.level")
	_ = viper.BindEnv("log.format")

	_ = viper.BindEnv("normalizer.nested_lists")
	_ = viper.BindEnv("normalizer.strict_identifiers")
	_ = viper.BindEnv("normalizer.cache_size")

	_ = viper.BindEnv("metrics.textfile")

	_ = viper.BindEnv("output")
}

// LoadConfig reads the configuration file, applies environment overrides,
// sets defaults, and validates the result.
func LoadConfig() (*Config, error) {
	cfg, err := LoadConfigRaw()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigRaw reads the configuration file and applies defaults but does
// NOT validate. Use this when CLI flags may still override values.
func LoadConfigRaw() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - continue with env vars only
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// ConfigFileUsed returns the path to the configuration file that was loaded.
// Returns an empty string if no config file was found (env vars only mode).
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
