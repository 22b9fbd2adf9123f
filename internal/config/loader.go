package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "SIMPLE"

var (
	ErrConfigFileNotFound = errors.New("config: file not found")
	ErrConfigParseError   = errors.New("config: parse error")
	ErrConfigValidation   = errors.New("config: validation failed")
)

// newViper builds a Viper instance with YAML file type, the SIMPLE_ env
// prefix and a "." → "_" key replacer, so "database.postgres.host" resolves
// to SIMPLE_DATABASE_POSTGRES_HOST.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	registerKeys(v)
	return v
}

// Load reads the YAML file at configPath, merges SIMPLE_* environment
// overrides, applies defaults and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	if err := readFile(v, configPath); err != nil {
		return nil, err
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from SIMPLE_* environment variables alone.
//
//	SIMPLE_<SECTION>_<FIELD>   e.g.  SIMPLE_CACHE_REDIS_ADDR, SIMPLE_SCORING_ADVANCED_MAX_SCORE
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// LoadOptional loads configPath when it is non-empty and falls back to
// LoadFromEnv otherwise.
func LoadOptional(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadFromEnv()
	}
	return Load(configPath)
}

func readFile(v *viper.Viper, configPath string) error {
	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
		return fmt.Errorf("%w: %s: %v", ErrConfigParseError, configPath, err)
	}
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrConfigParseError, configPath, err)
	}
	return nil
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}
	return cfg, nil
}

// Watch monitors configPath and invokes onChange with the re-parsed Config
// whenever the file changes on disk. Callers apply only the safe subset at
// runtime (log level, scoring limits). A change that fails to parse or
// validate is reported to onError, when non-nil, and onChange is skipped.
//
// Watch is non-blocking; viper owns the fsnotify goroutine.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	if err := readFile(v, configPath); err != nil {
		return err
	}

	v.OnConfigChange(func(ev fsnotify.Event) {
		if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad wraps LoadOptional and panics on error. Intended for main().
func MustLoad(configPath string) *Config {
	cfg, err := LoadOptional(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
