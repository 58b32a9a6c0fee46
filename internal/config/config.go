// Package config resolves taskdesk settings from flags, TASKDESK_* env vars, an optional
// .env file and config.yaml, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "TASKDESK"
	FileName  = "config.yaml"

	KeyBaseURL  = "base_url"
	KeyLogLevel = "log_level"
	KeyLogFile  = "log_file"
	KeyStateDir = "state_dir"
	KeyTimeout  = "timeout"
	KeyFormat   = "format"
	KeyPretty   = "pretty"
)

type Config struct {
	BaseURL  string
	LogLevel string
	LogFile  string
	StateDir string
	Timeout  time.Duration
	Format   string
	Pretty   bool

	// File is the config file that was read, empty when none was found.
	File string
}

// Keys lists the settable keys in display order.
func Keys() []string {
	return []string{KeyBaseURL, KeyLogLevel, KeyLogFile, KeyStateDir, KeyTimeout, KeyFormat, KeyPretty}
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"base-url":  KeyBaseURL,
	"log-level": KeyLogLevel,
	"log-file":  KeyLogFile,
	"state-dir": KeyStateDir,
	"timeout":   KeyTimeout,
	"format":    KeyFormat,
	"pretty":    KeyPretty,
}

func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + "_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".taskdesk"), nil
}

func newViper() (*viper.Viper, error) {
	// A missing .env is the common case.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	v.SetDefault(KeyBaseURL, "http://localhost:5000")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyStateDir, dir)
	v.SetDefault(KeyTimeout, "15s")
	v.SetDefault(KeyFormat, "json")
	v.SetDefault(KeyPretty, false)

	v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.AddConfigPath(".")
	return v, nil
}

// Load resolves the configuration. Flags in fs that were explicitly set win over everything else.
func Load(fs *pflag.FlagSet) (Config, error) {
	v, err := newViper()
	if err != nil {
		return Config{}, err
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, err
				}
			}
		}
	}

	timeout, err := parseTimeout(v.GetString(KeyTimeout))
	if err != nil {
		return Config{}, err
	}
	format := strings.ToLower(strings.TrimSpace(v.GetString(KeyFormat)))
	switch format {
	case "", "json":
		format = "json"
	case "edn":
	default:
		return Config{}, fmt.Errorf("invalid format %q (expected json|edn)", format)
	}

	return Config{
		BaseURL:  strings.TrimSpace(v.GetString(KeyBaseURL)),
		LogLevel: v.GetString(KeyLogLevel),
		LogFile:  expandHome(v.GetString(KeyLogFile)),
		StateDir: expandHome(v.GetString(KeyStateDir)),
		Timeout:  timeout,
		Format:   format,
		Pretty:   v.GetBool(KeyPretty),
		File:     v.ConfigFileUsed(),
	}, nil
}

func parseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 15 * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid timeout %q: must be positive", s)
	}
	return d, nil
}

func expandHome(p string) string {
	p = strings.TrimSpace(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// Set writes key=value into the config file under Dir(), keeping other keys.
func Set(key, value string) (string, error) {
	key = strings.TrimSpace(key)
	known := false
	for _, k := range Keys() {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return "", fmt.Errorf("unknown config key %q (expected one of %s)", key, strings.Join(Keys(), ", "))
	}
	if key == KeyTimeout {
		if _, err := parseTimeout(value); err != nil {
			return "", err
		}
	}

	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("read config: %w", err)
		}
	}
	if key == KeyPretty {
		v.Set(key, value == "true" || value == "1" || value == "yes")
	} else {
		v.Set(key, value)
	}

	tmp := filepath.Join(dir, ".config.tmp.yaml")
	if err := v.WriteConfigAs(tmp); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}
	return path, nil
}

// Map renders c as key -> value for display.
func (c Config) Map() map[string]any {
	return map[string]any{
		KeyBaseURL:  c.BaseURL,
		KeyLogLevel: c.LogLevel,
		KeyLogFile:  c.LogFile,
		KeyStateDir: c.StateDir,
		KeyTimeout:  c.Timeout.String(),
		KeyFormat:   c.Format,
		KeyPretty:   c.Pretty,
	}
}
