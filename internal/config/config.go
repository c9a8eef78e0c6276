// Package config loads ctxstore settings from defaults, an optional YAML
// file, CTXSTORE_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sadopc/ctxstore/internal/store"
)

const envPrefix = "CTXSTORE"

// Keys, also used as flag names with "_" and "." turned into "-".
const (
	KeyDBPath       = "db_path"
	KeyLogLevel     = "log_level"
	KeyLogFormat    = "log_format"
	KeyMCPTransport = "mcp.transport"
	KeyMCPAddr      = "mcp.addr"
	KeyExportDir    = "export_dir"
)

type Config struct {
	DBPath    string `mapstructure:"db_path"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	MCP       MCP    `mapstructure:"mcp"`
	ExportDir string `mapstructure:"export_dir"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

type MCP struct {
	Transport string `mapstructure:"transport"`
	Addr      string `mapstructure:"addr"`
}

// Load reads the configuration. An explicit path must exist; otherwise
// config.yaml in the user config directory is optional. Flags that were set
// on the command line override every other source.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	if err := setDefaults(v); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "ctxstore"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for _, key := range []string{KeyDBPath, KeyLogLevel, KeyLogFormat, KeyMCPTransport, KeyMCPAddr, KeyExportDir} {
			if f := flags.Lookup(FlagName(key)); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) error {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		return fmt.Errorf("default db path: %w", err)
	}
	v.SetDefault(KeyDBPath, dbPath)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyMCPTransport, "stdio")
	v.SetDefault(KeyMCPAddr, "127.0.0.1:8765")
	v.SetDefault(KeyExportDir, ".")
	return nil
}

// FlagName maps a config key to its command-line flag.
func FlagName(key string) string {
	return strings.NewReplacer("_", "-", ".", "-").Replace(key)
}

func (c *Config) Validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	switch c.MCP.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("mcp.transport must be stdio or http, got %q", c.MCP.Transport)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	return nil
}
