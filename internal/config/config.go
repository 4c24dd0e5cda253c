// Package config defines the data structures related to configuration and
// includes functions for loading the application config and plan files.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/iwvelando/budget-allocation/pkg/constants"
	"github.com/iwvelando/budget-allocation/pkg/validation"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. ALLOCATION_SERVER_ADDRESS.
const EnvPrefix = "ALLOCATION"

// Configuration holds all configuration for budget-allocation.
type Configuration struct {
	Logging  LoggingConfig  `yaml:"logging,omitempty" mapstructure:"logging"`
	Output   OutputConfig   `yaml:"output,omitempty" mapstructure:"output"`
	Server   ServerConfig   `yaml:"server,omitempty" mapstructure:"server"`
	Profiles ProfilesConfig `yaml:"profiles,omitempty" mapstructure:"profiles"`
	Session  SessionConfig  `yaml:"session,omitempty" mapstructure:"session"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// ServerConfig holds HTTP API options.
type ServerConfig struct {
	Address     string `yaml:"address,omitempty" mapstructure:"address"`
	MaxBodySize string `yaml:"maxBodySize,omitempty" mapstructure:"maxBodySize"` // e.g. 256K, 1M
}

// ProfilesConfig points at an alternative profile registry.
type ProfilesConfig struct {
	File string `yaml:"file,omitempty" mapstructure:"file"` // empty uses the embedded registry
}

// SessionConfig selects where preview snapshots live between edits.
type SessionConfig struct {
	Backend      string `yaml:"backend,omitempty" mapstructure:"backend"` // memory, redis
	RedisAddress string `yaml:"redisAddress,omitempty" mapstructure:"redisAddress"`
	RedisDB      int    `yaml:"redisDb,omitempty" mapstructure:"redisDb"`
	TTL          string `yaml:"ttl,omitempty" mapstructure:"ttl"`
	KeyPrefix    string `yaml:"keyPrefix,omitempty" mapstructure:"keyPrefix"`
}

// TTLDuration parses the configured snapshot lifetime.
func (s SessionConfig) TTLDuration() (time.Duration, error) {
	ttl := strings.TrimSpace(s.TTL)
	if ttl == "" {
		ttl = constants.DefaultSessionTTL
	}
	d, err := time.ParseDuration(ttl)
	if err != nil {
		return 0, fmt.Errorf("invalid session ttl %q: %w", s.TTL, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("session ttl must be positive, got %s", d)
	}
	return d, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxBodySize", fmt.Sprintf("%d", constants.DefaultMaxBodySizeBytes))
	v.SetDefault("session.backend", constants.SessionBackendMemory)
	v.SetDefault("session.redisAddress", constants.DefaultRedisAddress)
	v.SetDefault("session.ttl", constants.DefaultSessionTTL)
	v.SetDefault("session.keyPrefix", constants.DefaultSessionKeyPrefix)
	v.SetDefault("profiles.file", "")
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.outputFile", "")
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}
	return LoadConfigurationFromReader(bytes.NewReader(data))
}

// LoadConfigurationFromReader loads YAML configuration from any reader.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	return &configuration, nil
}

// DefaultConfiguration returns the configuration used when no file is given.
func DefaultConfiguration() *Configuration {
	v := newViper()
	var configuration Configuration
	// Defaults are plain scalars, decoding them cannot fail.
	_ = v.Unmarshal(&configuration)
	return &configuration
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	switch c.Session.Backend {
	case "", constants.SessionBackendMemory:
	case constants.SessionBackendRedis:
		if strings.TrimSpace(c.Session.RedisAddress) == "" {
			warnings = append(warnings, "session backend is redis but no redisAddress is set")
		}
	default:
		warnings = append(warnings, fmt.Sprintf("unknown session backend %q, using %s", c.Session.Backend, constants.SessionBackendMemory))
	}

	if _, err := c.Session.TTLDuration(); err != nil {
		warnings = append(warnings, err.Error()+", using "+constants.DefaultSessionTTL)
	}

	return warnings
}
