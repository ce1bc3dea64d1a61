/*
PURPOSE:
  Defines the configuration structure and loading logic for the WST ETC
  front end. Adheres to "Config IS Code" philosophy.

REQUIREMENTS:
  User-specified:
  - Serve on port 5001 on all interfaces by default.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - Needs to support Environment variables overrides (WST_ETC_..., PORT).
  - Site-wide parameter defaults (e.g. a different DIT) live under `parameters`.

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/web
  - Dependencies: gopkg.in/yaml.v3

ERROR HANDLING:
  - Returns explicit error if config file is invalid.
  - Missing default files fall back to DefaultConfig().

IMPLEMENTATION RULES:
  - Precedence: defaults < file < environment < CLI flags.

USAGE:
  cfg, err := config.Load("wst_etc.yaml")

SELF-HEALING INSTRUCTIONS:
  - If new fields are needed, add to Config struct and update DefaultConfig().

RELATED FILES:
  - internal/cli/root.go
*/

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/daryltucker/wst-etc/internal/model"
	"github.com/daryltucker/wst-etc/internal/params"
)

// Backend names.
const (
	BackendBuiltin = "builtin"
	BackendRemote  = "remote"
)

// DefaultFiles are searched in order when no --config is given.
var DefaultFiles = []string{"wst_etc.yaml", "etc.yaml"}

// Config represents the full configuration of the service.
type Config struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Backend         string        `yaml:"backend"`
	BackendURL      string        `yaml:"backend_url"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	OutputDir       string        `yaml:"output_dir"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// Parameters overrides registry defaults for every request.
	Parameters map[string]model.Value `yaml:"parameters"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:            "0.0.0.0",
		Port:            5001,
		Backend:         BackendBuiltin,
		BackendURL:      "http://localhost:8000",
		RequestTimeout:  60 * time.Second,
		MaxRetries:      3,
		RetryDelay:      2 * time.Second,
		LogLevel:        "info",
		LogFormat:       "json",
		OutputDir:       ".",
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load reads configuration from a file.
// If path is specified, it attempts to load that file.
// If path is empty, it searches DefaultFiles in order.
// Environment overrides are applied last and the result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		for _, name := range DefaultFiles {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name
				break
			}
		}
	}

	if data != nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides(getenv func(string) string) error {
	if v := getenv("WST_ETC_HOST"); v != "" {
		c.Host = v
	}
	// PORT is honoured for PaaS deployments, WST_ETC_PORT wins.
	for _, key := range []string{"PORT", "WST_ETC_PORT"} {
		v := getenv(key)
		if v == "" {
			continue
		}
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		c.Port = p
	}
	if v := getenv("WST_ETC_BACKEND"); v != "" {
		c.Backend = strings.ToLower(v)
	}
	if v := getenv("WST_ETC_BACKEND_URL"); v != "" {
		c.BackendURL = v
	}
	if v := getenv("WST_ETC_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	switch c.Backend {
	case BackendBuiltin:
	case BackendRemote:
		if c.BackendURL == "" {
			errs = append(errs, errors.New("backend_url is required for the remote backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendBuiltin, BackendRemote))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}
	if c.MaxRetries < 1 {
		errs = append(errs, errors.New("max_retries must be at least 1"))
	}
	for k := range c.Parameters {
		if !params.IsKey(k) {
			errs = append(errs, fmt.Errorf("unknown parameter %q", k))
		}
	}
	return errors.Join(errs...)
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// FormDefaults returns the registry defaults with configured overrides applied.
// A fresh set is returned on every call.
func (c *Config) FormDefaults() model.ParameterSet {
	ps := params.Defaults()
	for k, v := range c.Parameters {
		ps[k] = v
	}
	return ps
}
