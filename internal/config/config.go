// Package config loads the server configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	Limits   Limits   `yaml:"limits"`
	Database Database `yaml:"database"`
	Audit    Audit    `yaml:"audit"`
	Log      Log      `yaml:"log"`
}

type HTTP struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// Limits bound request size. Zero disables a limit.
type Limits struct {
	MaxNodes     int   `yaml:"max_nodes"`
	MaxEdges     int   `yaml:"max_edges"`
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

type Database struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

// Audit configures the periodic cycle sweep over stored pipelines.
// An empty Cron disables it.
type Audit struct {
	Cron        string `yaml:"cron"`
	Concurrency int    `yaml:"concurrency"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		HTTP: HTTP{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"http://localhost:3000"},
		},
		Limits: Limits{
			MaxBodyBytes: 10 << 20,
		},
		Database: Database{
			MaxConns: 10,
		},
		Audit: Audit{
			Concurrency: 4,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// DATABASE_URL and PIPELINEDAG_ADDR override the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		c.Database.URL = url
	}
	if addr := os.Getenv("PIPELINEDAG_ADDR"); addr != "" {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("PIPELINEDAG_ADDR: %w", err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("PIPELINEDAG_ADDR: invalid port %q", port)
		}
		c.HTTP.Host, c.HTTP.Port = host, p
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.HTTP.Host, strconv.Itoa(c.HTTP.Port))
}

// CronParser accepts specs with an optional leading seconds field.
var CronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	if c.HTTP.ReadTimeout < 0 || c.HTTP.WriteTimeout < 0 || c.HTTP.ShutdownTimeout < 0 {
		result = multierror.Append(result, errors.New("http timeouts must not be negative"))
	}
	if c.Limits.MaxNodes < 0 || c.Limits.MaxEdges < 0 || c.Limits.MaxBodyBytes < 0 {
		result = multierror.Append(result, errors.New("limits must not be negative"))
	}
	if c.Database.MaxConns < 1 {
		result = multierror.Append(result, errors.New("database.max_conns must be at least 1"))
	}
	if c.Audit.Cron != "" {
		if _, err := CronParser.Parse(c.Audit.Cron); err != nil {
			result = multierror.Append(result, fmt.Errorf("audit.cron: %w", err))
		}
		if c.Database.URL == "" {
			result = multierror.Append(result, errors.New("audit.cron requires database.url"))
		}
	}
	if c.Audit.Concurrency < 1 {
		result = multierror.Append(result, errors.New("audit.concurrency must be at least 1"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("log.level %q unknown", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("log.format %q unknown", c.Log.Format))
	}

	return result.ErrorOrNil()
}
