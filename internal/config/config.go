// Package config loads shopscout's static configuration. Defaults reproduce
// the original survey: six Toronto districts, bubble tea shops, top 60.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/FranksOps/shopscout/internal/fingerprint"
	"github.com/spf13/viper"
)

// ErrMissingAPIKey marks the fatal pre-flight condition of having no credential.
var ErrMissingAPIKey = errors.New("api key not set; export GOOGLE_MAPS_API_KEY")

// Error is a configuration problem detected before any region is processed.
type Error struct {
	Key    string
	Reason error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Key, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Reason
}

// DefaultRegions are the Toronto districts surveyed when none are configured.
var DefaultRegions = []string{
	"Etobicoke, Toronto, ON",
	"Scarborough, Toronto, ON",
	"York, Toronto, ON",
	"East York, Toronto, ON",
	"North York, Toronto, ON",
	"Downtown Toronto, ON",
}

// Backend names accepted by output.backend.
const (
	BackendCSV      = "csv"
	BackendJSON     = "json"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config is the fully resolved configuration.
type Config struct {
	APIKey         string        `mapstructure:"api_key"`
	Endpoint       string        `mapstructure:"endpoint"`
	Category       string        `mapstructure:"category"`
	Regions        []string      `mapstructure:"regions"`
	MaxResults     int           `mapstructure:"max_results"`
	PageDelay      time.Duration `mapstructure:"page_delay"`
	MaxPages       int           `mapstructure:"max_pages"`
	Concurrency    int           `mapstructure:"concurrency"`
	RequestsPerSec float64       `mapstructure:"requests_per_second"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	TLSProfile     string        `mapstructure:"tls_profile"`
	ProxyURL       string        `mapstructure:"proxy_url"`
	UserAgent      string        `mapstructure:"user_agent"`

	Output  OutputConfig  `mapstructure:"output"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Report  ReportConfig  `mapstructure:"report"`
}

type OutputConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
	DSN     string `mapstructure:"dsn"`
	Append  bool   `mapstructure:"append"`
}

type LogConfig struct {
	Level     string `mapstructure:"level"`
	ErrorFile string `mapstructure:"error_file"`
	Format    string `mapstructure:"format"`
}

type MetricsConfig struct {
	// Port for the /metrics endpoint; 0 disables it.
	Port int `mapstructure:"port"`
}

type ReportConfig struct {
	Format string `mapstructure:"format"` // text, json or none
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_key", "")
	v.SetDefault("endpoint", "https://maps.googleapis.com/maps/api/place/textsearch/json")
	v.SetDefault("category", "highly rated bubble tea shops")
	v.SetDefault("regions", DefaultRegions)
	v.SetDefault("max_results", 60)
	v.SetDefault("page_delay", 2*time.Second)
	v.SetDefault("max_pages", 10)
	v.SetDefault("concurrency", 1)
	v.SetDefault("requests_per_second", 0)
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("tls_profile", "go")
	v.SetDefault("proxy_url", "")
	v.SetDefault("user_agent", "")

	v.SetDefault("output.backend", BackendCSV)
	v.SetDefault("output.path", "bubble_tea_shops.csv")
	v.SetDefault("output.dsn", "")
	v.SetDefault("output.append", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.error_file", "shopscout_errors.log")
	v.SetDefault("log.format", "text")

	v.SetDefault("metrics.port", 0)
	v.SetDefault("report.format", "text")
}

// Load reads configuration from defaults, an optional file at path, and the
// environment (SHOPSCOUT_ prefix, dots become underscores). The credential is
// also read from GOOGLE_MAPS_API_KEY. The result is validated.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation, for commands that only need part of the
// configuration.
func Read(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SHOPSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api_key", "SHOPSCOUT_API_KEY", "GOOGLE_MAPS_API_KEY"); err != nil {
		return nil, fmt.Errorf("config bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, &Error{Key: "file", Reason: err}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &Error{Key: "file", Reason: err}
	}
	return &cfg, nil
}

// Validate reports the first configuration problem as an *Error.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return &Error{Key: "api_key", Reason: ErrMissingAPIKey}
	}
	if len(c.Regions) == 0 {
		return &Error{Key: "regions", Reason: errors.New("at least one region is required")}
	}
	for i, r := range c.Regions {
		if strings.TrimSpace(r) == "" {
			return &Error{Key: "regions", Reason: fmt.Errorf("region %d is empty", i)}
		}
	}
	if c.MaxResults <= 0 {
		return &Error{Key: "max_results", Reason: fmt.Errorf("must be positive, got %d", c.MaxResults)}
	}
	if c.PageDelay < 0 {
		return &Error{Key: "page_delay", Reason: fmt.Errorf("must not be negative, got %v", c.PageDelay)}
	}
	if c.MaxPages < 0 {
		return &Error{Key: "max_pages", Reason: fmt.Errorf("must not be negative, got %d", c.MaxPages)}
	}
	if c.Concurrency <= 0 {
		return &Error{Key: "concurrency", Reason: fmt.Errorf("must be positive, got %d", c.Concurrency)}
	}
	if c.RequestTimeout <= 0 {
		return &Error{Key: "request_timeout", Reason: fmt.Errorf("must be positive, got %v", c.RequestTimeout)}
	}
	if _, err := url.ParseRequestURI(c.Endpoint); err != nil {
		return &Error{Key: "endpoint", Reason: err}
	}
	if _, err := fingerprint.ParseProfile(c.TLSProfile); err != nil {
		return &Error{Key: "tls_profile", Reason: err}
	}
	if c.ProxyURL != "" {
		if _, err := url.Parse(c.ProxyURL); err != nil {
			return &Error{Key: "proxy_url", Reason: err}
		}
	}

	if err := c.Output.Validate(); err != nil {
		return err
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return &Error{Key: "log.format", Reason: fmt.Errorf("unknown format %q", c.Log.Format)}
	}

	switch c.Report.Format {
	case "text", "json", "none":
	default:
		return &Error{Key: "report.format", Reason: fmt.Errorf("unknown format %q", c.Report.Format)}
	}

	return nil
}

// Validate checks the storage settings on their own.
func (o OutputConfig) Validate() error {
	switch o.Backend {
	case BackendCSV, BackendJSON, BackendSQLite:
		if o.Path == "" {
			return &Error{Key: "output.path", Reason: fmt.Errorf("required for %s backend", o.Backend)}
		}
	case BackendPostgres:
		if o.DSN == "" {
			return &Error{Key: "output.dsn", Reason: errors.New("required for postgres backend")}
		}
	default:
		return &Error{Key: "output.backend", Reason: fmt.Errorf("unknown backend %q", o.Backend)}
	}
	return nil
}
