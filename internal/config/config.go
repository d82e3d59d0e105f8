// Package config provides configuration loading and validation for the myip CLI.
// It handles reading configuration from files, providing defaults, and ensuring
// all required settings are properly set.
package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lc/myip/internal/filesys"
)

var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNoConfig is returned when the configuration file is not found.
	ErrNoConfig = errors.New("configuration file not found")
)

const (
	// DefaultConfigPath is the default path for the configuration file,
	// relative to the user's home directory.
	DefaultConfigPath = ".myip/config.yaml"
	// DefaultBaseURL is the myip.foo API root.
	DefaultBaseURL = "https://myip.foo"
	// DefaultAPITimeout bounds a single API request.
	DefaultAPITimeout = 5 * time.Second
	// DefaultIPv4URL only has an A record, so it always answers over IPv4.
	DefaultIPv4URL = "https://ipv4.myip.foo/ip"
	// DefaultIPv6URL only has an AAAA record, so it always answers over IPv6.
	DefaultIPv6URL = "https://ipv6.myip.foo/ip"
	// DefaultDualStackTimeout bounds each of the two single-stack requests.
	DefaultDualStackTimeout = 5 * time.Second
	// DefaultDNSTimeout is the default timeout for DNS resolution.
	DefaultDNSTimeout = 5 * time.Second
	// DefaultDNSRetries is the number of extra attempts per DNS query.
	DefaultDNSRetries = 1
	// DefaultMonitorInterval is how often watch mode re-checks the address.
	DefaultMonitorInterval = 5 * time.Minute
	// DefaultMonitorFetchTimeout bounds the monitor's API request.
	DefaultMonitorFetchTimeout = 10 * time.Second
)

// Environment variables that override file values.
const (
	EnvBaseURL        = "MYIP_API_URL"
	EnvSlackWebhook   = "SLACK_WEBHOOK"
	EnvDiscordWebhook = "DISCORD_WEBHOOK"
	EnvGeoIPDatabase  = "MYIP_GEOIP_DB"
)

// DefaultCachePath is where the monitor keeps the last seen address.
var DefaultCachePath = filepath.Join(os.TempDir(), "myip_current.json")

// Config holds the application configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	DualStack DualStackConfig `yaml:"dual_stack"`
	DNS       DNSConfig       `yaml:"dns"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	GeoIP     GeoIPConfig     `yaml:"geoip"`
}

// APIConfig holds settings for the main myip.foo API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// DualStackConfig holds the single-stack endpoints used by the dual-stack check.
type DualStackConfig struct {
	IPv4URL string        `yaml:"ipv4_url"`
	IPv6URL string        `yaml:"ipv6_url"`
	Timeout time.Duration `yaml:"timeout"`
	// PinFamily forces the IPv4 request onto tcp4 and the IPv6 request onto tcp6.
	PinFamily bool `yaml:"pin_family"`
}

// DNSConfig configures the resolver used for family-pinned dialing.
type DNSConfig struct {
	// Resolvers is a list of host:port DNS servers. Empty means the system resolver.
	Resolvers []string      `yaml:"resolvers"`
	Timeout   time.Duration `yaml:"timeout"`
	Retries   uint          `yaml:"retries"`
}

// MonitorConfig configures the address change monitor.
type MonitorConfig struct {
	CachePath      string        `yaml:"cache_path"`
	Interval       time.Duration `yaml:"interval"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	SlackWebhook   string        `yaml:"slack_webhook"`
	DiscordWebhook string        `yaml:"discord_webhook"`
}

// GeoIPConfig points at an optional local MaxMind country database.
type GeoIPConfig struct {
	Database string `yaml:"database"`
}

// Provider defines the interface for loading configuration.
type Provider interface {
	Load() (*Config, error)
}

// FSProvider implements Provider using the local filesystem.
type FSProvider struct {
	fs     filesys.ReadWriteFS
	path   string
	getenv func(string) string
}

// Verify FSProvider implements Provider interface.
var _ Provider = (*FSProvider)(nil)

// New creates a new configuration provider using the default configuration path.
// If the home directory cannot be determined, it falls back to the current directory.
func New() Provider {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not determine home directory: %v\n", err)
		home = ""
	}
	return NewWithPath(filesys.OS(), filepath.Join(home, DefaultConfigPath))
}

// NewWithPath creates a new provider with a specific config path.
func NewWithPath(fs filesys.ReadWriteFS, path string) Provider {
	return &FSProvider{
		fs:     fs,
		path:   path,
		getenv: os.Getenv,
	}
}

// Default returns a default configuration with preset values.
// This is used when no configuration file exists.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultAPITimeout,
		},
		DualStack: DualStackConfig{
			IPv4URL:   DefaultIPv4URL,
			IPv6URL:   DefaultIPv6URL,
			Timeout:   DefaultDualStackTimeout,
			PinFamily: true,
		},
		DNS: DNSConfig{
			Timeout: DefaultDNSTimeout,
			Retries: DefaultDNSRetries,
		},
		Monitor: MonitorConfig{
			CachePath:    DefaultCachePath,
			Interval:     DefaultMonitorInterval,
			FetchTimeout: DefaultMonitorFetchTimeout,
		},
	}
}

// Load loads the configuration from the provider's path. Values absent from
// the file keep their defaults, and environment overrides are applied last.
func (p *FSProvider) Load() (*Config, error) {
	_ = p.ensureConfigDir()

	cfg, err := p.loadAndParse()
	if err != nil {
		if !errors.Is(err, ErrNoConfig) {
			return nil, err
		}
		cfg = Default()
	}
	p.applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return cfg, nil
}

// Validate checks the configuration to ensure all required fields are set.
// The first problem found is returned.
func (c *Config) Validate() error {
	if err := validateURL("API base URL", c.API.BaseURL); err != nil {
		return err
	}
	if c.API.Timeout < time.Second {
		return errors.New("API timeout must be at least 1 second")
	}
	if err := validateURL("IPv4 endpoint", c.DualStack.IPv4URL); err != nil {
		return err
	}
	if err := validateURL("IPv6 endpoint", c.DualStack.IPv6URL); err != nil {
		return err
	}
	if c.DualStack.Timeout < 100*time.Millisecond {
		return errors.New("dual-stack timeout must be at least 100ms")
	}
	for _, r := range c.DNS.Resolvers {
		if _, _, err := net.SplitHostPort(r); err != nil {
			return fmt.Errorf("DNS resolver %q must be host:port", r)
		}
	}
	if c.DNS.Timeout < time.Second {
		return errors.New("DNS timeout must be at least 1 second")
	}
	if strings.TrimSpace(c.Monitor.CachePath) == "" {
		return errors.New("monitor cache path cannot be empty")
	}
	if c.Monitor.Interval < time.Minute {
		return errors.New("monitor interval must be at least 1 minute")
	}
	if c.Monitor.FetchTimeout < time.Second {
		return errors.New("monitor fetch timeout must be at least 1 second")
	}
	if c.Monitor.SlackWebhook != "" {
		if err := validateURL("Slack webhook", c.Monitor.SlackWebhook); err != nil {
			return err
		}
	}
	if c.Monitor.DiscordWebhook != "" {
		if err := validateURL("Discord webhook", c.Monitor.DiscordWebhook); err != nil {
			return err
		}
	}
	return nil
}

func validateURL(what, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%s cannot be empty", what)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL", what)
	}
	return nil
}

func (p *FSProvider) applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(p.getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.API.BaseURL, EnvBaseURL)
	set(&cfg.Monitor.SlackWebhook, EnvSlackWebhook)
	set(&cfg.Monitor.DiscordWebhook, EnvDiscordWebhook)
	set(&cfg.GeoIP.Database, EnvGeoIPDatabase)
}

func (p *FSProvider) ensureConfigDir() error {
	dir := filepath.Dir(p.path)
	if _, err := p.fs.Stat(dir); os.IsNotExist(err) {
		if err := p.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	return nil
}

func (p *FSProvider) loadAndParse() (*Config, error) {
	f, err := p.fs.Open(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoConfig
		}
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	cfg := Default()
	// An empty or comment-only file decodes to io.EOF and means defaults.
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding config file: %w", err)
	}

	return cfg, nil
}
