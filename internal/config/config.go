package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// ConfigName is the base name of the configuration file, looked up
	// with any extension viper understands (slipway.yaml, slipway.json, ...).
	ConfigName = "slipway"

	// EnvPrefix is the prefix for environment variable overrides,
	// e.g. SLIPWAY_SERVE_PORT=9000.
	EnvPrefix = "SLIPWAY"

	// DefaultHost is the default development server host.
	DefaultHost = "127.0.0.1"

	// DefaultPort is the default development server port.
	DefaultPort = 8000

	// DefaultDist is the default served directory, relative to the
	// project root.
	DefaultDist = "dist"

	// DefaultDebounce is the default quiet window between respawns.
	DefaultDebounce = 2 * time.Second
)

// Config is the slipway configuration for a project.
type Config struct {
	// Name is the project name, used in log output.
	Name string `mapstructure:"name"`

	// Dist is the served directory, relative to the project root
	// unless absolute.
	Dist string `mapstructure:"dist"`

	// Serve configures the development server.
	Serve ServeConfig `mapstructure:"serve"`

	// Watch configures the filesystem watcher.
	Watch WatchConfig `mapstructure:"watch"`

	// Build configures the command run on changes.
	Build BuildConfig `mapstructure:"build"`

	// Publish configures S3 publishing.
	Publish PublishConfig `mapstructure:"publish"`
}

// ServeConfig contains development server settings.
type ServeConfig struct {
	// Host is the address to bind to.
	Host string `mapstructure:"host"`

	// Port is the port to listen on.
	Port int `mapstructure:"port"`

	// NotFound is a file served in place of a 404, relative to the
	// served directory. Empty disables the fallback.
	NotFound string `mapstructure:"not_found"`

	// Metrics exposes Prometheus metrics on the dev server.
	Metrics bool `mapstructure:"metrics"`
}

// WatchConfig contains filesystem watcher settings.
type WatchConfig struct {
	// Paths are the directories to watch. Empty means the project root.
	Paths []string `mapstructure:"paths"`

	// Excludes are paths never watched, resolved against the working
	// directory unless absolute.
	Excludes []string `mapstructure:"excludes"`

	// WorkspaceExcludes are paths never watched, relative to the
	// project root.
	WorkspaceExcludes []string `mapstructure:"workspace_excludes"`

	// Debounce is the quiet window after a respawn during which
	// further changes are ignored.
	Debounce time.Duration `mapstructure:"debounce"`
}

// BuildConfig contains settings for the supervised command.
type BuildConfig struct {
	// Command is the argv of the command to run and respawn on changes.
	Command []string `mapstructure:"command"`
}

// PublishConfig contains S3 publishing settings.
type PublishConfig struct {
	// Bucket is the destination S3 bucket.
	Bucket string `mapstructure:"bucket"`

	// Prefix is prepended to every object key.
	Prefix string `mapstructure:"prefix"`

	// Region overrides the ambient AWS region.
	Region string `mapstructure:"region"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Dist: DefaultDist,
		Serve: ServeConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Watch: WatchConfig{
			Debounce: DefaultDebounce,
		},
	}
}

// Load reads the configuration from dir, layering environment variable
// overrides on top. A missing config file is not an error; defaults
// apply.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(ConfigName)
	v.AddConfigPath(dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading %s: %w", ConfigName, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", ConfigName, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dist", DefaultDist)
	v.SetDefault("serve.host", DefaultHost)
	v.SetDefault("serve.port", DefaultPort)
	v.SetDefault("serve.not_found", "")
	v.SetDefault("serve.metrics", false)
	v.SetDefault("watch.debounce", DefaultDebounce.String())
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return fmt.Errorf("config: serve.port %d out of range", c.Serve.Port)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("config: watch.debounce must not be negative")
	}
	return nil
}

// Address returns the host:port the dev server binds to.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Serve.Host, strconv.Itoa(c.Serve.Port))
}

// DistPath resolves the served directory against the project root.
func (c *Config) DistPath(root string) string {
	dist := c.Dist
	if dist == "" {
		dist = DefaultDist
	}
	if filepath.IsAbs(dist) {
		return dist
	}
	return filepath.Join(root, dist)
}

// Command splits the configured build command into its name and
// arguments. ok is false when no command is configured.
func (c *Config) Command() (name string, args []string, ok bool) {
	if len(c.Build.Command) == 0 {
		return "", nil, false
	}
	return c.Build.Command[0], c.Build.Command[1:], true
}
