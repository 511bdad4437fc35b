package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/philipp01105/fanlog/core"
	"github.com/philipp01105/fanlog/destination"
	"github.com/philipp01105/fanlog/destination/filedest"
	"github.com/philipp01105/fanlog/formatter"
)

// ErrNoDestinations is returned by Build when no destination is enabled
var ErrNoDestinations = errors.New("config: no destinations configured")

var errCaptureConsole = errors.New("config: capture_stderr cannot be combined with console.stream = stderr")

// Config is the host-supplied configuration
type Config struct {
	DeviceID      string `toml:"device_id" yaml:"device_id"`
	Version       string `toml:"version" yaml:"version"`
	Build         string `toml:"build" yaml:"build"`
	Level         string `toml:"level" yaml:"level"`
	CaptureStderr bool   `toml:"capture_stderr" yaml:"capture_stderr"`

	File     *FileConfig     `toml:"file" yaml:"file"`
	HTTP     *HTTPConfig     `toml:"http" yaml:"http"`
	Syslog   *SyslogConfig   `toml:"syslog" yaml:"syslog"`
	Beats    *BeatsConfig    `toml:"beats" yaml:"beats"`
	Console  *ConsoleConfig  `toml:"console" yaml:"console"`
	Watchdog *WatchdogConfig `toml:"watchdog" yaml:"watchdog"`
}

// FileConfig configures the rotating file destination
type FileConfig struct {
	Path      string `toml:"path" yaml:"path"`
	MaxFiles  int    `toml:"max_files" yaml:"max_files"`
	MaxLength int64  `toml:"max_length" yaml:"max_length"`
	QueueSize int    `toml:"queue_size" yaml:"queue_size"`
}

// HTTPConfig configures the HTTP destination
type HTTPConfig struct {
	URL            string   `toml:"url" yaml:"url"`
	ConnectTimeout Duration `toml:"connect_timeout" yaml:"connect_timeout"`
	ReadTimeout    Duration `toml:"read_timeout" yaml:"read_timeout"`
	QueueSize      int      `toml:"queue_size" yaml:"queue_size"`
}

// SyslogConfig configures the UDP syslog destination
type SyslogConfig struct {
	Host      string `toml:"host" yaml:"host"`
	Port      int    `toml:"port" yaml:"port"`
	Hostname  string `toml:"hostname" yaml:"hostname"`
	Facility  *int   `toml:"facility" yaml:"facility"`
	QueueSize int    `toml:"queue_size" yaml:"queue_size"`
}

// BeatsConfig configures the Logstash Beats destination
type BeatsConfig struct {
	Address     string   `toml:"address" yaml:"address"`
	Timeout     Duration `toml:"timeout" yaml:"timeout"`
	Compression int      `toml:"compression" yaml:"compression"`
	QueueSize   int      `toml:"queue_size" yaml:"queue_size"`
}

// ConsoleConfig configures the console destination
type ConsoleConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Stream  string `toml:"stream" yaml:"stream"` // "stdout" or "stderr"
	Color   string `toml:"color" yaml:"color"`   // "auto", "always" or "never"
	JSON    bool   `toml:"json" yaml:"json"`
	Async   bool   `toml:"async" yaml:"async"`
}

// WatchdogConfig configures the watchdog used by the command line tool
type WatchdogConfig struct {
	Timeout Duration `toml:"timeout" yaml:"timeout"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Load reads a TOML (.toml) or YAML (.yaml, .yml) file, applies defaults
// and validates the result.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(content), &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("config: unsupported file extension %q", ext)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults sets default values for missing configuration
func (c *Config) ApplyDefaults() {
	if c.DeviceID == "" {
		c.DeviceID = uuid.NewString()
	}
	if c.Version == "" {
		c.Version = "?.?"
	}
	if c.Build == "" {
		c.Build = "-1"
	}
	if c.Level == "" {
		c.Level = "info"
	}

	if c.File != nil {
		if c.File.MaxFiles <= 0 {
			c.File.MaxFiles = filedest.DefaultMaxFiles
		}
		if c.File.MaxLength == 0 {
			c.File.MaxLength = filedest.DefaultMaxLength
		}
		if c.File.QueueSize <= 0 {
			c.File.QueueSize = destination.DefaultQueueSize
		}
	}
	if c.HTTP != nil {
		if c.HTTP.ConnectTimeout.Duration <= 0 {
			c.HTTP.ConnectTimeout.Duration = 10 * time.Second
		}
		if c.HTTP.ReadTimeout.Duration <= 0 {
			c.HTTP.ReadTimeout.Duration = 20 * time.Second
		}
		if c.HTTP.QueueSize <= 0 {
			c.HTTP.QueueSize = destination.DefaultQueueSize
		}
	}
	if c.Syslog != nil {
		if c.Syslog.Host == "" {
			c.Syslog.Host = "localhost"
		}
		if c.Syslog.Port == 0 {
			c.Syslog.Port = 514
		}
		if c.Syslog.QueueSize <= 0 {
			c.Syslog.QueueSize = destination.DefaultQueueSize
		}
		if c.Syslog.Facility == nil {
			c.Syslog.Facility = formatter.Facility(formatter.FacilityLocal0)
		}
	}
	if c.Beats != nil {
		if c.Beats.Timeout.Duration <= 0 {
			c.Beats.Timeout.Duration = 3 * time.Second
		}
		if c.Beats.QueueSize <= 0 {
			c.Beats.QueueSize = destination.DefaultQueueSize
		}
	}
	if c.Console != nil {
		if c.Console.Stream == "" {
			c.Console.Stream = "stdout"
		}
		if c.Console.Color == "" {
			c.Console.Color = "auto"
		}
	}
	if c.Watchdog != nil && c.Watchdog.Timeout.Duration <= 0 {
		c.Watchdog.Timeout.Duration = 5 * time.Second
	}
}

// capturesOwnConsole reports whether console output would be written into
// the stderr capture pipe and never reach the terminal.
func (c *Config) capturesOwnConsole() bool {
	return c.CaptureStderr && c.Console != nil && c.Console.Enabled && c.Console.Stream == "stderr"
}

// Validate checks values that have no sensible default. Errors name the
// offending key.
func (c *Config) Validate() error {
	if _, err := core.ParsePriority(c.Level); err != nil {
		return fmt.Errorf("config: level: %w", err)
	}
	if c.File != nil && c.File.Path == "" {
		return fmt.Errorf("config: file.path is required")
	}
	if c.HTTP != nil && c.HTTP.URL == "" {
		return fmt.Errorf("config: http.url is required")
	}
	if c.Syslog != nil && (c.Syslog.Port < 1 || c.Syslog.Port > 65535) {
		return fmt.Errorf("config: syslog.port %d out of range", c.Syslog.Port)
	}
	if c.Syslog != nil && c.Syslog.Facility != nil && (*c.Syslog.Facility < 0 || *c.Syslog.Facility > 23) {
		return fmt.Errorf("config: syslog.facility %d out of range", *c.Syslog.Facility)
	}
	if c.Beats != nil && c.Beats.Address == "" {
		return fmt.Errorf("config: beats.address is required")
	}
	if c.Console != nil {
		switch c.Console.Stream {
		case "stdout", "stderr":
		default:
			return fmt.Errorf("config: console.stream %q must be stdout or stderr", c.Console.Stream)
		}
		switch c.Console.Color {
		case "auto", "always", "never":
		default:
			return fmt.Errorf("config: console.color %q must be auto, always or never", c.Console.Color)
		}
	}
	if c.capturesOwnConsole() {
		return errCaptureConsole
	}
	return nil
}
