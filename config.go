package smbmount

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Logger interface for logging operations.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Default query target for virtual-disk resources.
const (
	DefaultNamespace = "root/Microsoft/Windows/Storage"
	DefaultClass     = ClassDiskShare
)

// Config holds the configuration for the resolve-and-mount pipeline.
type Config struct {
	// Management endpoint
	Port int `yaml:"port"` // SMB port used when the address has none (default: 445)

	// Credentials passed through to the transport
	Username    string `yaml:"username"`     // Username (domain\user or user@domain)
	Password    string `yaml:"password"`     // Password
	Domain      string `yaml:"domain"`       // Domain name (optional)
	GuestAccess bool   `yaml:"guest_access"` // Anonymous/guest access

	// Query target
	Namespace string `yaml:"namespace"` // Namespace of virtual-disk resources
	Class     string `yaml:"class"`     // Resource class (default: disk shares)

	// Timeouts
	ConnTimeout time.Duration `yaml:"conn_timeout"` // Session open timeout (default: 30s)
	OpTimeout   time.Duration `yaml:"op_timeout"`   // Bound on one resolve call (default: 60s)

	// Retry policy for opening sessions (nil = use default)
	RetryPolicy *RetryPolicy `yaml:"retry"`

	// Logging
	Logger Logger `yaml:"-"` // Logger for debug and error messages (nil = no logging)
}

// setDefaults sets default values for any unspecified configuration options.
func (c *Config) setDefaults() {
	if c.Port == 0 {
		c.Port = 445
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.Class == "" {
		c.Class = DefaultClass
	}
	if c.ConnTimeout == 0 {
		c.ConnTimeout = 30 * time.Second
	}
	if c.OpTimeout == 0 {
		c.OpTimeout = 60 * time.Second
	}
	if c.Username == "" && c.Password == "" {
		c.GuestAccess = true
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port: %d", ErrInvalidConfig, c.Port)
	}
	if c.ConnTimeout < 0 {
		return fmt.Errorf("%w: negative conn timeout: %v", ErrInvalidConfig, c.ConnTimeout)
	}
	if c.OpTimeout < 0 {
		return fmt.Errorf("%w: negative op timeout: %v", ErrInvalidConfig, c.OpTimeout)
	}
	if !c.GuestAccess && c.Username == "" {
		return fmt.Errorf("%w: username is required for non-guest access", ErrInvalidConfig)
	}
	if p := c.RetryPolicy; p != nil {
		if p.MaxAttempts < 0 {
			return fmt.Errorf("%w: negative retry attempts: %d", ErrInvalidConfig, p.MaxAttempts)
		}
		if p.Multiplier != 0 && p.Multiplier < 1 {
			return fmt.Errorf("%w: retry multiplier must be >= 1: %v", ErrInvalidConfig, p.Multiplier)
		}
	}
	return nil
}

// logf logs through the configured logger, if any.
func (c *Config) logf(format string, v ...interface{}) {
	if c != nil && c.Logger != nil {
		c.Logger.Printf(format, v...)
	}
}

// LoadConfig reads a YAML configuration file. Unset fields keep their zero
// value; defaults are applied when the config is used.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// envOverrides mirrors the Config fields that may be set from the
// environment. It is prefilled from the Config, so an unset variable keeps
// the current value and a set one overwrites it.
type envOverrides struct {
	Port        int           `env:"SMBMOUNT_PORT,overwrite"`
	Username    string        `env:"SMBMOUNT_USERNAME,overwrite"`
	Password    string        `env:"SMBMOUNT_PASSWORD,overwrite"`
	Domain      string        `env:"SMBMOUNT_DOMAIN,overwrite"`
	GuestAccess bool          `env:"SMBMOUNT_GUEST,overwrite"`
	Namespace   string        `env:"SMBMOUNT_NAMESPACE,overwrite"`
	ConnTimeout time.Duration `env:"SMBMOUNT_CONN_TIMEOUT,overwrite"`
	OpTimeout   time.Duration `env:"SMBMOUNT_OP_TIMEOUT,overwrite"`
}

// ApplyEnv overlays SMBMOUNT_* environment variables onto c.
func (c *Config) ApplyEnv(ctx context.Context) error {
	return c.applyEnv(ctx, envconfig.OsLookuper())
}

func (c *Config) applyEnv(ctx context.Context, l envconfig.Lookuper) error {
	env := envOverrides{
		Port:        c.Port,
		Username:    c.Username,
		Password:    c.Password,
		Domain:      c.Domain,
		GuestAccess: c.GuestAccess,
		Namespace:   c.Namespace,
		ConnTimeout: c.ConnTimeout,
		OpTimeout:   c.OpTimeout,
	}
	if err := envconfig.ProcessWith(ctx, &env, l); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	c.Port = env.Port
	c.Username = env.Username
	c.Password = env.Password
	c.Domain = env.Domain
	c.GuestAccess = env.GuestAccess
	c.Namespace = env.Namespace
	c.ConnTimeout = env.ConnTimeout
	c.OpTimeout = env.OpTimeout
	return nil
}
