package smbmount

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestConfig_setDefaults(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected *Config
	}{
		{
			name:   "empty config gets all defaults",
			config: &Config{},
			expected: &Config{
				Port:        445,
				GuestAccess: true,
				Namespace:   DefaultNamespace,
				Class:       ClassDiskShare,
				ConnTimeout: 30 * time.Second,
				OpTimeout:   60 * time.Second,
			},
		},
		{
			name: "custom values are preserved",
			config: &Config{
				Port:        10445,
				Username:    "jdoe",
				Password:    "secret",
				Namespace:   "root/cimv2",
				ConnTimeout: 5 * time.Second,
				OpTimeout:   120 * time.Second,
			},
			expected: &Config{
				Port:        10445,
				Username:    "jdoe",
				Password:    "secret",
				GuestAccess: false,
				Namespace:   "root/cimv2",
				Class:       ClassDiskShare,
				ConnTimeout: 5 * time.Second,
				OpTimeout:   120 * time.Second,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.setDefaults()

			if tt.config.Port != tt.expected.Port {
				t.Errorf("Port = %d, want %d", tt.config.Port, tt.expected.Port)
			}
			if tt.config.GuestAccess != tt.expected.GuestAccess {
				t.Errorf("GuestAccess = %v, want %v", tt.config.GuestAccess, tt.expected.GuestAccess)
			}
			if tt.config.Namespace != tt.expected.Namespace {
				t.Errorf("Namespace = %q, want %q", tt.config.Namespace, tt.expected.Namespace)
			}
			if tt.config.Class != tt.expected.Class {
				t.Errorf("Class = %q, want %q", tt.config.Class, tt.expected.Class)
			}
			if tt.config.ConnTimeout != tt.expected.ConnTimeout {
				t.Errorf("ConnTimeout = %v, want %v", tt.config.ConnTimeout, tt.expected.ConnTimeout)
			}
			if tt.config.OpTimeout != tt.expected.OpTimeout {
				t.Errorf("OpTimeout = %v, want %v", tt.config.OpTimeout, tt.expected.OpTimeout)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:   "valid guest config",
			config: &Config{Port: 445, GuestAccess: true},
		},
		{
			name:   "valid credentials",
			config: &Config{Port: 445, Username: "user", Password: "pass"},
		},
		{
			name:    "port too low",
			config:  &Config{Port: 0, GuestAccess: true},
			wantErr: true,
		},
		{
			name:    "port too high",
			config:  &Config{Port: 65536, GuestAccess: true},
			wantErr: true,
		},
		{
			name:    "negative op timeout",
			config:  &Config{Port: 445, GuestAccess: true, OpTimeout: -time.Second},
			wantErr: true,
		},
		{
			name:    "negative conn timeout",
			config:  &Config{Port: 445, GuestAccess: true, ConnTimeout: -time.Second},
			wantErr: true,
		},
		{
			name:    "password without username",
			config:  &Config{Port: 445, Password: "pass"},
			wantErr: true,
		},
		{
			name:    "negative retry attempts",
			config:  &Config{Port: 445, GuestAccess: true, RetryPolicy: &RetryPolicy{MaxAttempts: -1}},
			wantErr: true,
		},
		{
			name:    "shrinking retry multiplier",
			config:  &Config{Port: 445, GuestAccess: true, RetryPolicy: &RetryPolicy{MaxAttempts: 3, Multiplier: 0.5}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "smbmount.yaml")
	data := []byte(`port: 10445
username: jdoe
password: secret
domain: CORP
namespace: root/cimv2
conn_timeout: 5s
op_timeout: 1m
retry:
  max_attempts: 4
  initial_delay: 50ms
  max_delay: 2s
  multiplier: 1.5
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != 10445 {
		t.Errorf("Port = %d, want 10445", cfg.Port)
	}
	if cfg.Username != "jdoe" || cfg.Password != "secret" || cfg.Domain != "CORP" {
		t.Errorf("credentials = %q/%q/%q", cfg.Username, cfg.Password, cfg.Domain)
	}
	if cfg.Namespace != "root/cimv2" {
		t.Errorf("Namespace = %q, want root/cimv2", cfg.Namespace)
	}
	if cfg.ConnTimeout != 5*time.Second {
		t.Errorf("ConnTimeout = %v, want 5s", cfg.ConnTimeout)
	}
	if cfg.OpTimeout != time.Minute {
		t.Errorf("OpTimeout = %v, want 1m", cfg.OpTimeout)
	}
	if cfg.RetryPolicy == nil {
		t.Fatal("RetryPolicy = nil")
	}
	if cfg.RetryPolicy.MaxAttempts != 4 || cfg.RetryPolicy.InitialDelay != 50*time.Millisecond ||
		cfg.RetryPolicy.MaxDelay != 2*time.Second || cfg.RetryPolicy.Multiplier != 1.5 {
		t.Errorf("RetryPolicy = %+v", cfg.RetryPolicy)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadConfig(missing) error = %v, want os.ErrNotExist", err)
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("port: [not a number"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("LoadConfig(bad) error = %v, want ErrInvalidConfig", err)
	}
}

func TestConfig_applyEnv(t *testing.T) {
	cfg := &Config{
		Port:     10445,
		Username: "from-file",
		Domain:   "FILE",
	}

	lookuper := envconfig.MapLookuper(map[string]string{
		"SMBMOUNT_USERNAME":   "from-env",
		"SMBMOUNT_PASSWORD":   "env-secret",
		"SMBMOUNT_OP_TIMEOUT": "15s",
	})
	if err := cfg.applyEnv(context.Background(), lookuper); err != nil {
		t.Fatalf("applyEnv() error = %v", err)
	}

	if cfg.Port != 10445 {
		t.Errorf("Port = %d, want unset variable to keep 10445", cfg.Port)
	}
	if cfg.Domain != "FILE" {
		t.Errorf("Domain = %q, want unset variable to keep FILE", cfg.Domain)
	}
	if cfg.Username != "from-env" {
		t.Errorf("Username = %q, want from-env", cfg.Username)
	}
	if cfg.Password != "env-secret" {
		t.Errorf("Password = %q, want env-secret", cfg.Password)
	}
	if cfg.OpTimeout != 15*time.Second {
		t.Errorf("OpTimeout = %v, want 15s", cfg.OpTimeout)
	}
}

func TestConfig_applyEnvInvalid(t *testing.T) {
	cfg := &Config{}
	lookuper := envconfig.MapLookuper(map[string]string{"SMBMOUNT_PORT": "not-a-port"})
	if err := cfg.applyEnv(context.Background(), lookuper); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("applyEnv() error = %v, want ErrInvalidConfig", err)
	}
}

func TestConfig_applyEnvKeepsFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smbmount.yaml")
	data := []byte(`port: 10445
username: jdoe
password: secret
domain: CORP
guest_access: true
namespace: root/cimv2
conn_timeout: 5s
op_timeout: 1m
retry:
  max_attempts: 4
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if err := cfg.applyEnv(context.Background(), envconfig.MapLookuper(nil)); err != nil {
		t.Fatalf("applyEnv() error = %v", err)
	}

	if cfg.Port != 10445 {
		t.Errorf("Port = %d, want 10445", cfg.Port)
	}
	if cfg.Username != "jdoe" || cfg.Password != "secret" || cfg.Domain != "CORP" {
		t.Errorf("credentials = %q/%q/%q, want jdoe/secret/CORP", cfg.Username, cfg.Password, cfg.Domain)
	}
	if !cfg.GuestAccess {
		t.Error("GuestAccess = false, want true")
	}
	if cfg.Namespace != "root/cimv2" {
		t.Errorf("Namespace = %q, want root/cimv2", cfg.Namespace)
	}
	if cfg.ConnTimeout != 5*time.Second || cfg.OpTimeout != time.Minute {
		t.Errorf("timeouts = %v/%v, want 5s/1m", cfg.ConnTimeout, cfg.OpTimeout)
	}
	if cfg.RetryPolicy == nil || cfg.RetryPolicy.MaxAttempts != 4 {
		t.Errorf("RetryPolicy = %+v, want MaxAttempts 4", cfg.RetryPolicy)
	}
}

func TestConfig_applyEnvOverridesBool(t *testing.T) {
	cfg := &Config{GuestAccess: true}
	lookuper := envconfig.MapLookuper(map[string]string{"SMBMOUNT_GUEST": "false"})
	if err := cfg.applyEnv(context.Background(), lookuper); err != nil {
		t.Fatalf("applyEnv() error = %v", err)
	}
	if cfg.GuestAccess {
		t.Error("GuestAccess = true, want false from the environment")
	}
}
