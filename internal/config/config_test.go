package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig tests that defaults are populated.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.StartPort != DefaultStartPort {
		t.Errorf("expected start port %d, got %d", DefaultStartPort, cfg.StartPort)
	}
	if cfg.EndPort != DefaultEndPort {
		t.Errorf("expected end port %d, got %d", DefaultEndPort, cfg.EndPort)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultTimeout, cfg.Timeout)
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, cfg.Concurrency)
	}
	if !cfg.PreferAPI {
		t.Error("expected PreferAPI to default to true")
	}
	if len(cfg.RPCPorts) == 0 || len(cfg.DebugPorts) == 0 {
		t.Error("expected default RPC and debug port sets to be non-empty")
	}
}

// TestConfigValidate tests validation of scan configurations.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := NewConfig()
		cfg.Target = "127.0.0.1"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid config passes",
			mutate:  func(*Config) {},
			wantErr: nil,
		},
		{
			name:    "missing target",
			mutate:  func(c *Config) { c.Target = "" },
			wantErr: ErrNoTarget,
		},
		{
			name:    "whitespace target",
			mutate:  func(c *Config) { c.Target = "   " },
			wantErr: ErrNoTarget,
		},
		{
			name:    "start port above end port",
			mutate:  func(c *Config) { c.StartPort = 100; c.EndPort = 10 },
			wantErr: ErrInvalidPortRange,
		},
		{
			name:    "start port zero",
			mutate:  func(c *Config) { c.StartPort = 0 },
			wantErr: ErrInvalidPortRange,
		},
		{
			name:    "end port above 65535",
			mutate:  func(c *Config) { c.EndPort = 65536 },
			wantErr: ErrInvalidPortRange,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Timeout = -time.Second },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "zero probe timeout",
			mutate:  func(c *Config) { c.ProbeTimeout = 0 },
			wantErr: ErrInvalidProbeTimeout,
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Concurrency = 0 },
			wantErr: ErrInvalidConcurrency,
		},
		{
			name:    "conflicting report formats",
			mutate:  func(c *Config) { c.JSONReport = true; c.MarkdownReport = true },
			wantErr: ErrConflictingReportFormats,
		},
		{
			name:    "malformed proxy address",
			mutate:  func(c *Config) { c.ProxyAddress = "not-an-address" },
			wantErr: ErrInvalidProxyAddress,
		},
		{
			name:    "valid proxy address",
			mutate:  func(c *Config) { c.ProxyAddress = "127.0.0.1:9050" },
			wantErr: nil,
		},
		{
			name:    "single port range",
			mutate:  func(c *Config) { c.StartPort = 443; c.EndPort = 443 },
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestLoadConfigFile tests YAML settings file loading.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads classifier and resolver settings", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `classifier:
  rpc_ports: [8545, 8546]
  debug_ports: [9229]
  prefer_api: false
  probe_timeout: 750ms
resolver:
  primary: 9.9.9.9:53
  timeout: 2s
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg := NewConfig()
		f.Apply(cfg)

		if len(cfg.RPCPorts) != 2 || cfg.RPCPorts[0] != 8545 {
			t.Errorf("expected rpc_ports override, got %v", cfg.RPCPorts)
		}
		if len(cfg.DebugPorts) != 1 || cfg.DebugPorts[0] != 9229 {
			t.Errorf("expected debug_ports override, got %v", cfg.DebugPorts)
		}
		if cfg.PreferAPI {
			t.Error("expected prefer_api override to false")
		}
		if cfg.ProbeTimeout != 750*time.Millisecond {
			t.Errorf("expected probe timeout 750ms, got %v", cfg.ProbeTimeout)
		}
		if cfg.PrimaryResolver != "9.9.9.9:53" {
			t.Errorf("expected primary resolver override, got %q", cfg.PrimaryResolver)
		}
		// Unset fields keep defaults
		if cfg.FallbackResolver != DefaultFallbackResolver {
			t.Errorf("expected fallback resolver default, got %q", cfg.FallbackResolver)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("malformed YAML returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("classifier: ["), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error for malformed YAML")
		}
	})
}

// TestFindConfigFile tests settings file discovery.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path wins", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}

		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "absent")); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}
