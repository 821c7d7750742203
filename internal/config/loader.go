package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default settings file name.
const DefaultConfigFile = ".portsleuth"

// ErrConfigNotFound is returned when the settings file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the on-disk settings file structure.
// It tunes the classifier and resolver; scan parameters (target, range,
// timeout, concurrency) always come from CLI flags.
//
// Example:
//
//	classifier:
//	  rpc_ports: [8545, 8546]
//	  debug_ports: [1234, 4444, 9229]
//	  prefer_api: false
//	  probe_timeout: 750ms
//	resolver:
//	  primary: 8.8.8.8:53
//	  fallback: 9.9.9.9:53
type File struct {
	Classifier ClassifierSettings `yaml:"classifier"`
	Resolver   ResolverSettings   `yaml:"resolver"`
}

// ClassifierSettings tunes the service-classification pipeline.
type ClassifierSettings struct {
	// RPCPorts overrides the port set where the Ethereum JSON-RPC probe
	// runs first. Empty means keep the default.
	RPCPorts []int `yaml:"rpc_ports"`

	// DebugPorts overrides the debug/remote port set.
	DebugPorts []int `yaml:"debug_ports"`

	// PreferAPI controls whether REST/GraphQL-looking HTTP services are
	// relabeled as API endpoints. Nil means keep the default (true).
	PreferAPI *bool `yaml:"prefer_api"`

	// ProbeTimeout overrides the per-exchange read/write timeout.
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
}

// ResolverSettings tunes DNS resolution of hostname targets.
type ResolverSettings struct {
	// Primary is the DNS server tried first, in "host:port" format.
	Primary string `yaml:"primary"`

	// Fallback is the DNS server tried when the primary fails.
	Fallback string `yaml:"fallback"`

	// Timeout bounds each DNS query.
	Timeout time.Duration `yaml:"timeout"`
}

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound. Callers should
// handle this based on whether the path was explicitly specified.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	return &f, nil
}

// FindConfigFile searches for the settings file in the following order:
//  1. If configPath is specified, use it directly
//  2. Look for .portsleuth in the current directory
//  3. Look for .portsleuth in the user's home directory
//
// Returns the path if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// Apply merges the file's non-zero settings into the config.
// CLI-provided values are not touched; only classifier and resolver
// tuning can come from the file.
func (f *File) Apply(cfg *Config) {
	if len(f.Classifier.RPCPorts) > 0 {
		cfg.RPCPorts = f.Classifier.RPCPorts
	}
	if len(f.Classifier.DebugPorts) > 0 {
		cfg.DebugPorts = f.Classifier.DebugPorts
	}
	if f.Classifier.PreferAPI != nil {
		cfg.PreferAPI = *f.Classifier.PreferAPI
	}
	if f.Classifier.ProbeTimeout > 0 {
		cfg.ProbeTimeout = f.Classifier.ProbeTimeout
	}
	if f.Resolver.Primary != "" {
		cfg.PrimaryResolver = f.Resolver.Primary
	}
	if f.Resolver.Fallback != "" {
		cfg.FallbackResolver = f.Resolver.Fallback
	}
	if f.Resolver.Timeout > 0 {
		cfg.ResolveTimeout = f.Resolver.Timeout
	}
}
