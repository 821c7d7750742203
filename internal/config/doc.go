// Package config provides configuration structures and utilities for portsleuth.
// It defines the scan options populated from CLI flags, classifier tuning
// loaded from the optional .portsleuth YAML file, and validation that runs
// before any network activity.
package config
