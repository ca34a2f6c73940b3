// Package policy holds the immutable review policy configuration and
// the disposition gate applied to verified patches.
package policy

import (
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// ValidationError reports an out-of-range or malformed policy field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid policy: %s: %s", e.Field, e.Reason)
}

// Config is the policy surface for one review. It is an explicit value
// passed into every decision point; replacing it requires constructing
// a new validated Config.
type Config struct {
	Denylist            []string `yaml:"denylist" json:"denylist"`
	MaxLOC              int      `yaml:"max_loc" json:"max_loc"`
	MaxFilesPerPatch    int      `yaml:"max_files_per_patch" json:"max_files_per_patch"`
	AutoCommitThreshold float64  `yaml:"auto_commit_threshold" json:"auto_commit_threshold"`
}

// Default returns the default policy.
func Default() Config {
	return Config{
		Denylist:            []string{"auth/**", "secrets/**", "config/prod/**"},
		MaxLOC:              40,
		MaxFilesPerPatch:    5,
		AutoCommitThreshold: 0.8,
	}
}

// Validate range-checks every field. A Config must validate before use.
func (c Config) Validate() error {
	if c.MaxLOC <= 0 {
		return &ValidationError{Field: "max_loc", Reason: "must be a positive integer"}
	}
	if c.MaxFilesPerPatch <= 0 {
		return &ValidationError{Field: "max_files_per_patch", Reason: "must be a positive integer"}
	}
	if c.AutoCommitThreshold < 0 || c.AutoCommitThreshold > 1 {
		return &ValidationError{Field: "auto_commit_threshold", Reason: "must be between 0 and 1"}
	}
	for _, pat := range c.Denylist {
		if !doublestar.ValidatePattern(pat) {
			return &ValidationError{Field: "denylist", Reason: fmt.Sprintf("bad glob pattern %q", pat)}
		}
	}
	return nil
}

// Denied reports whether the path matches any denylist pattern and
// returns the matching pattern.
func (c Config) Denied(path string) (bool, string) {
	for _, pat := range c.Denylist {
		if ok, _ := doublestar.Match(pat, path); ok {
			return true, pat
		}
	}
	return false, ""
}

// Load reads and validates a policy file in YAML format. Missing fields
// keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading policy file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &ValidationError{Field: "file", Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
