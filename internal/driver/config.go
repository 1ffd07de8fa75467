package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the project configuration loaded from constcheck.toml.
// Command-line flags override whatever the file sets.
type Config struct {
	Check CheckConfig `toml:"check"`
}

// CheckConfig configures the check command.
type CheckConfig struct {
	Dedup          *bool  `toml:"dedup"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
	Jobs           int    `toml:"jobs"`
	NoCache        bool   `toml:"no_cache"`
	Format         string `toml:"format"`
}

// FindConfig walks up from startDir to locate constcheck.toml.
func FindConfig(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadConfig finds and decodes the nearest constcheck.toml above startDir.
// A missing config is not an error: the zero Config is returned.
func LoadConfig(startDir string) (*Config, error) {
	path, ok, err := FindConfig(startDir)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if !ok {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// ApplyTo overlays config values onto options the flags did not set.
// setFlags names the flags the user passed explicitly.
func (c *CheckConfig) ApplyTo(opts *CheckOptions, setFlags map[string]bool) {
	if c.Dedup != nil && !setFlags["dedup"] {
		opts.Dedup = *c.Dedup
	}
	if c.MaxDiagnostics > 0 && !setFlags["max-diagnostics"] {
		opts.MaxDiagnostics = c.MaxDiagnostics
	}
	if c.Jobs > 0 && !setFlags["jobs"] {
		opts.Jobs = c.Jobs
	}
}
