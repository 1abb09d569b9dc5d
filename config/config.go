package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config is the on-disk configuration of the kernel extension. All
// fields have working defaults so a missing file is not an error.
type Config struct {
	Hooks       Hooks       `toml:"hooks"`
	ErrF        ErrF        `toml:"errf"`
	Diagnostics Diagnostics `toml:"diagnostics"`
}

type Hooks struct {
	Info       bool `toml:"info"`
	Memory     bool `toml:"memory"`
	Control    bool `toml:"control"`
	Backdoor   bool `toml:"backdoor"`
	CacheOps   bool `toml:"cache_ops"`
	SendSync   bool `toml:"send_sync"`
	GpuWifi    bool `toml:"gpu_wifi"`
	DiagBreak  bool `toml:"diag_break"`
	PluginExit bool `toml:"plugin_exit"`
}

type ErrF struct {
	// DisablePrompt renders fatal errors without blocking for
	// acknowledgment. Throws are still formatted and logged.
	DisablePrompt bool   `toml:"disable_prompt"`
	UserString    string `toml:"user_string"`
}

type Diagnostics struct {
	// State is the initial diagnostic state word. Bits 0 and 2
	// participate in the thread hold predicate.
	State uint32 `toml:"state"`
}

func Default() *Config {
	return &Config{
		Hooks: Hooks{
			Info:       true,
			Memory:     true,
			Control:    true,
			Backdoor:   true,
			CacheOps:   true,
			SendSync:   true,
			GpuWifi:    true,
			DiagBreak:  true,
			PluginExit: true,
		},
	}
}

// Load reads path, falling back to defaults when the file does not
// exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	_, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			return Default(), nil
		}

		return nil, errors.Wrapf(err, "decoding config %s", path)
	}

	return cfg, nil
}
