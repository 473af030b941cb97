package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"osteach/internal/limits"
)

// Config is the on-disk boot configuration, overriding limits.Default()
// field by field. Unset (zero) fields keep the built-in default, in the
// style of dh-cli's internal/config.Config.
type Config struct {
	PageSize int `toml:"page_size,omitempty"`
	OpenMax  int `toml:"open_max,omitempty"`
	PidMax   int `toml:"pid_max,omitempty"`
	PathMax  int `toml:"path_max,omitempty"`
	ArgMax   int `toml:"arg_max,omitempty"`
	RAMBytes int `toml:"ram_bytes,omitempty"`
}

// loadConfig reads path (if non-empty and present) and overlays it onto
// limits.Default(). A missing path is not an error: kernelctl boots with
// built-in defaults, matching dh-cli's "no config file yet" behavior.
func loadConfig(path string) (limits.Config, error) {
	cfg := limits.Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	var overlay Config
	if err := toml.Unmarshal(data, &overlay); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	applyOverlay(&cfg, overlay)
	return cfg, nil
}

func applyOverlay(cfg *limits.Config, o Config) {
	if o.PageSize != 0 {
		cfg.PageSize = o.PageSize
	}
	if o.OpenMax != 0 {
		cfg.OpenMax = o.OpenMax
	}
	if o.PidMax != 0 {
		cfg.PidMax = o.PidMax
	}
	if o.PathMax != 0 {
		cfg.PathMax = o.PathMax
	}
	if o.ArgMax != 0 {
		cfg.ArgMax = o.ArgMax
	}
	if o.RAMBytes != 0 {
		cfg.RAMBytes = o.RAMBytes
	}
}
