package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mandelsoft/goutils/generics"
	"github.com/mandelsoft/goutils/sliceutils"
	"github.com/mandelsoft/vfs/pkg/vfs"

	"github.com/mandelsoft/fusion/pkg/utils"
)

const CONFIG_FILE = ".fusectl"

type Config struct {
	Providers []string `json:"providers,omitempty"`
	Steps     *int     `json:"steps,omitempty"`
	LogLevel  *string  `json:"logLevel,omitempty"`
}

// GetConfig merges the config files found in the home directory, the
// user config directory and the current directory, the explicitly
// given file and the environment, in this order.
func GetConfig(fs vfs.FileSystem, path string) (*Config, error) {
	var cfg Config

	dir, err := os.UserHomeDir()
	if err == nil {
		MergeConfig(&cfg, ReadConfig(fs, filepath.Join(dir, CONFIG_FILE)))
	}
	dir, err = os.UserConfigDir()
	if err == nil {
		MergeConfig(&cfg, ReadConfig(fs, filepath.Join(dir, CONFIG_FILE)))
	}
	MergeConfig(&cfg, ReadConfig(fs, CONFIG_FILE))

	if path != "" {
		data, err := vfs.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
		var add Config
		if err := utils.UnmarshalYAML(data, &add); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", path, err)
		}
		MergeConfig(&cfg, &add)
	}

	if v := os.Getenv("FUSECTL_PROVIDERS"); v != "" {
		cfg.Providers = sliceutils.Transform(strings.Split(v, ","), strings.TrimSpace)
	}
	if v := os.Getenv("FUSECTL_STEPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid FUSECTL_STEPS %q", v)
		}
		cfg.Steps = generics.Pointer(n)
	}
	return &cfg, nil
}

// ReadConfig reads an optional config file.
func ReadConfig(fs vfs.FileSystem, path string) *Config {
	data, err := vfs.ReadFile(fs, path)
	if err != nil {
		return nil
	}

	var cfg Config
	err = utils.UnmarshalYAML(data, &cfg)
	if err != nil {
		log.Warn("ignoring invalid config file {{path}}", "path", path, "error", err)
		return nil
	}
	return &cfg
}

func MergeConfig(cfg *Config, add *Config) {
	if add == nil {
		return
	}
	if add.Providers != nil {
		cfg.Providers = add.Providers
	}
	if add.Steps != nil {
		cfg.Steps = add.Steps
	}
	if add.LogLevel != nil {
		cfg.LogLevel = add.LogLevel
	}
}
