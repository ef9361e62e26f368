package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/qjebbs/go-jsons"
)

// Load reads the global configuration, the persisted data configuration and
// any project configuration found in workingDir, later files overriding
// earlier ones.
func Load(workingDir string, debug bool) (*Config, error) {
	paths := append([]string{GlobalConfig(), GlobalConfigData()}, projectConfigs(workingDir)...)
	cfg, err := loadFromFiles(paths)
	if err != nil {
		return nil, err
	}
	cfg.dataConfigDir = GlobalConfigData()
	cfg.setDefaults(workingDir)
	if debug {
		cfg.Options.Debug = true
	}
	return cfg, nil
}

// LoadFile reads the configuration from a single file.
func LoadFile(path, workingDir string, debug bool) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := loadFromFiles([]string{path})
	if err != nil {
		return nil, err
	}
	cfg.dataConfigDir = path
	cfg.setDefaults(workingDir)
	if debug {
		cfg.Options.Debug = true
	}
	return cfg, nil
}

func projectConfigs(workingDir string) []string {
	return []string{
		filepath.Join(workingDir, appName+".json"),
		filepath.Join(workingDir, "."+appName+".json"),
	}
}

func loadFromFiles(paths []string) (*Config, error) {
	var inputs []any
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		slog.Debug("Loaded config file", "path", path)
		inputs = append(inputs, data)
	}
	if len(inputs) == 0 {
		return &Config{}, nil
	}
	merged, err := jsons.Merge(inputs...)
	if err != nil {
		return nil, fmt.Errorf("failed to merge configuration files: %w", err)
	}
	return loadFromBytes(merged)
}

func loadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &cfg, nil
}

// GlobalConfig returns the path to the main config file.
func GlobalConfig() string {
	xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, appName, appName+".json")
	}

	// for windows, it should be in `%LOCALAPPDATA%/vlist/`
	// for linux and macOS, it should be in `$HOME/.config/vlist/`
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}
		return filepath.Join(localAppData, appName, appName+".json")
	}

	return filepath.Join(os.Getenv("HOME"), ".config", appName, appName+".json")
}

// GlobalConfigData returns the path to the config file written by the
// application itself.
func GlobalConfigData() string {
	xdgDataHome := os.Getenv("XDG_DATA_HOME")
	if xdgDataHome != "" {
		return filepath.Join(xdgDataHome, appName, appName+".json")
	}

	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Local")
		}
		return filepath.Join(localAppData, appName, appName+".json")
	}

	return filepath.Join(os.Getenv("HOME"), ".local", "share", appName, appName+".json")
}

// GlobalDataDir returns the directory holding the data config file.
func GlobalDataDir() string {
	return filepath.Dir(GlobalConfigData())
}
