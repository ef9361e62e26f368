package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/sjson"
)

const (
	appName              = "vlist"
	defaultDataDirectory = ".vlist"

	defaultGraceMS      = 1000
	defaultFrameMS      = 16
	defaultScrollStep   = 3
	defaultDemoItems    = 10_000
	defaultFilterPrompt = "/"
)

type ListOptions struct {
	// How long an evicted boundary node stays on screen.
	GraceMS int `json:"retention_grace_ms,omitempty"`
	// Delay between a change and the frame that renders it.
	FrameMS int `json:"frame_interval_ms,omitempty"`
	// Rows scrolled by one mouse wheel notch.
	ScrollStep int `json:"scroll_step,omitempty"`
	// Items generated when no file is given.
	DemoItems int `json:"demo_items,omitempty"`
	// Poll followed files instead of using filesystem notifications.
	Poll bool `json:"poll,omitempty"`
}

type TUIOptions struct {
	CompactMode  bool   `json:"compact_mode,omitempty"`
	FilterPrompt string `json:"filter_prompt,omitempty"`
}

type Options struct {
	TUI           *TUIOptions `json:"tui,omitempty"`
	Debug         bool        `json:"debug,omitempty"`
	DataDirectory string      `json:"data_directory,omitempty"` // Relative to the cwd
}

// Config holds the configuration for vlist.
type Config struct {
	List ListOptions `json:"list"`

	Options *Options `json:"options,omitempty"`

	// Internal
	workingDir    string `json:"-"`
	dataConfigDir string `json:"-"`
}

func (c *Config) WorkingDir() string {
	return c.workingDir
}

// Grace returns the retention grace period.
func (c *Config) Grace() time.Duration {
	return time.Duration(c.List.GraceMS) * time.Millisecond
}

// FrameInterval returns the delay of a requested frame.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(c.List.FrameMS) * time.Millisecond
}

// LogFile returns the path of the log file.
func (c *Config) LogFile() string {
	return filepath.Join(c.Options.DataDirectory, "logs", appName+".log")
}

func (c *Config) SetCompactMode(enabled bool) error {
	if c.Options == nil {
		c.Options = &Options{}
	}
	if c.Options.TUI == nil {
		c.Options.TUI = &TUIOptions{}
	}
	c.Options.TUI.CompactMode = enabled
	return c.SetConfigField("options.tui.compact_mode", enabled)
}

// SetConfigField writes a single field of the persisted configuration,
// leaving the rest of the file untouched.
func (c *Config) SetConfigField(key string, value any) error {
	data, err := os.ReadFile(c.dataConfigDir)
	if err != nil {
		if os.IsNotExist(err) {
			data = []byte("{}")
		} else {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	newValue, err := sjson.Set(string(data), key, value)
	if err != nil {
		return fmt.Errorf("failed to set config field %s: %w", key, err)
	}
	if err := os.MkdirAll(filepath.Dir(c.dataConfigDir), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(c.dataConfigDir, []byte(newValue), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) setDefaults(workingDir string) {
	c.workingDir = workingDir
	if c.Options == nil {
		c.Options = &Options{}
	}
	if c.Options.TUI == nil {
		c.Options.TUI = &TUIOptions{}
	}
	if c.Options.TUI.FilterPrompt == "" {
		c.Options.TUI.FilterPrompt = defaultFilterPrompt
	}
	if c.Options.DataDirectory == "" {
		c.Options.DataDirectory = filepath.Join(workingDir, defaultDataDirectory)
	}
	if c.List.GraceMS <= 0 {
		c.List.GraceMS = defaultGraceMS
	}
	if c.List.FrameMS <= 0 {
		c.List.FrameMS = defaultFrameMS
	}
	if c.List.ScrollStep <= 0 {
		c.List.ScrollStep = defaultScrollStep
	}
	if c.List.DemoItems <= 0 {
		c.List.DemoItems = defaultDemoItems
	}
}
