package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config represents the emulator configuration
type Config struct {
	// Execution settings shared by all cores
	Execution struct {
		MaxSteps uint64 `toml:"max_steps"` // 0 means unlimited
		Trace    bool   `toml:"trace"`
	} `toml:"execution"`

	// CHIP-8 frontend settings
	Chip8 struct {
		PixelScale   int `toml:"pixel_scale"`
		StepsPerTick int `toml:"steps_per_tick"` // instructions per 60Hz timer tick
	} `toml:"chip8"`

	// 6502 frontend settings
	Mos6502 struct {
		DisplayPollMs int `toml:"display_poll_ms"` // framebuffer refresh interval
	} `toml:"mos6502"`

	// RISC-V settings
	Riscv struct {
		MemorySize    int  `toml:"memory_size"`
		RealTimeOfDay bool `toml:"real_timeofday"` // host clock instead of the fixed stub
	} `toml:"riscv"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.MaxSteps = 0
	cfg.Execution.Trace = false

	cfg.Chip8.PixelScale = 10
	cfg.Chip8.StepsPerTick = 25

	cfg.Mos6502.DisplayPollMs = 16

	cfg.Riscv.MemorySize = 20 * 1024 * 1024
	cfg.Riscv.RealTimeOfDay = false

	return cfg
}

// GetConfigPath returns the platform-specific config file path
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		// Windows: %APPDATA%\retro-emulator\config.toml
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "retro-emulator")

	case "darwin", "linux":
		// macOS/Linux: ~/.config/retro-emulator/config.toml
		homeDir, err := os.UserHomeDir()
		if err != nil {
			// Fallback to current directory
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "retro-emulator")

	default:
		// Unknown platform: use current directory
		return "config.toml"
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file. A missing file
// yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	// Encode to TOML
	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
