// Package config loads recorder settings from defaults, an optional config file, RECORDER_*
// environment variables and command line overrides, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/spf13/viper"
)

// Config holds every tunable of the recorder.
type Config struct {
	SampleRate   float64 `mapstructure:"sample_rate"`
	Channels     int     `mapstructure:"channels"`
	BlockSize    int     `mapstructure:"block_size"`
	ScratchPath  string  `mapstructure:"scratch_path"`
	BarHue       float64 `mapstructure:"bar_hue"`
	HTTPAddr     string  `mapstructure:"http_addr"`
	SnapshotPath string  `mapstructure:"snapshot_path"`
	CellHeight   int     `mapstructure:"cell_height"`
}

// Keys lists the settings that may be overridden.
var Keys = []string{
	"sample_rate", "channels", "block_size", "scratch_path",
	"bar_hue", "http_addr", "snapshot_path", "cell_height",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sample_rate", 44100)
	v.SetDefault("channels", 1)
	v.SetDefault("block_size", 512)
	v.SetDefault("scratch_path", filepath.Join(os.TempDir(), "recording.wav"))
	v.SetDefault("bar_hue", 270)
	v.SetDefault("http_addr", "")
	v.SetDefault("snapshot_path", "waveform.png")
	v.SetDefault("cell_height", 30)
}

// Load reads the configuration. path may be empty, in which case only defaults, the
// environment and overrides apply.
func Load(path string, overrides map[string]interface{}) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RECORDER")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		glog.V(1).Infof("config: loaded %s", v.ConfigFileUsed())
	}

	for k, val := range overrides {
		v.Set(k, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the audio and display layers cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate must be positive, got %v", c.SampleRate))
	}
	if c.Channels != 1 && c.Channels != 2 {
		errs = append(errs, fmt.Errorf("channels must be 1 or 2, got %d", c.Channels))
	}
	if c.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("block_size must be positive, got %d", c.BlockSize))
	}
	if c.ScratchPath == "" {
		errs = append(errs, errors.New("scratch_path is required"))
	}
	if c.CellHeight <= 0 {
		errs = append(errs, fmt.Errorf("cell_height must be positive, got %d", c.CellHeight))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
