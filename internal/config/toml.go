// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Prompter PrompterConfig `toml:"prompter"`
	Capture  CaptureConfig  `toml:"capture"`
	Library  LibraryConfig  `toml:"library"`
}

// PrompterConfig maps prompter display settings.
type PrompterConfig struct {
	ScrollSpeed *int `toml:"scroll-speed"`
	FontSize    *int `toml:"font-size"`
}

// CaptureConfig maps camera and recording settings.
type CaptureConfig struct {
	VideoDevice        *string `toml:"video-device"`
	AudioDevice        *string `toml:"audio-device"`
	VideoCodec         *string `toml:"video-codec"`
	MaxDurationSeconds *int    `toml:"max-duration-seconds"`
	MaxFileSizeMB      *int64  `toml:"max-file-size-mb"`
	FFmpeg             *string `toml:"ffmpeg"`
}

// LibraryConfig maps media library settings.
type LibraryConfig struct {
	Dir    *string `toml:"dir"`
	Player *string `toml:"player"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
