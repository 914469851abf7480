// Package config holds the tool's configuration schema and loader.
// Values come from an optional YAML file with KALDI_ALIGN_* environment
// overrides; every field has a default so the tool runs with no file.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Pipeline holds run-wide settings.
type Pipeline struct {
	LogLevel string `mapstructure:"log_level"`
}

// Engine configures the external alignment engine.
type Engine struct {
	// URLFormat is the archive download location; {file} is replaced
	// with the archive name.
	URLFormat string `mapstructure:"url_format"`

	// DownloadDir receives the extracted engine and model archives.
	DownloadDir string `mapstructure:"download_dir"`

	// KaldiDir overrides the engine location (default: DownloadDir/kaldi).
	KaldiDir string `mapstructure:"kaldi_dir"`

	// TrainCmd is Kaldi's $train_cmd.
	TrainCmd string `mapstructure:"train_cmd"`

	// NumJobs caps the engine's parallel alignment jobs.
	NumJobs int `mapstructure:"num_jobs"`
}

// Audio holds timing parameters.
type Audio struct {
	// FramesPerSecond is the engine's acoustic frame rate.
	FramesPerSecond int `mapstructure:"frames_per_second"`

	// MinSec is the minimum duration of a trimmed audio file.
	MinSec float64 `mapstructure:"min_sec"`

	// BufferSec is the audio left around speech when trimming.
	BufferSec float64 `mapstructure:"buffer_sec"`
}

// Vocabulary holds phoneme-encoding settings.
type Vocabulary struct {
	// Pad is the padding symbol, id 0 of every vocabulary.
	Pad string `mapstructure:"pad"`

	// SkipSymbols extends the encoder's skip set beyond the engine's
	// non-phonetic placeholders (e.g. with the break markers).
	SkipSymbols []string `mapstructure:"skip_symbols"`
}

// Root is the complete configuration.
type Root struct {
	Pipeline   Pipeline   `mapstructure:"pipeline"`
	Engine     Engine     `mapstructure:"engine"`
	Audio      Audio      `mapstructure:"audio"`
	Vocabulary Vocabulary `mapstructure:"vocabulary"`
}

// DefaultDownloadDir is $XDG_DATA_HOME/kaldi-align, falling back to
// ~/.local/share/kaldi-align.
func DefaultDownloadDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "kaldi-align")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "kaldi-align"
	}
	return filepath.Join(home, ".local", "share", "kaldi-align")
}

// Load reads configuration from path. An empty path looks for
// kaldi-align.yaml in the working directory and silently falls back to
// defaults when no file exists.
func Load(path string) (*Root, error) {
	v := viper.New()

	v.SetDefault("pipeline.log_level", "info")
	v.SetDefault("engine.url_format", "https://github.com/rhasspy/kaldi-align/releases/download/v1.0/{file}")
	v.SetDefault("engine.download_dir", DefaultDownloadDir())
	v.SetDefault("engine.train_cmd", "utils/run.pl")
	v.SetDefault("engine.num_jobs", 12)
	v.SetDefault("audio.frames_per_second", 100)
	v.SetDefault("audio.min_sec", 0.5)
	v.SetDefault("audio.buffer_sec", 0.1)
	v.SetDefault("vocabulary.pad", "_")

	v.SetEnvPrefix("KALDI_ALIGN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("kaldi-align")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, err
			}
		}
	}

	var root Root
	if err := v.Unmarshal(&root); err != nil {
		return nil, err
	}
	return &root, nil
}
