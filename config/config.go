package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/K3das/scribe/asr"
	"github.com/K3das/scribe/asr/elevenlabs"
	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"
)

const EnvironmentPrefix = "SCRIBE_"

const (
	DefaultListenAddr   = ":8080"
	DefaultMaxAudioSize = 1024 * 1024 * 25
)

type ServerConfig struct {
	ListenAddr   string `yaml:"listen_addr" env:"LISTEN_ADDR"`
	MaxAudioSize int64  `yaml:"max_audio_size" env:"MAX_AUDIO_SIZE"`
}

// Config is the whole service configuration. The provider keys live at the
// top level of the YAML document, the same way the host platform declares
// them.
type Config struct {
	ElevenLabs elevenlabs.Options `yaml:",inline"`

	Server      ServerConfig `yaml:"server"`
	PostgresDSN string       `yaml:"postgres_dsn" env:"POSTGRES_DSN"`
}

func Default() Config {
	return Config{
		ElevenLabs: elevenlabs.Options{
			Model:   elevenlabs.DefaultModel,
			APIURL:  elevenlabs.DefaultAPIURL,
			Timeout: elevenlabs.DefaultTimeout,
		},
		Server: ServerConfig{
			ListenAddr:   DefaultListenAddr,
			MaxAudioSize: DefaultMaxAudioSize,
		},
	}
}

// Load builds the config from defaults, then the YAML file at path (skipped
// when path is empty), then SCRIBE_ environment variables, and validates the
// result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix: EnvironmentPrefix,
	}); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports every problem at once
func (c Config) Validate() error {
	var errs []error

	if c.ElevenLabs.APIKey == "" {
		errs = append(errs, errors.New("api_key is required"))
	}

	if _, err := asr.ResolveLanguage(c.ElevenLabs.Language); err != nil {
		errs = append(errs, fmt.Errorf("language: %w", err))
	}

	if u, err := url.Parse(c.ElevenLabs.APIURL); err != nil {
		errs = append(errs, fmt.Errorf("api_url: %w", err))
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api_url: must be an absolute http(s) url, got %q", c.ElevenLabs.APIURL))
	}

	if c.ElevenLabs.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout: must be positive, got %s", c.ElevenLabs.Timeout))
	}

	if c.Server.MaxAudioSize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_audio_size: must be positive, got %d", c.Server.MaxAudioSize))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
