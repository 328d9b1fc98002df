package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "ENSO_"
	// EnvConfigFile names the optional YAML config file.
	EnvConfigFile = envPrefix + "CONFIG"
)

// Load builds a Config by layering defaults, the optional ENSO_CONFIG file
// and ENSO_* env vars, in that order of precedence (low -> high).
func Load(ctx context.Context) (*Config, error) {
	return LoadFile(ctx, os.Getenv(EnvConfigFile))
}

// LoadFile is Load with an explicit file path. An empty path skips the file.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", ErrLoadConfig, path, err)
		}
	}

	// ENSO_QUEUE_SIZE -> queue_size. Keys are flat so underscores stay.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := New(ctx)
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch reloads the YAML file at path whenever it changes and passes each
// valid result to onChange. Invalid reloads go to onError and the previous
// configuration stays in effect. Call the returned stop func to unwatch.
func Watch(ctx context.Context, path string, onChange func(*Config), onError func(error)) (stop func() error, err error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no config file to watch", ErrLoadConfig)
	}
	if onError == nil {
		onError = func(error) {}
	}
	f := file.Provider(path)
	err = f.Watch(func(_ any, werr error) {
		if werr != nil {
			onError(fmt.Errorf("%w: watch %s: %w", ErrLoadConfig, path, werr))
			return
		}
		cfg, lerr := LoadFile(ctx, path)
		if lerr != nil {
			onError(lerr)
			return
		}
		onChange(cfg)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: watch %s: %w", ErrLoadConfig, path, err)
	}
	return f.Unwatch, nil
}
