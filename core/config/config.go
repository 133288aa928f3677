package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrParseConfig is returned when environment variables cannot be parsed into
// the target struct.
var ErrParseConfig = errors.New("failed to parse config from environment")

var (
	dotenvOnce sync.Once
	cache      sync.Map // reflect.Type -> parsed value
)

// Load populates cfg from environment variables. The first call for a given
// type parses the environment; later calls for the same type return the
// cached value. A .env file in the working directory is loaded once, before
// the first parse, and never overrides variables already set.
func Load[T any](cfg *T) error {
	dotenvOnce.Do(func() {
		// Missing .env files are expected outside local development.
		_ = godotenv.Load()
	})

	t := reflect.TypeOf(*cfg)
	if cached, ok := cache.Load(t); ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return errors.Join(fmt.Errorf("%w: %s", ErrParseConfig, t), err)
	}

	// Another goroutine may have parsed the same type concurrently; keep the
	// first stored value so every caller sees the same config.
	cached, _ := cache.LoadOrStore(t, *cfg)
	*cfg = cached.(T)
	return nil
}

// MustLoad is Load that panics on failure, for use during startup.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
