// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/session/core/config"
//
//	func main() {
//		var redisCfg redisstore.Config
//
//		// Load with error handling
//		if err := config.Load(&redisCfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&redisCfg)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per application lifetime:
//
//	var cfg1 redisstore.Config
//	config.Load(&cfg1) // Loads from environment
//
//	var cfg2 redisstore.Config
//	config.Load(&cfg2) // Returns cached value, cfg1 == cfg2
//
// Different types are cached independently, so the store configs in this
// module can be loaded side by side without interfering with each other.
package config
