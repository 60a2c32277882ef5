// Package config provides centralized configuration management for the
// subscription analytics system. It handles loading configuration from
// multiple sources, validation, and provides a type-safe API for accessing
// configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration files (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern SUBS_* for namespacing:
//
//	SUBS_SERVER_PORT=8080
//	SUBS_PATHS_SOURCE_FILE=Analytics.csv
//	SUBS_LOGGING_LEVEL=info
//	SUBS_WATCHER_ENABLED=true
//
// # Configuration Structure
//
// The main configuration struct:
//
//	type Config struct {
//	    Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
//	    Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
//	    Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
//	    Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
//	    WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
//	    Watcher   WatcherConfig   `yaml:"watcher" envconfig:"WATCHER"`
//	}
//
// # Path Management
//
// The package provides centralized path management through the Paths type,
// which handles all file system paths relative to the executable location:
//
//	paths, err := config.GetPaths()
//	sourcePath := paths.GetSourceCSVPath()
//	exportPath := paths.GetExportPath("dashboard.json")
//
// # Validation
//
// All configuration is validated at load time to ensure:
//
//	- Required fields are present
//	- Values are within acceptable ranges
//	- Required directories exist or can be created
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Testing
//
// For testing, use config.Default() to create a configuration with
// sensible defaults that don't require environment variables or a
// config file on disk.
package config
