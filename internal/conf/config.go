// config.go: This file contains the configuration for the homewatch-go application.
// It defines the settings struct and functions to load and access the settings.
package conf

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// MainSettings contains top level application settings.
type MainSettings struct {
	Name string // name of this monitoring node
	Log  struct {
		Enabled bool   // true to enable file logging
		Path    string // path to log file
	}
}

// WebServerSettings contains settings for the HTTP API server.
type WebServerSettings struct {
	Enabled bool   // true to enable the web server
	Port    string // port to listen on
	Debug   bool   // true to enable HTTP debug logging
}

// SecuritySettings contains authentication settings.
type SecuritySettings struct {
	JWTSecret          string        // secret for signing access/refresh tokens
	AccessTokenExpiry  time.Duration // lifetime of access tokens
	RefreshTokenExpiry time.Duration // lifetime of refresh tokens
}

// SQLiteSettings contains settings for the SQLite database output.
type SQLiteSettings struct {
	Enabled bool   // true to enable SQLite output
	Path    string // path to SQLite database file
}

// MySQLSettings contains settings for the MySQL/MariaDB database output.
type MySQLSettings struct {
	Enabled  bool   // true to enable MySQL output
	Username string // username for MySQL database
	Password string // password for MySQL database
	Database string // database name
	Host     string // host for MySQL database
	Port     string // port for MySQL database
}

// OutputSettings contains settings for database outputs.
type OutputSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// DetectorSettings contains settings for the object detection pipeline.
type DetectorSettings struct {
	Debug            bool          // true to enable pipeline debug logging
	Endpoint         string        // URL of the inference server
	Threshold        float64       // confidence threshold a detection must exceed to classify as dangerous
	InferenceTimeout time.Duration // upper bound for a single inference call
	Severity         struct {
		Source string // "random" for the placeholder classifier, "model" when a trained one is wired in
	}
}

// ImageStoreSettings contains settings for annotated frame storage.
type ImageStoreSettings struct {
	BasePath string // directory annotated frames are written under
}

// RealtimeSettings contains settings for realtime alert delivery.
type RealtimeSettings struct {
	Enabled bool // true to push notifications to connected clients
	Push    struct {
		Enabled bool     // true to forward alerts to external services
		URLs    []string // shoutrrr service URLs
		Timeout time.Duration
	}
}

// SentrySettings contains settings for error telemetry.
type SentrySettings struct {
	Enabled bool
	DSN     string
}

// Settings is the root configuration struct.
type Settings struct {
	Debug bool // true to enable debug mode

	Main       MainSettings
	WebServer  WebServerSettings
	Security   SecuritySettings
	Output     OutputSettings
	Detector   DetectorSettings
	ImageStore ImageStoreSettings
	Realtime   RealtimeSettings
	Sentry     SentrySettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration into a Settings struct and stores it as the
// package-level instance returned by Setting().
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// Setting returns the currently loaded settings instance, or nil if Load
// has not been called.
func Setting() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SetForTesting replaces the settings instance. Intended for tests only.
func SetForTesting(settings *Settings) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	settingsInstance = settings
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter,
	// function defined in defaults.go
	setDefaultConfig()

	// Generate a per-install JWT secret on first run so a missing config
	// never falls back to a well-known value.
	if viper.GetString("security.jwtsecret") == "" {
		viper.Set("security.jwtsecret", GenerateRandomSecret())
	}

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the current (default) configuration to the
// primary config path so the user has a file to edit.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	settings := viper.AllSettings()
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling default config: %w", err)
	}

	if err := os.WriteFile(configPath, yamlData, 0o600); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	return viper.ReadInConfig()
}

// GetDefaultConfigPaths returns the list of directories searched for config.yaml,
// most specific first.
func GetDefaultConfigPaths() ([]string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user config directory: %w", err)
	}

	return []string{
		filepath.Join(configDir, "homewatch-go"),
		".",
	}, nil
}

// GetBasePath expands a possibly relative directory to an absolute path and
// ensures it exists.
func GetBasePath(path string) string {
	basePath := viper.GetString("main.basepath")
	if basePath == "" {
		basePath = "."
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(basePath, path)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		fmt.Printf("error creating directory %s: %v\n", path, err)
	}
	return path
}

// GenerateRandomSecret returns a URL-safe random secret.
func GenerateRandomSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		// rand.Read failing means the system entropy source is broken
		panic(fmt.Sprintf("failed to generate random secret: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
