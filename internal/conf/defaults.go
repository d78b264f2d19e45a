// defaults.go: default configuration values applied before the config file is read
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig sets viper defaults for every configuration parameter.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Main
	viper.SetDefault("main.name", "HomeWatch")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/homewatch.log")

	// Web server
	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.debug", false)

	// Security
	viper.SetDefault("security.accesstokenexpiry", 3*time.Hour)
	viper.SetDefault("security.refreshtokenexpiry", 30*24*time.Hour)

	// Database outputs
	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "homewatch.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "homewatch")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.database", "homewatch")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	// Detector
	viper.SetDefault("detector.debug", false)
	viper.SetDefault("detector.endpoint", "http://localhost:8500/predict")
	viper.SetDefault("detector.threshold", 0.6)
	viper.SetDefault("detector.inferencetimeout", 30*time.Second)
	viper.SetDefault("detector.severity.source", "random")

	// Image store
	viper.SetDefault("imagestore.basepath", "uploads")

	// Realtime delivery
	viper.SetDefault("realtime.enabled", true)
	viper.SetDefault("realtime.push.enabled", false)
	viper.SetDefault("realtime.push.urls", []string{})
	viper.SetDefault("realtime.push.timeout", 10*time.Second)

	// Telemetry
	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
}
