// validate.go: settings validation applied after unmarshaling
package conf

import (
	"errors"
	"fmt"
)

// ValidateSettings checks the loaded settings for values that would leave the
// application in an unusable state.
func ValidateSettings(settings *Settings) error {
	var errs []error

	if settings.Detector.Threshold < 0.0 || settings.Detector.Threshold > 1.0 {
		errs = append(errs, fmt.Errorf("detector.threshold must be between 0.0 and 1.0, got %f", settings.Detector.Threshold))
	}

	if settings.Detector.InferenceTimeout <= 0 {
		errs = append(errs, fmt.Errorf("detector.inferencetimeout must be positive, got %s", settings.Detector.InferenceTimeout))
	}

	if settings.Output.SQLite.Enabled && settings.Output.MySQL.Enabled {
		errs = append(errs, errors.New("only one database output may be enabled at a time"))
	}

	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		errs = append(errs, errors.New("one of output.sqlite or output.mysql must be enabled"))
	}

	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		errs = append(errs, errors.New("output.sqlite.path must not be empty"))
	}

	if settings.WebServer.Enabled && settings.WebServer.Port == "" {
		errs = append(errs, errors.New("webserver.port must not be empty"))
	}

	if settings.ImageStore.BasePath == "" {
		errs = append(errs, errors.New("imagestore.basepath must not be empty"))
	}

	if settings.Realtime.Push.Enabled && len(settings.Realtime.Push.URLs) == 0 {
		errs = append(errs, errors.New("realtime.push.urls must not be empty when push is enabled"))
	}

	return errors.Join(errs...)
}
