package crawlconfig

import "github.com/rohmanhakim/crawlctl/pkg/failure"

// ConfigError is a fatal, non-retryable failure in building or loading a
// Config. There is no recoverable path for a bad --seeds flag or a malformed
// config file, so Severity is always SeverityFatal.
type ConfigError struct {
	message string
}

func (e *ConfigError) Error() string { return e.message }

func (e *ConfigError) Severity() failure.Severity { return failure.SeverityFatal }

var (
	// ErrInvalidConfig is returned when a Config fails validation, e.g. missing seeds.
	ErrInvalidConfig failure.ClassifiedError = &ConfigError{message: "invalid crawl configuration"}
	// ErrFileDoesNotExist is returned when the path given to WithConfigFile cannot be stat'd.
	ErrFileDoesNotExist failure.ClassifiedError = &ConfigError{message: "config file does not exist"}
	// ErrReadConfigFail is returned when a config file exists but cannot be read.
	ErrReadConfigFail failure.ClassifiedError = &ConfigError{message: "failed to read config file"}
	// ErrConfigParsingFail is returned when a config file's JSON cannot be parsed.
	ErrConfigParsingFail failure.ClassifiedError = &ConfigError{message: "failed to parse config file"}
)
