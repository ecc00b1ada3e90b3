package api

import (
	"context"

	domainconfig "github.com/felixgeelhaar/arrange-go/domain/config"
	infraconfig "github.com/felixgeelhaar/arrange-go/infrastructure/config"
	"github.com/felixgeelhaar/arrange-go/infrastructure/logging"
)

// Re-export domain configuration types.
type (
	// StudioConfig represents the complete configuration.
	StudioConfig = domainconfig.StudioConfig
	// ServiceConfig configures the processing service.
	ServiceConfig = domainconfig.ServiceConfig
	// EndpointSet configures the endpoints for one document kind.
	EndpointSet = domainconfig.EndpointSet
	// ResilienceConfig contains resilience settings.
	ResilienceConfig = domainconfig.ResilienceConfig
	// CacheConfig configures the structure cache.
	CacheConfig = domainconfig.CacheConfig
	// HistoryConfig configures commit history.
	HistoryConfig = domainconfig.HistoryConfig
	// NotificationConfig contains notification settings.
	NotificationConfig = domainconfig.NotificationConfig
	// ConfigDuration is a time.Duration with a string representation.
	ConfigDuration = domainconfig.Duration

	// ValidationError represents a configuration validation error.
	ValidationError = domainconfig.ValidationError
	// ValidationErrors is a collection of validation errors.
	ValidationErrors = domainconfig.ValidationErrors
)

// Re-export infrastructure configuration types.
type (
	// ConfigLoader loads studio configuration from files.
	ConfigLoader = infraconfig.Loader
	// ConfigBuilder builds a workspace from configuration.
	ConfigBuilder = infraconfig.Builder
	// ConfigBuildResult contains the built components.
	ConfigBuildResult = infraconfig.BuildResult
	// ConfigLoaderOption configures the loader.
	ConfigLoaderOption = infraconfig.LoaderOption
)

// Configuration format constants.
const (
	ConfigFormatYAML = infraconfig.FormatYAML
	ConfigFormatJSON = infraconfig.FormatJSON
)

// Configuration errors.
var (
	ErrConfigNotFound     = domainconfig.ErrConfigNotFound
	ErrInvalidFormat      = domainconfig.ErrInvalidFormat
	ErrUnsupportedFormat  = domainconfig.ErrUnsupportedFormat
	ErrValidationFailed   = domainconfig.ErrValidationFailed
	ErrEnvExpansionFailed = domainconfig.ErrEnvExpansionFailed
	ErrMissingEnvVar      = domainconfig.ErrMissingEnvVar
	ErrBuildFailed        = domainconfig.ErrBuildFailed
)

// NewConfigLoader creates a configuration loader with default settings.
func NewConfigLoader() *ConfigLoader {
	return infraconfig.NewLoader()
}

// NewConfigLoaderWithOptions creates a loader with the specified options.
func NewConfigLoaderWithOptions(opts ...ConfigLoaderOption) *ConfigLoader {
	return infraconfig.NewLoaderWithOptions(opts...)
}

// ConfigWithEnvExpansion enables or disables environment variable expansion.
func ConfigWithEnvExpansion(enabled bool) ConfigLoaderOption {
	return infraconfig.WithEnvExpansion(enabled)
}

// ConfigWithStrictEnv fails loading on unset variables without defaults.
func ConfigWithStrictEnv(enabled bool) ConfigLoaderOption {
	return infraconfig.WithStrictEnv(enabled)
}

// ConfigWithValidation enables or disables configuration validation.
func ConfigWithValidation(enabled bool) ConfigLoaderOption {
	return infraconfig.WithValidation(enabled)
}

// NewConfigBuilder creates a configuration builder.
func NewConfigBuilder(config *StudioConfig) *ConfigBuilder {
	return infraconfig.NewBuilder(config)
}

// NewConfigValidator creates a configuration validator.
func NewConfigValidator() *domainconfig.Validator {
	return domainconfig.NewValidator()
}

// DefaultStudioConfig returns the default configuration.
func DefaultStudioConfig() *StudioConfig {
	return infraconfig.DefaultConfig()
}

// FromConfigFile loads a configuration file and builds its workspace.
// Close the result to release the backends it opened.
func FromConfigFile(ctx context.Context, path string) (*ConfigBuildResult, error) {
	cfg, err := NewConfigLoader().LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewConfigBuilder(cfg).Build(ctx)
}

// ExpandEnv expands ${VAR}, ${VAR:-default} and ${VAR:?error} references.
func ExpandEnv(input string) string {
	return infraconfig.ExpandEnv(input)
}

// ExpandEnvStrict expands references and fails on unset variables.
func ExpandEnvStrict(input string) (string, error) {
	return infraconfig.ExpandEnvStrict(input)
}

// LoggingConfig configures structured logging.
type LoggingConfig = domainconfig.LoggingConfig

// InitLogging configures the global logger from the logging section.
func InitLogging(cfg LoggingConfig) {
	logging.Init(infraconfig.LoggingFrom(cfg))
}
