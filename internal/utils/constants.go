package utils

// Configuration file locations.
const (
	// GlobalConfigDirectoryName is the directory under the user home holding global configuration.
	GlobalConfigDirectoryName = ".dirtree"
	// GlobalConfigFileName is the global configuration file name.
	GlobalConfigFileName = "config.yaml"
	// LocalConfigFileName is the per-project configuration file name.
	LocalConfigFileName = ".dirtree.yaml"
	// ConfigFileType is the configuration encoding understood by viper.
	ConfigFileType = "yaml"
)

// LoggerInitializationFailedMessageFormat reports a logger that could not be built.
const LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"

// ApplicationExecutionFailedMessage prefixes the error that terminated the application.
const ApplicationExecutionFailedMessage = "dirtree failed"
