package logger

// Log levels accepted by Config.Level.
const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// Encodings accepted by Config.Encoding.
const (
	JSONEncoding    = "json"
	ConsoleEncoding = "console"
)

// Config defines the logger settings.
type Config struct {
	// Level is one of debug, info, warning or error. Anything else logs at
	// info.
	Level string `yaml:"level" mapstructure:"level" envconfig:"ZAP_LOGGER_LEVEL"`

	// Encoding is json (default) or console.
	Encoding string `yaml:"encoding" mapstructure:"encoding"`

	// OutputPaths are zap sink URLs or file paths; empty means stderr.
	OutputPaths []string `yaml:"output_paths" mapstructure:"output_paths"`

	// EnableTracing adds trace and span IDs from the context to entries
	// logged through the *WithContext methods.
	EnableTracing bool `yaml:"enable_tracing" mapstructure:"enable_tracing"`

	// ServiceName is attached to every entry as "service".
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
}
