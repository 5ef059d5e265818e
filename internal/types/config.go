package types

type RunMode string

const (
	// ModeLocal runs the API server with local defaults (verbose errors, in-memory collaborators)
	ModeLocal RunMode = "local"
	// ModeAPI is the mode for running just the API server
	ModeAPI RunMode = "api"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// PubSubType selects the transport used for lifecycle events and export requests
type PubSubType string

const (
	PubSubTypeMemory PubSubType = "memory"
	PubSubTypeKafka  PubSubType = "kafka"
)
