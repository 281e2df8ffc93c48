package observability

// ContextKey is the type for request-scoped values shared across packages.
type ContextKey string

const (
	// CorrelationIDKey carries the request correlation ID, set by the HTTP
	// middleware and forwarded on upstream calls.
	CorrelationIDKey = ContextKey("correlation_id")

	// LoggerKey carries the request-scoped zap logger.
	LoggerKey = ContextKey("logger")
)
