package domain

// LoggerFactory hands out component-scoped loggers.
type LoggerFactory interface {
	CreateLogger(component string) Logger

	// Shutdown flushes any buffered sink.
	Shutdown() error
}
