package logger

// Field is a single structured key/value attached to a log line.
type Field struct {
	Key   string
	Value any
}

// Client is the logging surface the rest of the service depends on.
type Client interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a child logger that adds fields to every line.
	With(fields ...Field) Client
}
