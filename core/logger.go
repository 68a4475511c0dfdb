package core

// Logger reports application events to the configured backend.
// Implementations may inspect args for known types (errors, maps) and
// forward them as structured metadata.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
