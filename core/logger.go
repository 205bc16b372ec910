package core

// Logger is any service that can log and report events.
// Args may hold errors, context maps, and the acting principal.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Principal identifies who triggered a logged event.
type Principal struct {
	ID       string
	Username string
	Email    string
}
