package apps

import "fmt"

// ArgumentError rejects a command line argument of the admin tool.
type ArgumentError struct {
	Arg string // offending flag, empty when the command itself cannot run
	msg string
}

func NewArgumentError(arg, format string, a ...interface{}) *ArgumentError {
	return &ArgumentError{Arg: arg, msg: fmt.Sprintf(format, a...)}
}

func (err *ArgumentError) Error() string {
	if err.Arg == "" {
		return err.msg
	}
	return err.Arg + " " + err.msg
}
