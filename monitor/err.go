package monitor

import (
	"errors"

	"github.com/ezrec/realmode/translate"
)

var f = translate.From

var (
	ErrEmpty     = errors.New(f("empty command"))
	ErrNoProcess = errors.New(f("no process"))
)

// ErrCommand is an unknown monitor command.
type ErrCommand string

func (err ErrCommand) Error() string {
	return f("%v: unknown command", string(err))
}

// ErrArguments is a command given the wrong number of arguments.
type ErrArguments struct {
	Command string
	Want    int
	Have    int
}

func (err *ErrArguments) Error() string {
	return f("%v: %d arguments expected, %d given", err.Command, err.Want, err.Have)
}

// ErrExpression is a $(...) expression that does not evaluate to an integer.
type ErrExpression string

func (err ErrExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrNumber is an argument that is neither a number nor a define.
type ErrNumber string

func (err ErrNumber) Error() string {
	return f("%v is not a number", string(err))
}

// ErrRegister is an unknown register name.
type ErrRegister string

func (err ErrRegister) Error() string {
	return f("%v is not a register", string(err))
}

// ErrAddress is an unknown well-known address name.
type ErrAddress string

func (err ErrAddress) Error() string {
	return f("%v is not a known address", string(err))
}
