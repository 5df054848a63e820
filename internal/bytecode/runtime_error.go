package bytecode

import (
	"fmt"

	"github.com/orrery-lang/orrery/internal/errors"
)

// ErrorKind identifies which member of the spec's RuntimeError taxonomy
// occurred.
type ErrorKind string

const (
	DivisionByZero           ErrorKind = "DivisionByZero"
	UnsupportedBinOperation  ErrorKind = "UnsupportedBinOperation"
	UnsupportedBinOperator   ErrorKind = "UnsupportedBinOperator"
	UnsupportedUnOperation   ErrorKind = "UnsupportedUnOperation"
	UnsupportedIndexOperation ErrorKind = "UnsupportedIndexOperation"
	UnsupportedHashKeyKind   ErrorKind = "UnsupportedHashKey"
	WrongArgumentCount       ErrorKind = "WrongArgumentCount"
	CallingNonFunction       ErrorKind = "CallingNonFunction"
	CustomErrMsg             ErrorKind = "CustomErrMsg"
	VariableHasBeenDeclared  ErrorKind = "VariableHasBeenDeclared"
	StackOverflow            ErrorKind = "StackOverflow"
	FrameOverflow            ErrorKind = "FrameOverflow"
)

// RuntimeError is the single error type every VM operation returns on
// failure. The dispatch loop halts on the first one and surfaces it to the
// caller; there is no guest-visible try/recover.
type RuntimeError struct {
	Kind    ErrorKind
	Message string
	Trace   errors.StackTrace
}

func (e *RuntimeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if len(e.Trace) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s\nStack trace:\n%s", e.Message, e.Trace.String())
}

func newRuntimeError(kind ErrorKind, trace errors.StackTrace, format string, args ...any) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...), Trace: trace}
}

func (vm *VM) err(kind ErrorKind, format string, args ...any) *RuntimeError {
	return newRuntimeError(kind, vm.stackTrace(), format, args...)
}

func (vm *VM) divisionByZero(left, right Object) *RuntimeError {
	return vm.err(DivisionByZero, "division by zero: %s / %s", left.Inspect(), right.Inspect())
}

func (vm *VM) unsupportedBinOperation(op string, left, right Object) *RuntimeError {
	return vm.err(UnsupportedBinOperation, "unsupported operation: %s %s %s", left.Type(), op, right.Type())
}

func (vm *VM) unsupportedBinOperator(op Opcode) *RuntimeError {
	return vm.err(UnsupportedBinOperator, "unsupported binary operator: %d", op)
}

func (vm *VM) unsupportedUnOperation(op string, value Object) *RuntimeError {
	return vm.err(UnsupportedUnOperation, "unsupported operation: %s%s", op, value.Type())
}

func (vm *VM) unsupportedIndexOperation(container, index Object) *RuntimeError {
	return vm.err(UnsupportedIndexOperation, "index operator not supported: %s[%s]", container.Type(), index.Type())
}

func (vm *VM) unsupportedHashKey(value Object) *RuntimeError {
	return vm.err(UnsupportedHashKeyKind, "unusable as hash key: %s", value.Type())
}

func (vm *VM) wrongArgumentCount(expected, got int) *RuntimeError {
	return vm.err(WrongArgumentCount, "wrong number of arguments: want=%d, got=%d", expected, got)
}

func (vm *VM) callingNonFunction(callee Object) *RuntimeError {
	return vm.err(CallingNonFunction, "calling non-function and non-built-in: %s", callee.Type())
}

// stackTrace renders the live Frame stack into the errors package's
// StackTrace shape, oldest frame first, so RuntimeError.Error() can print
// it the same way internal/errors renders a compile-time stack trace.
func (vm *VM) stackTrace() errors.StackTrace {
	trace := make(errors.StackTrace, 0, len(vm.frames))
	for _, f := range vm.frames {
		name := f.cl.Fn.Name
		if name == "" {
			name = "<anonymous>"
		}
		trace = append(trace, errors.NewStackFrame(name, "", nil))
	}
	return trace
}
