package script

import (
	"errors"
	"fmt"
)

// Error kinds mirror the exception names authors see in marker text.
const (
	KindSyntax    = "SyntaxError"
	KindName      = "NameError"
	KindType      = "TypeError"
	KindValue     = "ValueError"
	KindIndex     = "IndexError"
	KindKey       = "KeyError"
	KindAttribute = "AttributeError"
	KindZeroDiv   = "ZeroDivisionError"
	KindOverflow  = "OverflowError"
	KindRuntime   = "RuntimeError"
	KindImport    = "ImportError"
)

// Error is raised by parsing or evaluation.
type Error struct {
	Kind string
	Msg  string
	Line int
	// Name is set for NameError.
	Name string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d)", e.Kind, e.Msg, e.Line)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func newError(kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func undefinedName(name string) *Error {
	return &Error{Kind: KindName, Msg: fmt.Sprintf("name '%s' is not defined", name), Name: name}
}

// IsUndefinedName reports whether err is a NameError and returns the name.
func IsUndefinedName(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindName {
		return e.Name, true
	}
	return "", false
}

// control flow signals, never surfaced to callers
type breakSignal struct{}
type continueSignal struct{}

func (breakSignal) Error() string    { return "'break' outside loop" }
func (continueSignal) Error() string { return "'continue' not properly in loop" }
