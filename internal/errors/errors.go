// Package errors implements Mapyrus's flat error taxonomy: a single
// concrete error type carrying a kind and source location, rewrapped with
// file:line context as it bubbles from an expression to its enclosing
// command (see the propagation rule in the language specification).
package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind identifies one of the error kinds from the language specification.
type Kind string

const (
	// Lexical / parse
	InvalidKeyword    Kind = "InvalidKeyword"
	InvalidExpression Kind = "InvalidExpression"
	InvalidNumber     Kind = "InvalidNumber"
	UnexpectedEOF     Kind = "UnexpectedEOF"
	UnmatchedBracket  Kind = "UnmatchedBracket"
	ExpectedToken     Kind = "ExpectedToken"
	NestedProc        Kind = "NestedProc"

	// Type / value
	VariableUndefined   Kind = "VariableUndefined"
	WrongTypes          Kind = "WrongTypes"
	NotStringOperation  Kind = "NotStringOperation"
	NotNumericOperation Kind = "NotNumericOperation"
	NumericOverflow     Kind = "NumericOverflow"
	InvalidColor        Kind = "InvalidColor"
	ColorNotFound       Kind = "ColorNotFound"
	InvalidWorldUnits   Kind = "InvalidWorldUnits"
	InvalidFontSize     Kind = "InvalidFontSize"
	InvalidLineWidth    Kind = "InvalidLineWidth"
	InvalidDashPattern  Kind = "InvalidDashPattern"
	InvalidLegendType   Kind = "InvalidLegendType"

	// Runtime / path
	NoMoveTo         Kind = "NoMoveTo"
	NoArcStart       Kind = "NoArcStart"
	NoBezierStart    Kind = "NoBezierStart"
	NoSineWaveStart  Kind = "NoSineWaveStart"
	ZeroWorldRange   Kind = "ZeroWorldRange"
	InvalidPageRange Kind = "InvalidPageRange"
	WrongCoordinate  Kind = "WrongCoordinate"
	UnexpectedValues Kind = "UnexpectedValues"
	WrongParameters  Kind = "WrongParameters"
	UndefinedProc    Kind = "UndefinedProc"
	NoOutput         Kind = "NoOutput"

	// Resource
	Io            Kind = "Io"
	FailedPDF     Kind = "FailedPDF"
	InvalidFormat Kind = "InvalidFormat"

	// Control
	Interrupted Kind = "Interrupted"
)

// MapyrusError is the single concrete error type raised anywhere in the
// language runtime.
type MapyrusError struct {
	Kind    Kind
	Message string
	File    string
	Line    int
	cause   error
}

// New builds an error of the given kind with no location yet attached.
func New(kind Kind, message string) *MapyrusError {
	return &MapyrusError{Kind: kind, Message: message}
}

// Newf builds an error with a formatted message and no location yet.
func Newf(kind Kind, format string, args ...interface{}) *MapyrusError {
	return &MapyrusError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause, preserving its
// stack trace via pkg/errors so the original failure site survives
// rewrapping at each enclosing command.
func Wrap(kind Kind, cause error, message string) *MapyrusError {
	return &MapyrusError{Kind: kind, Message: message, cause: pkgerrors.WithStack(cause)}
}

func (e *MapyrusError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *MapyrusError) Unwrap() error {
	return e.cause
}

// Located rewraps err with the originating statement's file and line. If
// err is not already a *MapyrusError it is folded into an Io error first.
// An already-located error is left untouched: only the innermost command
// to see a bubbling error stamps its location, per the propagation rule.
func Located(file string, line int, err error) error {
	if err == nil {
		return nil
	}
	me, ok := err.(*MapyrusError)
	if !ok {
		me = &MapyrusError{Kind: Io, Message: err.Error(), cause: err}
	}
	if me.File == "" {
		me.File = file
		me.Line = line
	}
	return me
}

// Is reports whether err is a MapyrusError of the given kind.
func Is(err error, kind Kind) bool {
	me, ok := err.(*MapyrusError)
	return ok && me.Kind == kind
}
