package errs

import (
	"errors"

	"github.com/playwright-community/playwright-go"
)

// Code is a suite error code.
type Code string

const (
	InvalidArgument Code = "invalid_argument"
	NotFound        Code = "not_found"
	Timeout         Code = "timeout"
	Assertion       Code = "assertion"
	Interaction     Code = "interaction"
	Navigation      Code = "navigation"
	Unavailable     Code = "unavailable"
	Internal        Code = "internal"
)

// Error is a coded suite error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a coded error with message.
func New(code Code, message string) error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a coded error with message and cause.
func Wrap(code Code, message string, cause error) error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// FromPlaywright wraps a framework error. Timeouts reported by the driver keep
// the Timeout code regardless of the code requested by the caller, so reports
// can tell "element never appeared" apart from "element had the wrong text".
func FromPlaywright(code Code, message string, cause error) error {
	if cause == nil {
		return nil
	}
	if errors.Is(cause, playwright.ErrTimeout) {
		code = Timeout
	}
	return Wrap(code, message, cause)
}

// CodeOf returns the outermost error code, defaulting to internal.
func CodeOf(err error) Code {
	if err == nil {
		return Internal
	}
	var coded *Error
	if errors.As(err, &coded) {
		if coded.Code == "" {
			return Internal
		}
		return coded.Code
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return Timeout
	}
	return Internal
}

// MessageOf returns the outermost coded message.
func MessageOf(err error) string {
	if err == nil {
		return string(Internal)
	}
	var coded *Error
	if errors.As(err, &coded) && coded.Message != "" {
		return coded.Message
	}
	return err.Error()
}

// Kind maps an error code to the label used in reports.
func Kind(code Code) string {
	switch code {
	case Timeout:
		return "Timeout"
	case Assertion:
		return "Assertion"
	case Interaction:
		return "Interaction"
	case Navigation:
		return "Navigation"
	case InvalidArgument, NotFound:
		return "Fixture"
	case Unavailable:
		return "Environment"
	default:
		return "Error"
	}
}
