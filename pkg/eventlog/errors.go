package eventlog

import (
	"errors"
	"fmt"
)

// ErrorKind identifies why a log could not be parsed.
type ErrorKind int

const (
	KindMissingHeader ErrorKind = iota + 1
	KindMissingTempo
	KindMalformedHeader
	KindMalformedTempo
	KindMalformedNote
)

// Sentinel errors matched by errors.Is against a *ParseError of the same kind.
var (
	ErrMissingHeader   = errors.New("missing header")
	ErrMissingTempo    = errors.New("missing tempo")
	ErrMalformedHeader = errors.New("malformed header")
	ErrMalformedTempo  = errors.New("malformed tempo")
	ErrMalformedNote   = errors.New("malformed note")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindMissingHeader:
		return ErrMissingHeader
	case KindMissingTempo:
		return ErrMissingTempo
	case KindMalformedHeader:
		return ErrMalformedHeader
	case KindMalformedTempo:
		return ErrMalformedTempo
	case KindMalformedNote:
		return ErrMalformedNote
	}
	return nil
}

// String returns the lowercase message of the kind, e.g. "malformed note".
func (k ErrorKind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ParseError is returned for any failure that aborts a parse. Line is the
// 1-indexed source line, or 0 when the problem is detected at end of input.
type ParseError struct {
	Kind   ErrorKind
	Line   int
	Detail string
	Err    error
}

// Error implements error as "<kind> at line <n>: <detail>: <cause>".
func (e *ParseError) Error() string {
	msg := e.Kind.String()
	if e.Line > 0 {
		msg = fmt.Sprintf("%s at line %d", msg, e.Line)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *ParseError) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func newParseError(kind ErrorKind, line int, detail string, cause error) *ParseError {
	return &ParseError{Kind: kind, Line: line, Detail: detail, Err: cause}
}
