package core

import (
	"errors"
	"fmt"

	perrors "github.com/jmgilman/go/errors"
)

var (
	// ErrNotFound is returned when an origin cannot be resolved to a stream.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedOrigin is returned for an origin without a known kind.
	ErrUnsupportedOrigin = errors.New("unsupported origin")
	// ErrFormat is returned when a decoder rejects the stream content.
	ErrFormat = errors.New("format error")
	// ErrIO is returned on transport failures while reading.
	ErrIO = errors.New("i/o error")
	// ErrClose marks a failure releasing a stream. It is logged, never returned by Parse.
	ErrClose = errors.New("close error")

	// ErrShortRead is returned when the stream ends inside a primitive value.
	ErrShortRead = fmt.Errorf("%w: short read", ErrFormat)
	// ErrStringTooLong is returned when a null-terminated string exceeds the configured bound.
	ErrStringTooLong = fmt.Errorf("%w: string exceeds maximum length", ErrFormat)
)

// ParseError is the single error type surfaced by a failed parse. The
// original failure is kept as Cause.
type ParseError struct {
	Origin string
	Cause  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Origin, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Code classifies err into a platform error code for reporting.
func Code(err error) perrors.ErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return perrors.CodeNotFound
	case errors.Is(err, ErrUnsupportedOrigin), errors.Is(err, ErrFormat):
		return perrors.CodeInvalidInput
	case errors.Is(err, ErrIO):
		return perrors.CodeExecutionFailed
	}
	if code := perrors.GetCode(err); code != perrors.CodeUnknown {
		return code
	}
	return perrors.CodeInternal
}

// Report wraps err into a coded platform error carrying the origin.
func Report(err error, origin string) perrors.PlatformError {
	if err == nil {
		return nil
	}
	return perrors.WithContext(perrors.Wrap(err, Code(err), "failed to load asset"), "origin", origin)
}
