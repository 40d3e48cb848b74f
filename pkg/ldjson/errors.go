package ldjson

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrMaxBytes indicates that more input arrived than MaxBytes allows. Fatal.
	ErrMaxBytes = errors.New("more than maxBytes received")

	// ErrDocTooLong indicates a line longer than MaxDocLength. Fatal.
	ErrDocTooLong = errors.New("document exceeds configured maximum length")

	// ErrUnexpectedEnd is the decode failure for a blank line or empty input.
	ErrUnexpectedEnd = errors.New("Unexpected end of input")

	// ErrTerminated is returned when Accept or Finish is called after the
	// decoder has finished or stopped on a fatal error.
	ErrTerminated = errors.New("ldjson: decoder is terminated")

	// ErrNewline is returned by Encoder.EncodeRaw for a document containing a raw newline.
	ErrNewline = errors.New("ldjson: document contains a newline")
)

// DecodeError reports a line that could not be decoded as JSON.
// It is never fatal: the decoder carries on with the next line.
type DecodeError struct {
	Line   int64 // 1-based line number
	Offset int64 // Byte offset of the start of the line
	Err    error // Underlying decoder error
}

func (e *DecodeError) Error() string {
	return e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ConfigError reports an option with the wrong type.
type ConfigError struct {
	Field string // Empty when the options value itself is not an object
	Want  string // "number" or "boolean"
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "opts must be an object"
	}
	return fmt.Sprintf("opts.%s must be a %s", e.Field, e.Want)
}

// IsFatal reports whether err stopped the decoder.
func IsFatal(err error) bool {
	return errors.Is(err, ErrMaxBytes) || errors.Is(err, ErrDocTooLong)
}

// IsDecodeError reports whether err is a skipped, undecodable line.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
