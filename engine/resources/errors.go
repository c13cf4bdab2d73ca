package resources

import (
	"errors"
	"fmt"
)

// IOError reports that the byte source could not be read to completion.
type IOError struct {
	Op  string // What was being done, e.g. "read" or "open"
	Err error
}

func (e *IOError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("io error: %v", e.Err)
	}
	return fmt.Sprintf("io error: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// FormatError reports input that is not a well-formed document or that does
// not match the Record schema. Line and Column are 1-based; zero means the
// parser gave no position.
type FormatError struct {
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *FormatError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("format error at line %d, column %d: %s", e.Line, e.Column, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("format error at line %d: %s", e.Line, e.Msg)
	default:
		return fmt.Sprintf("format error: %s", e.Msg)
	}
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func IsIOError(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}

func IsFormatError(err error) bool {
	var formatErr *FormatError
	return errors.As(err, &formatErr)
}
