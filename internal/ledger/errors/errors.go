package errors

import (
	"errors"
	"fmt"
	"strings"
)

// SourceFetchError is returned when one linked institution cannot be read from
// the aggregator. It only concerns that source.
type SourceFetchError struct {
	Source string
	Op     string
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("fetching %s for source %q: %v", e.Op, e.Source, e.Err)
}

func (e *SourceFetchError) Unwrap() error {
	return e.Err
}

func NewSourceFetchError(source, op string, err error) error {
	return &SourceFetchError{Source: source, Op: op, Err: err}
}

func IsSourceFetchError(err error) bool {
	var sourceFetchError *SourceFetchError
	ok := errors.As(err, &sourceFetchError)
	return ok
}

// WriteError is returned when a table batch could not be written to the store.
type WriteError struct {
	Table string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing table %s: %v", e.Table, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func NewWriteError(table string, err error) error {
	return &WriteError{Table: table, Err: err}
}

func IsWriteError(err error) bool {
	var writeError *WriteError
	ok := errors.As(err, &writeError)
	return ok
}

type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Msg
}

func NewConfigError(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

func IsConfigError(err error) bool {
	var configError *ConfigError
	ok := errors.As(err, &configError)
	return ok
}

// ConfigErrors collects every problem found while validating a config document.
type ConfigErrors struct {
	Errors []error
}

func (ce *ConfigErrors) Error() string {
	errorMessages := make([]string, len(ce.Errors))
	for i, err := range ce.Errors {
		errorMessages[i] = err.Error()
	}
	return fmt.Sprintf("multiple configuration errors: %s", strings.Join(errorMessages, "; "))
}

func (ce *ConfigErrors) Add(err error) {
	ce.Errors = append(ce.Errors, err)
}

// ErrOrNil returns nil when nothing was collected, the single error when only
// one was, and the whole collection otherwise.
func (ce *ConfigErrors) ErrOrNil() error {
	switch len(ce.Errors) {
	case 0:
		return nil
	case 1:
		return ce.Errors[0]
	default:
		return ce
	}
}

func (ce *ConfigErrors) As(target any) bool {
	if t, ok := target.(**ConfigError); ok && len(ce.Errors) > 0 {
		return errors.As(ce.Errors[0], t)
	}
	return false
}
