package errors

import (
	"errors"
	"fmt"
)

// Error types for the bookmark search engine
type ErrorType string

const (
	// Corpus errors
	ErrorTypeCorpus ErrorType = "corpus"
	ErrorTypeLoad   ErrorType = "load"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// ErrCorpusUnavailable is the one error the search path surfaces to callers:
// an empty corpus is indistinguishable from "no results", so a failed source
// must be reported explicitly.
var ErrCorpusUnavailable = errors.New("corpus unavailable")

// CorpusError wraps a failure while loading or rebuilding the corpus snapshot.
type CorpusError struct {
	Type       ErrorType
	Operation  string
	Source     string
	Underlying error
}

// NewCorpusError creates a corpus error with context.
func NewCorpusError(op string, err error) *CorpusError {
	return &CorpusError{
		Type:       ErrorTypeCorpus,
		Operation:  op,
		Underlying: err,
	}
}

// NewLoadError creates a corpus error for a source read or parse failure.
func NewLoadError(op string, err error) *CorpusError {
	return &CorpusError{
		Type:       ErrorTypeLoad,
		Operation:  op,
		Underlying: err,
	}
}

// WithSource adds the corpus source (file path or loader name) to the error.
func (e *CorpusError) WithSource(source string) *CorpusError {
	e.Source = source
	return e
}

// Error implements the error interface.
func (e *CorpusError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Type, e.Operation, e.Source, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Type, e.Operation, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *CorpusError) Unwrap() error {
	return e.Underlying
}

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Type  ErrorType
	Key   string
	Value any
	Msg   string
}

// NewConfigError creates a config validation error.
func NewConfigError(key string, value any, msg string) *ConfigError {
	return &ConfigError{
		Type:  ErrorTypeConfig,
		Key:   key,
		Value: value,
		Msg:   msg,
	}
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s=%v: %s", e.Key, e.Value, e.Msg)
}
