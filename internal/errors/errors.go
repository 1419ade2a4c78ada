// Package errors provides standardized error handling for the phase map viewer.
// It defines the error kinds raised by document I/O, configuration and the
// settings store, plus helpers for creating and wrapping them.
package errors

import (
	"errors"
	"fmt"
	"io/fs"
)

// As finds the first error in err's chain that matches target
var As = errors.As

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// File error kinds
	FileNotFound
	FileAccessDenied
	FileReadFailed
	FileWriteFailed
	DirectoryCreateFailed
	// Config error kinds
	InvalidConfig
	// Settings store error kinds
	SettingsReadFailed
	SettingsWriteFailed
)

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// FileError represents errors related to file operations
type FileError struct {
	ApplicationError
	path string
}

// NewFileError creates a new file error
func NewFileError(msg string, path string, kind ErrorKind, err error) *FileError {
	return &FileError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		path: path,
	}
}

// Error returns the file error message
func (e *FileError) Error() string {
	if e.path != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.path, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.path)
	}
	return e.ApplicationError.Error()
}

// Path returns the file path associated with the error
func (e *FileError) Path() string {
	return e.path
}

// Cause returns the text of the underlying I/O error, or the message when
// there is none. Dialogs show this next to the path.
func (e *FileError) Cause() string {
	if e.err == nil {
		return e.msg
	}
	var pathErr *fs.PathError
	if errors.As(e.err, &pathErr) {
		return pathErr.Err.Error()
	}
	return e.err.Error()
}

// FromIO classifies an I/O error on path. Not-exist and permission errors get
// their own kinds, everything else falls back to the given kind.
func FromIO(msg, path string, fallback ErrorKind, err error) *FileError {
	kind := fallback
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = FileNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = FileAccessDenied
	}
	return NewFileError(msg, path, kind, err)
}

// ConfigError represents errors related to configuration
type ConfigError struct {
	ApplicationError
	param string
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		param: param,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	if e.param != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.param, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.param)
	}
	return e.ApplicationError.Error()
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// SettingsError represents errors raised by the settings store
type SettingsError struct {
	ApplicationError
	key string
}

// NewSettingsError creates a new settings store error
func NewSettingsError(msg string, key string, kind ErrorKind, err error) *SettingsError {
	return &SettingsError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		key: key,
	}
}

// Error returns the settings error message
func (e *SettingsError) Error() string {
	if e.key != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.key, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.key)
	}
	return e.ApplicationError.Error()
}

// Key returns the settings key associated with the error
func (e *SettingsError) Key() string {
	return e.key
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: Unknown,
	}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: Unknown,
	}
}

// KindOf returns the kind of the outermost application error in err's chain.
func KindOf(err error) ErrorKind {
	var kinded interface{ Kind() ErrorKind }
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}
	return Unknown
}

// IsFileNotFound checks if the error is a file not found error
func IsFileNotFound(err error) bool {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.Kind() == FileNotFound
	}
	return false
}

// IsInvalidConfig checks if the error is an invalid configuration error
func IsInvalidConfig(err error) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind() == InvalidConfig
	}
	return false
}
