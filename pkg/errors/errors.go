package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// HTTPError indicates a response with a non-2xx status code.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func NewHTTPError(method, url string, statusCode int, body string) *HTTPError {
	return &HTTPError{Method: method, URL: url, StatusCode: statusCode, Body: body}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// IsHTTPError checks if the error is an HTTPError.
func IsHTTPError(err error) bool {
	var e *HTTPError
	return errors.As(err, &e)
}

// IsNotFound checks if the error is an HTTPError carrying a 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == 404
}

// StatusCode returns the status code carried by an HTTPError or an
// UnexpectedStatusError, or 0 when err carries none.
func StatusCode(err error) int {
	var h *HTTPError
	if errors.As(err, &h) {
		return h.StatusCode
	}
	var u *UnexpectedStatusError
	if errors.As(err, &u) {
		return u.StatusCode
	}
	return 0
}

// UnexpectedStatusError indicates that an operation asserting an exact
// status code got a different one.
type UnexpectedStatusError struct {
	Operation  string
	Expected   []int
	StatusCode int
	Body       string
}

func NewUnexpectedStatusError(operation string, statusCode int, body string, expected ...int) *UnexpectedStatusError {
	return &UnexpectedStatusError{
		Operation:  operation,
		Expected:   expected,
		StatusCode: statusCode,
		Body:       body,
	}
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%s. Code: %d. Content %s", e.Operation, e.StatusCode, e.Body)
}

func IsUnexpectedStatusError(err error) bool {
	var e *UnexpectedStatusError
	return errors.As(err, &e)
}

// CommandError indicates a subprocess exited with a non-zero code.
type CommandError struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
}

func NewCommandError(args []string, exitCode int, stdout, stderr string) *CommandError {
	return &CommandError{Args: args, ExitCode: exitCode, Stdout: stdout, Stderr: stderr}
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q returned non-zero exit status %d", strings.Join(e.Args, " "), e.ExitCode)
}

func IsCommandError(err error) bool {
	var e *CommandError
	return errors.As(err, &e)
}

// TimeoutError indicates a wait did not complete in the allowed time.
type TimeoutError struct {
	Operation string
	Timeout   time.Duration
}

func NewTimeoutError(operation string, timeout time.Duration) *TimeoutError {
	return &TimeoutError{Operation: operation, Timeout: timeout}
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s - operation was not completed in %d seconds", e.Operation, int(e.Timeout.Seconds()))
}

func IsTimeoutError(err error) bool {
	var e *TimeoutError
	return errors.As(err, &e)
}

// InvalidHostError indicates a host string that is not of the form <ip> or <ip>:<port>.
type InvalidHostError struct {
	Host string
}

func NewInvalidHostError(host string) *InvalidHostError {
	return &InvalidHostError{Host: host}
}

func (e *InvalidHostError) Error() string {
	return fmt.Sprintf("expected a string of form <ip> or <ip>:<port> but got %q (IPv6 is not supported)", e.Host)
}

func IsInvalidHostError(err error) bool {
	var e *InvalidHostError
	return errors.As(err, &e)
}

// KeyNotFoundError indicates a missing configuration property.
type KeyNotFoundError struct {
	Key string
}

func NewKeyNotFoundError(key string) *KeyNotFoundError {
	return &KeyNotFoundError{Key: key}
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("'%s' wasn't found", e.Key)
}

func IsKeyNotFoundError(err error) bool {
	var e *KeyNotFoundError
	return errors.As(err, &e)
}

// ResourceNotFoundError indicates a missing row in the local store.
type ResourceNotFoundError struct {
	Kind string
	ID   string
}

func NewResourceNotFoundError(kind, id string) *ResourceNotFoundError {
	return &ResourceNotFoundError{Kind: kind, ID: id}
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func IsResourceNotFoundError(err error) bool {
	var e *ResourceNotFoundError
	return errors.As(err, &e)
}
