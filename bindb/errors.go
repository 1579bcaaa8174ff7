package bindb

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidArgument indicates misuse of the client API, such as a non-string token
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrRemoteLookup indicates the service reported an error for the lookup
	ErrRemoteLookup = errors.New("bindb lookup failed")
	// ErrQueryNotBuilt indicates Run was called before Query
	ErrQueryNotBuilt = errors.New("query has not been built")
	// ErrMissingQueryParameter indicates a placeholder query was run without a value
	ErrMissingQueryParameter = errors.New("query expects one parameter, received none")
	// ErrTransport indicates the request never produced a response body
	ErrTransport = errors.New("bindb request failed")
	// ErrInvalidResponse indicates the response body was not a JSON object
	ErrInvalidResponse = errors.New("invalid response from bindb")
)

// RemoteError is the error reported by the service in an
// {"error": true, "errorDetails": {...}} response.
type RemoteError struct {
	Bin     string
	Message string
	Code    int
}

// Error implements the error interface
func (e *RemoteError) Error() string {
	return fmt.Sprintf("bindb error for bin %s: %s (code %d)", e.Bin, e.Message, e.Code)
}

// Is reports ErrRemoteLookup as the kind of every RemoteError
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteLookup
}

// TransportError wraps a failure to reach the service (timeout, DNS, refused connection).
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("bindb request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// ParseError represents an error while parsing a BinDBQL query
type ParseError struct {
	Query    string
	Message  string
	Position int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: %s", e.Position, e.Message)
}
