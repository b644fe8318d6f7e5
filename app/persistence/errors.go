package persistence

import (
	"errors"
	"fmt"
)

// ErrNoSession returned (wrapped) by queries issued without a live connection
var ErrNoSession = errors.New("no open session")

// ErrorKind represents the category of a gateway failure
type ErrorKind int

// error kinds
const (
	KindPrecondition ErrorKind = iota + 1 // no open session
	KindConnection                        // database file can't be opened
	KindExecution                         // engine failed to execute, incl. constraint violations
	KindParams                            // parameters don't fit the call
	KindInvalid                           // entity rejected before reaching the engine
)

// String returns the string representation of the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindConnection:
		return "connection"
	case KindExecution:
		return "execution"
	case KindParams:
		return "params"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// QueryError is the typed failure returned by Session methods
type QueryError struct {
	Kind  ErrorKind
	Op    string // read, write, script, open, add action and so on
	Query string
	Err   error
}

// Error implements the error interface
func (e *QueryError) Error() string {
	if e.Query == "" {
		return fmt.Sprintf("%s error on %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s error on %s %q: %v", e.Kind, e.Op, compact(e.Query), e.Err)
}

// Unwrap returns the underlying error
func (e *QueryError) Unwrap() error {
	return e.Err
}

// IsKind checks if err is a *QueryError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind == kind
	}
	return false
}
