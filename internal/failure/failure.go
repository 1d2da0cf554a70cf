// Package failure defines the error taxonomy of a refresh cycle and maps
// errors onto the single user-visible notice each failure produces.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies why a refresh cycle ended without new venues.
type Kind int

const (
	Unknown Kind = iota
	Connectivity
	Permission
	Network
	Data
	Persistence
	LocationUnavailable
)

func (k Kind) String() string {
	switch k {
	case Connectivity:
		return "connectivity"
	case Permission:
		return "permission"
	case Network:
		return "network"
	case Data:
		return "data"
	case Persistence:
		return "persistence"
	case LocationUnavailable:
		return "location_unavailable"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Error is a classified failure. Err is the underlying cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so errors.Is(err, failure.ErrConnectivity) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind markers for errors.Is.
var (
	ErrConnectivity        = &Error{Kind: Connectivity}
	ErrPermission          = &Error{Kind: Permission}
	ErrNetwork             = &Error{Kind: Network}
	ErrData                = &Error{Kind: Data}
	ErrPersistence         = &Error{Kind: Persistence}
	ErrLocationUnavailable = &Error{Kind: LocationUnavailable}
)

func NewConnectivity(msg string) error { return &Error{Kind: Connectivity, Message: msg} }

func NewPermission(msg string) error { return &Error{Kind: Permission, Message: msg} }

func NewNetwork(err error) error { return &Error{Kind: Network, Err: err} }

func NewData(msg string, err error) error { return &Error{Kind: Data, Message: msg, Err: err} }

func NewPersistence(err error) error { return &Error{Kind: Persistence, Err: err} }

func NewLocationUnavailable(msg string) error {
	return &Error{Kind: LocationUnavailable, Message: msg}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}
