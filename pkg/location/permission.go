package location

import (
	"fmt"
	"strings"
)

// Permission is the user's location authorization state.
type Permission int

const (
	Undetermined Permission = iota
	Restricted
	Denied
	Authorized
)

func (p Permission) String() string {
	switch p {
	case Restricted:
		return "restricted"
	case Denied:
		return "denied"
	case Authorized:
		return "authorized"
	default:
		return "undetermined"
	}
}

// Blocked reports whether the user has refused (or cannot grant) access.
func (p Permission) Blocked() bool {
	return p == Restricted || p == Denied
}

// ParsePermission accepts the names produced by String.
func ParsePermission(s string) (Permission, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "undetermined", "not_determined":
		return Undetermined, nil
	case "restricted":
		return Restricted, nil
	case "denied":
		return Denied, nil
	case "authorized", "authorized_when_in_use", "authorized_always":
		return Authorized, nil
	}
	return Undetermined, fmt.Errorf("unknown location permission %q", s)
}
