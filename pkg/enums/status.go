package enums

import (
	"fmt"
	"strconv"
	"strings"
)

// StatusCode is the lifecycle tag shared by every persisted entity.
type StatusCode int

const (
	StatusPending    StatusCode = 0
	StatusActive     StatusCode = 1
	StatusDeleted    StatusCode = 2
	StatusBlocked    StatusCode = 3
	StatusUnverified StatusCode = 4
)

var validStatusCodes = []StatusCode{
	StatusPending,
	StatusActive,
	StatusDeleted,
	StatusBlocked,
	StatusUnverified,
}

var statusNames = map[StatusCode]string{
	StatusPending:    "pending",
	StatusActive:     "active",
	StatusDeleted:    "deleted",
	StatusBlocked:    "blocked",
	StatusUnverified: "unverified",
}

// String implements fmt.Stringer.
func (s StatusCode) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// IsValid reports whether the value is a known StatusCode.
func (s StatusCode) IsValid() bool {
	for _, candidate := range validStatusCodes {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsActive reports whether rows carrying s are visible to default reads.
func (s StatusCode) IsActive() bool {
	return s == StatusActive
}

// IsTerminal reports whether s can never be left.
func (s StatusCode) IsTerminal() bool {
	return s == StatusDeleted
}

// CanTransitionTo enforces the shared lifecycle: nothing leaves DELETED.
func (s StatusCode) CanTransitionTo(next StatusCode) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	if s.IsTerminal() {
		return next == s
	}
	return true
}

// ParseStatusCode accepts either the numeric code or its name.
func ParseStatusCode(value string) (StatusCode, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if n, err := strconv.Atoi(trimmed); err == nil {
		code := StatusCode(n)
		if code.IsValid() {
			return code, nil
		}
		return 0, fmt.Errorf("invalid status code %q", value)
	}
	for code, name := range statusNames {
		if name == trimmed {
			return code, nil
		}
	}
	return 0, fmt.Errorf("invalid status code %q", value)
}
