// Package domain contains the lobby entity and the validation rules for
// names, capacities and chat messages. No transport or lifecycle logic
// lives here.
package domain

import (
	"errors"
	"regexp"
	"unicode/utf8"
)

const (
	MaxNameLen    = 50
	MinCapacity   = 1
	MaxCapacity   = 64
	MaxMessageLen = 250
)

var (
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidCapacity = errors.New("invalid capacity")
	ErrInvalidMessage  = errors.New("invalid message")
)

// Names are alphanumeric plus spaces and may not start with a space.
var namePattern = regexp.MustCompile(`^\w+[\w ]*$`)

func ValidateName(s string) error {
	if len(s) == 0 || len(s) > MaxNameLen || !namePattern.MatchString(s) {
		return ErrInvalidName
	}
	return nil
}

func ValidateCapacity(n int) error {
	if n < MinCapacity || n > MaxCapacity {
		return ErrInvalidCapacity
	}
	return nil
}

// Message length is bounded in characters, not bytes.
func ValidateMessage(s string) error {
	if n := utf8.RuneCountInString(s); n == 0 || n > MaxMessageLen {
		return ErrInvalidMessage
	}
	return nil
}
