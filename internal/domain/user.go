package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxNameLength = 100
	MinAge        = 0
	MaxAge        = 150
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// User is the domain entity for a stored user record.
// ID is zero until the record has been persisted.
type User struct {
	ID    int64
	Name  string
	Email string
	Age   int
}

// HasID reports whether the user has been assigned an id by storage.
func (u User) HasID() bool { return u.ID > 0 }

// Validate returns an ErrValidation naming the first field that breaks the
// user rules, or nil.
func (u User) Validate() error {
	switch {
	case strings.TrimSpace(u.Name) == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case utf8.RuneCountInString(u.Name) > MaxNameLength:
		return fmt.Errorf("%w: name must be at most %d characters", ErrValidation, MaxNameLength)
	case !emailPattern.MatchString(u.Email):
		return fmt.Errorf("%w: email is malformed", ErrValidation)
	case u.Age < MinAge || u.Age > MaxAge:
		return fmt.Errorf("%w: age must be between %d and %d", ErrValidation, MinAge, MaxAge)
	}
	return nil
}

// IsValid is the boolean form of Validate.
func (u User) IsValid() bool { return u.Validate() == nil }
