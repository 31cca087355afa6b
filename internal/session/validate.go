package session

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrInvalidInput marks a failure caught locally before any send.
	ErrInvalidInput = errors.New("session: invalid input")
	// ErrNoToken is returned when a success response carries no token.
	ErrNoToken = errors.New("session: response carried no token")
	// ErrNoSession is returned by RefreshIdentity without a token to refresh.
	ErrNoSession = errors.New("session: no session")
)

// ValidateName requires a trimmed display name of at least 3 characters.
func ValidateName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < 3 {
		return fmt.Errorf("%w: name must have at least 3 characters", ErrInvalidInput)
	}
	return nil
}

// ValidateEmail requires a parseable address.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}
	return nil
}

// ValidatePassword mirrors the server's password policy: at least 8
// characters with an upper-case letter, a lower-case letter, a digit and a
// special character. All five rules must pass.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < 8 {
		return fmt.Errorf("%w: password must have at least 8 characters", ErrInvalidInput)
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	if !upper {
		return fmt.Errorf("%w: password needs an upper-case letter", ErrInvalidInput)
	}
	if !lower {
		return fmt.Errorf("%w: password needs a lower-case letter", ErrInvalidInput)
	}
	if !digit {
		return fmt.Errorf("%w: password needs a digit", ErrInvalidInput)
	}
	if !special {
		return fmt.Errorf("%w: password needs a special character", ErrInvalidInput)
	}
	return nil
}
