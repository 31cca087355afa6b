package ideas

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidInput marks a failure caught locally before any send.
	ErrInvalidInput = errors.New("ideas: invalid input")
	// ErrBusy is returned when a mutation for the same id is in flight.
	ErrBusy = errors.New("ideas: operation already in flight for this idea")
)

const (
	titleMin = 3
	titleMax = 80
	descMin  = 10
	descMax  = 800
)

// ValidateTitle requires a trimmed title of 3 to 80 display characters.
func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < titleMin || n > titleMax {
		return fmt.Errorf("%w: title must have %d to %d characters", ErrInvalidInput, titleMin, titleMax)
	}
	return nil
}

// ValidateDescription requires a trimmed description of 10 to 800 display
// characters.
func ValidateDescription(description string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(description))
	if n < descMin || n > descMax {
		return fmt.Errorf("%w: description must have %d to %d characters", ErrInvalidInput, descMin, descMax)
	}
	return nil
}
