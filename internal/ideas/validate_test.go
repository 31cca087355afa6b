package ideas

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateTitle(t *testing.T) {
	cases := []struct {
		name  string
		title string
		ok    bool
	}{
		{"minimum", "abc", true},
		{"typical", "Todo app", true},
		{"maximum", strings.Repeat("x", 80), true},
		{"too short", "ab", false},
		{"too long", strings.Repeat("x", 81), false},
		{"blank", "   ", false},
		{"padded counts trimmed", "  ab  ", false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTitle(tc.title)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestValidateDescription(t *testing.T) {
	if err := ValidateDescription("exactly10!"); err != nil {
		t.Fatalf("minimum length rejected: %v", err)
	}
	if err := ValidateDescription(strings.Repeat("d", 800)); err != nil {
		t.Fatalf("maximum length rejected: %v", err)
	}
	if err := ValidateDescription("too short"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("short description accepted: %v", err)
	}
	if err := ValidateDescription(strings.Repeat("d", 801)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("long description accepted: %v", err)
	}
}
