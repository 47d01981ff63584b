package department

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"plain", "Youth Ministry", "Youth Ministry", nil},
		{"trims whitespace", "  Worship  ", "Worship", nil},
		{"empty", "", "", ErrNameEmpty},
		{"only whitespace", "   \t ", "", ErrNameEmpty},
		{"exactly 100 chars", strings.Repeat("a", 100), strings.Repeat("a", 100), nil},
		{"101 chars", strings.Repeat("a", 101), "", ErrNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateName(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateName(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
