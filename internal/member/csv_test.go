package member

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr error
	}{
		{
			name:  "single column no header",
			input: "Alice Smith\nBob Jones\nCarol White\n",
			want:  []string{"Alice Smith", "Bob Jones", "Carol White"},
		},
		{
			name:  "single column with header",
			input: "Name\nAlice Smith\nBob Jones\n",
			want:  []string{"Alice Smith", "Bob Jones"},
		},
		{
			name:  "first and last columns",
			input: "First Name,Last Name\nAlice,Smith\nBob,Jones\n",
			want:  []string{"Alice Smith", "Bob Jones"},
		},
		{
			name:  "duplicates removed",
			input: "Alice Smith\nBob Jones\nAlice Smith\n",
			want:  []string{"Alice Smith", "Bob Jones"},
		},
		{
			name:  "output sorted",
			input: "Zoe Young\nAlice Smith\nMark Reed\n",
			want:  []string{"Alice Smith", "Mark Reed", "Zoe Young"},
		},
		{
			name:  "blank lines and extra whitespace",
			input: "Alice Smith\n\n  Bob Jones \n",
			want:  []string{"Alice Smith", "Bob Jones"},
		},
		{
			name:  "quoted fields",
			input: "\"Alice Smith\"\n\"Bob Jones\"\n",
			want:  []string{"Alice Smith", "Bob Jones"},
		},
		{
			name:    "empty file",
			input:   "",
			wantErr: ErrNoNames,
		},
		{
			name:    "only a header",
			input:   "First Name,Last Name\n",
			wantErr: ErrNoNames,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCSV(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseCSV() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCSV() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseCSV() = %v, want %v", got, tt.want)
			}
		})
	}
}
