package ledger

import (
	"errors"
	"testing"
)

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		wantErr error
	}{
		{"one cent", 0.01, nil},
		{"whole number", 150, nil},
		{"zero", 0, ErrAmountNotPositive},
		{"negative", -5.50, ErrAmountNotPositive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateAmount(tt.amount); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAmount(%v) = %v, want %v", tt.amount, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDate(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		wantErr error
	}{
		{"valid", "2024-03-15", nil},
		{"leap day in leap year", "2024-02-29", nil},
		{"leap day in non-leap year", "2023-02-29", ErrInvalidDate},
		{"february 30th", "2024-02-30", ErrInvalidDate},
		{"wrong format", "15-03-2024", ErrInvalidDate},
		{"not zero padded", "2024-3-5", ErrInvalidDate},
		{"empty", "", ErrInvalidDate},
		{"garbage", "not-a-date", ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateDate(tt.date); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDate(%q) = %v, want %v", tt.date, err, tt.wantErr)
			}
		})
	}
}

func TestValidateStatus(t *testing.T) {
	for _, valid := range []string{StatusPending, StatusReimbursed, StatusNotRequired} {
		if err := ValidateStatus(valid); err != nil {
			t.Errorf("ValidateStatus(%q) = %v, want nil", valid, err)
		}
	}
	for _, invalid := range []string{"", "pending", "Approved", "NOT REQUIRED"} {
		if err := ValidateStatus(invalid); !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("ValidateStatus(%q) = %v, want ErrInvalidStatus", invalid, err)
		}
	}
}

func TestListParamsNormalize(t *testing.T) {
	tests := []struct {
		name       string
		in         ListParams
		wantLimit  int
		wantOffset int
	}{
		{"defaults", ListParams{}, 100, 0},
		{"negative offset", ListParams{Offset: -10}, 100, 0},
		{"explicit values", ListParams{Limit: 25, Offset: 50}, 25, 50},
		{"limit capped", ListParams{Limit: 5000}, 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Normalize()
			if tt.in.Limit != tt.wantLimit || tt.in.Offset != tt.wantOffset {
				t.Errorf("Normalize() = limit %d offset %d, want limit %d offset %d",
					tt.in.Limit, tt.in.Offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}
