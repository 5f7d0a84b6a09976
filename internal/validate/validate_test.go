package validate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaxID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"ten digits", "1234567890", "1234567890", false},
		{"twelve digits", "123456789012", "123456789012", false},
		{"trims spaces", "  1234567890  ", "1234567890", false},
		{"eleven digits", "12345678901", "", true},
		{"nine digits", "123456789", "", true},
		{"letters", "12345abcde", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TaxID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "89991234567", "89991234567", false},
		{"plus seven prefix", "+79991234567", "89991234567", false},
		{"spaces and dashes", "8 999 123-45-67", "89991234567", false},
		{"parentheses", "8(999)1234567", "89991234567", false},
		{"wrong prefix", "79991234567", "", true},
		{"too short", "8999123456", "", true},
		{"too long", "899912345678", "", true},
		{"letters", "8999abc4567", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Phone(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last+tag@sub.example.org",
		"x_1%test@domain.io",
	}
	for _, input := range valid {
		t.Run(input, func(t *testing.T) {
			got, err := Email(input)
			require.NoError(t, err)
			assert.Equal(t, input, got)
		})
	}

	invalid := []string{
		"",
		"plainaddress",
		"@no-local.com",
		"user@nodot",
		"user@.com",
		"user @example.com",
	}
	for _, input := range invalid {
		t.Run("invalid_"+input, func(t *testing.T) {
			_, err := Email(input)
			assert.Error(t, err)
		})
	}
}

func TestQuantity(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"positive", "42", 42, false},
		{"trims spaces", " 7 ", 7, false},
		{"zero", "0", 0, true},
		{"negative", "-3", 0, true},
		{"not a number", "many", 0, true},
		{"fractional", "3.5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Quantity(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrice(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"integer", "1500", "1500", false},
		{"decimal point", "99.90", "99.9", false},
		{"decimal comma", "99,90", "99.9", false},
		{"inner spaces", "1 500", "1500", false},
		{"zero", "0", "", true},
		{"negative", "-10", "", true},
		{"not a number", "cheap", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Price(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			want, _ := decimal.NewFromString(tt.want)
			assert.True(t, got.Equal(want), "got %s, want %s", got, want)
		})
	}
}

func TestFreeText(t *testing.T) {
	got, err := FreeText("  ABC-123  ")
	require.NoError(t, err)
	assert.Equal(t, "ABC-123", got)

	_, err = FreeText("   ")
	assert.Error(t, err)
}
