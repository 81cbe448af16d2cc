package money

import (
	"testing"

	"rendix/internal/apperr"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeTax(t *testing.T) {
	tests := []struct {
		net  string
		want string
	}{
		{"1000000", "190000"},
		{"100", "19"},
		{"1", "0"}, // 0.19 rounds down
		{"3", "1"}, // 0.57 rounds up
		{"21008403", "3991597"},
	}
	for _, tt := range tests {
		got := ComputeTax(d(tt.net))
		if !got.Equal(d(tt.want)) {
			t.Errorf("ComputeTax(%s) = %s, want %s", tt.net, got, tt.want)
		}
	}
}

func TestComputeNet(t *testing.T) {
	tests := []struct {
		total string
		want  string
	}{
		{"1190000", "1000000"},
		{"119", "100"},
		{"25000000", "21008403"},
	}
	for _, tt := range tests {
		got := ComputeNet(d(tt.total))
		if !got.Equal(d(tt.want)) {
			t.Errorf("ComputeNet(%s) = %s, want %s", tt.total, got, tt.want)
		}
	}
}

func TestParseNormalizesCommaSeparator(t *testing.T) {
	got, err := Parse("amount", "1234,56")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !got.Equal(d("1234.56")) {
		t.Errorf("Parse(\"1234,56\") = %s, want 1234.56", got)
	}
}

func TestParseRoundsToTwoPlaces(t *testing.T) {
	got, err := Parse("amount", "10.005")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !got.Equal(d("10.01")) {
		t.Errorf("Parse(\"10.005\") = %s, want 10.01", got)
	}
}

func TestParseRejectsNonNumbers(t *testing.T) {
	for _, input := range []string{"", "abc", "12.3.4", "1 000"} {
		if _, err := Parse("amount", input); !apperr.IsValidation(err) {
			t.Errorf("Parse(%q) error = %v, want validation error", input, err)
		}
	}
}

func TestValidateBreakdown(t *testing.T) {
	tests := []struct {
		name             string
		net, tax, amount string
		wantErr          bool
	}{
		{"exact decomposition", "1000000", "190000", "1190000", false},
		{"zero tax boleta", "5000", "0", "5000", false},
		{"off by one", "1000000", "190000", "1190001", true},
		{"zero net", "0", "0", "0", true},
		{"negative net", "-100", "0", "-100", true},
		{"negative tax", "200", "-10", "190", true},
		{"net over maximum", "10000000000000.00", "0", "10000000000000.00", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBreakdown(d(tt.net), d(tt.tax), d(tt.amount))
			if tt.wantErr && !apperr.IsValidation(err) {
				t.Errorf("ValidateBreakdown(%s, %s, %s) = %v, want validation error", tt.net, tt.tax, tt.amount, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateBreakdown(%s, %s, %s) = %v, want nil", tt.net, tt.tax, tt.amount, err)
			}
		})
	}
}

func TestMaxAmountMatchesColumnWidth(t *testing.T) {
	if !MaxAmount.Equal(d("9999999999999.99")) {
		t.Errorf("MaxAmount = %s, want 9999999999999.99", MaxAmount)
	}
}
