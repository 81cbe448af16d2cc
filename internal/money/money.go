// Package money implements the Chilean IVA (19% VAT) decomposition used for
// expense accounting: gross amount = net amount + tax amount, with all values
// rounded to whole pesos.
package money

import (
	"strings"

	"github.com/shopspring/decimal"

	"rendix/internal/apperr"
)

// IVARate is the statutory Chilean VAT rate.
var IVARate = decimal.NewFromFloat(0.19)

// MaxAmount is the largest value representable in a DECIMAL(15,2) column.
var MaxAmount = decimal.RequireFromString("9999999999999.99")

var one = decimal.NewFromInt(1)

// ComputeTax returns the IVA for a net amount, rounded to the nearest peso.
func ComputeTax(net decimal.Decimal) decimal.Decimal {
	return net.Mul(IVARate).Round(0)
}

// ComputeNet decomposes a gross amount back to its net portion, rounded to the
// nearest peso. ComputeNet(1190000) == 1000000.
func ComputeNet(total decimal.Decimal) decimal.Decimal {
	return total.Div(one.Add(IVARate)).Round(0)
}

// Parse converts a user-supplied amount string to a decimal, normalizing comma
// decimal separators to dots so input parses the same under any client locale.
// The result is rounded to two places to fit DECIMAL(15,2).
func Parse(field, value string) (decimal.Decimal, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, apperr.Validation(field, "not a number")
	}
	return d.Round(2), nil
}

// ValidateBreakdown checks the invariant amount == net + tax and the
// DECIMAL(15,2) bounds on every monetary field. net must be strictly
// positive, tax non-negative.
func ValidateBreakdown(net, tax, amount decimal.Decimal) error {
	if !net.IsPositive() {
		return apperr.Validation("net_amount", "must be greater than 0")
	}
	if net.GreaterThan(MaxAmount) {
		return apperr.Validation("net_amount", "exceeds maximum allowed amount")
	}
	if tax.IsNegative() {
		return apperr.Validation("tax_amount", "must not be negative")
	}
	if tax.GreaterThan(MaxAmount) {
		return apperr.Validation("tax_amount", "exceeds maximum allowed amount")
	}
	if !amount.IsPositive() {
		return apperr.Validation("amount", "must be greater than 0")
	}
	if amount.GreaterThan(MaxAmount) {
		return apperr.Validation("amount", "exceeds maximum allowed amount")
	}
	if !amount.Equal(net.Add(tax)) {
		return apperr.Validation("amount", "must equal net_amount + tax_amount")
	}
	return nil
}
