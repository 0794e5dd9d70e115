package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Returns struct {
	MaturityValue        float64
	Profit               float64
	AverageMonthlyProfit float64
}

// ComputeReturns projects the value of an investment at maturity using
// monthly compounding.
func ComputeReturns(amount, annualRatePercent float64, termMonths int) (Returns, error) {
	if termMonths <= 0 {
		return Returns{}, ErrInvalidTerm
	}
	monthlyRate := annualRatePercent / 100 / 12
	maturity := amount * math.Pow(1+monthlyRate, float64(termMonths))
	profit := maturity - amount
	return Returns{
		MaturityValue:        maturity,
		Profit:               profit,
		AverageMonthlyProfit: profit / float64(termMonths),
	}, nil
}

// ValidateAmount checks a requested amount against the package bounds.
// Bounds are inclusive on both ends.
func ValidateAmount(amount float64, pkg Package) error {
	if amount < pkg.MinAmount {
		return fmt.Errorf("%w: minimum investment amount is %s", ErrAmountTooLow, FormatCurrency(pkg.MinAmount))
	}
	if amount > pkg.MaxAmount {
		return fmt.Errorf("%w: maximum investment amount is %s", ErrAmountTooHigh, FormatCurrency(pkg.MaxAmount))
	}
	return nil
}

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders an amount as US dollars with two fraction digits,
// e.g. "$1,234.56". Display only; persisted amounts stay numeric.
func FormatCurrency(amount float64) string {
	return usd.Sprintf("$%.2f", amount)
}

// ToMinorUnits converts a dollar amount to cents for the gateway,
// rounding half up so fractional-cent float noise never shifts the charge.
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
