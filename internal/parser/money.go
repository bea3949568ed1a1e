package parser

import (
	"fmt"
	"strings"

	"github.com/brfinance/extrato/internal/domain"
	"github.com/shopspring/decimal"
)

// CleanField strips CSV quoting and surrounding whitespace.
func CleanField(field string) string {
	return strings.TrimSpace(strings.ReplaceAll(field, `"`, ""))
}

// NormalizeDecimal converts a Brazilian-locale monetary string to a
// canonical decimal string: thousands-separator dots are dropped and the
// decimal comma becomes a dot. "1.234,56" -> "1234.56".
func NormalizeDecimal(field string) string {
	field = CleanField(field)
	field = strings.ReplaceAll(field, ".", "")
	field = strings.ReplaceAll(field, "\u00a0", "")
	field = strings.ReplaceAll(field, " ", "")
	return strings.ReplaceAll(field, ",", ".")
}

// ParseAmount parses a Brazilian-locale monetary string into an exact
// decimal, tolerating multiple thousands groups and a leading sign. The
// currency defaults to BRL: the supported statement formats never encode one.
func ParseAmount(field string) (decimal.Decimal, string, error) {
	amount, err := decimal.NewFromString(NormalizeDecimal(field))
	if err != nil {
		return decimal.Decimal{}, "", fmt.Errorf("%w: %q", domain.ErrInvalidAmount, field)
	}
	return amount, domain.DefaultCurrency, nil
}

func ParseAmountSafe(field string) (decimal.Decimal, bool) {
	amount, _, err := ParseAmount(field)
	return amount, err == nil
}
