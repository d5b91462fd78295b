package claims

import (
	"strings"

	"github.com/MrJamesThe3rd/benefits/internal/money"
)

// parseAmount reads an amount written in the given style.
// Examples: "1.234,56" (decimalComma) and "1234.56" (decimalPoint) are both 123456 cents.
func parseAmount(s string, style decimalStyle) (money.Amount, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimSuffix(clean, "EUR")
	clean = strings.TrimSpace(clean)

	if style == decimalComma {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	} else {
		clean = strings.ReplaceAll(clean, ",", "")
	}

	return money.Parse(clean)
}
