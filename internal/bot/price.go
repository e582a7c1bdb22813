package bot

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	ErrInvalidPrice = errors.New("invalid price")
	ErrEmptyInput   = errors.New("empty input")
	ErrPhotoLimit   = errors.New("photo limit reached")
)

// priceRegex matches a non-negative decimal number once all whitespace has
// been removed: "50", "12345", "99.90", "99,90".
var priceRegex = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)

// parsePrice validates user input such as "12 345" and returns it as a
// canonical decimal string: no whitespace, a dot as the decimal separator,
// no leading zeros and no trailing fractional zeros. The digits are kept as
// typed so large amounts are not rounded.
func parsePrice(text string) (string, error) {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)

	if !priceRegex.MatchString(compact) {
		return "", fmt.Errorf("%q: %w", text, ErrInvalidPrice)
	}

	whole, frac, _ := strings.Cut(strings.Replace(compact, ",", ".", 1), ".")
	whole = strings.TrimLeft(whole, "0")
	if whole == "" {
		whole = "0"
	}
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		return whole, nil
	}
	return whole + "." + frac, nil
}

// formatPrice appends the currency to a price returned by parsePrice.
func formatPrice(amount, currency string) string {
	return amount + " " + currency
}

// nonEmptyText returns the trimmed text, or ErrEmptyInput.
func nonEmptyText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyInput
	}
	return text, nil
}
