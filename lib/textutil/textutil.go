package textutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName lowercases a name and collapses its whitespace so that
// "  Apple   Inc." and "apple inc." compare equal.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, " ")
	return name
}

// CollapseWhitespace trims the string and replaces every run of whitespace
// with a single space.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// ParseDay parses a day-of-month token such as "15,".
func ParseDay(token string) (int, error) {
	trimmed := strings.TrimRight(token, ",.")
	day, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse day %q: %w", token, err)
	}
	return day, nil
}

// ParseYear parses a four digit year token.
func ParseYear(token string) (int, error) {
	year, err := strconv.Atoi(strings.TrimRight(token, ",."))
	if err != nil {
		return 0, fmt.Errorf("parse year %q: %w", token, err)
	}
	return year, nil
}

var amountReplacer = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "")

// ParseAmount parses currency text like "$1,024.50" or "0.24".
func ParseAmount(text string) (decimal.Decimal, error) {
	cleaned := amountReplacer.Replace(strings.TrimSpace(text))
	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: empty", text)
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", text, err)
	}
	return amount, nil
}
