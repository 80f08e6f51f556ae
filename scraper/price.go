package scraper

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// minRawPrice rejects junk matches like page numbers or lot counts.
	minRawPrice = 1000
	// MinAskingPrice is the canonical floor; records priced below it after
	// currency conversion are discarded.
	MinAskingPrice = 100
)

// priceRegexp captures a digit run with embedded locale separators,
// e.g. "1 200 000", "1,200,000" or "12.500".
var priceRegexp = regexp.MustCompile(`\d[\d\s\x{00a0}\x{2009}\x{202f}.,]*\d|\d`)

// decimalTail matches a ",50"/".50" minor-unit suffix, which auction
// listings carry occasionally and which is dropped.
var decimalTail = regexp.MustCompile(`[.,]\d{1,2}$`)

// ParsePrice extracts an integer amount from a raw price text such as
// "1 200 000 kr" or "$12,500". Whitespace and locale thousand-separators
// are stripped. Values below the minimum magnitude floor return 0 so the
// record gets discarded instead of carrying a junk price.
func ParsePrice(raw string) int {
	match := priceRegexp.FindString(raw)
	if match == "" {
		return 0
	}

	match = decimalTail.ReplaceAllString(match, "")

	var digits strings.Builder
	for _, r := range match {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}

	n, err := strconv.Atoi(digits.String())
	if err != nil || n < minRawPrice {
		return 0
	}
	return n
}

// scalePrice converts a raw source-currency amount to the canonical USD
// integer unit. A scale of 0 means the source already quotes USD.
func scalePrice(raw int, scale float64) int {
	if scale == 0 || scale == 1 {
		return raw
	}
	return int(float64(raw) * scale)
}
