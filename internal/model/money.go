package model

import (
	"math"
	"strconv"
)

// ParseCents converts a decimal string amount in major currency units to
// integer cents. Menu and cart prices cross the wire as integer cents, but
// humans (and the CLI) write "12.50". Malformed or empty input maps to 0,
// matching how the platform treats absent prices.
// Examples: "12.50" → 1250, "9" → 900, "" → 0.
func ParseCents(s string) int64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(f * 100))
}
