package utils

import (
	"strconv"
	"strings"
)

// QueryLimit parses a ?limit= value. Empty or malformed values give def,
// and results are clamped to [1, max].
func QueryLimit(raw string, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		n = def
	}
	if n > max {
		n = max
	}
	if n < 1 {
		n = 1
	}
	return n
}
