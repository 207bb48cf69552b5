// Package utils holds small query-string helpers shared by the HTTP layer.
package utils

import (
	"strconv"
	"strings"
)

// AtoiDefault parses s as a base-10 int, returning def when s is empty or
// not a number. Surrounding spaces are not trimmed.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// PageQuery reads 0-based page and size values from raw query strings,
// substituting the defaults for missing or malformed input. Negative pages
// collapse to 0 and non-positive sizes to defSize; upper bounds are the
// caller's business.
func PageQuery(page, size string, defPage, defSize int) (int, int) {
	p := AtoiDefault(strings.TrimSpace(page), defPage)
	if p < 0 {
		p = 0
	}
	s := AtoiDefault(strings.TrimSpace(size), defSize)
	if s <= 0 {
		s = defSize
	}
	return p, s
}
