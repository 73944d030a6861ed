package utils

import (
	"strconv"
)

// IntOr parses s, falling back to def when s is empty or not a number.
func IntOr(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
