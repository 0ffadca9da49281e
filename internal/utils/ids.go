package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NormalizeID renders a product or user identifier the same way regardless of
// whether upstream sent it as a string or a number, so "12" and 12 compare equal.
func NormalizeID(id any) string {
	switch v := id.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		// encoding/json decodes untyped numbers as float64
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// SameID compares two identifiers after normalization.
func SameID(a, b any) bool {
	return NormalizeID(a) == NormalizeID(b)
}
