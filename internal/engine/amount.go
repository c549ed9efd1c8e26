package engine

import (
	"strconv"
	"strings"
)

// NormalizeAmount converts a raw amount scalar into a float64. Payroll
// extracts carry locale-formatted strings: thousands separators, amounts
// wrapped in parentheses or carrying a trailing minus for negatives.
// Malformed or empty input yields 0.0, never an error, so normalization
// can run independently per record.
func NormalizeAmount(value any) float64 {
	switch v := value.(type) {
	case nil:
		return 0.0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		return normalizeAmountString(v)
	default:
		return 0.0
	}
}

func normalizeAmountString(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0.0
	}

	negative := false

	// Accounting format: (1,234.56) means -1234.56.
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	// SAP-style trailing minus: 2,200.00- means -2200.00.
	if strings.HasSuffix(s, "-") {
		negative = true
		s = strings.TrimSuffix(s, "-")
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0
	}

	if negative {
		return -parsed
	}
	return parsed
}
