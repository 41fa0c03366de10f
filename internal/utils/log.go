package utils

import "strings"

// TruncateForLog folds whitespace runs into single spaces so multi-line model
// output stays on one log line, then cuts it to limit runes with an ellipsis.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
