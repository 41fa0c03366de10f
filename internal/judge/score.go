package judge

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var leadingIntRe = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*%?\s*(?:[-:–—]\s*)?(.*)$`)

// ParseScore reads a sub-score in any of the shapes models return:
// {"score": 42, "explanation": "..."}, "42 - explanation", or a bare 42.
// Objects are tried first, then a leading integer in a string. Anything else
// is 0. The score is clamped to [0, 100].
func ParseScore(v any) (int, string) {
	if obj, ok := v.(map[string]any); ok {
		score, _ := ParseScore(obj["score"])
		return score, coerceString(obj["explanation"])
	}

	if s, ok := v.(string); ok {
		m := leadingIntRe.FindStringSubmatch(s)
		if m == nil {
			return 0, strings.TrimSpace(s)
		}
		return clampScore(coerceFloat(m[1])), strings.TrimSpace(m[2])
	}

	return clampScore(coerceFloat(v)), ""
}

func clampScore(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	// Truncate toward zero so "87.9" reads as 87 like an int cast would.
	score := int(f)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(val), "%")
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
