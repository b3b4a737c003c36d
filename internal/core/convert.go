package core

// convert.go provides the coercions every pipeline stage shares.
//
// Snapshot cells arrive as int64, float64, string or nil. Numeric predicates,
// sorting and aggregation all go through ToFloat so that a value is either
// numeric everywhere or nowhere:
//   - integers and finite floats are numeric
//   - strings are numeric when they parse after trimming (thousands-free, "." decimal)
//   - nil, NaN, "", "-" and anything else are not

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ToFloat coerces v to float64. ok is false when v has no numeric reading.
func ToFloat(v Value) (f float64, ok bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, !math.IsNaN(x)
	case float32:
		return float64(x), !math.IsNaN(float64(x))
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int16:
		return float64(x), true
	case int8:
		return float64(x), true
	case uint64:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint8:
		return float64(x), true
	case bool:
		return 0, false
	case string:
		return parseNumeric(x)
	case fmt.Stringer:
		return parseNumeric(x.String())
	default:
		return 0, false
	}
}

func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// ToInt coerces v to an integer year-like value. Fractional values do not convert.
func ToInt(v Value) (int64, bool) {
	f, ok := ToFloat(v)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

// ToString renders v the way text filters and CSV export see it.
// nil renders as "".
func ToString(v Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// NormalizeValue converts loader-native values to the Value set (nil, string, int64, float64).
func NormalizeValue(v any) Value {
	switch x := v.(type) {
	case nil, string, int64:
		return x
	case float64:
		if math.IsNaN(x) {
			return nil
		}
		return x
	case float32:
		if math.IsNaN(float64(x)) {
			return nil
		}
		return float64(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case int8:
		return int64(x)
	case uint32:
		return int64(x)
	case uint16:
		return int64(x)
	case uint8:
		return int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return float64(x)
		}
		return int64(x)
	case bool:
		if x {
			return "true"
		}
		return "false"
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// ParseCell infers a Value from raw snapshot text: integers become int64,
// decimals become float64, empty cells become nil, anything else stays a string.
// Digits with a leading zero ("0012") are codes and stay strings.
func ParseCell(s string) Value {
	s = CleanCell(s)
	if s == "" {
		return nil
	}
	if numericRegex.MatchString(s) && !hasLeadingZero(s) {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

func hasLeadingZero(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9'
}

// CleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	// Remove leading '='
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	// Remove any surrounding quotes
	s = strings.Trim(s, `"'`)

	return s
}
