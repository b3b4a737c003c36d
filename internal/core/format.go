package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Missing is the sentinel rendered for undefined or absent values.
const Missing = "-"

const (
	integerPattern  = "#.###."   // "." thousands, no decimals
	fractionPattern = "#.###,##" // "." thousands, "," decimals, two places
)

// humanizeLimit is 2^63; humanize.FormatFloat truncates through int64 and
// overflows at or above it.
const humanizeLimit = 1 << 63

// FormatNumber renders v for display using "." as thousands separator.
//
// nil, NaN and the literal "-" render as "-". Integral values render without a
// decimal part; fractional values render with "," and exactly two decimals.
// Values with no numeric reading render as their plain string form.
// FormatNumber never panics and is the only number formatter in the module.
func FormatNumber(v Value) string {
	switch x := v.(type) {
	case nil:
		return Missing
	case int64:
		return formatInt(x)
	case int:
		return formatInt(int64(x))
	case uint64:
		return groupThousands(strconv.FormatUint(x, 10))
	case string:
		if x == Missing {
			return Missing
		}
		if i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return formatInt(i)
		}
	case float64:
		if math.IsNaN(x) {
			return Missing
		}
	case float32:
		if math.IsNaN(float64(x)) {
			return Missing
		}
	}

	f, ok := ToFloat(v)
	if !ok {
		return fmt.Sprint(v)
	}
	return formatFloat(f)
}

func formatFloat(f float64) string {
	if math.IsInf(f, 0) {
		return fmt.Sprint(f)
	}
	if math.Abs(f) >= humanizeLimit {
		// every float64 this large is integral
		return formatLarge(f, 0)
	}
	if f == math.Trunc(f) {
		return humanize.FormatFloat(integerPattern, f)
	}
	return humanize.FormatFloat(fractionPattern, f)
}

func formatInt(i int64) string {
	s := strconv.FormatInt(i, 10)
	if digits, ok := strings.CutPrefix(s, "-"); ok {
		return "-" + groupThousands(digits)
	}
	return groupThousands(s)
}

// formatLarge renders f with the given decimals without an int64 round trip.
func formatLarge(f float64, decimals int) string {
	s := strconv.FormatFloat(math.Abs(f), 'f', decimals, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	out := groupThousands(intPart)
	if frac != "" {
		out += "," + frac
	}
	if f < 0 {
		out = "-" + out
	}
	return out
}

// groupThousands puts "." between every three digits of an unsigned integer string.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	var b strings.Builder
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatPercent renders v with exactly two decimals and a "%" suffix, using the
// same separators as FormatNumber. Non-numeric values render as FormatNumber does.
func FormatPercent(v Value) string {
	f, ok := ToFloat(v)
	if !ok {
		return FormatNumber(v)
	}
	if math.IsInf(f, 0) {
		return fmt.Sprint(f)
	}
	if math.Abs(f) >= humanizeLimit {
		return formatLarge(f, 2) + "%"
	}
	return humanize.FormatFloat(fractionPattern, f) + "%"
}
