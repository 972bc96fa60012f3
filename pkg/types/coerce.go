package types

import (
	"math"
	"strconv"
	"strings"
)

// Sentinel strings produced for non finite numbers.
const (
	SentinelNaN         = "NaN"
	SentinelInfinity    = "Infinity"
	SentinelNegInfinity = "-Infinity"
)

// MakeString returns the string coercion of v.
func MakeString(v Value) string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindInt32, KindInt64:
		return strconv.FormatInt(v.i, 10)
	case KindDouble:
		return formatDouble(v.f)
	case KindBool:
		if v.i != 0 {
			return "true"
		}
		return "false"
	case KindString:
		return v.s
	case KindArray:
		var sb strings.Builder
		for i, e := range v.arr {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(MakeString(e))
		}
		return sb.String()
	case KindObject:
		return "[object Object]"
	default:
		return ""
	}
}

func formatDouble(f float64) string {
	switch {
	case math.IsNaN(f):
		return SentinelNaN
	case math.IsInf(f, 1):
		return SentinelInfinity
	case math.IsInf(f, -1):
		return SentinelNegInfinity
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// Go pads exponents to two digits ("1e-07").
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MakeNumeric converts a numeric-countable value to a number. Booleans
// become Int32 0/1, null becomes Int32 0 and the sentinel strings become
// their IEEE doubles. Any other input returns false.
func MakeNumeric(v Value) (Value, bool) {
	switch v.kind {
	case KindInt32, KindInt64, KindDouble:
		return v, true
	case KindBool:
		return Int32(int32(v.i)), true
	case KindNull:
		return Int32(0), true
	case KindString:
		switch v.s {
		case SentinelNaN:
			return NaN(), true
		case SentinelInfinity:
			return Infinity(1), true
		case SentinelNegInfinity:
			return Infinity(-1), true
		}
	}
	return Undefined(), false
}

// IsZero reports whether v is a numeric zero of any kind.
func IsZero(v Value) bool {
	switch v.kind {
	case KindInt32, KindInt64:
		return v.i == 0
	case KindDouble:
		return v.f == 0
	default:
		return false
	}
}

// IsNegative reports whether v is a negative number. Negative zero counts.
func IsNegative(v Value) bool {
	switch v.kind {
	case KindInt32, KindInt64:
		return v.i < 0
	case KindDouble:
		return math.Signbit(v.f) && !math.IsNaN(v.f)
	default:
		return false
	}
}

// IsFalsy reports whether v is false for logical operators: numeric zero,
// false, null, NaN and undefined. Empty strings and empty arrays are truthy.
func IsFalsy(v Value) bool {
	switch v.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return v.i == 0
	case KindDouble:
		return v.f == 0 || math.IsNaN(v.f)
	case KindInt32, KindInt64:
		return v.i == 0
	default:
		return false
	}
}

// StrictlyEqual implements ===. Numeric kinds are compared by value; NaN,
// arrays and objects are never strictly equal to anything.
func StrictlyEqual(a, b Value) bool {
	if a.IsNaN() || b.IsNaN() {
		return false
	}
	if a.kind == KindArray || b.kind == KindArray || a.kind == KindObject || b.kind == KindObject {
		return false
	}
	if rank(a) != rank(b) {
		return false
	}
	return compareSameRank(a, b) == 0
}

// LooselyEqual implements ==.
func LooselyEqual(a, b Value) bool {
	if a.kind == KindArray && b.kind == KindArray {
		return false
	}
	var ok bool
	if a, ok = unwrapArray(a); !ok {
		return false
	}
	if b, ok = unwrapArray(b); !ok {
		return false
	}

	aNullish := a.kind == KindNull || a.kind == KindUndefined
	bNullish := b.kind == KindNull || b.kind == KindUndefined
	if aNullish || bNullish {
		return aNullish && bNullish
	}
	if a.IsNaN() || b.IsNaN() {
		return false
	}

	if a.kind == KindBool {
		return LooselyEqual(Int32(int32(a.i)), b)
	}
	if b.kind == KindBool {
		return LooselyEqual(a, Int32(int32(b.i)))
	}

	switch {
	case a.IsNumber() && b.kind == KindString:
		return numericEqualsString(a, b.s)
	case a.kind == KindString && b.IsNumber():
		return numericEqualsString(b, a.s)
	}
	return StrictlyEqual(a, b)
}

// unwrapArray reduces an array operand of == to a scalar. Empty arrays
// become false and single element arrays their element; longer arrays
// cannot equal anything.
func unwrapArray(v Value) (Value, bool) {
	for v.kind == KindArray {
		switch len(v.arr) {
		case 0:
			return Bool(false), true
		case 1:
			v = v.arr[0]
		default:
			return Undefined(), false
		}
	}
	return v, true
}

func numericEqualsString(n Value, s string) bool {
	f, ok := ParseNumericString(s)
	if !ok {
		return false
	}
	return compareNumbers(n, Double(f)) == 0
}

// ParseNumericString converts string text to a number the way loose
// equality does: surrounding whitespace is ignored, the empty string is
// zero and the sentinel spellings are recognised.
func ParseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0, true
	case SentinelInfinity, "+" + SentinelInfinity:
		return math.Inf(1), true
	case SentinelNegInfinity:
		return math.Inf(-1), true
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E') {
			return 0, false
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Canonical ranks used by Compare. Values of different ranks order by rank.
const (
	RankUndefined = 0
	RankNull      = 5
	RankNumber    = 10
	RankString    = 15
	RankObject    = 20
	RankArray     = 25
	RankBool      = 40
)

// Rank returns the canonical ordering rank of v.
func Rank(v Value) int { return rank(v) }

func rank(v Value) int {
	switch v.kind {
	case KindNull:
		return RankNull
	case KindInt32, KindInt64, KindDouble:
		return RankNumber
	case KindString:
		return RankString
	case KindObject:
		return RankObject
	case KindArray:
		return RankArray
	case KindBool:
		return RankBool
	default:
		return RankUndefined
	}
}

// Compare orders two values canonically and returns -1, 0 or +1.
//
// Values of different ranks compare by rank. Numbers compare numerically
// across kinds with NaN below every other number, strings bytewise, arrays
// element by element and then by length, booleans false before true.
// Objects of equal rank compare equal.
func Compare(a, b Value) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	return compareSameRank(a, b)
}

func compareSameRank(a, b Value) int {
	switch a.kind {
	case KindInt32, KindInt64, KindDouble:
		return compareNumbers(a, b)
	case KindString:
		return strings.Compare(a.s, b.s)
	case KindBool:
		return cmpInt(a.i, b.i)
	case KindArray:
		n := min(len(a.arr), len(b.arr))
		for i := 0; i < n; i++ {
			if c := Compare(a.arr[i], b.arr[i]); c != 0 {
				return c
			}
		}
		return cmpInt(int64(len(a.arr)), int64(len(b.arr)))
	default:
		return 0
	}
}

func compareNumbers(a, b Value) int {
	if a.kind != KindDouble && b.kind != KindDouble {
		return cmpInt(a.i, b.i)
	}
	af, bf := a.Float(), b.Float()
	aNaN, bNaN := math.IsNaN(af), math.IsNaN(bf)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return -1
	case bNaN:
		return 1
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
