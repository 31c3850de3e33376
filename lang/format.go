package lang

import (
	"log/slog"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// floatPrecision is the number of significant digits used to render floats.
// Rounding to fewer digits than float64 carries hides binary representation
// error, so 1.1+2.2+3.3 renders as 6.6.
const floatPrecision = 15

// String converts v to output text.
//
// Undefined renders as the empty string, integers in decimal, floats in the
// shortest form of their value rounded to 15 significant digits, and
// booleans as True or False. Sequences render as [a, b] and mappings as
// {k: v} with sorted keys.
func (v Value) String() string {
	var sb strings.Builder

	v.format(&sb)

	return sb.String()
}

func (v Value) format(sb *strings.Builder) {
	switch v.kind {
	case KindUndefined:

	case KindString:
		sb.WriteString(v.str)

	case KindInteger:
		sb.WriteString(strconv.FormatInt(v.num, 10))

	case KindFloat:
		sb.WriteString(FormatFloat(v.flt))

	case KindBoolean:
		if v.bln {
			sb.WriteString("True")
		} else {
			sb.WriteString("False")
		}

	case KindSequence:
		sb.WriteByte('[')

		for i, e := range v.seq {
			if i > 0 {
				sb.WriteString(", ")
			}

			e.format(sb)
		}

		sb.WriteByte(']')

	case KindMapping:
		sb.WriteByte('{')

		for i, k := range slices.Sorted(maps.Keys(v.m)) {
			if i > 0 {
				sb.WriteString(", ")
			}

			sb.WriteString(k)
			sb.WriteString(": ")
			v.m[k].format(sb)
		}

		sb.WriteByte('}')
	}
}

// FormatFloat renders f the way float values are rendered in output.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"

	case math.IsInf(f, -1):
		return "-inf"

	case math.IsNaN(f):
		return "nan"
	}

	return strconv.FormatFloat(f, 'g', floatPrecision, 64)
}

// Arity checks that a tag received between lo and hi arguments.
// A negative hi means no upper bound.
func Arity(tag string, args []Value, lo, hi int) error {
	n := len(args)
	if n >= lo && (hi < 0 || n <= hi) {
		return nil
	}

	var want string

	switch {
	case lo == hi:
		want = strconv.Itoa(lo)

	case hi < 0:
		want = "at least " + strconv.Itoa(lo)

	default:
		want = strconv.Itoa(lo) + " to " + strconv.Itoa(hi)
	}

	return ErrEvaluation.With(
		slog.String("tag", tag),
		slog.String("reason", "wrong number of arguments"),
		slog.String("want", want),
		slog.Int("got", n),
	)
}

// ToInt coerces v to an integer. Floats are truncated and strings parsed.
func ToInt(v Value) (int64, bool) {
	switch v.kind {
	case KindInteger:
		return v.num, true

	case KindFloat:
		return int64(v.flt), true

	case KindBoolean:
		if v.bln {
			return 1, true
		}

		return 0, true

	case KindString:
		if n, ok := parseNumber(strings.TrimSpace(v.str)); ok {
			return ToInt(n)
		}
	}

	return 0, false
}

// ToNumber coerces v to an integer or float value. Strings are parsed.
func ToNumber(v Value) (Value, bool) {
	switch v.kind {
	case KindInteger, KindFloat:
		return v, true

	case KindBoolean:
		i, _ := ToInt(v)

		return Int(i), true

	case KindString:
		return parseNumber(strings.TrimSpace(v.str))

	default:
		return Undefined, false
	}
}
