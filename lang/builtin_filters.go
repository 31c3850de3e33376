package lang

import (
	"html"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// filterArg returns the single argument of a filter that requires one.
func filterArg(name string, args []Value) (Value, error) {
	if len(args) != 1 {
		return Undefined, ErrEvaluation.With(
			slog.String("filter", name),
			slog.String("reason", "missing argument"),
		)
	}

	return args[0], nil
}

// Casers are stateful, so one is made per call.

func filterUpper(v Value, _ ...Value) (Value, error) {
	return Str(cases.Upper(language.Und).String(v.String())), nil
}

func filterLower(v Value, _ ...Value) (Value, error) {
	return Str(cases.Lower(language.Und).String(v.String())), nil
}

func filterTitle(v Value, _ ...Value) (Value, error) {
	return Str(cases.Title(language.Und).String(v.String())), nil
}

func filterCapFirst(v Value, _ ...Value) (Value, error) {
	s := v.String()
	if s == "" {
		return Str(s), nil
	}

	_, n := utf8.DecodeRuneInString(s)

	return Str(cases.Upper(language.Und).String(s[:n]) + s[n:]), nil
}

func filterLength(v Value, _ ...Value) (Value, error) {
	return Int(int64(v.Len())), nil
}

func filterFirst(v Value, _ ...Value) (Value, error) {
	return v.Lookup("0"), nil
}

func filterLast(v Value, _ ...Value) (Value, error) {
	return v.Lookup("-1"), nil
}

func filterJoin(v Value, args ...Value) (Value, error) {
	sep, err := filterArg("join", args)
	if err != nil {
		return Undefined, err
	}

	seq, ok := v.AsSeq()
	if !ok {
		return v, nil
	}

	parts := make([]string, len(seq))
	for i, e := range seq {
		parts[i] = e.String()
	}

	return Str(strings.Join(parts, sep.String())), nil
}

func filterDefault(v Value, args ...Value) (Value, error) {
	alt, err := filterArg("default", args)
	if err != nil {
		return Undefined, err
	}

	if v.Truthy() {
		return v, nil
	}

	return alt, nil
}

func filterEscape(v Value, _ ...Value) (Value, error) {
	return Str(html.EscapeString(v.String())), nil
}

func filterSafe(v Value, _ ...Value) (Value, error) { return v, nil }

func filterCut(v Value, args ...Value) (Value, error) {
	s, err := filterArg("cut", args)
	if err != nil {
		return Undefined, err
	}

	return Str(strings.ReplaceAll(v.String(), s.String(), "")), nil
}

// filterAdd adds numbers, concatenates sequences, and otherwise joins text.
func filterAdd(v Value, args ...Value) (Value, error) {
	o, err := filterArg("add", args)
	if err != nil {
		return Undefined, err
	}

	a, aok := ToNumber(v)
	b, bok := ToNumber(o)

	switch {
	case aok && bok:
		if a.Kind() == KindInteger && b.Kind() == KindInteger {
			x, _ := a.AsInt()
			y, _ := b.AsInt()

			return Int(x + y), nil
		}

		x, _ := a.AsFloat()
		y, _ := b.AsFloat()

		return Float(x + y), nil

	case v.Kind() == KindSequence && o.Kind() == KindSequence:
		return Seq(slices.Concat(v.seq, o.seq)...), nil

	default:
		return Str(v.String() + o.String()), nil
	}
}

func filterTrim(v Value, _ ...Value) (Value, error) {
	return Str(strings.TrimSpace(v.String())), nil
}

func filterWordCount(v Value, _ ...Value) (Value, error) {
	return Int(int64(len(strings.Fields(v.String())))), nil
}

func filterReverse(v Value, _ ...Value) (Value, error) {
	switch v.Kind() {
	case KindSequence:
		s := slices.Clone(v.seq)
		slices.Reverse(s)

		return Seq(s...), nil

	default:
		r := []rune(v.String())
		slices.Reverse(r)

		return Str(string(r)), nil
	}
}
