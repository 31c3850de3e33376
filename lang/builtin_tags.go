package lang

import (
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strings"
	"time"
)

// tagIf renders the first branch whose condition holds. An else branch,
// if present, must be the last.
func tagIf(inv *Invocation) (Value, error) {
	for i, seg := range inv.Segments[:len(inv.Segments)-1] {
		if seg.Name() == "else" {
			next := inv.Segments[i+1]

			return Undefined, inv.Fail("else must be the last branch",
				slog.String("segment", next.Name()),
				slog.String("at", next.Pos.String()),
			)
		}
	}

	for _, seg := range inv.Segments {
		if seg.Name() != "else" {
			ok, err := evalCondition(inv, seg.Pieces[1:])
			if err != nil {
				return Undefined, err
			}

			if !ok {
				continue
			}
		}

		out, err := seg.Render()
		if err != nil {
			return Undefined, err
		}

		return Str(out), nil
	}

	return Undefined, nil
}

func tagIfEqual(want bool) BlockFunc {
	return func(inv *Invocation) (Value, error) {
		if err := Arity(inv.Name, inv.Args, 2, 2); err != nil {
			return Undefined, err
		}

		branch := 1
		if inv.Args[0].Equal(inv.Args[1]) == want {
			branch = 0
		}

		if branch >= len(inv.Segments) {
			return Undefined, nil
		}

		out, err := inv.Segments[branch].Render()
		if err != nil {
			return Undefined, err
		}

		return Str(out), nil
	}
}

// tagFor handles "for x in seq [reversed]" and "for k, v in seq".
// Loop variables and forloop are restored when the loop ends.
func tagFor(inv *Invocation) (Value, error) {
	words := inv.Pieces[1:]

	in := slices.Index(words, "in")
	if in < 1 || in == len(words)-1 {
		return Undefined, inv.Fail("expected for <name>... in <sequence>")
	}

	names := strings.FieldsFunc(strings.Join(words[:in], ","), func(r rune) bool {
		return r == ','
	})

	rest := words[in+1:]
	reversed := rest[len(rest)-1] == "reversed"

	if reversed {
		rest = rest[:len(rest)-1]
	}

	if len(names) == 0 || len(rest) != 1 {
		return Undefined, inv.Fail("expected for <name>... in <sequence>")
	}

	seq, err := inv.Eval(rest[0])
	if err != nil {
		return Undefined, err
	}

	items := slices.Clone(seq.Items())
	if reversed {
		slices.Reverse(items)
	}

	if len(items) == 0 {
		if len(inv.Segments) < 2 {
			return Undefined, nil
		}

		out, err := inv.Segments[1].Render()

		return Str(out), err
	}

	restore := save(inv.Data, append(slices.Clone(names), "forloop")...)
	defer restore()

	var sb strings.Builder

	for i, item := range items {
		bindLoop(inv.Data, names, seq, item)

		inv.Data["forloop"] = Map(map[string]Value{
			"counter":    Int(int64(i + 1)),
			"counter0":   Int(int64(i)),
			"revcounter": Int(int64(len(items) - i)),
			"first":      Bool(i == 0),
			"last":       Bool(i == len(items)-1),
			"length":     Int(int64(len(items))),
		})

		out, err := inv.Segments[0].Render()
		if err != nil {
			return Undefined, err
		}

		sb.WriteString(out)
	}

	return Str(sb.String()), nil
}

// bindLoop assigns the loop variables for one item. With two names, a
// mapping binds key and value and a sequence item is unpacked.
func bindLoop(data Context, names []string, seq, item Value) {
	if len(names) == 1 {
		data[names[0]] = item

		return
	}

	var parts []Value

	if seq.Kind() == KindMapping {
		parts = []Value{item, seq.Lookup(item.String())}
	} else if s, ok := item.AsSeq(); ok {
		parts = s
	} else {
		parts = []Value{item}
	}

	for i, name := range names {
		if i < len(parts) {
			data[name] = parts[i]
		} else {
			delete(data, name)
		}
	}
}

// save records the current bindings of names and returns a func that
// restores them.
func save(data Context, names ...string) func() {
	prev := make(map[string]Value, len(names))

	for _, name := range names {
		if v, ok := data[name]; ok {
			prev[name] = v
		}
	}

	return func() {
		for _, name := range names {
			if v, ok := prev[name]; ok {
				data[name] = v
			} else {
				delete(data, name)
			}
		}
	}
}

func tagWith(inv *Invocation) (Value, error) {
	if len(inv.Args) > 0 {
		return Undefined, inv.Fail("with takes only name=value arguments")
	}

	names := make([]string, 0, len(inv.Kwargs))
	for name := range inv.Kwargs {
		names = append(names, name)
	}

	restore := save(inv.Data, names...)
	defer restore()

	for name, v := range inv.Kwargs {
		inv.Data[name] = v
	}

	out, err := inv.Segments[0].Render()
	if err != nil {
		return Undefined, err
	}

	return Str(out), nil
}

// tagFilter applies a filter chain such as "lower|capfirst" or
// "default:'x'" to the rendered body.
func tagFilter(inv *Invocation) (Value, error) {
	if len(inv.Pieces) != 2 {
		return Undefined, inv.Fail("expected filter <name>[|<name>...]")
	}

	out, err := inv.Segments[0].Render()
	if err != nil {
		return Undefined, err
	}

	v := Str(out)

	for _, call := range strings.Split(inv.Pieces[1], "|") {
		name, arg, hasArg := strings.Cut(call, ":")

		fn, ok := inv.Filter(name)
		if !ok {
			return Undefined, inv.scope.filterNotFound(name, inv.Pos)
		}

		var args []Value

		if hasArg {
			a, err := inv.Eval(arg)
			if err != nil {
				return Undefined, err
			}

			args = append(args, a)
		}

		if v, err = fn(v, args...); err != nil {
			return Undefined, evaluationError(err, inv.Pos, slog.String("filter", name))
		}
	}

	return v, nil
}

func tagComment(*Invocation) (Value, error) { return Undefined, nil }

var spaceBetweenTags = regexp.MustCompile(`>\s+<`)

func tagSpaceless(inv *Invocation) (Value, error) {
	out, err := inv.Segments[0].Render()
	if err != nil {
		return Undefined, err
	}

	return Str(spaceBetweenTags.ReplaceAllString(strings.TrimSpace(out), "><")), nil
}

// tagSet handles "set name value..." and "set name = expr".
//
// In the first form a literal value is decoded and anything else is stored
// as the raw text of the remaining words. In the second form the expression
// is evaluated.
func tagSet(inv *Invocation) (Value, error) {
	words := inv.Pieces[1:]
	if len(words) < 2 {
		return Undefined, inv.Fail("expected set <name> <value>")
	}

	name := words[0]

	if words[1] == "=" {
		if len(words) != 3 {
			return Undefined, inv.Fail("expected set <name> = <expression>")
		}

		v, err := inv.Eval(words[2])
		if err != nil {
			return Undefined, err
		}

		inv.Data.Set(name, v)

		return Undefined, nil
	}

	if len(words) == 2 {
		if v, ok := ParseLiteral(words[1]); ok {
			inv.Data.Set(name, v)

			return Undefined, nil
		}
	}

	inv.Data.Set(name, Str(strings.Join(words[1:], " ")))

	return Undefined, nil
}

func tagUnset(inv *Invocation) (Value, error) {
	if len(inv.Pieces) < 2 {
		return Undefined, inv.Fail("expected unset <name>...")
	}

	for _, name := range inv.Pieces[1:] {
		inv.Data.Unset(name)
	}

	return Undefined, nil
}

func tagFirstOf(args []Value) (Value, error) {
	for _, a := range args {
		if a.Truthy() {
			return a, nil
		}
	}

	return Undefined, nil
}

// tagWidthRatio computes round(value / max * width).
func tagWidthRatio(args []Value) (Value, error) {
	if err := Arity("widthratio", args, 3, 3); err != nil {
		return Undefined, err
	}

	var f [3]float64

	for i, a := range args {
		n, ok := ToNumber(a)
		if !ok {
			return Undefined, ErrEvaluation.With(
				slog.String("tag", "widthratio"),
				slog.String("reason", "non-numeric argument"),
				slog.String("argument", a.String()),
			)
		}

		f[i], _ = n.AsFloat()
	}

	if f[1] == 0 {
		return Int(0), nil
	}

	return Int(int64(math.Round(f[0] / f[1] * f[2]))), nil
}

// tagNow renders the current time with an optional Go time layout.
func tagNow(args []Value) (Value, error) {
	if err := Arity("now", args, 0, 1); err != nil {
		return Undefined, err
	}

	layout := time.RFC3339
	if len(args) == 1 {
		layout = args[0].String()
	}

	return Str(time.Now().Format(layout)), nil
}
