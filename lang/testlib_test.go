package lang

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"unicode"

	"github.com/ardnew/synth/lang/codec"
)

// testLoader resolves the libraries used throughout the tests.
func testLoader(_ context.Context, name string) (*Library, error) {
	switch name {
	case "empty_library":
		return NewLibrary(name)

	case "dummy.tags.and.filters":
		dummyTag := PureTag(func([]Value) (Value, error) { return Undefined, nil })
		dummyFilter := func(v Value, _ ...Value) (Value, error) { return v, nil }

		return NewLibrary(name,
			WithTag("a", dummyTag),
			WithTag("b", dummyTag),
			WithTag("c", dummyTag),
			WithFilter("x", dummyFilter),
			WithFilter("y", dummyFilter),
			WithFilter("z", dummyFilter),
		)

	case "test_tags":
		return testTags()

	case "test_filters":
		return NewLibrary(name, WithFilter("flip", flip))

	default:
		return nil, nil
	}
}

func testTags() (*Library, error) {
	return NewLibrary("test_tags",
		WithTag("answer_to_life", PureTag(func(args []Value) (Value, error) {
			if err := Arity("answer_to_life", args, 0, 0); err != nil {
				return Undefined, err
			}

			return Int(42), nil
		})),
		WithTag("identity", PureTag(func(args []Value) (Value, error) {
			if err := Arity("identity", args, 1, 1); err != nil {
				return Undefined, err
			}

			return args[0], nil
		})),
		WithTag("ackermann", PureTag(func(args []Value) (Value, error) {
			if err := Arity("ackermann", args, 2, 2); err != nil {
				return Undefined, err
			}

			m, _ := ToInt(args[0])
			n, _ := ToInt(args[1])

			return Int(ackermann(m, n)), nil
		})),
		WithTag("add", PureTag(add)),
		WithTag("set", MonadicTag(func(inv *Invocation) (Value, error) {
			inv.Data[inv.Pieces[1]] = Str(inv.Pieces[2])

			return Undefined, nil
		}).Raw()),
		WithTag("unset", MonadicTag(func(inv *Invocation) (Value, error) {
			delete(inv.Data, inv.Pieces[1])

			return Undefined, nil
		}).Raw()),
		WithTag("encode", DyadicTag("endencode", transcode(codec.Encode))),
		WithTag("decode", DyadicTag("enddecode", transcode(codec.Decode))),
		WithTag("unless", TriadicTag("otherwise", "endunless", func(inv *Invocation) (Value, error) {
			if err := Arity("unless", inv.Args, 1, 1); err != nil {
				return Undefined, err
			}

			seg := inv.Segments[0]
			if inv.Args[0].Truthy() {
				seg = inv.Segments[1]
			}

			out, err := seg.Render()

			return Str(out), err
		})),
		WithTag("f", VariadicTag(
			[]string{"m1", "m2"},
			[]string{"l1", "l2", "l3"},
			func(inv *Invocation) (Value, error) {
				return Int(int64(len(inv.Segments))), nil
			},
		)),
	)
}

func add(args []Value) (Value, error) {
	var (
		isum  int64
		fsum  float64
		float bool
	)

	for _, a := range args {
		switch a.Kind() {
		case KindInteger:
			i, _ := a.AsInt()
			isum += i

		case KindFloat:
			f, _ := a.AsFloat()
			fsum += f
			float = true

		default:
			return Undefined, ErrEvaluation
		}
	}

	if float {
		return Float(fsum + float64(isum)), nil
	}

	return Int(isum), nil
}

func ackermann(m, n int64) int64 {
	switch {
	case m == 0:
		return n + 1

	case n == 0:
		return ackermann(m-1, 1)

	default:
		return ackermann(m-1, ackermann(m, n-1))
	}
}

func transcode(fn func(name, s string) (string, error)) BlockFunc {
	return func(inv *Invocation) (Value, error) {
		if err := Arity(inv.Name, inv.Args, 1, 1); err != nil {
			return Undefined, err
		}

		body, err := inv.Segments[0].Render()
		if err != nil {
			return Undefined, err
		}

		out, err := fn(inv.Args[0].String(), body)

		return Str(out), err
	}
}

func flip(v Value, _ ...Value) (Value, error) {
	return Str(strings.Map(func(r rune) rune {
		if unicode.IsLower(r) {
			return unicode.ToUpper(r)
		}

		return unicode.ToLower(r)
	}, v.String())), nil
}

// counterTag returns a monadic tag that counts its invocations.
func counterTag(calls *int) *TagDescriptor {
	return MonadicTag(func(*Invocation) (Value, error) {
		*calls++

		return Str("hit" + strconv.Itoa(*calls)), nil
	})
}

// render renders source with the test loader and fails the test on error.
func render(t *testing.T, source string, data Context, opts ...Option) string {
	t.Helper()

	out, err := Render(t.Context(), source, data, append([]Option{WithLoaders(testLoader)}, opts...)...)
	if err != nil {
		t.Fatalf("Render(%q) error: %v", source, err)
	}

	return out
}
