package lang

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   *Error
		reason string
	}{
		{"unknown tag", `{% nope %}`, ErrTagNotFound, ""},
		{"unknown filter", `{{ x|nope }}`, ErrFilterNotFound, ""},
		{"unknown library", `{% load nowhere %}`, ErrLibraryNotFound, ""},
		{"unknown name in library", `{% load nope from test_tags %}`, ErrTagNotFound, ""},
		{"load without library", `{% load %}`, ErrParse, "load requires a library name"},
		{"load from nothing", `{% load a from %}`, ErrParse, "expected load <name>... from <library>"},
		{"load nothing from", `{% load from test_tags %}`, ErrParse, "expected load <name>... from <library>"},
		{"unclosed block", `{% load unless from test_tags %}{% unless x %}A`, ErrParse, "unclosed block"},
		{"stray terminal", `{% endif %}`, ErrParse, "unexpected delimiter"},
		{"wrong terminal", `{% if x %}a{% endfor %}`, ErrParse, "unexpected delimiter"},
		{
			"improper nesting",
			`{% load encode unless from test_tags %}` +
				`{% unless x %}{% encode 'rot13' %}{% otherwise %}{% endencode %}{% endunless %}`,
			ErrParse,
			"improperly nested delimiter",
		},
		{"unterminated variable", `{{ x `, ErrParse, "unterminated marker"},
		{"unterminated tag", `{% if x `, ErrParse, "unterminated marker"},
		{"unterminated comment", `{# x `, ErrParse, "unterminated marker"},
		{"unterminated string", `{{ 'x }}`, ErrParse, "unterminated marker"},
		{"empty tag", `{% %}`, ErrParse, "empty tag"},
		{"empty variable", `{{ }}`, ErrParse, "missing expression"},
		{"trailing junk", `{{ x y }}`, ErrParse, "unexpected 'y'"},
		{"bad number", `{{ 1.2.3 }}`, ErrParse, `invalid number "1.2.3"`},
		{"keyword to pure tag", `{% firstof a=1 %}`, ErrParse, "keyword argument to pure tag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(t.Context(), tt.source, WithLoaders(testLoader))
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			var le *Error
			if !errors.As(err, &le) {
				t.Fatalf("expected *Error, got %T", err)
			}

			if tt.reason != "" {
				reason, _ := le.Attr("reason")
				if reason.String() != tt.reason {
					t.Errorf("reason = %q, want %q", reason.String(), tt.reason)
				}
			}

			if !le.Position().IsValid() {
				t.Errorf("error has no position: %v", err)
			}
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	tests := []struct {
		name   string
		source string
		line   int
		column int
	}{
		{"unknown tag", "abc\n  {% nope %}", 2, 3},
		{"unknown filter", "{{ x|nope }}", 1, 6},
		{"unclosed block reports opener", "x\n{% load unless from test_tags %}{% unless x %}\n\nA", 2, 33},
		{"unknown library", "\n\n{% load  test_tagz %}", 3, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(t.Context(), tt.source, WithLoaders(testLoader))

			var le *Error
			if !errors.As(err, &le) {
				t.Fatalf("expected *Error, got %v", err)
			}

			pos := le.Position()
			if pos.Line != tt.line || pos.Column != tt.column {
				t.Errorf("position = %s, want %d:%d", pos, tt.line, tt.column)
			}
		})
	}
}

func TestParse_Suggestions(t *testing.T) {
	tags, err := testTags()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"tag", `{% load identity from test_tags %}{% ident 1 %}`, "identity"},
		{"filter", `{{ x|uppr }}`, "upper"},
		{"library", `{% load test_tag %}`, "test_tags"},
		{"name in library", `{% load ackerman from test_tags %}`, "ackermann"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(t.Context(), tt.source, WithLibraries(tags))

			var le *Error
			if !errors.As(err, &le) {
				t.Fatalf("expected *Error, got %v", err)
			}

			v, ok := le.Attr("suggestions")
			if !ok {
				t.Fatalf("no suggestions in %v", le.LogValue())
			}

			alt, _ := v.Any().([]string)
			if !slices.Contains(alt, tt.want) {
				t.Errorf("suggestions = %v, want %q among them", alt, tt.want)
			}
		})
	}
}

func TestParse_MaxDepth(t *testing.T) {
	src := `{% if a %}{% if b %}{% if c %}x{% endif %}{% endif %}{% endif %}`

	if _, err := Parse(t.Context(), src, WithMaxDepth(3)); err != nil {
		t.Fatalf("depth 3 should parse: %v", err)
	}

	_, err := Parse(t.Context(), src, WithMaxDepth(2))
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Fatalf("expected ErrMaxDepthExceeded, got %v", err)
	}
}

func TestParse_DeepNestingDoesNotCrash(t *testing.T) {
	const depth = 10000

	src := strings.Repeat("{% if True %}", depth) + "x" + strings.Repeat("{% endif %}", depth)

	_, err := Parse(t.Context(), src)
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Fatalf("expected ErrMaxDepthExceeded, got %v", err)
	}
}

func TestParse_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := Parse(ctx, `a{{ b }}c`)
	if !errors.Is(err, ErrParse) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled parse error, got %v", err)
	}
}

func TestParse_WithoutBuiltins(t *testing.T) {
	_, err := Parse(t.Context(), `{% if x %}{% endif %}`, WithBuiltins(false))
	if !errors.Is(err, ErrTagNotFound) {
		t.Fatalf("expected ErrTagNotFound, got %v", err)
	}

	out, err := Render(t.Context(), `{% load builtins %}{{ 'a'|upper }}`, nil, WithBuiltins(false))
	if err != nil {
		t.Fatal(err)
	}

	if out != "A" {
		t.Errorf("got %q", out)
	}
}

func TestParse_Preload(t *testing.T) {
	out, err := Render(t.Context(), `{% answer_to_life %}`, nil,
		WithLoaders(testLoader), WithPreload("test_tags"))
	if err != nil {
		t.Fatal(err)
	}

	if out != "42" {
		t.Errorf("got %q", out)
	}
}

func TestParse_RegistryCachesLibraries(t *testing.T) {
	calls := 0

	reg := NewRegistry(func(ctx context.Context, name string) (*Library, error) {
		calls++

		return testLoader(ctx, name)
	})

	for range 3 {
		_, err := Parse(t.Context(),
			`{% load identity from test_tags %}{% load add from test_tags %}`,
			WithRegistry(reg))
		if err != nil {
			t.Fatal(err)
		}
	}

	if calls != 1 {
		t.Errorf("loader called %d times, want 1", calls)
	}
}

func TestError_Snippet(t *testing.T) {
	src := "line one\n  {% nope %}\n"

	_, err := Parse(t.Context(), src)

	var le *Error
	if !errors.As(err, &le) {
		t.Fatalf("expected *Error, got %v", err)
	}

	want := "  2 |   {% nope %}\n" +
		"        ^\n"
	if got := le.Snippet(src); got != want {
		t.Errorf("snippet:\n%s\nwant:\n%s", got, want)
	}
}

func TestError_Message(t *testing.T) {
	_, err := Parse(t.Context(), "\n{% nope %}")
	if err == nil {
		t.Fatal("expected error")
	}

	if got := err.Error(); got != `tag not found (tag "nope") at 2:1` {
		t.Errorf("Error() = %q", got)
	}
}

func TestArity(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		lo, hi int
		ok     bool
		want   string
	}{
		{"exact ok", 2, 2, 2, true, ""},
		{"exact short", 1, 2, 2, false, "2"},
		{"range ok", 1, 0, 1, true, ""},
		{"range over", 2, 0, 1, false, "0 to 1"},
		{"unbounded ok", 9, 1, -1, true, ""},
		{"unbounded short", 0, 1, -1, false, "at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Arity("tag", make([]Value, tt.n), tt.lo, tt.hi)
			if (err == nil) != tt.ok {
				t.Fatalf("Arity() error = %v, ok = %v", err, tt.ok)
			}

			if tt.ok {
				return
			}

			if !errors.Is(err, ErrEvaluation) {
				t.Errorf("expected ErrEvaluation, got %v", err)
			}

			var le *Error
			if !errors.As(err, &le) {
				t.Fatal("expected *Error")
			}

			if v, _ := le.Attr("want"); v.String() != tt.want {
				t.Errorf("want attr = %q, want %q", v.String(), tt.want)
			}

			if v, _ := le.Attr("tag"); v.String() != "tag" {
				t.Errorf("tag attr = %q", v.String())
			}
		})
	}
}

func TestRender_EvaluationErrorNamesTag(t *testing.T) {
	_, err := Render(t.Context(), `x{% load ackermann from test_tags %}{% ackermann 1 %}`, nil,
		WithLoaders(testLoader))
	if !errors.Is(err, ErrEvaluation) {
		t.Fatalf("expected ErrEvaluation, got %v", err)
	}

	var le *Error
	if !errors.As(err, &le) {
		t.Fatal("expected *Error")
	}

	if v, _ := le.Attr("tag"); v.String() != "ackermann" {
		t.Errorf("tag attr = %q", v.String())
	}

	if !le.Position().IsValid() {
		t.Error("evaluation error has no position")
	}
}

func TestRender_EvaluationErrorNamesSource(t *testing.T) {
	bare := MustLibrary("bare",
		WithFilter("boom", func(Value, ...Value) (Value, error) { return Undefined, ErrEvaluation }),
	)

	tests := []struct {
		name   string
		source string
		key    string
		want   string
	}{
		{"bare tag error", `{% load add from test_tags %}{% add 'x' %}`, "tag", "add"},
		{"bare filter error", `{% load boom from bare %}{{ 1|boom }}`, "filter", "boom"},
		{"filter inside block", `{% load boom from bare %}{% if True %}{{ 1|boom }}{% endif %}`, "filter", "boom"},
		{"arity names its own tag", `{% load ackermann from test_tags %}{% ackermann %}`, "tag", "ackermann"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(t.Context(), tt.source, nil, WithLoaders(testLoader), WithLibraries(bare))
			if !errors.Is(err, ErrEvaluation) {
				t.Fatalf("expected ErrEvaluation, got %v", err)
			}

			var le *Error
			if !errors.As(err, &le) {
				t.Fatal("expected *Error")
			}

			if v, ok := le.Attr(tt.key); !ok || v.String() != tt.want {
				t.Errorf("%s attr = %v (%v), want %q", tt.key, v, ok, tt.want)
			}

			if !le.Position().IsValid() {
				t.Error("evaluation error has no position")
			}

			if !strings.Contains(err.Error(), `"`+tt.want+`"`) {
				t.Errorf("message %q does not name %q", err.Error(), tt.want)
			}
		})
	}

	if ErrEvaluation.names() {
		t.Error("sentinel was modified")
	}
}

func TestRender_Canceled(t *testing.T) {
	tmpl := MustParse(t.Context(), `a{{ b }}c`)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := tmpl.Render(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
