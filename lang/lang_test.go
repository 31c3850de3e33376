package lang

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/ardnew/synth/lang/codec"
)

func TestRender_Scenarios(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "identity",
			source: `{% load identity from test_tags %}({% identity 'wow' %})`,
			want:   "(wow)",
		},
		{
			name:   "ackermann",
			source: `{% load ackermann from test_tags %}({% ackermann 3 4 %})`,
			want:   "(125)",
		},
		{
			name:   "add nothing",
			source: `{% load add from test_tags %}({% add %})`,
			want:   "(0)",
		},
		{
			name:   "add floats",
			source: `{% load add from test_tags %}({% add 1.1 2.2 3.3 %})`,
			want:   "(6.6)",
		},
		{
			name:   "set then unset",
			source: `{% set foo bar %}({{ foo }}){% unset foo %}({{ foo }})`,
			want:   "(bar)()",
		},
		{
			name:   "unless true",
			source: `{% load unless from test_tags %}({% unless True %}A{% otherwise %}B{% endunless %})`,
			want:   "(B)",
		},
		{
			name:   "unless false",
			source: `{% load unless from test_tags %}({% unless False %}A{% otherwise %}B{% endunless %})`,
			want:   "(A)",
		},
		{
			name:   "encode",
			source: `{% load encode from test_tags %}({% encode 'rot13' %}Hello Kitty{% endencode %})`,
			want:   "(Uryyb Xvggl)",
		},
		{
			name: "decode encode",
			source: `{% load encode decode from test_tags %}` +
				`{% decode 'rot13' %}{% encode 'rot13' %}Hello Kitty{% endencode %}{% enddecode %}`,
			want: "Hello Kitty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := render(t, tt.source, Context{}); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_Golden(t *testing.T) {
	source, err := os.ReadFile("testdata/library.tmpl")
	if err != nil {
		t.Fatal(err)
	}

	golden, err := os.ReadFile("testdata/library.golden")
	if err != nil {
		t.Fatal(err)
	}

	data := Context{"motto": Str("May the Force be with you.")}

	got := render(t, string(source), data)
	if got != string(golden) {
		gl := strings.Split(string(golden), "\n")
		for i, line := range strings.Split(got, "\n") {
			if i >= len(gl) || line != gl[i] {
				t.Fatalf("line %d: got %q, want %q", i+1, line, gl[min(i, len(gl)-1)])
			}
		}

		t.Fatalf("output differs from golden:\n%s", got)
	}
}

func TestRender_ShortCircuit(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
		calls  int
	}{
		{"unless skips first", `{% unless True %}{% hit %}{% otherwise %}B{% endunless %}`, "B", 0},
		{"unless skips second", `{% unless False %}A{% otherwise %}{% hit %}{% endunless %}`, "A", 0},
		{"if false", `{% if False %}{% hit %}{% endif %}`, "", 0},
		{"if true", `{% if True %}{% hit %}{% endif %}`, "hit1", 1},
		{"elif chain", `{% if False %}{% hit %}{% elif True %}x{% else %}{% hit %}{% endif %}`, "x", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0

			tags, err := testTags()
			if err != nil {
				t.Fatal(err)
			}

			hits := MustLibrary("hits", WithTag("hit", counterTag(&calls)))

			out, err := Render(t.Context(), `{% load unless from test_tags %}{% load hits %}`+tt.source, Context{},
				WithLibraries(tags, hits))
			if err != nil {
				t.Fatalf("Render error: %v", err)
			}

			if out != tt.want {
				t.Errorf("got %q, want %q", out, tt.want)
			}

			if calls != tt.calls {
				t.Errorf("side effect ran %d times, want %d", calls, tt.calls)
			}
		})
	}
}

func TestRender_ShortCircuitSet(t *testing.T) {
	data := Context{}
	src := `{% load unless from test_tags %}{% unless True %}{% set x 1 %}{% otherwise %}{% set y 2 %}{% endunless %}`

	render(t, src, data)

	if _, ok := data["x"]; ok {
		t.Error("unchosen branch assigned x")
	}

	if got := data["y"]; !got.Equal(Int(2)) {
		t.Errorf("y = %v, want 2", got)
	}
}

func TestRender_ArityDispatch(t *testing.T) {
	middles := []string{"m1", "m2"}
	lasts := []string{"l1", "l2", "l3"}

	for k := range 4 {
		for _, last := range lasts {
			var sb strings.Builder

			sb.WriteString("{% load f from test_tags %}{% f %}")

			for i := range k {
				sb.WriteString("x{% " + middles[i%2] + " %}")
			}

			sb.WriteString("x{% " + last + " %}")

			want := Int(int64(k + 1)).String()
			if got := render(t, sb.String(), nil); got != want {
				t.Errorf("k=%d last=%s: got %s segments, want %s", k, last, got, want)
			}
		}
	}
}

func TestRender_Nesting(t *testing.T) {
	const kitty = "Hello Kitty"

	once, _ := codec.Encode("rot13", kitty)

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"encode twice is identity", `{% encode 'rot13' %}{% encode 'rot13' %}Hello Kitty{% endencode %}{% endencode %}`, kitty},
		{"decode of encode", `{% decode 'rot13' %}{% encode 'rot13' %}Hello Kitty{% endencode %}{% enddecode %}`, kitty},
		{"encode inside if", `{% if True %}{% encode 'rot13' %}Hello Kitty{% endencode %}{% endif %}`, once},
		{"if inside encode", `{% encode 'rot13' %}{% if True %}Hello Kitty{% endif %}{% endencode %}`, once},
		{"base64 outer", `{% encode 'base64' %}{% encode 'rot13' %}Hello Kitty{% endencode %}{% endencode %}`, "VXJ5eWIgWHZnZ2w="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `{% load encode decode from test_tags %}` + tt.source
			if got := render(t, src, nil); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_UndefinedIsEmpty(t *testing.T) {
	tests := []string{
		`({{ missing }})`,
		`({{ missing.deeper.still }})`,
		`({{ user.missing }})`,
		`({{ items.9 }})`,
		`({% load identity from test_tags %}{% identity nothing %})`,
	}

	data := Context{
		"user":  Map(map[string]Value{"name": Str("ada")}),
		"items": Seq(Int(1)),
	}

	for _, src := range tests {
		if got := render(t, src, data); got != "()" {
			t.Errorf("%s: got %q, want ()", src, got)
		}
	}
}

func TestRender_MutationVisibility(t *testing.T) {
	data := Context{}

	out := render(t, `{% set greeting hello %}{{ greeting }}|{% unset greeting %}{{ greeting }}|{% set n = 40|add:2 %}{{ n }}`, data)
	if out != "hello||42" {
		t.Errorf("got %q", out)
	}

	if v := data["n"]; !v.Equal(Int(42)) {
		t.Errorf("mutation did not persist: n = %v", v)
	}

	if _, ok := data["greeting"]; ok {
		t.Error("unset did not persist")
	}
}

func TestRender_FilterChainLeftToRight(t *testing.T) {
	data := Context{"s": Str("abc")}

	if got := render(t, `{{ s|upper|cut:'B'|lower }}`, data); got != "ac" {
		t.Errorf("got %q, want %q", got, "ac")
	}

	if got := render(t, `{{ s|add:'d'|upper }}`, data); got != "ABCD" {
		t.Errorf("got %q, want %q", got, "ABCD")
	}
}

func TestRender_LoadWholeLibrary(t *testing.T) {
	got := render(t, `{% load test_tags test_filters %}{% answer_to_life %} {{ 'aB'|flip }}`, nil)
	if got != "42 Ab" {
		t.Errorf("got %q", got)
	}
}

func TestRender_LoadIsLexical(t *testing.T) {
	_, err := Parse(t.Context(), `{% identity 1 %}{% load identity from test_tags %}`, WithLoaders(testLoader))
	if !errors.Is(err, ErrTagNotFound) {
		t.Fatalf("expected ErrTagNotFound before load, got %v", err)
	}
}

func TestRender_Comments(t *testing.T) {
	got := render(t, `a{# {% bogus %} #}b{% comment %}{{ x }}{% endcomment %}c`, nil)
	if got != "abc" {
		t.Errorf("got %q", got)
	}
}

func TestRender_QuotedDelimiters(t *testing.T) {
	got := render(t, `{{ '%}' }}{{ "}}" }}`, nil)
	if got != "%}}}" {
		t.Errorf("got %q", got)
	}
}

func TestExecute_WritesNothingOnError(t *testing.T) {
	tmpl, err := Parse(t.Context(), `before{% load identity from test_tags %}{% identity 1 2 %}`, WithLoaders(testLoader))
	if err != nil {
		t.Fatal(err)
	}

	var sb strings.Builder

	err = tmpl.Execute(t.Context(), &sb, nil)
	if !errors.Is(err, ErrEvaluation) {
		t.Fatalf("expected ErrEvaluation, got %v", err)
	}

	if sb.Len() != 0 {
		t.Errorf("wrote %q on error", sb.String())
	}
}

func TestTemplate_RenderConcurrently(t *testing.T) {
	tmpl := MustParse(t.Context(), `{% for i in items %}{{ i|add:n }}{% endfor %}`)

	done := make(chan string, 8)

	for n := range 8 {
		go func() {
			out, err := tmpl.Render(t.Context(), Context{
				"items": Seq(Int(1), Int(2)),
				"n":     Int(int64(n)),
			})
			if err != nil {
				done <- err.Error()

				return
			}

			done <- out
		}()
	}

	for range 8 {
		out := <-done
		if len(out) < 2 {
			t.Errorf("unexpected output %q", out)
		}
	}
}

func TestTemplate_Apply(t *testing.T) {
	tmpl := MustParse(t.Context(), `{% load flip from test_filters %}`, WithLoaders(testLoader))

	v, err := tmpl.Apply("flip", Str("Go"))
	if err != nil {
		t.Fatal(err)
	}

	if v.String() != "gO" {
		t.Errorf("got %q", v.String())
	}

	if _, err := tmpl.Apply("nope", Str("x")); !errors.Is(err, ErrFilterNotFound) {
		t.Errorf("expected ErrFilterNotFound, got %v", err)
	}
}

func TestTemplate_Dump(t *testing.T) {
	tmpl := MustParse(t.Context(),
		`{% load unless from test_tags %}a{% unless x %}{{ y }}{% otherwise %}b{% endunless %}`,
		WithLoaders(testLoader))

	var sb strings.Builder
	if err := tmpl.Dump(&sb); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		`text "a"`,
		"block unless",
		"segment unless x",
		"variable y",
		"segment otherwise",
		"closer endunless",
	} {
		if !strings.Contains(sb.String(), want) {
			t.Errorf("dump missing %q:\n%s", want, sb.String())
		}
	}
}

func TestTemplate_Loads(t *testing.T) {
	tmpl := MustParse(t.Context(),
		`{% load unless from test_tags %}x{%  load   test_filters %}{% if y %}{% load identity from test_tags %}{% endif %}`,
		WithLoaders(testLoader))

	want := []string{
		"load unless from test_tags",
		"load test_filters",
		"load identity from test_tags",
	}

	got := tmpl.Loads()
	if len(got) != len(want) {
		t.Fatalf("Loads() = %q, want %q", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Loads()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
