package store

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ardnew/synth/lang"
)

func openTest(t *testing.T) *Store {
	t.Helper()

	st, err := Open(t.Context(), filepath.Join(t.TempDir(), "libs.db"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	t.Cleanup(func() { _ = st.Close() })

	return st
}

func define(t *testing.T, st *Store, defs ...Definition) {
	t.Helper()

	for _, d := range defs {
		if err := st.Define(t.Context(), d); err != nil {
			t.Fatalf("Define(%s.%s) error: %v", d.Library, d.Name, err)
		}
	}
}

var mathDefs = []Definition{
	{Library: "math", Name: "double", Kind: KindFilter, Source: "value * 2"},
	{Library: "math", Name: "plus", Kind: KindFilter, Source: "value + (len(args) > 0 ? args[0] : 1)"},
	{Library: "math", Name: "sum2", Kind: KindTag, Source: "args[0] + args[1]", Doc: "adds two numbers"},
}

func TestStore_Render(t *testing.T) {
	st := openTest(t)
	define(t, st, mathDefs...)

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"filter", `{% load math %}{{ 21|double }}`, "42"},
		{"filter with arg", `{% load math %}{{ 1|plus:9 }}`, "10"},
		{"filter without arg", `{% load math %}{{ 1|plus }}`, "2"},
		{"tag", `{% load math %}{% sum2 40 2 %}`, "42"},
		{"selective load", `{% load double from math %}{{ n|double }}`, "14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := lang.Render(t.Context(), tt.source,
				lang.Context{"n": lang.Int(7)}, st.Options()...)
			if err != nil {
				t.Fatalf("Render() error: %v", err)
			}

			if out != tt.want {
				t.Errorf("got %q, want %q", out, tt.want)
			}
		})
	}
}

func TestStore_Define_Invalid(t *testing.T) {
	st := openTest(t)

	tests := []struct {
		name   string
		def    Definition
		reason string
	}{
		{"no library", Definition{Name: "x", Kind: KindTag, Source: "1"}, "empty library name"},
		{"no name", Definition{Library: "l", Kind: KindTag, Source: "1"}, "empty name"},
		{"bad kind", Definition{Library: "l", Name: "x", Kind: "macro", Source: "1"}, "kind must be tag or filter"},
		{"no source", Definition{Library: "l", Name: "x", Kind: KindFilter}, "empty source"},
		{"does not compile", Definition{Library: "l", Name: "x", Kind: KindFilter, Source: "value +"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := st.Define(t.Context(), tt.def)
			if !errors.Is(err, ErrInvalidDefinition) {
				t.Fatalf("expected ErrInvalidDefinition, got %v", err)
			}

			if tt.reason == "" {
				if !errors.Is(err, lang.ErrEvaluation) {
					t.Errorf("expected compile error cause, got %v", err)
				}

				return
			}

			var le *lang.Error
			if !errors.As(err, &le) {
				t.Fatalf("expected *lang.Error, got %T", err)
			}

			if v, _ := le.Attr("reason"); v.String() != tt.reason {
				t.Errorf("reason = %q, want %q", v.String(), tt.reason)
			}
		})
	}

	libs, err := st.Libraries(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	if len(libs) != 0 {
		t.Errorf("invalid definitions were stored: %v", libs)
	}
}

func TestStore_DefineReplaces(t *testing.T) {
	st := openTest(t)
	define(t, st,
		Definition{Library: "l", Name: "f", Kind: KindFilter, Source: "value"},
		Definition{Library: "l", Name: "f", Kind: KindFilter, Source: "upper(value)"},
	)

	defs, err := st.Definitions(t.Context(), "l")
	if err != nil {
		t.Fatal(err)
	}

	if len(defs) != 1 || defs[0].Source != "upper(value)" {
		t.Fatalf("definitions = %+v", defs)
	}

	out, err := lang.Render(t.Context(), `{% load l %}{{ 'go'|f }}`, nil, st.Options()...)
	if err != nil {
		t.Fatal(err)
	}

	if out != "GO" {
		t.Errorf("got %q", out)
	}
}

func TestStore_Listing(t *testing.T) {
	st := openTest(t)
	define(t, st, mathDefs...)
	define(t, st, Definition{Library: "text", Name: "shout", Kind: KindFilter, Source: "upper(value) + '!'"})

	libs, err := st.Libraries(t.Context())
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(libs, []string{"math", "text"}) {
		t.Errorf("Libraries() = %v", libs)
	}

	defs, err := st.Definitions(t.Context(), "math")
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, d := range defs {
		names = append(names, string(d.Kind)+":"+d.Name)
	}

	want := []string{"filter:double", "filter:plus", "tag:sum2"}
	if !slices.Equal(names, want) {
		t.Errorf("Definitions() = %v, want %v", names, want)
	}

	if defs[2].Doc != "adds two numbers" {
		t.Errorf("doc = %q", defs[2].Doc)
	}
}

func TestStore_Remove(t *testing.T) {
	st := openTest(t)
	define(t, st, mathDefs...)

	n, err := st.Remove(t.Context(), "math", "double", "nope")
	if err != nil {
		t.Fatal(err)
	}

	if n != 1 {
		t.Errorf("removed %d, want 1", n)
	}

	_, err = lang.Render(t.Context(), `{% load double from math %}`, nil, st.Options()...)
	if !errors.Is(err, lang.ErrFilterNotFound) && !errors.Is(err, lang.ErrTagNotFound) {
		t.Errorf("expected not found after remove, got %v", err)
	}

	n, err = st.Remove(t.Context(), "math")
	if err != nil {
		t.Fatal(err)
	}

	if n != 2 {
		t.Errorf("removed %d, want 2", n)
	}

	lib, err := st.Load(t.Context(), "math")
	if err != nil || lib != nil {
		t.Errorf("Load() after remove = %v, %v", lib, err)
	}
}

func TestStore_LoaderFallsThrough(t *testing.T) {
	st := openTest(t)
	define(t, st, mathDefs...)

	_, err := lang.Render(t.Context(), `{% load maths %}`, nil, st.Options()...)
	if !errors.Is(err, lang.ErrLibraryNotFound) {
		t.Fatalf("expected ErrLibraryNotFound, got %v", err)
	}

	var le *lang.Error
	if !errors.As(err, &le) {
		t.Fatal("expected *lang.Error")
	}

	v, ok := le.Attr("suggestions")
	if !ok {
		t.Fatalf("no suggestions in %v", le.LogValue())
	}

	if alt, _ := v.Any().([]string); !slices.Contains(alt, "math") {
		t.Errorf("suggestions = %v", alt)
	}
}

func TestStore_EvalError(t *testing.T) {
	st := openTest(t)
	define(t, st, Definition{Library: "l", Name: "second", Kind: KindTag, Source: "args[1]"})
	define(t, st, Definition{Library: "l", Name: "boom", Kind: KindFilter, Source: "args[1]"})

	tests := []struct {
		source string
		key    string
		want   string
	}{
		{`{% load l %}{% second 1 %}`, "tag", "second"},
		{`{% load l %}{{ 1|boom }}`, "filter", "boom"},
	}

	for _, tt := range tests {
		_, err := lang.Render(t.Context(), tt.source, nil, st.Options()...)
		if !errors.Is(err, lang.ErrEvaluation) {
			t.Fatalf("%s: expected ErrEvaluation, got %v", tt.source, err)
		}

		var le *lang.Error
		if !errors.As(err, &le) {
			t.Fatalf("%s: expected *lang.Error", tt.source)
		}

		if v, ok := le.Attr(tt.key); !ok || v.String() != tt.want {
			t.Errorf("%s: %s attr = %v (%v), want %q", tt.source, tt.key, v, ok, tt.want)
		}
	}
}
