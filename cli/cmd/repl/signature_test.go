package repl

import (
	"testing"

	"github.com/ardnew/synth/lang"
)

func TestSignature(t *testing.T) {
	noop := func(*lang.Invocation) (lang.Value, error) { return lang.Undefined, nil }

	tests := []struct {
		name string
		tag  string
		desc *lang.TagDescriptor
		want string
	}{
		{"nil", "x", nil, ""},
		{"pure", "now", lang.PureTag(nil), "now args"},
		{"monadic", "hit", lang.MonadicTag(noop), "hit"},
		{"raw monadic", "set", lang.MonadicTag(noop).Raw(), "set words"},
		{"dyadic", "with", lang.DyadicTag("endwith", noop), "with … endwith"},
		{"triadic", "unless", lang.TriadicTag("otherwise", "endunless", noop), "unless … [otherwise] … endunless"},
		{
			"variadic",
			"if",
			lang.VariadicTag([]string{"elif", "else"}, []string{"endif"}, noop).Raw(),
			"if words … [elif] … [else] … endif",
		},
		{
			"several lasts",
			"f",
			lang.VariadicTag(nil, []string{"l1", "l2"}, noop),
			"f … l1|l2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := signature(tt.tag, tt.desc); got != tt.want {
				t.Errorf("signature() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCurrentTag(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		cursor int
		want   string
	}{
		{"typing name", "{% fo", 5, ""},
		{"after name", "{% for ", 7, "for"},
		{"in arguments", "{% for x in items", 17, "for"},
		{"trim marker", "{%- if x", 8, "if"},
		{"variable marker", "{{ x ", 5, ""},
		{"closed", "{% if x %} ", 11, ""},
		{"text", "plain ", 6, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := currentTag(tt.input, tt.cursor); got != tt.want {
				t.Errorf("currentTag(%q, %d) = %q, want %q", tt.input, tt.cursor, got, tt.want)
			}
		})
	}
}
