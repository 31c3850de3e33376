package repl

import (
	"testing"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/ardnew/synth/lang"
)

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"in variable", "{{ na", 5, "na", 3, 5},
		{"member", "{{ user.na", 10, "na", 8, 10},
		{"after pipe", "{{ x|up", 7, "up", 5, 7},
		{"filter argument", "{{ x|join:se", 12, "se", 10, 12},
		{"tag name", "{% fo", 5, "fo", 3, 5},
		{"mid word", "{{ foobar }}", 5, "foobar", 3, 9},
		{"empty after dot", "{{ server.", 10, "", 10, 10},
		{"empty after space", "{% load ", 8, "", 8, 8},
		{"cursor past end", "ab", 9, "ab", 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParentPath(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wordStart int
		want      string
	}{
		{"one level", "{{ server.", 10, "server"},
		{"two levels", "{{ server.http.ho", 15, "server.http"},
		{"after filter", "{{ x|default:a.b.", 17, "a.b"},
		{"root", "{{ ", 3, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parentPath(tt.input, tt.wordStart); got != tt.want {
				t.Errorf("parentPath(%q, %d) = %q, want %q", tt.input, tt.wordStart, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantKind   completion
		wantParent string
	}{
		{"literal text", "hello wor", completeNone, ""},
		{"after closed marker", "{{ x }} wor", completeNone, ""},
		{"tag name", "{% fo", completeTag, ""},
		{"tag name trimmed", "{%- fo", completeTag, ""},
		{"load library", "{% load st", completeLibrary, ""},
		{"load second word", "{% load upper fr", completeLibrary, ""},
		{"filter", "{{ x|up", completeFilter, ""},
		{"filter after space", "{{ x | up", completeFilter, ""},
		{"filter in tag", "{% if x|len", completeFilter, ""},
		{"variable", "{{ na", completeVariable, ""},
		{"tag argument", "{% if na", completeVariable, ""},
		{"member", "{{ server.http.po", completeMember, "server.http"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, start, _ := wordBounds(tt.input, len(tt.input))

			kind, parent := classify(tt.input, start)
			if kind != tt.wantKind || parent != tt.wantParent {
				t.Errorf("classify(%q) = (%d, %q), want (%d, %q)",
					tt.input, kind, parent, tt.wantKind, tt.wantParent)
			}
		})
	}
}

func testModel(t *testing.T, input string) model {
	t.Helper()

	data := lang.Context{
		"server": lang.Map(map[string]lang.Value{
			"host": lang.Str("localhost"),
			"port": lang.Int(80),
		}),
		"name": lang.Str("ada"),
	}

	ti := textinput.New()
	ti.SetValue(input)
	ti.SetCursor(len(input))

	return model{
		input:     ti,
		session:   NewSession(t.Context(), data),
		libraries: []string{"builtins", "strings", "math"},
		history:   NewHistory(""),
		mode:      modeEval,
	}
}

func matchNames(m model) []string {
	matches, _, _ := m.computeMatches()

	names := make([]string, len(matches))
	for i, match := range matches {
		names[i] = match.Str
	}

	return names
}

func TestComputeMatches(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantLen int // -1 means at least one
	}{
		{"tag", "{% spacel", "spaceless", -1},
		{"filter", "{{ name|uppe", "upper", -1},
		{"variable", "{{ serv", "server", -1},
		{"member", "{{ server.ho", "host", -1},
		{"all members after dot", "{{ server.", "host", 2},
		{"library", "{% load str", "strings", -1},
		{"nothing after space", "{% if ", "", 0},
		{"nothing in text", "plain", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchNames(testModel(t, tt.input))

			switch {
			case tt.wantLen == 0:
				if len(got) != 0 {
					t.Errorf("matches = %v, want none", got)
				}

				return

			case tt.wantLen > 0 && len(got) != tt.wantLen:
				t.Errorf("matches = %v, want %d", got, tt.wantLen)
			}

			if len(got) == 0 || got[0] != tt.want {
				t.Errorf("matches = %v, want %q first", got, tt.want)
			}
		})
	}
}

func TestComputeMatches_CtrlMode(t *testing.T) {
	m := testModel(t, "qu")
	m.mode = modeCtrl

	got := matchNames(m)
	if len(got) == 0 || got[0] != "quit" {
		t.Errorf("matches = %v, want quit first", got)
	}
}

func TestReplaceCurrentWord(t *testing.T) {
	m := testModel(t, "{{ server.ho }}")
	m.input.SetCursor(len("{{ server.ho"))

	_, m.wordStart, m.wordEnd = m.computeMatches()
	replaceCurrentWord(&m, "host")

	if got := m.input.Value(); got != "{{ server.host }}" {
		t.Errorf("input = %q", got)
	}

	if got := m.input.Position(); got != len("{{ server.host") {
		t.Errorf("cursor = %d", got)
	}
}
