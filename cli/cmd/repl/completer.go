package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "vars", "loads", "libs", "reset", "clear", "quit"}

// completion is the kind of name expected at the cursor.
type completion int

const (
	completeNone completion = iota
	completeTag
	completeLibrary
	completeFilter
	completeVariable
	completeMember
)

// isWordBoundary reports whether r ends a completable word. Dots separate
// the members of a variable path.
func isWordBoundary(r rune) bool {
	switch r {
	case ' ', '\t', '.', '|', ':', ',', '=',
		'{', '}', '%', '#', '(', ')', '\'', '"':
		return true
	}

	return false
}

// wordBounds returns the word at the cursor position and its byte
// boundaries within input. The word is empty when the cursor sits on a
// boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor
	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// openMarker returns the opening marker ("{{" or "{%") enclosing offset at
// and where it begins, or "" when at is in literal text.
func openMarker(input string, at int) (string, int) {
	before := input[:at]

	open := max(strings.LastIndex(before, "{{"), strings.LastIndex(before, "{%"))
	if open < 0 {
		return "", -1
	}

	closed := max(strings.LastIndex(before, "}}"), strings.LastIndex(before, "%}"))
	if closed > open {
		return "", -1
	}

	return before[open : open+2], open
}

// classify determines what kind of name belongs at wordStart, and for a
// member the dotted path of its parent.
func classify(input string, wordStart int) (completion, string) {
	marker, open := openMarker(input, wordStart)
	if marker == "" {
		return completeNone, ""
	}

	inner := input[open+2 : wordStart]
	lead := strings.TrimRight(inner, " \t")

	if marker == "{%" {
		fields := strings.Fields(strings.TrimLeft(inner, "-"))

		switch {
		case len(fields) == 0:
			return completeTag, ""

		case fields[0] == "load":
			return completeLibrary, ""
		}
	}

	switch {
	case strings.HasSuffix(lead, "|"):
		return completeFilter, ""

	case strings.HasSuffix(inner, "."):
		return completeMember, parentPath(input, wordStart)
	}

	return completeVariable, ""
}

// parentPath returns the dotted path leading up to the word at wordStart,
// e.g. "server.http" for "{{ server.http.ho".
func parentPath(input string, wordStart int) string {
	prefix := strings.TrimRight(input[:wordStart], ".")

	pos := len(prefix)
	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return prefix[pos:]
}

// candidatesFor returns the names that may complete a word of kind c.
func (m model) candidatesFor(c completion, parent string) []string {
	switch c {
	case completeTag:
		return append([]string{"load"}, m.session.Tags()...)

	case completeLibrary:
		return append([]string{"from"}, m.libraries...)

	case completeFilter:
		return m.session.Filters()

	case completeVariable:
		return m.session.Members("")

	case completeMember:
		return m.session.Members(parent)

	default:
		return nil
	}
}

// computeMatches calculates the fuzzy match results for the word at the
// cursor, ranked best first, along with the word boundaries. An empty word
// matches nothing, except directly after a dot or a pipe where every
// candidate is offered.
func (m model) computeMatches() (matches fuzzy.Matches, wordStart, wordEnd int) {
	input := m.input.Value()

	word, ws, we := wordBounds(input, m.input.Position())

	var cands []string

	if m.mode == modeCtrl {
		if word == "" {
			return nil, ws, we
		}

		cands = ctrlCommands
	} else {
		kind, parent := classify(input, ws)
		cands = m.candidatesFor(kind, parent)

		if word == "" {
			if kind != completeMember && kind != completeFilter {
				return nil, ws, we
			}

			matches = make(fuzzy.Matches, len(cands))
			for i, c := range cands {
				matches[i] = fuzzy.Match{Str: c, Index: i}
			}

			return matches, ws, we
		}
	}

	if len(cands) == 0 {
		return nil, ws, we
	}

	return fuzzy.Find(word, cands), ws, we
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within width. Matched characters are highlighted and the selected
// candidate, when tabbing, is inverted.
func renderCandidateBar(matches fuzzy.Matches, selected int, tabbing bool, width int) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	reserve := lipgloss.Width(ellipsis)

	var (
		b    strings.Builder
		used int
	)

	for i, match := range matches {
		rendered := renderCandidate(match, tabbing && i == selected)

		w := lipgloss.Width(rendered)
		if i > 0 {
			w += len(sep)
		}

		if i > 0 && used+w+reserve > width {
			b.WriteString(sep + ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += w
	}

	return b.String()
}

func renderCandidate(match fuzzy.Match, selected bool) string {
	base, highlight := suggestionStyle, suggestionStyle.Bold(true)
	if selected {
		base, highlight = selectedStyle, selectedStyle.Bold(true)
	}

	hit := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		hit[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if hit[i] {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	return b.String()
}
