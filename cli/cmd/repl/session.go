package repl

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/ardnew/synth/lang"
)

// Session renders one line of template source at a time.
//
// The render context persists between lines, so {% set %} on one line is
// visible on the next. Load directives accumulate the same way: every line
// is parsed as if preceded by all loads of the lines before it.
type Session struct {
	opts    []lang.Option
	initial lang.Context
	data    lang.Context
	loads   []string
	last    *lang.Template
}

// NewSession returns a session rendering against a copy of data.
func NewSession(ctx context.Context, data lang.Context, opts ...lang.Option) *Session {
	s := &Session{opts: opts, initial: maps.Clone(data)}
	s.Reset(ctx)

	return s
}

// Reset restores the initial context and forgets every load.
func (s *Session) Reset(ctx context.Context) {
	s.data = maps.Clone(s.initial)
	if s.data == nil {
		s.data = lang.Context{}
	}

	s.loads = nil
	s.last, _ = lang.Parse(ctx, "", s.opts...)
}

func (s *Session) preamble() string {
	var sb strings.Builder

	for _, l := range s.loads {
		sb.WriteString("{% " + l + " %}")
	}

	return sb.String()
}

// Eval parses and renders line. The loads of a line that parses are kept
// even if rendering it fails.
func (s *Session) Eval(ctx context.Context, line string) (string, error) {
	pre := s.preamble()

	tmpl, err := lang.Parse(ctx, pre+line, s.opts...)
	if err != nil {
		return "", shift(err, len(pre))
	}

	s.loads = append(s.loads, tmpl.Loads()[len(s.loads):]...)
	s.last = tmpl

	out, err := tmpl.Render(ctx, s.data)
	if err != nil {
		return "", shift(err, len(pre))
	}

	return out, nil
}

// shift moves a first-line error position left past the preamble so that
// columns refer to the line as typed.
func shift(err error, n int) error {
	var le *lang.Error
	if n == 0 || !errors.As(err, &le) {
		return err
	}

	pos := le.Position()
	if pos.Line != 1 || pos.Column <= n {
		return err
	}

	pos.Column -= n
	pos.Offset -= n

	return le.WithPosition(pos)
}

// Data returns the render context.
func (s *Session) Data() lang.Context { return s.data }

// Loads returns the accumulated load directives.
func (s *Session) Loads() []string { return slices.Clone(s.loads) }

// Libraries returns the names of the libraries loaded so far.
func (s *Session) Libraries() []string {
	if s.last == nil {
		return nil
	}

	return s.last.Libraries()
}

// Tags returns the tags in scope.
func (s *Session) Tags() []string {
	if s.last == nil {
		return nil
	}

	return s.last.Tags()
}

// Filters returns the filters in scope.
func (s *Session) Filters() []string {
	if s.last == nil {
		return nil
	}

	return s.last.Filters()
}

// Tag returns the descriptor of a tag in scope.
func (s *Session) Tag(name string) (*lang.TagDescriptor, bool) {
	if s.last == nil {
		return nil, false
	}

	return s.last.Tag(name)
}

// Members returns the names a dotted path can continue with: the context
// names for an empty path, or the keys of the mapping it resolves to.
func (s *Session) Members(path string) []string {
	if path == "" {
		return s.data.Names()
	}

	m, ok := s.data.Resolve(path).AsMap()
	if !ok {
		return nil
	}

	return slices.Sorted(maps.Keys(m))
}
