package lang

import (
	"context"
	"log/slog"
	"strings"
)

// Segment is the span of a block between two of its delimiters.
//
// Pieces holds the delimiter that begins the segment (the tag name for the
// first segment) followed by its literal argument words. The body is only
// produced by calling [Segment.Render], which renders against the context
// as it is at the time of the call.
type Segment struct {
	Pieces []string
	Pos    Position

	node  *segmentNode
	r     *renderer
	scope *scope
}

// Name returns the delimiter that begins s.
func (s *Segment) Name() string { return s.Pieces[0] }

// Empty reports whether s has no body.
func (s *Segment) Empty() bool { return len(s.node.body) == 0 }

// Render renders the body of s.
func (s *Segment) Render() (string, error) {
	var sb strings.Builder

	if err := s.r.renderNodes(&sb, s.node.body); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// Args evaluates the positional arguments of the delimiter that begins s.
func (s *Segment) Args() ([]Value, error) {
	exprs := s.node.args

	if exprs == nil && len(s.Pieces) > 1 {
		exprs = make([]*Expr, 0, len(s.Pieces)-1)

		for _, src := range s.Pieces[1:] {
			e, err := compileExpr(src, s.Pos, s.scope, true)
			if err != nil {
				return nil, err
			}

			exprs = append(exprs, e)
		}
	}

	args, _, err := s.r.evalArgs(exprs)

	return args, err
}

// Invocation is one execution of a block tag.
type Invocation struct {
	// Name is the tag name.
	Name string
	// Pieces holds the tag name followed by its literal argument words.
	Pieces []string
	// Args and Kwargs hold the evaluated opener arguments. Both are empty
	// for tags declared with RawArgs.
	Args   []Value
	Kwargs map[string]Value
	// Segments holds k+1 segments for a block with k middle delimiters.
	Segments []*Segment
	// Closer holds the terminal delimiter and its argument words. It is
	// empty for monadic tags.
	Closer []string
	// Data is the context shared by the whole render.
	Data Context
	Pos  Position

	r     *renderer
	scope *scope
}

// Context returns the context.Context of the render in progress.
func (inv *Invocation) Context() context.Context { return inv.r.ctx }

// Filter returns the named filter as visible at the tag.
func (inv *Invocation) Filter(name string) (FilterFunc, bool) {
	return inv.scope.filter(name)
}

// Compile compiles src as an expression, resolving filters as visible at the
// tag.
func (inv *Invocation) Compile(src string) (*Expr, error) {
	return compileExpr(src, inv.Pos, inv.scope, false)
}

// Eval compiles and evaluates src against the render context.
func (inv *Invocation) Eval(src string) (Value, error) {
	e, err := inv.Compile(src)
	if err != nil {
		return Undefined, err
	}

	return e.Eval(inv.Data)
}

// Fail returns an evaluation error located at the tag.
func (inv *Invocation) Fail(reason string, attrs ...slog.Attr) *Error {
	return ErrEvaluation.WithPosition(inv.Pos).With(
		slog.String("tag", inv.Name),
		slog.String("reason", reason),
	).With(attrs...)
}
