package lang

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// renderer holds the state of one render.
type renderer struct {
	ctx   context.Context
	data  Context
	depth int
	max   int
}

// Render parses source and renders it against data.
func Render(ctx context.Context, source string, data Context, opts ...Option) (string, error) {
	t, err := Parse(ctx, source, opts...)
	if err != nil {
		return "", err
	}

	return t.Render(ctx, data)
}

// Render renders t against data.
//
// On error the partial output is discarded and the empty string returned.
// Changes made to data before the error remain.
func (t *Template) Render(ctx context.Context, data Context) (string, error) {
	start := time.Now()

	if data == nil {
		data = Context{}
	}

	r := &renderer{ctx: ctx, data: data, max: t.opts.maxDepth}

	var sb strings.Builder

	err := r.renderNodes(&sb, t.nodes)

	t.opts.logger.TraceContext(ctx, "render complete",
		slog.Int("bytes", sb.Len()),
		slog.Bool("ok", err == nil),
		slog.Duration("elapsed", time.Since(start)),
	)

	if err != nil {
		return "", err
	}

	return sb.String(), nil
}

// Execute renders t against data and writes the output to w.
// Nothing is written if rendering fails.
func (t *Template) Execute(ctx context.Context, w io.Writer, data Context) error {
	out, err := t.Render(ctx, data)
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, out)

	return err
}

// Apply applies the named filter, as visible at the end of t, to v.
func (t *Template) Apply(name string, v Value, args ...Value) (Value, error) {
	fn, ok := t.scope.filter(name)
	if !ok {
		return Undefined, t.scope.filterNotFound(name, Position{})
	}

	out, err := fn(v, args...)
	if err != nil {
		return Undefined, evaluationError(err, Position{}, slog.String("filter", name))
	}

	return out, nil
}

// Source returns the text t was parsed from.
func (t *Template) Source() string { return t.source }

// Nodes returns the top-level nodes of t.
func (t *Template) Nodes() []*Node { return t.nodes }

// Tags returns the names of the tags visible at the end of t.
func (t *Template) Tags() []string { return t.scope.tagNames() }

// Tag returns the descriptor of a tag in scope at the end of the source.
func (t *Template) Tag(name string) (*TagDescriptor, bool) { return t.scope.tag(name) }

// Filters returns the names of the filters visible at the end of t.
func (t *Template) Filters() []string { return t.scope.filterNames() }

// Libraries returns the names of the libraries loaded by t, in load order.
func (t *Template) Libraries() []string { return t.scope.libraries }

// Loads returns the content of each load directive in source order, such
// as "load upper from text". Prefixing another source with these
// directives puts the same names in scope.
func (t *Template) Loads() []string { return slices.Clone(t.loads) }

// Dump writes an indented outline of the parse tree of t to w.
func (t *Template) Dump(w io.Writer) error { return dump(w, t.nodes, 0) }

func (r *renderer) renderNodes(sb *strings.Builder, nodes []*Node) error {
	for _, n := range nodes {
		if err := r.ctx.Err(); err != nil {
			return ErrEvaluation.Wrap(context.Cause(r.ctx)).WithPosition(n.Pos)
		}

		switch n.Kind {
		case NodeText:
			sb.WriteString(n.Text)

		case NodeVariable:
			v, err := n.expr.Eval(r.data)
			if err != nil {
				return err
			}

			sb.WriteString(v.String())

		case NodeCall:
			args, _, err := r.evalArgs(n.args)
			if err != nil {
				return err
			}

			v, err := n.tag.Pure(args)
			if err != nil {
				return evaluationError(err, n.Pos, slog.String("tag", n.Name))
			}

			sb.WriteString(v.String())

		case NodeBlock:
			v, err := r.renderBlock(n)
			if err != nil {
				return err
			}

			sb.WriteString(v.String())
		}
	}

	return nil
}

func (r *renderer) renderBlock(n *Node) (Value, error) {
	if r.depth >= r.max {
		return Undefined, ErrMaxDepthExceeded.WithPosition(n.Pos).With(
			slog.String("tag", n.Name),
			slog.Int("max", r.max),
		)
	}

	r.depth++
	defer func() { r.depth-- }()

	inv := &Invocation{
		Name:   n.Name,
		Pieces: n.segments[0].pieces,
		Closer: n.closer,
		Data:   r.data,
		Pos:    n.Pos,
		r:      r,
		scope:  n.scope,
	}

	if !n.tag.RawArgs {
		var err error

		inv.Args, inv.Kwargs, err = r.evalArgs(n.args)
		if err != nil {
			return Undefined, err
		}
	}

	inv.Segments = make([]*Segment, len(n.segments))
	for i, s := range n.segments {
		inv.Segments[i] = &Segment{
			Pieces: s.pieces,
			Pos:    s.pos,
			node:   s,
			r:      r,
			scope:  n.scope,
		}
	}

	v, err := n.tag.Block(inv)
	if err != nil {
		return Undefined, evaluationError(err, n.Pos, slog.String("tag", n.Name))
	}

	return v, nil
}

// evalArgs evaluates positional and keyword arguments.
func (r *renderer) evalArgs(exprs []*Expr) ([]Value, map[string]Value, error) {
	var (
		args   = make([]Value, 0, len(exprs))
		kwargs map[string]Value
	)

	for _, e := range exprs {
		v, err := e.Eval(r.data)
		if err != nil {
			return nil, nil, err
		}

		if e.keyword == "" {
			args = append(args, v)

			continue
		}

		if kwargs == nil {
			kwargs = make(map[string]Value)
		}

		kwargs[e.keyword] = v
	}

	return args, kwargs, nil
}

// evaluationError attaches a position and attributes to a handler error.
// Errors already produced by this package keep their own position and the
// tag or filter they name, gaining only what they lack.
func evaluationError(err error, pos Position, attrs ...slog.Attr) error {
	if le, ok := err.(*Error); ok {
		if !le.pos.IsValid() && pos.IsValid() {
			le = le.WithPosition(pos)
		}

		if !le.names() {
			le = le.With(attrs...)
		}

		return le
	}

	e := ErrEvaluation.Wrap(err).With(attrs...)
	if pos.IsValid() {
		e = e.WithPosition(pos)
	}

	return e
}
