package lang

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// loadDirective is the reserved tag name that binds libraries into scope.
const loadDirective = "load"

// Template is a parsed template.
//
// A Template is immutable and may be rendered concurrently, provided each
// render is given its own [Context].
type Template struct {
	source string
	nodes  []*Node
	scope  *scope
	loads  []string
	opts   options
}

type parser struct {
	ctx   context.Context
	toks  []token
	i     int
	scope *scope
	reg   *Registry
	opts  options
	open  []*openBlock
	loads []string
}

// openBlock is a block tag whose terminal delimiter has not been seen.
type openBlock struct {
	name string
	tag  *TagDescriptor
	pos  Position
}

// delimiter is a middle or terminal delimiter of the innermost open block.
type delimiter struct {
	pieces []piece
	pos    Position
}

func (d *delimiter) name() string { return d.pieces[0].text }

// Parse parses source into a [Template].
//
// Libraries named by load directives are resolved while parsing. Any error
// aborts the parse; no partial template is returned.
func Parse(ctx context.Context, source string, opts ...Option) (*Template, error) {
	start := time.Now()
	o := makeOptions(opts...)

	toks, err := scan(source)
	if err != nil {
		return nil, err
	}

	p := &parser{
		ctx:   ctx,
		toks:  toks,
		scope: newScope(),
		reg:   o.newRegistry(),
		opts:  o,
	}

	if o.builtins {
		p.scope = p.scope.withLibrary(Builtins())
	}

	for _, name := range o.preload {
		lib, err := p.resolve(name, Position{})
		if err != nil {
			return nil, err
		}

		p.scope = p.scope.withLibrary(lib)
	}

	nodes, _, err := p.parseNodes()
	if err != nil {
		return nil, err
	}

	o.logger.TraceContext(ctx, "parse complete",
		slog.Int("nodes", len(nodes)),
		slog.Any("libraries", p.scope.libraries),
		slog.Duration("elapsed", time.Since(start)),
	)

	return &Template{
		source: source,
		nodes:  nodes,
		scope:  p.scope,
		loads:  p.loads,
		opts:   o,
	}, nil
}

// MustParse is like [Parse] but panics on error.
func MustParse(ctx context.Context, source string, opts ...Option) *Template {
	t, err := Parse(ctx, source, opts...)
	if err != nil {
		panic(err)
	}

	return t
}

func (p *parser) top() *openBlock {
	if len(p.open) == 0 {
		return nil
	}

	return p.open[len(p.open)-1]
}

// parseNodes parses until end of input or a delimiter of the innermost open
// block, which is returned.
func (p *parser) parseNodes() ([]*Node, *delimiter, error) {
	var nodes []*Node

	for p.i < len(p.toks) {
		if err := p.ctx.Err(); err != nil {
			return nil, nil, ErrParse.Wrap(context.Cause(p.ctx))
		}

		tok := p.toks[p.i]
		p.i++

		switch tok.kind {
		case tokenText:
			nodes = append(nodes, &Node{Kind: NodeText, Pos: tok.pos, Text: tok.text})

		case tokenComment:
			// discarded

		case tokenVariable:
			e, err := compileExpr(tok.text, tok.body, p.scope, false)
			if err != nil {
				return nil, nil, err
			}

			nodes = append(nodes, &Node{
				Kind:  NodeVariable,
				Pos:   tok.pos,
				Text:  strings.TrimSpace(tok.text),
				expr:  e,
				scope: p.scope,
			})

		case tokenTag:
			pieces, err := splitPieces(tok.text, tok.body)
			if err != nil {
				return nil, nil, err
			}

			if len(pieces) == 0 {
				return nil, nil, ErrParse.WithPosition(tok.pos).
					With(slog.String("reason", "empty tag"))
			}

			name := pieces[0].text

			if top := p.top(); top != nil && (top.tag.isMiddle(name) || top.tag.isLast(name)) {
				return nodes, &delimiter{pieces: pieces, pos: tok.pos}, nil
			}

			if name == loadDirective {
				if err := p.parseLoad(pieces[1:], tok.pos); err != nil {
					return nil, nil, err
				}

				p.loads = append(p.loads, strings.Join(texts(pieces), " "))

				continue
			}

			desc, ok := p.scope.tag(name)
			if !ok {
				return nil, nil, p.unknownTag(name, tok.pos)
			}

			n, err := p.parseTag(name, desc, pieces, tok)
			if err != nil {
				return nil, nil, err
			}

			nodes = append(nodes, n)
		}
	}

	if top := p.top(); top != nil {
		return nil, nil, ErrParse.WithPosition(top.pos).With(
			slog.String("tag", top.name),
			slog.String("reason", "unclosed block"),
			slog.Any("expected", top.tag.Lasts),
		)
	}

	return nodes, nil, nil
}

// unknownTag classifies a name that is neither a tag in scope nor a
// delimiter of the innermost open block.
func (p *parser) unknownTag(name string, pos Position) error {
	// A delimiter of an enclosing block means the inner block was not closed.
	for i := len(p.open) - 2; i >= 0; i-- {
		outer := p.open[i]
		if outer.tag.isMiddle(name) || outer.tag.isLast(name) {
			inner := p.top()

			return ErrParse.WithPosition(pos).With(
				slog.String("reason", "improperly nested delimiter"),
				slog.String("delimiter", name),
				slog.String("owner", outer.name),
				slog.String("unclosed", inner.name),
				slog.String("opened", inner.pos.String()),
			)
		}
	}

	if owner, ok := p.scope.delimiterOf(name); ok {
		return ErrParse.WithPosition(pos).With(
			slog.String("reason", "unexpected delimiter"),
			slog.String("delimiter", name),
			slog.String("owner", owner),
		)
	}

	return p.scope.tagNotFound(name, pos)
}

func (p *parser) parseTag(
	name string,
	desc *TagDescriptor,
	pieces []piece,
	tok token,
) (*Node, error) {
	n := &Node{
		Kind:  NodeCall,
		Pos:   tok.pos,
		Text:  strings.TrimSpace(tok.text),
		Name:  name,
		tag:   desc,
		scope: p.scope,
	}

	if desc.IsPure() || !desc.RawArgs {
		args, err := p.compileArgs(pieces[1:], !desc.IsPure())
		if err != nil {
			return nil, err
		}

		n.args = args
	}

	if desc.IsPure() {
		return n, nil
	}

	n.Kind = NodeBlock

	if len(p.open) >= p.opts.maxDepth {
		return nil, ErrMaxDepthExceeded.WithPosition(tok.pos).With(
			slog.String("tag", name),
			slog.Int("max", p.opts.maxDepth),
		)
	}

	seg := &segmentNode{pieces: texts(pieces), pos: tok.pos, args: n.args}

	if desc.IsMonadic() {
		n.segments = []*segmentNode{seg}

		return n, nil
	}

	p.open = append(p.open, &openBlock{name: name, tag: desc, pos: tok.pos})
	defer func() { p.open = p.open[:len(p.open)-1] }()

	for {
		body, delim, err := p.parseNodes()
		if err != nil {
			return nil, err
		}

		seg.body = body
		n.segments = append(n.segments, seg)

		if desc.isLast(delim.name()) {
			n.closer = texts(delim.pieces)

			return n, nil
		}

		seg = &segmentNode{pieces: texts(delim.pieces), pos: delim.pos}

		if !desc.RawArgs {
			if seg.args, err = p.compileArgs(delim.pieces[1:], true); err != nil {
				return nil, err
			}
		}
	}
}

func (p *parser) compileArgs(pieces []piece, keyword bool) ([]*Expr, error) {
	args := make([]*Expr, 0, len(pieces))

	for _, pc := range pieces {
		e, err := compileExpr(pc.text, pc.pos, p.scope, true)
		if err != nil {
			return nil, err
		}

		if e.keyword != "" && !keyword {
			return nil, ErrParse.WithPosition(pc.pos).With(
				slog.String("reason", "keyword argument to pure tag"),
				slog.String("argument", pc.text),
			)
		}

		args = append(args, e)
	}

	return args, nil
}

// parseLoad handles "load a b from lib" and "load lib1 lib2".
func (p *parser) parseLoad(args []piece, pos Position) error {
	if len(args) == 0 {
		return ErrParse.WithPosition(pos).
			With(slog.String("reason", "load requires a library name"))
	}

	from := -1

	for i, a := range args {
		if a.text == "from" {
			from = i

			break
		}
	}

	if from < 0 {
		for _, a := range args {
			lib, err := p.resolve(libraryName(a.text), a.pos)
			if err != nil {
				return err
			}

			p.scope = p.scope.withLibrary(lib)
		}

		return nil
	}

	if from == 0 || from != len(args)-2 {
		return ErrParse.WithPosition(pos).
			With(slog.String("reason", "expected load <name>... from <library>"))
	}

	lib, err := p.resolve(libraryName(args[from+1].text), args[from+1].pos)
	if err != nil {
		return err
	}

	p.scope, err = p.scope.withNames(lib, args[:from])

	return err
}

func (p *parser) resolve(name string, pos Position) (*Library, error) {
	lib, err := p.reg.Resolve(p.ctx, name)
	if err != nil {
		if le, ok := err.(*Error); ok && pos.IsValid() {
			return nil, le.WithPosition(pos)
		}

		return nil, err
	}

	p.opts.logger.TraceContext(p.ctx, "library resolved",
		slog.String("library", name),
		slog.Int("tags", len(lib.tags)),
		slog.Int("filters", len(lib.filters)),
	)

	return lib, nil
}

// libraryName strips optional quotes from a library identifier.
func libraryName(s string) string {
	if v, ok := ParseLiteral(s); ok {
		if str, ok := v.AsString(); ok {
			return str
		}
	}

	return s
}

func texts(pieces []piece) []string {
	out := make([]string, len(pieces))
	for i, pc := range pieces {
		out[i] = pc.text
	}

	return out
}
