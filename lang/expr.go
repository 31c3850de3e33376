package lang

import (
	"log/slog"
	"strconv"
	"strings"
	"unicode"
)

// Expr is a compiled expression: a literal or name path followed by a
// filter chain.
type Expr struct {
	src     string
	pos     Position
	keyword string

	literal   Value
	isLiteral bool
	path      string

	filters []filterCall
}

type filterCall struct {
	name string
	fn   FilterFunc
	arg  *Expr
	pos  Position
}

// String returns the source text of e.
func (e *Expr) String() string { return e.src }

// Keyword returns the name of a "name=expr" argument, or the empty string.
func (e *Expr) Keyword() string { return e.keyword }

// Eval evaluates e against data. Undefined names yield [Undefined].
func (e *Expr) Eval(data Context) (Value, error) {
	var v Value

	if e.isLiteral {
		v = e.literal
	} else {
		v = data.Resolve(e.path)
	}

	for _, f := range e.filters {
		var args []Value

		if f.arg != nil {
			a, err := f.arg.Eval(data)
			if err != nil {
				return Undefined, err
			}

			args = []Value{a}
		}

		out, err := f.fn(v, args...)
		if err != nil {
			return Undefined, evaluationError(err, f.pos, slog.String("filter", f.name))
		}

		v = out
	}

	return v, nil
}

// exprParser parses one expression with a cursor over its source.
type exprParser struct {
	*cursor

	src  string
	base Position
	sc   *scope
}

// compileExpr parses src located at at, resolving filters in sc.
// If keyword is true a leading "name=" is accepted.
func compileExpr(src string, at Position, sc *scope, keyword bool) (*Expr, error) {
	p := &exprParser{
		cursor: newCursor(src, at),
		src:    src,
		base:   at,
		sc:     sc,
	}

	p.skipWhitespace()

	e := &Expr{src: strings.TrimSpace(src), pos: p.here()}

	if keyword {
		e.keyword = p.parseKeyword()
	}

	if err := p.parsePrimary(e); err != nil {
		return nil, err
	}

	if err := p.parseFilters(e); err != nil {
		return nil, err
	}

	p.skipWhitespace()

	if !p.eof() {
		return nil, p.fail("unexpected " + strconv.QuoteRune(p.peek()))
	}

	return e, nil
}

func (p *exprParser) here() Position { return p.position(p.base.Offset) }

func (p *exprParser) fail(reason string) *Error {
	return ErrParse.WithPosition(p.here()).With(
		slog.String("reason", reason),
		slog.String("expression", p.src),
	)
}

// parseKeyword consumes "name=" and returns name, or consumes nothing.
func (p *exprParser) parseKeyword() string {
	save := *p.cursor

	name := p.identifier()
	if name != "" && p.peek() == '=' && p.peekN(2) != "==" {
		p.advance()
		p.skipWhitespace()

		return name
	}

	*p.cursor = save

	return ""
}

func (p *exprParser) identifier() string {
	if !isIdentifierStart(p.peek()) {
		return ""
	}

	start := p.pos
	for !p.eof() && (isIdentifierContinue(p.peek()) || p.peek() == '_') {
		p.advance()
	}

	return string(p.input[start:p.pos])
}

func (p *exprParser) parsePrimary(e *Expr) error {
	switch ch := p.peek(); {
	case p.eof():
		return p.fail("missing expression")

	case ch == '\'' || ch == '"':
		start := p.pos
		if !p.skipString(ch) {
			return p.fail("unterminated string")
		}

		e.literal, e.isLiteral = Str(unquote(string(p.input[start:p.pos]))), true

		return nil

	case unicode.IsDigit(ch) || ((ch == '-' || ch == '+') && p.isDigitAt(1)):
		start := p.pos
		p.advance()

		for !p.eof() {
			c := p.peek()
			if unicode.IsDigit(c) || c == '.' || c == 'e' || c == 'E' {
				p.advance()

				continue
			}

			prev := p.input[p.pos-1]
			if (c == '-' || c == '+') && (prev == 'e' || prev == 'E') {
				p.advance()

				continue
			}

			break
		}

		v, ok := parseNumber(string(p.input[start:p.pos]))
		if !ok {
			return p.fail("invalid number " + strconv.Quote(string(p.input[start:p.pos])))
		}

		e.literal, e.isLiteral = v, true

		return nil

	case isIdentifierStart(ch):
		var sb strings.Builder

		sb.WriteString(p.identifier())

		for p.peek() == '.' {
			p.advance()
			sb.WriteByte('.')

			seg := p.identifier()
			if seg == "" {
				seg = p.digits()
			}

			if seg == "" {
				return p.fail("incomplete name path")
			}

			sb.WriteString(seg)
		}

		path := sb.String()
		if v, ok := keywordLiteral(path); ok {
			e.literal, e.isLiteral = v, true

			return nil
		}

		e.path = path

		return nil

	default:
		return p.fail("unexpected " + strconv.QuoteRune(ch))
	}
}

func (p *exprParser) isDigitAt(n int) bool {
	s := p.peekN(n + 1)

	return len(s) > n && s[n] >= '0' && s[n] <= '9'
}

func (p *exprParser) digits() string {
	start := p.pos
	for !p.eof() && unicode.IsDigit(p.peek()) {
		p.advance()
	}

	return string(p.input[start:p.pos])
}

func (p *exprParser) parseFilters(e *Expr) error {
	for {
		p.skipWhitespace()

		if p.peek() != '|' {
			return nil
		}

		p.advance()
		p.skipWhitespace()

		pos := p.here()

		name := p.identifier()
		if name == "" {
			return p.fail("missing filter name")
		}

		fn, ok := p.sc.filter(name)
		if !ok {
			return p.sc.filterNotFound(name, pos)
		}

		call := filterCall{name: name, fn: fn, pos: pos}

		if p.peek() == ':' {
			p.advance()

			arg := &Expr{pos: p.here()}
			start := p.pos

			if err := p.parsePrimary(arg); err != nil {
				return err
			}

			arg.src = string(p.input[start:p.pos])
			call.arg = arg
		}

		e.filters = append(e.filters, call)
	}
}

func keywordLiteral(s string) (Value, bool) {
	switch s {
	case "True", "true":
		return Bool(true), true

	case "False", "false":
		return Bool(false), true

	case "None", "none", "null":
		return Undefined, true

	default:
		return Undefined, false
	}
}

func parseNumber(s string) (Value, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i), true
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Float(f), true
	}

	return Undefined, false
}

// unquote strips the quotes of a string literal and resolves backslash
// escapes.
func unquote(raw string) string {
	if len(raw) < 2 {
		return raw
	}

	body := raw[1 : len(raw)-1]
	if !strings.ContainsRune(body, '\\') {
		return body
	}

	var sb strings.Builder

	escaped := false

	for _, r := range body {
		if !escaped {
			if r == '\\' {
				escaped = true
			} else {
				sb.WriteRune(r)
			}

			continue
		}

		escaped = false

		switch r {
		case 'n':
			sb.WriteByte('\n')

		case 't':
			sb.WriteByte('\t')

		case 'r':
			sb.WriteByte('\r')

		case '\\', '\'', '"':
			sb.WriteRune(r)

		default:
			sb.WriteByte('\\')
			sb.WriteRune(r)
		}
	}

	return sb.String()
}

// ParseLiteral interprets s as a quoted string, number, or one of True,
// False, and None. It reports false for anything else.
func ParseLiteral(s string) (Value, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Undefined, false
	}

	if q := s[0]; (q == '\'' || q == '"') && len(s) >= 2 && s[len(s)-1] == q {
		return Str(unquote(s)), true
	}

	if v, ok := keywordLiteral(s); ok {
		return v, true
	}

	return parseNumber(s)
}
