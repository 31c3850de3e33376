package lang

import (
	"bytes"
	"log/slog"
	"unicode"
	"unicode/utf8"
)

// Marker delimiters.
const (
	openVariable  = "{{"
	closeVariable = "}}"
	openTag       = "{%"
	closeTag      = "%}"
	openComment   = "{#"
	closeComment  = "#}"
)

type tokenKind int

const (
	tokenText tokenKind = iota
	tokenVariable
	tokenTag
	tokenComment
)

// token is a span of source. For markers, text holds the content between
// the delimiters and pos the location of the opening delimiter.
type token struct {
	kind tokenKind
	text string
	pos  Position
	// body is the location of the first byte of text.
	body Position
}

// piece is one whitespace-separated word of tag content.
type piece struct {
	text string
	pos  Position
}

// cursor walks UTF-8 input tracking line and column.
type cursor struct {
	input []byte
	pos   int
	line  int
	col   int
}

func newCursor(input string, at Position) *cursor {
	if !at.IsValid() {
		at = Position{Line: 1, Column: 1}
	}

	return &cursor{
		input: []byte(input),
		line:  at.Line,
		col:   at.Column,
		pos:   0,
	}
}

func (c *cursor) eof() bool { return c.pos >= len(c.input) }

func (c *cursor) peek() rune {
	if c.eof() {
		return 0
	}

	r, _ := utf8.DecodeRune(c.input[c.pos:])

	return r
}

func (c *cursor) peekN(n int) string {
	if c.pos+n > len(c.input) {
		return string(c.input[c.pos:])
	}

	return string(c.input[c.pos : c.pos+n])
}

func (c *cursor) hasPrefix(s string) bool {
	return bytes.HasPrefix(c.input[c.pos:], []byte(s))
}

func (c *cursor) advance() {
	if c.eof() {
		return
	}

	r, size := utf8.DecodeRune(c.input[c.pos:])

	c.pos += size
	if r == '\n' {
		c.line++
		c.col = 1
	} else {
		c.col++
	}
}

func (c *cursor) advanceN(n int) {
	for range n {
		c.advance()
	}
}

// position returns the current location. base is the offset of the cursor
// input within the whole template.
func (c *cursor) position(base int) Position {
	return Position{
		Offset: base + c.pos,
		Line:   c.line,
		Column: c.col,
	}
}

func (c *cursor) skipWhitespace() {
	for !c.eof() && unicode.IsSpace(c.peek()) {
		c.advance()
	}
}

// skipString advances past a quoted string starting at the cursor.
// It returns false if input ends before the closing quote.
func (c *cursor) skipString(quote rune) bool {
	c.advance() // skip opening quote

	for !c.eof() {
		ch := c.peek()
		if ch == '\\' {
			c.advance() // skip backslash

			if !c.eof() {
				c.advance() // skip escaped char
			}

			continue
		}

		c.advance()

		if ch == quote {
			return true
		}
	}

	return false
}

// scan splits source into text and marker tokens.
//
// Quoted strings inside variable and tag markers may contain the closing
// delimiter. Comment content is not interpreted.
func scan(source string) ([]token, error) {
	c := newCursor(source, Position{})
	toks := make([]token, 0, 16)
	textStart := c.position(0)

	flushText := func(end int) {
		if end > textStart.Offset {
			toks = append(toks, token{
				kind: tokenText,
				text: source[textStart.Offset:end],
				pos:  textStart,
				body: textStart,
			})
		}
	}

	for !c.eof() {
		var (
			kind   tokenKind
			closer string
		)

		switch {
		case c.hasPrefix(openVariable):
			kind, closer = tokenVariable, closeVariable

		case c.hasPrefix(openTag):
			kind, closer = tokenTag, closeTag

		case c.hasPrefix(openComment):
			kind, closer = tokenComment, closeComment

		default:
			c.advance()

			continue
		}

		flushText(c.pos)

		start := c.position(0)
		c.advanceN(2)
		body := c.position(0)

		end, ok := scanMarker(c, closer, kind != tokenComment)
		if !ok {
			return nil, ErrParse.WithPosition(start).With(
				slog.String("reason", "unterminated marker"),
				slog.String("expected", closer),
			)
		}

		toks = append(toks, token{
			kind: kind,
			text: source[body.Offset:end],
			pos:  start,
			body: body,
		})

		textStart = c.position(0)
	}

	flushText(c.pos)

	return toks, nil
}

// scanMarker advances past the closing delimiter of a marker and returns the
// offset where the marker content ends.
func scanMarker(c *cursor, closer string, quoted bool) (int, bool) {
	for !c.eof() {
		if c.hasPrefix(closer) {
			end := c.pos
			c.advanceN(len(closer))

			return end, true
		}

		if ch := c.peek(); quoted && (ch == '\'' || ch == '"') {
			if !c.skipString(ch) {
				return 0, false
			}

			continue
		}

		c.advance()
	}

	return 0, false
}

// splitPieces splits tag content on whitespace outside quoted strings.
func splitPieces(content string, at Position) ([]piece, error) {
	c := newCursor(content, at)

	var out []piece

	for {
		c.skipWhitespace()

		if c.eof() {
			return out, nil
		}

		start := c.pos
		pos := c.position(at.Offset)

		for !c.eof() && !unicode.IsSpace(c.peek()) {
			if ch := c.peek(); ch == '\'' || ch == '"' {
				if !c.skipString(ch) {
					return nil, ErrParse.WithPosition(pos).With(
						slog.String("reason", "unterminated string"),
					)
				}

				continue
			}

			c.advance()
		}

		out = append(out, piece{text: content[start:c.pos], pos: pos})
	}
}

func isIdentifierStart(r rune) bool {
	return unicode.In(r,
		unicode.L,  // Letter
		unicode.Nl, // Letter, Number
		unicode.Other_ID_Start,
	) || r == '_'
}

func isIdentifierContinue(r rune) bool {
	return unicode.In(r,
		unicode.L,  // Letter
		unicode.Nl, // Letter, Number
		unicode.Other_ID_Start,
		unicode.Mn, // Mark, Nonspacing
		unicode.Mc, // Mark, Spacing Combining
		unicode.Nd, // Number, Decimal Digit
		unicode.Pc, // Punctuation, Connector
		unicode.Other_ID_Continue,
	)
}
