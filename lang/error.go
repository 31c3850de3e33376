package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
//
// Every error returned by this package matches exactly one of these with
// [errors.Is], even after attributes or a position have been attached.
var (
	ErrLibraryNotFound  = NewError("library not found")
	ErrTagNotFound      = NewError("tag not found")
	ErrFilterNotFound   = NewError("filter not found")
	ErrParse            = NewError("parse error")
	ErrEvaluation       = NewError("evaluation error")
	ErrMaxDepthExceeded = NewError("maximum nesting depth exceeded")
	ErrInvalidLibrary   = NewError("invalid library")
	ErrReadInput        = NewError("failed to read input")
)

// Position identifies a location in template source.
// Line and Column are 1-based; Offset is a 0-based byte offset.
type Position struct {
	Offset int
	Line   int
	Column int
}

// String returns "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// IsValid reports whether p refers to a location.
func (p Position) IsValid() bool { return p.Line > 0 }

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	root  *Error      // Sentinel this error was derived from
	pos   Position    // Source position, if any
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
//
// The message has the form "<msg> (<key> "<name>") at <line>:<col>: <err>",
// with each part omitted when unset. The name is the first of the tag,
// filter, or library attributes present.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		msg := e.msg
		if key, name, ok := e.subject(); ok {
			msg += " (" + key + " " + strconv.Quote(name) + ")"
		}

		if e.pos.IsValid() {
			msg += " at " + e.pos.String()
		}

		part = append(part, msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e == t || e.sentinel() == t
}

func (e *Error) sentinel() *Error {
	if e.root != nil {
		return e.root
	}

	return e
}

// Position returns the source position attached to e, if any.
func (e *Error) Position() Position { return e.pos }

// Attr returns the value of the attribute with the given key.
func (e *Error) Attr(key string) (slog.Value, bool) {
	for _, a := range e.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}

	return slog.Value{}, false
}

// subjectKeys are the attributes that name what an error is about.
var subjectKeys = [...]string{"tag", "filter", "library"}

func (e *Error) subject() (key, name string, ok bool) {
	for _, k := range subjectKeys {
		if v, found := e.Attr(k); found {
			return k, v.String(), true
		}
	}

	return "", "", false
}

// names reports whether e identifies the tag or filter it came from.
func (e *Error) names() bool {
	_, tag := e.Attr("tag")
	_, filter := e.Attr("filter")

	return tag || filter
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+4)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.pos.IsValid() {
		attrs = append(attrs,
			slog.Int("line", e.pos.Line),
			slog.Int("column", e.pos.Column),
		)
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	c := e.clone()
	c.err = err

	return c
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := e.clone()
	c.attrs = make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(c.attrs, e.attrs)
	copy(c.attrs[len(e.attrs):], attrs)

	return c
}

// WithPosition returns a copy of e located at pos.
func (e *Error) WithPosition(pos Position) *Error {
	c := e.clone()
	c.pos = pos

	return c
}

func (e *Error) clone() *Error {
	return &Error{
		msg:   e.msg,
		err:   e.err,
		root:  e.sentinel(),
		pos:   e.pos,
		attrs: e.attrs,
	}
}

// Snippet renders the source line containing the error position with a caret
// under the offending column. It returns the empty string if e has no
// position or the position lies outside source.
func (e *Error) Snippet(source string) string {
	if !e.pos.IsValid() {
		return ""
	}

	lines := strings.Split(source, "\n")
	if e.pos.Line > len(lines) {
		return ""
	}

	num := strconv.Itoa(e.pos.Line)

	var sb strings.Builder

	sb.WriteString("  ")
	sb.WriteString(num)
	sb.WriteString(" | ")
	sb.WriteString(lines[e.pos.Line-1])
	sb.WriteByte('\n')

	// 2 leading spaces + " | "
	sb.WriteString(strings.Repeat(" ", len(num)+5))

	if e.pos.Column > 1 {
		sb.WriteString(strings.Repeat(" ", e.pos.Column-1))
	}

	sb.WriteString("^\n")

	return sb.String()
}
