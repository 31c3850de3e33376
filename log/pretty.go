package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// palette holds the styles used to colorize one record.
type palette struct {
	key, str, num, boolean, other lipgloss.Style
	levels                        map[slog.Level]lipgloss.Style
}

func makePalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	color := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return palette{
		key:     color("8"),
		str:     color("6"),
		num:     color("3"),
		boolean: color("2"),
		other:   color("5"),
		levels: map[slog.Level]lipgloss.Style{
			slog.Level(LevelTrace): color("4"),
			slog.Level(LevelDebug): color("4"),
			slog.Level(LevelInfo):  color("2"),
			slog.Level(LevelWarn):  color("3").Bold(true),
			slog.Level(LevelError): color("1").Bold(true),
		},
	}
}

func (p palette) level(l slog.Level) lipgloss.Style {
	best := slog.Level(LevelTrace)
	for k := range p.levels {
		if k <= l && k > best {
			best = k
		}
	}

	return p.levels[best]
}

// prettyHandler writes colorized records as either "key=value" lines or
// indented JSON objects. Colors are dropped when the output is not a
// terminal.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	json   bool
	colors palette
	attrs  []slog.Attr
	groups []string
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions, asJSON bool) *prettyHandler {
	return &prettyHandler{
		opts:   *opts,
		mu:     &sync.Mutex{},
		w:      w,
		json:   asJSON,
		colors: makePalette(w),
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	floor := slog.LevelInfo
	if h.opts.Level != nil {
		floor = h.opts.Level.Level()
	}

	return level >= floor
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(slices.Clip(h.attrs), h.qualify(attrs)...)

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.groups = append(slices.Clip(h.groups), name)

	return &c
}

// qualify prefixes attribute keys with the open groups.
func (h *prettyHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if len(h.groups) == 0 {
		return attrs
	}

	prefix := ""
	for _, g := range h.groups {
		prefix += g + "."
	}

	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: prefix + a.Key, Value: a.Value}
	}

	return out
}

// fields returns the record's header and attributes after ReplaceAttr.
func (h *prettyHandler) fields(r slog.Record) []slog.Attr {
	fs := make([]slog.Attr, 0, 4+len(h.attrs)+r.NumAttrs())

	if !r.Time.IsZero() {
		fs = append(fs, slog.Time(slog.TimeKey, r.Time))
	}

	fs = append(fs, slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			fs = append(fs, slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	fs = append(fs, slog.String(slog.MessageKey, r.Message))
	fs = append(fs, h.attrs...)

	var own []slog.Attr

	r.Attrs(func(a slog.Attr) bool {
		own = append(own, a)

		return true
	})

	fs = append(fs, h.qualify(own)...)

	if h.opts.ReplaceAttr == nil {
		return fs
	}

	out := fs[:0]

	for _, a := range fs {
		a = h.opts.ReplaceAttr(nil, a)
		if a.Key != "" {
			out = append(out, a)
		}
	}

	return out
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if h.json {
		h.writeJSON(&buf, h.fields(r))
	} else {
		h.writeText(&buf, r.Level, h.fields(r))
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) writeText(buf *bytes.Buffer, level slog.Level, fs []slog.Attr) {
	for i, a := range fs {
		if i > 0 {
			buf.WriteByte(' ')
		}

		buf.WriteString(h.colors.key.Render(a.Key))
		buf.WriteByte('=')

		if a.Key == slog.LevelKey {
			buf.WriteString(h.colors.level(level).Render(a.Value.String()))

			continue
		}

		buf.WriteString(h.textValue(a.Value.Resolve()))
	}
}

func (h *prettyHandler) textValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return h.colors.str.Render(v.String())

	case slog.KindInt64, slog.KindUint64, slog.KindFloat64, slog.KindDuration:
		return h.colors.num.Render(v.String())

	case slog.KindBool:
		return h.colors.boolean.Render(strconv.FormatBool(v.Bool()))

	case slog.KindGroup:
		var sb bytes.Buffer

		sb.WriteByte('{')

		for i, a := range v.Group() {
			if i > 0 {
				sb.WriteByte(' ')
			}

			sb.WriteString(h.colors.key.Render(a.Key))
			sb.WriteByte('=')
			sb.WriteString(h.textValue(a.Value.Resolve()))
		}

		sb.WriteByte('}')

		return sb.String()

	default:
		return h.colors.other.Render(v.String())
	}
}

func (h *prettyHandler) writeJSON(buf *bytes.Buffer, fs []slog.Attr) {
	h.writeObject(buf, fs, "")
}

func (h *prettyHandler) writeObject(buf *bytes.Buffer, fs []slog.Attr, indent string) {
	buf.WriteString("{\n")

	for i, a := range fs {
		buf.WriteString(indent + "  ")

		key, _ := json.Marshal(a.Key)
		buf.WriteString(h.colors.key.Render(string(key)))
		buf.WriteString(": ")

		v := a.Value.Resolve()
		if v.Kind() == slog.KindGroup {
			h.writeObject(buf, v.Group(), indent+"  ")
		} else {
			buf.WriteString(h.jsonValue(v))
		}

		if i < len(fs)-1 {
			buf.WriteByte(',')
		}

		buf.WriteByte('\n')
	}

	buf.WriteString(indent + "}")
}

func (h *prettyHandler) jsonValue(v slog.Value) string {
	var raw any

	switch v.Kind() {
	case slog.KindString:
		raw = v.String()
	case slog.KindInt64:
		raw = v.Int64()
	case slog.KindUint64:
		raw = v.Uint64()
	case slog.KindFloat64:
		raw = v.Float64()
	case slog.KindBool:
		raw = v.Bool()
	case slog.KindAny:
		raw = v.Any()
		if err, ok := raw.(error); ok {
			raw = err.Error()
		}
	default:
		raw = v.String()
	}

	b, err := json.Marshal(raw)
	if err != nil {
		b, _ = json.Marshal(v.String())
	}

	switch v.Kind() {
	case slog.KindString:
		return h.colors.str.Render(string(b))
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		return h.colors.num.Render(string(b))
	case slog.KindBool:
		return h.colors.boolean.Render(string(b))
	default:
		return h.colors.other.Render(string(b))
	}
}
