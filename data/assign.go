package data

import (
	"log/slog"
	"strings"

	"github.com/ardnew/synth/lang"
)

// Assign applies an assignment of the form "key=value" to ctx.
//
// The value is a template literal (a quoted string, number, True, False, or
// None) or else taken verbatim as a string. A dotted key such as
// "server.port=80" sets a member of a nested mapping, creating mappings
// along the path and replacing anything that is not one.
func Assign(ctx lang.Context, assignment string) error {
	key, raw, ok := strings.Cut(assignment, "=")
	if !ok {
		return ErrAssign.With(
			slog.String("assignment", assignment),
			slog.String("reason", "expected key=value"),
		)
	}

	key = strings.TrimSpace(key)
	path := strings.Split(key, ".")

	for _, p := range path {
		if p == "" {
			return ErrAssign.With(
				slog.String("assignment", assignment),
				slog.String("reason", "empty key"),
			)
		}
	}

	v, ok := lang.ParseLiteral(raw)
	if !ok {
		v = lang.Str(raw)
	}

	set(map[string]lang.Value(ctx), path, v)

	return nil
}

func set(m map[string]lang.Value, path []string, v lang.Value) {
	if len(path) == 1 {
		m[path[0]] = v

		return
	}

	next, ok := m[path[0]].AsMap()
	if !ok {
		next = map[string]lang.Value{}
		m[path[0]] = lang.Map(next)
	}

	set(next, path[1:], v)
}

// Merge copies every name of each source into dst, in order, and returns
// dst. Mappings present on both sides are merged recursively; any other
// value replaces the one in dst. A nil dst is allocated.
func Merge(dst lang.Context, srcs ...lang.Context) lang.Context {
	if dst == nil {
		dst = lang.Context{}
	}

	for _, src := range srcs {
		merge(map[string]lang.Value(dst), src)
	}

	return dst
}

func merge(dst, src map[string]lang.Value) {
	for k, v := range src {
		sm, sok := v.AsMap()
		dm, dok := dst[k].AsMap()

		if !sok {
			dst[k] = v

			continue
		}

		// Mappings are copied so that later assignments to dst never
		// reach into a source.
		merged := make(map[string]lang.Value, len(dm)+len(sm))
		if dok {
			merge(merged, dm)
		}

		merge(merged, sm)
		dst[k] = lang.Map(merged)
	}
}
