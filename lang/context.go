package lang

import (
	"maps"
	"slices"
	"strings"
)

// Context is the mutable data a template is rendered against.
//
// A Context is shared by reference for the whole of one render: assignments
// made by tags such as set are visible to everything rendered afterward and
// remain in the map when the render returns. Renders that share a Context
// must not run concurrently.
type Context map[string]Value

// Resolve looks up a dotted name path such as "user.name" or "items.0".
// Any missing component yields [Undefined].
func (c Context) Resolve(path string) Value {
	head, rest, more := strings.Cut(path, ".")

	v, ok := c[head]
	if !ok {
		return Undefined
	}

	for more {
		head, rest, more = strings.Cut(rest, ".")
		v = v.Lookup(head)
	}

	return v
}

// Set assigns v to name.
func (c Context) Set(name string, v Value) { c[name] = v }

// Unset removes name.
func (c Context) Unset(name string) { delete(c, name) }

// Names returns the names defined in c in sorted order.
func (c Context) Names() []string {
	return slices.Sorted(maps.Keys(c))
}

// ContextFrom converts decoded data into a [Context].
func ContextFrom(m map[string]any) Context {
	c := make(Context, len(m))
	for k, v := range m {
		c[k] = FromNative(v)
	}

	return c
}
