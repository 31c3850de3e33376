package lang

import "encoding/json"

// MarshalJSON implements json.Marshaler for Template.
func (t *Template) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.ToMap())
}

// ToMap converts the parse tree of t to a native Go map structure.
func (t *Template) ToMap() map[string]any {
	result := map[string]any{"nodes": nativeNodes(t.nodes)}

	if libs := t.Libraries(); len(libs) > 0 {
		result["libraries"] = libs
	}

	if loads := t.Loads(); len(loads) > 0 {
		result["loads"] = loads
	}

	return result
}

func nativeNodes(nodes []*Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = n.ToNative()
	}

	return out
}

// ToNative converts n and its segments to native Go values.
func (n *Node) ToNative() map[string]any {
	result := map[string]any{
		"kind": n.Kind.String(),
		"pos":  n.Pos.String(),
	}

	switch n.Kind {
	case NodeText, NodeVariable:
		result["text"] = n.Text

	case NodeCall:
		result["name"] = n.Name
		result["text"] = n.Text

	case NodeBlock:
		result["name"] = n.Name

		segments := make([]any, len(n.segments))
		for i, s := range n.segments {
			segments[i] = map[string]any{
				"pieces": s.pieces,
				"pos":    s.pos.String(),
				"body":   nativeNodes(s.body),
			}
		}

		result["segments"] = segments

		if len(n.closer) > 0 {
			result["closer"] = n.closer
		}
	}

	return result
}
