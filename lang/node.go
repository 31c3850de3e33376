package lang

import (
	"fmt"
	"io"
	"strings"
)

// NodeKind discriminates the nodes of a parsed template.
type NodeKind int

const (
	// NodeText is literal text emitted verbatim.
	NodeText NodeKind = iota

	// NodeVariable is a {{ expr }} substitution.
	NodeVariable

	// NodeCall is an invocation of a pure tag.
	NodeCall

	// NodeBlock is an invocation of a block tag with its segments.
	NodeBlock
)

// String returns the name of the node kind.
func (k NodeKind) String() string {
	switch k {
	case NodeText:
		return "text"

	case NodeVariable:
		return "variable"

	case NodeCall:
		return "call"

	case NodeBlock:
		return "block"

	default:
		return "unknown"
	}
}

// Node is one element of a parsed template.
type Node struct {
	Kind NodeKind
	Pos  Position
	// Text is the literal text of a NodeText, or the trimmed marker content
	// of other kinds.
	Text string
	// Name is the tag name of a NodeCall or NodeBlock.
	Name string

	expr     *Expr
	args     []*Expr
	tag      *TagDescriptor
	segments []*segmentNode
	closer   []string
	scope    *scope
}

// segmentNode is the parsed form of a [Segment].
type segmentNode struct {
	pieces []string
	pos    Position
	args   []*Expr // nil when the tag takes raw arguments
	body   []*Node
}

// dump writes an indented outline of nodes to w.
func dump(w io.Writer, nodes []*Node, depth int) error {
	indent := strings.Repeat("  ", depth)

	for _, n := range nodes {
		var err error

		switch n.Kind {
		case NodeText:
			_, err = fmt.Fprintf(w, "%s%s %q @%s\n", indent, n.Kind, n.Text, n.Pos)

		case NodeVariable, NodeCall:
			_, err = fmt.Fprintf(w, "%s%s %s @%s\n", indent, n.Kind, n.Text, n.Pos)

		case NodeBlock:
			_, err = fmt.Fprintf(w, "%s%s %s @%s\n", indent, n.Kind, n.Name, n.Pos)
			if err != nil {
				return err
			}

			for _, s := range n.segments {
				_, err = fmt.Fprintf(w, "%s  segment %s @%s\n",
					indent, strings.Join(s.pieces, " "), s.pos)
				if err != nil {
					return err
				}

				if err = dump(w, s.body, depth+2); err != nil {
					return err
				}
			}

			if len(n.closer) > 0 {
				_, err = fmt.Fprintf(w, "%s  closer %s\n", indent, strings.Join(n.closer, " "))
			}
		}

		if err != nil {
			return err
		}
	}

	return nil
}
