package lang

import "slices"

// TagKind discriminates pure tags from block tags.
type TagKind int

const (
	// TagPure tags take evaluated arguments and have no body.
	TagPure TagKind = iota

	// TagBlock tags open a body that ends at one of their terminal
	// delimiters, or immediately if they declare none.
	TagBlock
)

// String returns the name of the tag kind.
func (k TagKind) String() string {
	switch k {
	case TagPure:
		return "pure"

	case TagBlock:
		return "block"

	default:
		return "unknown"
	}
}

// PureFunc computes the value of a pure tag from its evaluated arguments.
type PureFunc func(args []Value) (Value, error)

// BlockFunc computes the output of one block tag invocation.
//
// The handler chooses which segments of inv to render, and how many times.
// Segments it never renders produce neither output nor side effects.
type BlockFunc func(inv *Invocation) (Value, error)

// TagDescriptor declares the delimiter protocol and handler of a tag.
//
// A block tag with neither middles nor lasts is monadic: it closes itself
// and receives a single segment with an empty body.
//
// The arguments of a block tag are compiled as expressions when the
// template is parsed. Setting RawArgs leaves them uninterpreted; the handler
// reads [Invocation.Pieces] and [Segment.Pieces] instead and may evaluate
// them itself with [Invocation.Eval].
type TagDescriptor struct {
	Kind    TagKind
	Pure    PureFunc
	Block   BlockFunc
	Middles []string
	Lasts   []string
	RawArgs bool
}

// PureTag declares a tag that takes arguments only.
func PureTag(fn PureFunc) *TagDescriptor {
	return &TagDescriptor{Kind: TagPure, Pure: fn}
}

// MonadicTag declares a self-closing block tag.
func MonadicTag(fn BlockFunc) *TagDescriptor {
	return &TagDescriptor{Kind: TagBlock, Block: fn}
}

// DyadicTag declares a block tag closed by last.
func DyadicTag(last string, fn BlockFunc) *TagDescriptor {
	return &TagDescriptor{Kind: TagBlock, Block: fn, Lasts: []string{last}}
}

// TriadicTag declares a block tag split by middle and closed by last.
func TriadicTag(middle, last string, fn BlockFunc) *TagDescriptor {
	return &TagDescriptor{
		Kind:    TagBlock,
		Block:   fn,
		Middles: []string{middle},
		Lasts:   []string{last},
	}
}

// VariadicTag declares a block tag with any number of equivalent middle and
// terminal delimiters.
func VariadicTag(middles, lasts []string, fn BlockFunc) *TagDescriptor {
	return &TagDescriptor{
		Kind:    TagBlock,
		Block:   fn,
		Middles: middles,
		Lasts:   lasts,
	}
}

// Raw returns a copy of d with RawArgs set.
func (d *TagDescriptor) Raw() *TagDescriptor {
	c := *d
	c.RawArgs = true

	return &c
}

// IsPure reports whether d describes a pure tag.
func (d *TagDescriptor) IsPure() bool { return d.Kind == TagPure }

// IsMonadic reports whether d describes a self-closing block tag.
func (d *TagDescriptor) IsMonadic() bool {
	return d.Kind == TagBlock && len(d.Middles) == 0 && len(d.Lasts) == 0
}

func (d *TagDescriptor) isMiddle(name string) bool {
	return slices.Contains(d.Middles, name)
}

func (d *TagDescriptor) isLast(name string) bool {
	return slices.Contains(d.Lasts, name)
}
