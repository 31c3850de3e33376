// Package lang implements a Django-style template engine whose tag and filter
// vocabulary is supplied by named, pluggable libraries.
//
// # Syntax
//
//	{{ expr }}               variable substitution
//	{{ expr|filter }}        filtered substitution (chains apply left to right)
//	{{ expr|filter:arg }}    filter with one argument
//	{% tag arg1 arg2 %}      tag invocation
//	{% load a b from lib %}  bind tags/filters a and b of library lib
//	{% load lib1 lib2 %}     bind every tag and filter of each library
//	{# comment #}            discarded at parse time
//
// Expressions are literals ('text', "text", 42, 1.5, True, False, None) or
// dotted name paths (user.name, items.0) looked up in the [Context]. Looking
// up a name that does not exist yields [Undefined], which renders as the empty
// string. It is never an error.
//
// # Tags
//
// A [TagDescriptor] declares how a tag is parsed:
//
//   - Pure tags receive evaluated arguments and return a [Value]. They have no
//     body: {% add 1 2 3 %}.
//   - Block tags open a body that is closed by one of the tag's terminal
//     delimiters and may be split by any number of its middle delimiters:
//     {% unless x %}A{% otherwise %}B{% endunless %}.
//
// Each span between two delimiters of the same block is a [Segment]. The
// renderer never renders a segment on its own; the tag's [BlockFunc] decides
// which segments to render and how often. An unchosen branch therefore never
// runs, including any side effects of tags nested inside it.
//
// # Libraries
//
// Libraries are resolved while parsing through the [LoaderFunc] chain given
// with [WithLoaders]. A load directive takes effect from its position in the
// source onward. The "builtins" library (if, for, with, filter, set, upper,
// lower, ...) is active from the start unless disabled with [WithBuiltins].
//
// # Example
//
//	data := lang.Context{"name": lang.Str("world")}
//	out, err := lang.Render(ctx, "Hello, {{ name|title }}!", data)
//	// out == "Hello, World!"
package lang
