package lang

import "sync"

// BuiltinsName is the name of the library in scope by default.
const BuiltinsName = "builtins"

// Builtins returns the library of general-purpose tags and filters that is
// in scope at the start of every template unless disabled with
// [WithBuiltins].
func Builtins() *Library { return builtins() }

var builtins = sync.OnceValue(func() *Library {
	return MustLibrary(BuiltinsName,
		WithTag("if", VariadicTag([]string{"elif", "else"}, []string{"endif"}, tagIf).Raw()),
		WithTag("ifequal", TriadicTag("else", "endifequal", tagIfEqual(true))),
		WithTag("ifnotequal", TriadicTag("else", "endifnotequal", tagIfEqual(false))),
		WithTag("for", TriadicTag("empty", "endfor", tagFor).Raw()),
		WithTag("with", DyadicTag("endwith", tagWith)),
		WithTag("filter", DyadicTag("endfilter", tagFilter).Raw()),
		WithTag("comment", DyadicTag("endcomment", tagComment).Raw()),
		WithTag("spaceless", DyadicTag("endspaceless", tagSpaceless)),
		WithTag("set", MonadicTag(tagSet).Raw()),
		WithTag("unset", MonadicTag(tagUnset).Raw()),
		WithTag("firstof", PureTag(tagFirstOf)),
		WithTag("widthratio", PureTag(tagWidthRatio)),
		WithTag("now", PureTag(tagNow)),

		WithFilter("upper", filterUpper),
		WithFilter("lower", filterLower),
		WithFilter("title", filterTitle),
		WithFilter("capfirst", filterCapFirst),
		WithFilter("length", filterLength),
		WithFilter("first", filterFirst),
		WithFilter("last", filterLast),
		WithFilter("join", filterJoin),
		WithFilter("default", filterDefault),
		WithFilter("escape", filterEscape),
		WithFilter("safe", filterSafe),
		WithFilter("cut", filterCut),
		WithFilter("add", filterAdd),
		WithFilter("trim", filterTrim),
		WithFilter("wordcount", filterWordCount),
		WithFilter("reverse", filterReverse),
	)
})
