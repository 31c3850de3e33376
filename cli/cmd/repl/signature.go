package repl

import (
	"strings"

	"github.com/ardnew/synth/lang"
)

// signature describes the delimiter structure of a tag, for example
// "if … elif … else … endif" or "now args".
func signature(name string, desc *lang.TagDescriptor) string {
	if desc == nil {
		return ""
	}

	if desc.IsPure() {
		return name + " args"
	}

	parts := []string{name}

	if desc.RawArgs {
		parts[0] += " words"
	}

	for _, m := range desc.Middles {
		parts = append(parts, "["+m+"]")
	}

	if len(desc.Lasts) > 0 {
		parts = append(parts, strings.Join(desc.Lasts, "|"))
	}

	return strings.Join(parts, " … ")
}

// currentTag returns the name of the tag whose markup encloses the cursor,
// once its name has been typed in full.
func currentTag(input string, cursor int) string {
	marker, open := openMarker(input, min(cursor, len(input)))
	if marker != "{%" {
		return ""
	}

	inner := strings.TrimLeft(input[open+2:min(cursor, len(input))], "-")

	fields := strings.Fields(inner)
	if len(fields) == 0 {
		return ""
	}

	// The name is complete once something follows it.
	if len(fields) == 1 && !strings.HasSuffix(inner, " ") {
		return ""
	}

	return fields[0]
}
