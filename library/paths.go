package library

import (
	"os"
	"path/filepath"

	"github.com/ardnew/mung"

	"github.com/ardnew/synth/lang"
)

// PathsName is the name of the library of path and path-list helpers.
const PathsName = "paths"

func paths() (*lang.Library, error) {
	return lang.NewLibrary(PathsName,
		lang.WithTag("pathprefix", lang.PureTag(pathPrefix(always))),
		lang.WithTag("pathprefixexisting", lang.PureTag(pathPrefix(exists))),
		lang.WithFilter("basename", pathFilter(filepath.Base)),
		lang.WithFilter("dirname", pathFilter(filepath.Dir)),
		lang.WithFilter("ext", pathFilter(filepath.Ext)),
		lang.WithFilter("clean", pathFilter(filepath.Clean)),
	)
}

// pathPrefix returns a tag that prepends its remaining arguments to the
// path list given as the first argument, dropping duplicates and every item
// that keep rejects.
func pathPrefix(keep func(string) bool) lang.PureFunc {
	return func(args []lang.Value) (lang.Value, error) {
		if err := lang.Arity("pathprefix", args, 1, -1); err != nil {
			return lang.Undefined, err
		}

		prefix := make([]string, 0, len(args)-1)
		for _, a := range args[1:] {
			prefix = append(prefix, a.String())
		}

		return lang.Str(mung.Make(
			mung.WithSubjectItems(args[0].String()),
			mung.WithDelim(string(os.PathListSeparator)),
			mung.WithPrefixItems(prefix...),
			mung.WithFilter(keep),
		).String()), nil
	}
}

func always(string) bool { return true }

func exists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}

func pathFilter(fn func(string) string) lang.FilterFunc {
	return func(v lang.Value, _ ...lang.Value) (lang.Value, error) {
		if v.IsUndefined() {
			return v, nil
		}

		return lang.Str(fn(v.String())), nil
	}
}
