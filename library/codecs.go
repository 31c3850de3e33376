package library

import (
	"log/slog"

	"github.com/ardnew/synth/lang"
	"github.com/ardnew/synth/lang/codec"
)

// CodecsName is the name of the library of text codecs.
const CodecsName = "codecs"

func codecs() (*lang.Library, error) {
	return lang.NewLibrary(CodecsName,
		lang.WithTag("encode", lang.DyadicTag("endencode", transcodeTag(codec.Encode))),
		lang.WithTag("decode", lang.DyadicTag("enddecode", transcodeTag(codec.Decode))),
		lang.WithFilter("encode", transcodeFilter("encode", codec.Encode)),
		lang.WithFilter("decode", transcodeFilter("decode", codec.Decode)),
		lang.WithFilter("rot13", func(v lang.Value, _ ...lang.Value) (lang.Value, error) {
			out, err := codec.Encode("rot13", v.String())

			return lang.Str(out), err
		}),
	)
}

type transcodeFunc func(name, s string) (string, error)

// transcodeTag renders the body of the block and transcodes it with the
// codec named by the only argument.
func transcodeTag(fn transcodeFunc) lang.BlockFunc {
	return func(inv *lang.Invocation) (lang.Value, error) {
		if err := lang.Arity(inv.Name, inv.Args, 1, 1); err != nil {
			return lang.Undefined, err
		}

		body, err := inv.Segments[0].Render()
		if err != nil {
			return lang.Undefined, err
		}

		out, err := fn(inv.Args[0].String(), body)
		if err != nil {
			return lang.Undefined, inv.Fail(err.Error(),
				slog.String("codec", inv.Args[0].String()))
		}

		return lang.Str(out), nil
	}
}

func transcodeFilter(name string, fn transcodeFunc) lang.FilterFunc {
	return func(v lang.Value, args ...lang.Value) (lang.Value, error) {
		if len(args) != 1 {
			return lang.Undefined, lang.ErrEvaluation.With(
				slog.String("filter", name),
				slog.String("reason", "missing codec name"),
			)
		}

		out, err := fn(args[0].String(), v.String())
		if err != nil {
			return lang.Undefined, lang.ErrEvaluation.Wrap(err).With(
				slog.String("filter", name),
				slog.String("codec", args[0].String()),
			)
		}

		return lang.Str(out), nil
	}
}
