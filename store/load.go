package store

import (
	"context"
	"log/slog"

	"github.com/ardnew/synth/lang"
	"github.com/ardnew/synth/library"
)

// Load builds the stored library called name. It returns nil without an
// error when the store holds no such library.
func (s *Store) Load(ctx context.Context, name string) (*lang.Library, error) {
	defs, err := s.Definitions(ctx, name)
	if err != nil {
		return nil, err
	}

	if len(defs) == 0 {
		return nil, nil
	}

	opts := make([]lang.LibraryOption, 0, len(defs))

	for _, d := range defs {
		switch d.Kind {
		case KindTag:
			opts = append(opts, lang.WithTag(d.Name, lang.PureTag(exprTag(d.Source))))

		case KindFilter:
			opts = append(opts, lang.WithFilter(d.Name, exprFilter(d.Source)))
		}
	}

	lib, err := lang.NewLibrary(name, opts...)
	if err != nil {
		return nil, err
	}

	s.logger.TraceContext(ctx, "library loaded",
		slog.String("library", name),
		slog.Int("definitions", len(defs)),
	)

	return lib, nil
}

// Loader resolves the stored libraries. A query failure is reported as an
// error; an unknown name is left for the next loader.
func (s *Store) Loader() lang.LoaderFunc { return s.Load }

// Catalog lists the stored libraries for suggestions.
func (s *Store) Catalog() lang.CatalogFunc {
	return func(ctx context.Context) []string {
		names, err := s.Libraries(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "list libraries", slog.Any("error", err))

			return nil
		}

		return names
	}
}

// Options makes the stored libraries resolvable by a template.
func (s *Store) Options() []lang.Option {
	return []lang.Option{lang.WithLoaders(s.Loader()), lang.WithCatalogs(s.Catalog())}
}

func natives(vs []lang.Value) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v.Native()
	}

	return out
}

func exprTag(src string) func([]lang.Value) (lang.Value, error) {
	return func(args []lang.Value) (lang.Value, error) {
		return library.Eval(src, map[string]any{"args": natives(args)})
	}
}

func exprFilter(src string) lang.FilterFunc {
	return func(v lang.Value, args ...lang.Value) (lang.Value, error) {
		return library.Eval(src, map[string]any{
			"value": v.Native(),
			"args":  natives(args),
		})
	}
}
