package cmd

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ardnew/synth/data"
	"github.com/ardnew/synth/lang"
	"github.com/ardnew/synth/library"
	"github.com/ardnew/synth/log"
	"github.com/ardnew/synth/store"
)

// defaultDirMode is the permission mode of a created store directory.
const defaultDirMode os.FileMode = 0o700

// dataFlags build the render context.
type dataFlags struct {
	Data []string `help:"Data file for the render context (.yaml .yml .json .toml .env)" placeholder:"FILE"      sep:"none" short:"d" type:"existingfile"`
	Set  []string `help:"Set a context value; dotted keys nest"                            placeholder:"KEY=VALUE" sep:"none" short:"s"`
}

// context loads every data file in order, merging each over the last, then
// applies the assignments.
func (f dataFlags) context(ctx context.Context) (lang.Context, error) {
	out := lang.Context{}

	for _, path := range uniqueFiles(f.Data) {
		c, err := data.Load(path)
		if err != nil {
			return nil, err
		}

		log.DebugContext(ctx, "data loaded",
			slog.String("path", path),
			slog.Int("names", len(c)),
		)

		data.Merge(out, c)
	}

	for _, s := range f.Set {
		if err := data.Assign(out, s); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// storeFlags locate the library store.
type storeFlags struct {
	DB string `default:"${store}" help:"Library store database" placeholder:"FILE" type:"path"`
}

// open opens the store. A missing database is created only if create is set;
// otherwise open returns a nil store and no error.
func (f storeFlags) open(ctx context.Context, create bool) (*store.Store, error) {
	if f.DB == "" {
		return nil, nil
	}

	if _, err := os.Stat(f.DB); errors.Is(err, fs.ErrNotExist) {
		if !create {
			return nil, nil
		}

		if err := os.MkdirAll(filepath.Dir(f.DB), defaultDirMode); err != nil {
			return nil, store.ErrOpen.Wrap(err).With(slog.String("dsn", f.DB))
		}
	}

	return store.Open(ctx, f.DB, store.WithLogger(log.Default()))
}

// engineFlags configure parsing and rendering.
type engineFlags struct {
	Load     []string `help:"Preload libraries as if by a leading load tag"      placeholder:"LIB"`
	Builtins bool     `default:"true"                                            help:"Put the builtin library in scope" negatable:""`
	MaxDepth int      `default:"${maxDepth}"                                     help:"Bound on block nesting"`
}

// options returns the engine options resolving the standard libraries and,
// when st is not nil, the stored libraries.
func (f engineFlags) options(st *store.Store) []lang.Option {
	opts := []lang.Option{
		lang.WithBuiltins(f.Builtins),
		lang.WithMaxDepth(f.MaxDepth),
		lang.WithLogger(log.Default().Component("lang")),
	}

	opts = append(opts, library.Options()...)

	if st != nil {
		opts = append(opts, st.Options()...)
	}

	if len(f.Load) > 0 {
		opts = append(opts, lang.WithPreload(f.Load...))
	}

	return opts
}
