package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/synth/cli/cmd/repl"
	"github.com/ardnew/synth/lang"
	"github.com/ardnew/synth/library"
	"github.com/ardnew/synth/log"
)

// Repl starts an interactive template session.
type Repl struct {
	History bool `default:"true" help:"Keep line history in the cache directory" negatable:""`

	Data   dataFlags   `embed:""`
	Store  storeFlags  `embed:""`
	Engine engineFlags `embed:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	vars, err := r.Data.context(ctx)
	if err != nil {
		return err
	}

	st, err := r.Store.open(ctx, false)
	if err != nil {
		return err
	}

	libs := append([]string{lang.BuiltinsName}, library.Names()...)

	if st != nil {
		defer func() { _ = st.Close() }()

		stored, err := st.Libraries(ctx)
		if err != nil {
			return err
		}

		libs = append(libs, stored...)
	}

	var cacheDir string

	if r.History {
		cacheDir = kongVar(ctx, CacheIdentifier)
		if cacheDir != "" {
			if err := os.MkdirAll(cacheDir, defaultDirMode); err != nil {
				log.WarnContext(ctx, "history disabled",
					slog.String("cache_dir", cacheDir),
					slog.Any("error", err),
				)

				cacheDir = ""
			}
		}
	}

	return repl.Run(ctx, repl.Config{
		Data:      vars,
		Options:   r.Engine.options(st),
		Libraries: libs,
		CacheDir:  cacheDir,
		Logger:    log.Default(),
	})
}
