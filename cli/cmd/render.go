package cmd

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/ardnew/synth/lang"
	"github.com/ardnew/synth/log"
)

// Render renders a template.
type Render struct {
	Template string `arg:"" default:"-" help:"Template file or '-' for stdin" optional:""`
	Output   string `                   help:"Write output to a file, replaced atomically" placeholder:"FILE" short:"o" type:"path"`

	Data   dataFlags   `embed:""`
	Store  storeFlags  `embed:""`
	Engine engineFlags `embed:""`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	src, err := readSource(r.Template)
	if err != nil {
		return err
	}

	vars, err := r.Data.context(ctx)
	if err != nil {
		return err
	}

	st, err := r.Store.open(ctx, false)
	if err != nil {
		return err
	}

	if st != nil {
		defer func() { _ = st.Close() }()
	}

	tmpl, err := lang.Parse(ctx, src, r.Engine.options(st)...)
	if err != nil {
		return describe(err, src, r.Template)
	}

	out, err := tmpl.Render(ctx, vars)
	if err != nil {
		return describe(err, src, r.Template)
	}

	if r.Output == "" {
		_, err = stdout(ctx).Write([]byte(out))

		return err
	}

	if err := atomic.WriteFile(r.Output, strings.NewReader(out)); err != nil {
		return ErrWriteOutput.Wrap(err).With(slog.String("path", r.Output))
	}

	log.DebugContext(ctx, "output written",
		slog.String("path", r.Output),
		slog.Int("bytes", len(out)),
	)

	return nil
}

// describe attaches the template name and the offending source line to a
// positioned engine error.
func describe(err error, src, name string) error {
	var le *lang.Error
	if !errors.As(err, &le) || !le.Position().IsValid() {
		return err
	}

	return le.With(
		slog.String("template", name),
		slog.String("source", strings.TrimRight(le.Snippet(src), "\n")),
	)
}
