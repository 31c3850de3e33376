package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/synth/lang"
	"github.com/ardnew/synth/library"
	"github.com/ardnew/synth/log"
)

// Libs lists the libraries a template can load.
type Libs struct {
	Names bool `help:"Print library names only" short:"n"`

	Store storeFlags `embed:""`
}

type libraryEntry struct {
	origin string
	lib    *lang.Library
}

// Run executes the libs command.
func (l *Libs) Run(ctx context.Context) error {
	entries := []libraryEntry{{"builtin", lang.Builtins()}}

	for _, name := range library.Names() {
		lib, _ := library.Get(name)
		entries = append(entries, libraryEntry{"standard", lib})
	}

	st, err := l.Store.open(ctx, false)
	if err != nil {
		return err
	}

	if st != nil {
		defer func() { _ = st.Close() }()

		names, err := st.Libraries(ctx)
		if err != nil {
			return err
		}

		for _, name := range names {
			lib, err := st.Load(ctx, name)
			if err != nil {
				log.WarnContext(ctx, "skipping stored library",
					slog.String("library", name),
					slog.Any("error", err),
				)

				continue
			}

			entries = append(entries, libraryEntry{"stored", lib})
		}
	}

	w := stdout(ctx)

	if l.Names {
		for _, e := range entries {
			if _, err := fmt.Fprintln(w, e.lib.Name()); err != nil {
				return err
			}
		}

		return nil
	}

	return writeLibraries(w, entries)
}

func writeLibraries(w io.Writer, entries []libraryEntry) error {
	r := lipgloss.NewRenderer(w)
	title := r.NewStyle().Bold(true)
	faint := r.NewStyle().Faint(true)

	var sb strings.Builder

	for i, e := range entries {
		if i > 0 {
			sb.WriteByte('\n')
		}

		sb.WriteString(title.Render(e.lib.Name()) + " " + faint.Render("("+e.origin+")") + "\n")

		if tags := e.lib.TagNames(); len(tags) > 0 {
			sb.WriteString("  tags:    " + strings.Join(tags, " ") + "\n")
		}

		if filters := e.lib.FilterNames(); len(filters) > 0 {
			sb.WriteString("  filters: " + strings.Join(filters, " ") + "\n")
		}
	}

	_, err := io.WriteString(w, sb.String())

	return err
}
