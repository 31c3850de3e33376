package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/synth/log"
	"github.com/ardnew/synth/store"
)

// Lib manages the libraries kept in the library store.
type Lib struct {
	Define LibDefine `cmd:"" help:"Define a tag or filter as an expression"`
	Remove LibRemove `cmd:"" help:"Remove definitions or a whole library"`
	List   LibList   `cmd:"" help:"List stored libraries or the definitions of one"`
}

// LibDefine stores one tag or filter.
type LibDefine struct {
	Library string `arg:"" help:"Library name"`
	Name    string `arg:"" help:"Tag or filter name"`
	Source  string `arg:"" help:"Expression; tags see args, filters see value and args"`
	Kind    string `default:"filter" enum:"tag,filter" help:"Define a tag or a filter" short:"k"`
	Doc     string `help:"One-line description"`

	Store storeFlags `embed:""`
}

// Run executes the lib define command.
func (d *LibDefine) Run(ctx context.Context) error {
	st, err := d.Store.open(ctx, true)
	if err != nil {
		return err
	}

	if st == nil {
		return ErrNoStore.With(slog.String("path", d.Store.DB))
	}
	defer func() { _ = st.Close() }()

	def := store.Definition{
		Library: d.Library,
		Name:    d.Name,
		Kind:    store.Kind(d.Kind),
		Source:  d.Source,
		Doc:     d.Doc,
	}

	if err := st.Define(ctx, def); err != nil {
		return err
	}

	log.InfoContext(ctx, "defined",
		slog.String("library", d.Library),
		slog.String("name", d.Name),
		slog.String("kind", d.Kind),
	)

	return nil
}

// LibRemove deletes definitions.
type LibRemove struct {
	Library string   `arg:"" help:"Library name"`
	Names   []string `arg:"" help:"Names to remove; none removes the library" optional:""`

	Store storeFlags `embed:""`
}

// Run executes the lib remove command.
func (r *LibRemove) Run(ctx context.Context) error {
	st, err := r.Store.open(ctx, false)
	if err != nil {
		return err
	}

	if st == nil {
		return ErrNoStore.With(slog.String("path", r.Store.DB))
	}
	defer func() { _ = st.Close() }()

	n, err := st.Remove(ctx, r.Library, r.Names...)
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "removed",
		slog.String("library", r.Library),
		slog.Int64("definitions", n),
	)

	return nil
}

// LibList prints stored libraries.
type LibList struct {
	Library string `arg:"" help:"Library to describe" optional:""`
	YAML    bool   `help:"Print definitions as YAML" short:"y"`

	Store storeFlags `embed:""`
}

// Run executes the lib list command.
func (l *LibList) Run(ctx context.Context) error {
	st, err := l.Store.open(ctx, false)
	if err != nil || st == nil {
		return err
	}
	defer func() { _ = st.Close() }()

	w := stdout(ctx)

	if l.Library == "" {
		names, err := st.Libraries(ctx)
		if err != nil {
			return err
		}

		for _, name := range names {
			if _, err := fmt.Fprintln(w, name); err != nil {
				return err
			}
		}

		return nil
	}

	defs, err := st.Definitions(ctx, l.Library)
	if err != nil {
		return err
	}

	if l.YAML {
		b, err := yaml.Marshal(defs)
		if err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}

		_, err = w.Write(b)

		return err
	}

	var sb strings.Builder

	for _, d := range defs {
		fmt.Fprintf(&sb, "%-6s %-16s %s\n", d.Kind, d.Name, d.Source)

		if d.Doc != "" {
			fmt.Fprintf(&sb, "%24s# %s\n", "", d.Doc)
		}
	}

	_, err = w.Write([]byte(sb.String()))

	return err
}
