package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/synth/lang"
)

// Tree prints the parsed structure of a template.
type Tree struct {
	Template string `arg:"" default:"-" help:"Template file or '-' for stdin" optional:""`
	Format   string `default:"text" enum:"text,json,yaml" help:"Output format (${enum})" short:"f"`

	Store  storeFlags  `embed:""`
	Engine engineFlags `embed:""`
}

// Run executes the tree command.
func (t *Tree) Run(ctx context.Context) error {
	src, err := readSource(t.Template)
	if err != nil {
		return err
	}

	st, err := t.Store.open(ctx, false)
	if err != nil {
		return err
	}

	if st != nil {
		defer func() { _ = st.Close() }()
	}

	tmpl, err := lang.Parse(ctx, src, t.Engine.options(st)...)
	if err != nil {
		return describe(err, src, t.Template)
	}

	w := stdout(ctx)

	switch t.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(tmpl)

	case "yaml":
		b, err := yaml.Marshal(tmpl.ToMap())
		if err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}

		_, err = w.Write(b)

		return err
	}

	if libs := tmpl.Libraries(); len(libs) > 0 {
		if _, err := fmt.Fprintf(w, "libraries %v\n", libs); err != nil {
			return err
		}
	}

	return tmpl.Dump(w)
}
