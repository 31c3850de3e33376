package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
	"github.com/natefinch/atomic"

	"github.com/ardnew/synth/log"
	"github.com/ardnew/synth/profile"
)

// Init generates a configuration file holding the current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)
	if ktx == nil {
		panic("internal error: kong context undefined")
	}

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	b, err := yaml.Marshal(configValues(ktx))
	if err != nil {
		return ErrYAMLMarshal.With(slog.String("file", confPath)).Wrap(err)
	}

	if err := os.MkdirAll(filepath.Dir(confPath), defaultDirMode); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	if err := atomic.WriteFile(confPath, bytes.NewReader(b)); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// configValues returns the flags of every command and their current values
// in declaration order. Flags of the running command are left out, as are
// help, version, profiling and unset flags. A flag shared by several
// commands appears once.
func configValues(ktx *kong.Context) yaml.MapSlice {
	ignore := []string{"help", "version", profile.Tag}

	var (
		out  yaml.MapSlice
		seen = map[string]bool{}
	)

	for _, flag := range modelFlags(ktx.Model.Node, ktx.Selected()) {
		if flag.Hidden || seen[flag.Name] || slices.ContainsFunc(ignore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		seen[flag.Name] = true

		if v, ok := configValue(ktx.FlagValue(flag)); ok {
			out = append(out, yaml.MapItem{Key: flag.Name, Value: v})
		}
	}

	return out
}

// modelFlags returns the flags of node and its descendants, except those of
// skip.
func modelFlags(node, skip *kong.Node) []*kong.Flag {
	var flags []*kong.Flag

	if node != skip {
		flags = append(flags, node.Flags...)
	}

	for _, child := range node.Children {
		flags = append(flags, modelFlags(child, skip)...)
	}

	return flags
}

func configValue(val any) (any, bool) {
	switch v := val.(type) {
	case nil:
		return nil, false

	case bool:
		return v, true

	case string:
		return v, v != ""

	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v, true

	case []string:
		return v, len(v) > 0

	case fmt.Stringer:
		return v.String(), true

	default:
		return fmt.Sprint(v), true
	}
}
