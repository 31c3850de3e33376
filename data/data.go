package data

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/ardnew/synth/lang"
)

// Format identifies a data encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatEnv  Format = "env"
)

// Formats returns the supported formats.
func Formats() []Format { return []Format{FormatYAML, FormatJSON, FormatTOML, FormatEnv} }

// ParseFormat returns the format called name, ignoring case and a leading
// dot so that file extensions are accepted.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "yaml", "yml":
		return FormatYAML, nil

	case "json":
		return FormatJSON, nil

	case "toml":
		return FormatTOML, nil

	case "env", "dotenv":
		return FormatEnv, nil
	}

	return "", ErrUnknownFormat.With(slog.String("format", name))
}

// Load reads and decodes the file at path, choosing the format from its
// extension.
func Load(path string) (lang.Context, error) {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return nil, ErrUnknownFormat.With(slog.String("path", path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, ErrReadFile.Wrap(err).With(slog.String("path", path))
	}
	defer func() { _ = f.Close() }()

	ctx, err := Decode(format, f)
	if err != nil {
		var le *lang.Error
		if errors.As(err, &le) {
			return nil, le.With(slog.String("path", path))
		}

		return nil, err
	}

	return ctx, nil
}

// Decode reads a document in the given format whose top level is a mapping.
// An empty document is an empty context.
func Decode(format Format, r io.Reader) (lang.Context, error) {
	v, err := DecodeValue(format, r)
	if err != nil {
		return nil, err
	}

	if v.IsUndefined() {
		return lang.Context{}, nil
	}

	m, ok := v.AsMap()
	if !ok {
		return nil, ErrNotMapping.With(
			slog.String("format", string(format)),
			slog.String("kind", v.Kind().String()),
		)
	}

	return lang.Context(m), nil
}

// DecodeValue reads a single document of any shape. It returns
// [lang.Undefined] for an empty document.
func DecodeValue(format Format, r io.Reader) (lang.Value, error) {
	var (
		out any
		err error
	)

	switch format {
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&out)

	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.UseNumber()

		if err = dec.Decode(&out); err == nil {
			out = numbers(out)
		}

	case FormatTOML:
		var m map[string]any

		_, err = toml.NewDecoder(r).Decode(&m)
		out = m

	case FormatEnv:
		var m map[string]string

		if m, err = godotenv.Parse(r); err == nil {
			env := make(map[string]any, len(m))
			for k, v := range m {
				env[k] = v
			}

			out = env
		}

	default:
		return lang.Undefined, ErrUnknownFormat.With(slog.String("format", string(format)))
	}

	if errors.Is(err, io.EOF) {
		return lang.Undefined, nil
	}

	if err != nil {
		return lang.Undefined, ErrDecode.Wrap(err).With(slog.String("format", string(format)))
	}

	return lang.FromNative(out), nil
}

// numbers replaces each json.Number in decoded JSON with an int64 when the
// number is integral and a float64 otherwise.
func numbers(x any) any {
	switch t := x.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}

		f, _ := t.Float64()

		return f

	case map[string]any:
		for k, e := range t {
			t[k] = numbers(e)
		}

	case []any:
		for i, e := range t {
			t[i] = numbers(e)
		}
	}

	return x
}
