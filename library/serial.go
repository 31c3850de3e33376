package library

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/synth/data"
	"github.com/ardnew/synth/lang"
)

// SerialName is the name of the library of serialization filters.
const SerialName = "serial"

func serial() (*lang.Library, error) {
	return lang.NewLibrary(SerialName,
		lang.WithFilter("json", encodeJSON),
		lang.WithFilter("yaml", encodeYAML),
		lang.WithFilter("toml", encodeTOML),
		lang.WithFilter("fromjson", decodeJSON),
		lang.WithFilter("fromyaml", decodeYAML),
	)
}

func serialError(filter string, err error) error {
	return lang.ErrEvaluation.Wrap(err).With(slog.String("filter", filter))
}

// encodeJSON renders v as compact JSON, or indented by the number of spaces
// given as the argument, up to maxIndent.
func encodeJSON(v lang.Value, args ...lang.Value) (lang.Value, error) {
	var (
		b   []byte
		err error
	)

	if n, ok := indent(args); ok {
		b, err = json.MarshalIndent(v.Native(), "", strings.Repeat(" ", n))
	} else {
		b, err = json.Marshal(v.Native())
	}

	if err != nil {
		return lang.Undefined, serialError("json", err)
	}

	return lang.Str(string(b)), nil
}

func encodeYAML(v lang.Value, _ ...lang.Value) (lang.Value, error) {
	b, err := yaml.Marshal(v.Native())
	if err != nil {
		return lang.Undefined, serialError("yaml", err)
	}

	return lang.Str(strings.TrimSuffix(string(b), "\n")), nil
}

// encodeTOML renders a mapping as a TOML document.
func encodeTOML(v lang.Value, _ ...lang.Value) (lang.Value, error) {
	if v.Kind() != lang.KindMapping {
		return lang.Undefined, lang.ErrEvaluation.With(
			slog.String("filter", "toml"),
			slog.String("reason", "only a mapping can be a TOML document"),
			slog.String("kind", v.Kind().String()),
		)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(v.Native()); err != nil {
		return lang.Undefined, serialError("toml", err)
	}

	return lang.Str(strings.TrimSuffix(buf.String(), "\n")), nil
}

func decodeJSON(v lang.Value, _ ...lang.Value) (lang.Value, error) {
	out, err := data.DecodeValue(data.FormatJSON, strings.NewReader(v.String()))
	if err != nil {
		return lang.Undefined, serialError("fromjson", err)
	}

	return out, nil
}

func decodeYAML(v lang.Value, _ ...lang.Value) (lang.Value, error) {
	out, err := data.DecodeValue(data.FormatYAML, strings.NewReader(v.String()))
	if err != nil {
		return lang.Undefined, serialError("fromyaml", err)
	}

	return out, nil
}

// maxIndent bounds the indentation width accepted by the json filter.
const maxIndent = 16

func indent(args []lang.Value) (int, bool) {
	if len(args) == 0 {
		return 0, false
	}

	n, ok := lang.ToInt(args[0])

	return int(min(max(n, 0), maxIndent)), ok && n > 0
}
