package cli

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/synth/log"
)

// decoder reads a configuration document into a mapping.
type decoder func(r io.Reader) (map[string]any, error)

func decodeYAML(r io.Reader) (map[string]any, error) {
	var m map[string]any

	err := yaml.NewDecoder(r).Decode(&m)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}

	return m, err
}

func decodeTOML(r io.Reader) (map[string]any, error) {
	var m map[string]any

	_, err := toml.NewDecoder(r).Decode(&m)

	return m, err
}

// resolve returns a [kong.ConfigurationLoader] for documents read by decode.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve(decodeYAML), "/path/to/config.yaml")
//
// Keys name flags. Nested mappings join their keys with a hyphen, so the
// following both set --log-level:
//
//	log-level: debug
//
//	log:
//	  level: debug
//
// Underscores may stand in for hyphens. Command-line flags override
// configured values. A document that cannot be decoded is ignored with a
// warning.
func resolve(decode decoder) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		m, err := decode(r)
		if err != nil {
			log.Warn("ignoring configuration file", slog.Any("error", err))

			return config{}, nil
		}

		cfg := config{}
		cfg.flatten("", m)

		return cfg, nil
	}
}

// config implements [kong.Resolver] over a flat map of flag names.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (c config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if value, ok := c[flag.Name]; ok {
		return value, nil
	}

	if value, ok := c[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	// Not found: kong applies the default.
	return nil, nil
}

func (c config) flatten(prefix string, m map[string]any) {
	for key, v := range m {
		name := key
		if prefix != "" {
			name = prefix + "-" + key
		}

		if sub, ok := v.(map[string]any); ok {
			c.flatten(name, sub)

			continue
		}

		c[name] = scalar(v)
	}
}

// scalar converts decoded numbers to strings, which kong parses like
// command-line input.
func scalar(v any) any {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n)

	case int64:
		return strconv.FormatInt(n, 10)

	case uint64:
		return strconv.FormatUint(n, 10)

	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)

	case []any:
		out := make([]any, len(n))
		for i, e := range n {
			out[i] = scalar(e)
		}

		return out

	default:
		return v
	}
}
