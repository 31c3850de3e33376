package cli

import (
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func flag(name string) *kong.Flag {
	return &kong.Flag{Value: &kong.Value{Name: name}}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		decode decoder
		doc    string
		want   map[string]any
	}{
		{
			name:   "yaml flat",
			decode: decodeYAML,
			doc:    "log-level: debug\nmax-depth: 20\nbuiltins: false\n",
			want:   map[string]any{"log-level": "debug", "max-depth": "20", "builtins": false},
		},
		{
			name:   "yaml nested",
			decode: decodeYAML,
			doc:    "log:\n  level: trace\n  pretty: false\n",
			want:   map[string]any{"log-level": "trace", "log-pretty": false},
		},
		{
			name:   "yaml underscores",
			decode: decodeYAML,
			doc:    "log_format: json\n",
			want:   map[string]any{"log-format": "json"},
		},
		{
			name:   "toml",
			decode: decodeTOML,
			doc:    "db = \"/tmp/x.db\"\n[log]\nlevel = \"info\"\n",
			want:   map[string]any{"db": "/tmp/x.db", "log-level": "info"},
		},
		{
			name:   "empty yaml",
			decode: decodeYAML,
			doc:    "",
			want:   map[string]any{"log-level": nil},
		},
		{
			name:   "malformed yaml is ignored",
			decode: decodeYAML,
			doc:    "log: [unclosed\n",
			want:   map[string]any{"log": nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := resolve(tt.decode)(strings.NewReader(tt.doc))
			if err != nil {
				t.Fatal(err)
			}

			for name, want := range tt.want {
				got, err := r.Resolve(nil, nil, flag(name))
				if err != nil {
					t.Fatal(err)
				}

				if got != want {
					t.Errorf("Resolve(%s) = %v (%T), want %v (%T)", name, got, got, want, want)
				}
			}
		})
	}
}

func TestResolve_Sequences(t *testing.T) {
	r, err := resolve(decodeYAML)(strings.NewReader("load: [serial, 2]\n"))
	if err != nil {
		t.Fatal(err)
	}

	got, _ := r.Resolve(nil, nil, flag("load"))

	items, ok := got.([]any)
	if !ok || len(items) != 2 || items[0] != "serial" || items[1] != "2" {
		t.Errorf("Resolve(load) = %#v", got)
	}
}

func TestLogConfig_Scan(t *testing.T) {
	var f logConfig

	f.scan([]string{"render", "--log-level", "debug", "--no-log-pretty", "--log-caller=true", "--log-format=json", "x.tmpl"})

	if f.Level != "debug" || f.Format != "json" || f.Pretty || !f.Caller {
		t.Errorf("scan = %+v", f)
	}

	var g logConfig

	g.scan([]string{"--", "--log-level", "debug"})

	if g.Level != "" {
		t.Errorf("scan past -- = %+v", g)
	}
}
