package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/ardnew/synth/lang"
)

type testCLI struct {
	Render Render `cmd:"" default:"withargs"`
	Tree   Tree   `cmd:""`
	Libs   Libs   `cmd:""`
	Lib    Lib    `cmd:""`
	Init   Init   `cmd:""`
}

type testEnv struct {
	dir    string
	config string
	store  string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	dir := t.TempDir()

	return testEnv{
		dir:    dir,
		config: filepath.Join(dir, "config", "config.yaml"),
		store:  filepath.Join(dir, "data", "libraries.db"),
	}
}

// file writes content to name under the test directory and returns its path.
func (e testEnv) file(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

// run parses args and runs the selected command, returning what it wrote.
func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var (
		cli testCLI
		out bytes.Buffer
	)

	parser, err := kong.New(&cli,
		kong.Writers(&out, &out),
		Vars(e.config, filepath.Join(e.dir, "cache"), e.store),
	)
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", args, err)
	}

	ctx := WithContext(t.Context(), ktx)
	ktx.BindTo(ctx, (*context.Context)(nil))

	err = ktx.Run()

	return out.String(), err
}

func (e testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()

	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("run %q error: %v", args, err)
	}

	return out
}

func TestUniqueFiles(t *testing.T) {
	dir := t.TempDir()

	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	link := filepath.Join(dir, "link.yaml")

	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	if err := os.Symlink(a, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	t.Chdir(dir)

	missing := filepath.Join(dir, "missing.yaml")

	got := uniqueFiles([]string{a, b, "a.yaml", link, missing, missing, a})
	want := []string{a, b, missing, missing}

	if !slices.Equal(got, want) {
		t.Errorf("uniqueFiles() = %q, want %q", got, want)
	}
}

func TestReadSource(t *testing.T) {
	env := newTestEnv(t)
	path := env.file(t, "t.tmpl", "{{ x }}")

	got, err := readSource(path)
	if err != nil {
		t.Fatal(err)
	}

	if got != "{{ x }}" {
		t.Errorf("readSource() = %q", got)
	}

	if _, err := readSource(filepath.Join(env.dir, "nope")); !errors.Is(err, ErrReadTemplate) {
		t.Errorf("expected ErrReadTemplate, got %v", err)
	}
}

func TestRender(t *testing.T) {
	env := newTestEnv(t)

	tmpl := env.file(t, "hello.tmpl", "{{ greeting|capfirst }}, {{ user.name|upper }}!{% if debug %} [debug]{% endif %}")
	data := env.file(t, "data.yaml", "greeting: hello\nuser:\n  name: ada\n")
	over := env.file(t, "over.json", `{"user": {"name": "grace"}}`)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"data file", []string{"render", tmpl, "-d", data}, "Hello, ADA!"},
		{"default command", []string{tmpl, "-d", data}, "Hello, ADA!"},
		{"later file wins", []string{"render", tmpl, "-d", data, "-d", over}, "Hello, GRACE!"},
		{"set", []string{"render", tmpl, "-d", data, "-s", "debug=true", "-s", "user.name=linus"}, "Hello, LINUS! [debug]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := env.mustRun(t, tt.args...); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_Output(t *testing.T) {
	env := newTestEnv(t)

	tmpl := env.file(t, "t.tmpl", "{{ 'x'|upper }}")
	dest := filepath.Join(env.dir, "out.txt")

	if out := env.mustRun(t, "render", tmpl, "-o", dest); out != "" {
		t.Errorf("stdout = %q, want nothing", out)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}

	if string(got) != "X" {
		t.Errorf("output file = %q", got)
	}
}

func TestRender_ErrorCarriesSource(t *testing.T) {
	env := newTestEnv(t)
	tmpl := env.file(t, "bad.tmpl", "ok\n{{ x|nope }}\n")

	_, err := env.run(t, "render", tmpl)
	if !errors.Is(err, lang.ErrFilterNotFound) {
		t.Fatalf("expected ErrFilterNotFound, got %v", err)
	}

	var le *lang.Error
	if !errors.As(err, &le) {
		t.Fatal("expected *lang.Error")
	}

	if v, _ := le.Attr("template"); v.String() != tmpl {
		t.Errorf("template attr = %q", v.String())
	}

	if v, _ := le.Attr("source"); !strings.Contains(v.String(), "{{ x|nope }}") {
		t.Errorf("source attr = %q", v.String())
	}
}

func TestRender_EngineFlags(t *testing.T) {
	env := newTestEnv(t)

	tmpl := env.file(t, "t.tmpl", "{% if True %}{% if True %}y{% endif %}{% endif %}")

	if _, err := env.run(t, "render", tmpl, "--no-builtins"); !errors.Is(err, lang.ErrTagNotFound) {
		t.Errorf("--no-builtins: expected ErrTagNotFound, got %v", err)
	}

	if _, err := env.run(t, "render", tmpl, "--max-depth", "1"); !errors.Is(err, lang.ErrMaxDepthExceeded) {
		t.Errorf("--max-depth 1: expected ErrMaxDepthExceeded, got %v", err)
	}

	if got := env.mustRun(t, "render", tmpl, "--max-depth", "2"); got != "y" {
		t.Errorf("--max-depth 2: got %q", got)
	}
}

func TestTree(t *testing.T) {
	env := newTestEnv(t)
	tmpl := env.file(t, "t.tmpl", "a{% if x %}{{ y }}{% endif %}")

	out := env.mustRun(t, "tree", tmpl)

	for _, want := range []string{"libraries [builtins]", `text "a"`, "block if", "variable y"} {
		if !strings.Contains(out, want) {
			t.Errorf("tree output missing %q:\n%s", want, out)
		}
	}
}

func TestTree_Formats(t *testing.T) {
	env := newTestEnv(t)
	tmpl := env.file(t, "t.tmpl", "{{ y }}")

	if out := env.mustRun(t, "tree", tmpl, "--format", "json"); !strings.Contains(out, `"kind": "variable"`) {
		t.Errorf("json tree:\n%s", out)
	}

	if out := env.mustRun(t, "tree", tmpl, "-f", "yaml"); !strings.Contains(out, "kind: variable") {
		t.Errorf("yaml tree:\n%s", out)
	}
}

func TestLibs(t *testing.T) {
	env := newTestEnv(t)

	names := strings.Fields(env.mustRun(t, "libs", "--names"))
	if len(names) == 0 || names[0] != lang.BuiltinsName {
		t.Fatalf("libs --names = %q", names)
	}

	out := env.mustRun(t, "libs")
	if !strings.Contains(out, "filters:") || !strings.Contains(out, "(builtin)") {
		t.Errorf("libs output:\n%s", out)
	}
}

func TestLib_Workflow(t *testing.T) {
	env := newTestEnv(t)

	env.mustRun(t, "lib", "define", "math", "double", "value * 2", "--doc", "twice the value")
	env.mustRun(t, "lib", "define", "math", "sum2", "args[0] + args[1]", "--kind", "tag")

	tmpl := env.file(t, "t.tmpl", "{% load math %}{{ 21|double }} {% sum2 40 2 %}")

	if got := env.mustRun(t, "render", tmpl); got != "42 42" {
		t.Errorf("render = %q", got)
	}

	if got := env.mustRun(t, "lib", "list"); got != "math\n" {
		t.Errorf("lib list = %q", got)
	}

	listing := env.mustRun(t, "lib", "list", "math")
	for _, want := range []string{"filter double", "tag    sum2", "# twice the value"} {
		if !strings.Contains(listing, want) {
			t.Errorf("lib list math missing %q:\n%s", want, listing)
		}
	}

	if got := env.mustRun(t, "lib", "list", "math", "--yaml"); !strings.Contains(got, "source: value * 2") {
		t.Errorf("lib list --yaml:\n%s", got)
	}

	if names := env.mustRun(t, "libs", "--names"); !strings.Contains(names, "math") {
		t.Errorf("libs --names missing math: %q", names)
	}

	env.mustRun(t, "lib", "remove", "math", "double")

	if _, err := env.run(t, "render", tmpl); !errors.Is(err, lang.ErrFilterNotFound) {
		t.Errorf("expected ErrFilterNotFound after remove, got %v", err)
	}

	env.mustRun(t, "lib", "remove", "math")

	if got := env.mustRun(t, "lib", "list"); got != "" {
		t.Errorf("lib list after remove = %q", got)
	}
}

func TestLib_DefineRejectsBadSource(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.run(t, "lib", "define", "math", "bad", "value +"); err == nil {
		t.Fatal("expected error for invalid expression")
	}
}

func TestLib_RemoveWithoutStore(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.run(t, "lib", "remove", "math"); !errors.Is(err, ErrNoStore) {
		t.Errorf("expected ErrNoStore, got %v", err)
	}

	if out := env.mustRun(t, "lib", "list"); out != "" {
		t.Errorf("lib list without store = %q", out)
	}
}
