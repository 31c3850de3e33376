package cli

import (
	"context"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/ardnew/synth/cli/cmd"
	"github.com/ardnew/synth/pkg"
)

// CLI is the top-level command-line interface for synth.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version kong.VersionFlag `help:"Print version and exit" short:"V"`

	Render cmd.Render `cmd:"" default:"withargs" help:"Render a template"`
	Tree   cmd.Tree   `cmd:""                    help:"Print the parse tree of a template"`
	Libs   cmd.Libs   `cmd:""                    help:"List the libraries a template can load"`
	Lib    cmd.Lib    `cmd:""                    help:"Manage the library store"`
	Repl   cmd.Repl   `cmd:""                    help:"Render templates interactively"`
	Init   cmd.Init   `cmd:""                    help:"Initialize configuration file"`
}

// Run executes the synth CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := mkdirAllRequired(); err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	vars := cmd.Vars(configFilePath, cacheDir(), storePath()).
		CloneWith(kong.Vars{"version": pkg.Name + " " + pkg.Version}).
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Logger flags are applied before parsing so that they affect messages
	// emitted while parsing, wherever they appear on the command line.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFilePath+".json"),
		kong.Configuration(resolve(decodeTOML), configPath(baseConfig+".toml")),
		kong.Configuration(resolve(decodeYAML), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ktx.BindTo(ctx, (*context.Context)(nil))

	cli.Log.start(ctx)

	// No-op unless built with tag pprof and a mode is selected.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(&cli)
}

// storePath returns the default location of the library store.
func storePath() string {
	return filepath.Join(pkg.DataDir(), "libraries.db")
}
