// Package cli contains the command line interface for synth.
//
// # Usage
//
//	synth [flags] <command> [args]
//
// The render command is the default, so
//
//	synth page.tmpl -d site.yaml -s title=Home
//
// renders page.tmpl with the context read from site.yaml, overridden by
// title. Other commands print the parse tree (tree), list loadable libraries
// (libs), manage the library store (lib), start an interactive session
// (repl), and write the current flags to the configuration file (init).
//
// # Configuration
//
// Flag defaults are read from config.yaml in the configuration directory,
// then config.toml and config.yaml.json. Keys name flags; nested mappings
// join their keys with a hyphen. Command-line flags take precedence.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o synth .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: the pprof
//     directory in the cache directory)
package cli
