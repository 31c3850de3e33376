// Package cmd implements the synth subcommands: render, tree, libs, lib,
// repl, and init.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the YAML configuration file.
	ConfigIdentifier = "config"

	// StoreIdentifier is the kong variable identifier containing the path to
	// the default library store.
	StoreIdentifier = "store"
)
