// Package pkg holds the identity of the synth module and the per-user
// directories derived from it.
//
//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of the module, embedded at build time.
var Version = strings.TrimSpace(version)

const (
	// Name is the command name. It also names the configuration and cache
	// directories.
	Name = "synth"
	// Description summarizes the command in help output.
	Description = "Template renderer with pluggable tag and filter libraries"
)

// AuthorInfo is an author's name and email address.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the authors of the project.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
