package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

var prefixRules = []struct {
	rex *regexp.Regexp
	rep string
}{
	{regexp.MustCompile(`^__debug_bin\d*$`), Name}, // dlv output
	{regexp.MustCompile(`^\.+`), ""},
}

// Prefix is the base name of the running executable, used to name the
// per-user directories. A debugger build is named [Name].
//
//nolint:gochecknoglobals
var Prefix = sync.OnceValue(func() string {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}

	return prefix(exe)
})

func prefix(exe string) string {
	id := filepath.Base(exe)
	id = strings.TrimSuffix(id, filepath.Ext(id))

	for _, r := range prefixRules {
		id = r.rex.ReplaceAllString(id, r.rep)
	}

	if id == "" {
		return Name
	}

	return id
}

// userDir joins the executable prefix to base, or to fallback under the home
// directory when base cannot be determined, or to the working directory as a
// last resort.
func userDir(base func() (string, error), fallback string) string {
	dir, err := base()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, fallback)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, Prefix())
}

// ConfigDir returns the directory holding the configuration file.
//
//nolint:gochecknoglobals
var ConfigDir = sync.OnceValue(func() string {
	return userDir(os.UserConfigDir, ".config")
})

// CacheDir returns the directory for history, profiles, and other
// transient files.
//
//nolint:gochecknoglobals
var CacheDir = sync.OnceValue(func() string {
	return userDir(os.UserCacheDir, ".cache")
})

// DataDir returns the directory holding the default library store.
//
//nolint:gochecknoglobals
var DataDir = sync.OnceValue(func() string {
	return userDir(func() (string, error) {
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return dir, nil
		}

		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}

		return filepath.Join(home, ".local", "share"), nil
	}, filepath.Join(".local", "share"))
})
