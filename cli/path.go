package cli

import (
	"os"
	"path/filepath"

	"github.com/ardnew/synth/pkg"
)

// baseConfig is the base name of the configuration file.
const baseConfig = "config.yaml"

// defaultDirMode is the default permission mode for created directories.
const defaultDirMode os.FileMode = 0o700

// configDir returns the configuration directory path.
func configDir() string { return pkg.ConfigDir() }

// cacheDir returns the cache directory path used for transient files.
func cacheDir() string { return pkg.CacheDir() }

// configPath returns the path formed by joining the configuration directory
// with the given path elements.
//
// If no elements are given, it is equivalent to calling [configDir].
func configPath(elem ...string) string {
	return filepath.Join(append([]string{configDir()}, elem...)...)
}

// mkdirAllRequired creates all required runtime directories. The data
// directory is created only when a library is first stored.
func mkdirAllRequired() error {
	for _, dir := range []string{configDir(), cacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}
