package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/klauspost/readahead"

	"github.com/ardnew/synth/lang"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// kongVar returns the kong variable called name, or "" outside of a parsed
// command line.
func kongVar(ctx context.Context, name string) string {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ""
	}

	return ktx.Model.Vars()[name]
}

// stdout returns the writer for command output.
func stdout(ctx context.Context) io.Writer {
	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Stdout != nil {
		return ktx.Stdout
	}

	return os.Stdout
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// readSource reads the whole of the template at path, or stdin for "-".
func readSource(path string) (string, error) {
	var r io.Reader = os.Stdin

	if path != stdinSource {
		f, err := os.Open(path)
		if err != nil {
			return "", ErrReadTemplate.Wrap(err).With(slog.String("path", path))
		}
		defer func() { _ = f.Close() }()

		r = f
	}

	ra := readahead.NewReader(r)
	defer func() { _ = ra.Close() }()

	b, err := io.ReadAll(ra)
	if err != nil {
		return "", ErrReadTemplate.Wrap(err).With(slog.String("path", path))
	}

	return string(b), nil
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// uniqueFiles returns paths in order with every path that names an already
// listed file removed. Paths that cannot be resolved are kept so that
// opening them reports the error.
func uniqueFiles(paths []string) []string {
	seen := make(map[fileKey]struct{}, len(paths))
	out := make([]string, 0, len(paths))

	for _, path := range paths {
		key, ok := resolveFileKey(path)
		if ok {
			if _, dup := seen[key]; dup {
				continue
			}

			seen[key] = struct{}{}
		}

		out = append(out, path)
	}

	return out
}

func resolveFileKey(path string) (fileKey, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fileKey{}, false
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return fileKey{}, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fileKey{}, false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileKey{}, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}

// Vars returns the kong variables the commands refer to.
func Vars(configPath, cacheDir, storePath string) kong.Vars {
	return kong.Vars{
		ConfigIdentifier: configPath,
		CacheIdentifier:  cacheDir,
		StoreIdentifier:  storePath,
		"maxDepth":       strconv.Itoa(lang.DefaultMaxDepth),
	}
}
