package lang

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/sahilm/fuzzy"
)

// LoaderFunc resolves a library name.
//
// A loader that does not know name returns (nil, nil) so the next loader in
// the chain is tried. A non-nil error aborts resolution.
type LoaderFunc func(ctx context.Context, name string) (*Library, error)

// CatalogFunc lists the library names a loader can resolve.
// It is only used to suggest alternatives for an unresolved name.
type CatalogFunc func(ctx context.Context) []string

// maxSuggestions bounds the "did you mean" list of a resolution failure.
const maxSuggestions = 3

// Registry resolves library names through an ordered loader chain.
//
// A library resolved once is reused for the lifetime of the registry.
// A Registry is created for each parse unless one is supplied with
// [WithRegistry].
type Registry struct {
	mutex    sync.Mutex
	loaders  []LoaderFunc
	catalogs []CatalogFunc
	cache    map[string]*Library
}

// NewRegistry returns a registry that consults loaders in order.
func NewRegistry(loaders ...LoaderFunc) *Registry {
	return &Registry{
		loaders: slices.Clone(loaders),
		cache:   make(map[string]*Library),
	}
}

// AddCatalog registers fn as a source of known library names.
func (r *Registry) AddCatalog(fn ...CatalogFunc) *Registry {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.catalogs = append(r.catalogs, fn...)

	return r
}

// Resolve returns the library called name.
// It fails with [ErrLibraryNotFound] if no loader knows it.
func (r *Registry) Resolve(ctx context.Context, name string) (*Library, error) {
	r.mutex.Lock()
	lib, ok := r.cache[name]
	loaders := r.loaders
	r.mutex.Unlock()

	if ok {
		return lib, nil
	}

	for _, load := range loaders {
		lib, err := load(ctx, name)
		if err != nil {
			return nil, ErrLibraryNotFound.Wrap(err).With(slog.String("library", name))
		}

		if lib == nil {
			continue
		}

		r.mutex.Lock()
		r.cache[name] = lib
		r.mutex.Unlock()

		return lib, nil
	}

	err := ErrLibraryNotFound.With(slog.String("library", name))

	if alt := Suggest(name, r.Known(ctx)); len(alt) > 0 {
		err = err.With(slog.Any("suggestions", alt))
	}

	return nil, err
}

// Known returns the sorted names of every library the registry has resolved
// or that a registered catalog lists.
func (r *Registry) Known(ctx context.Context) []string {
	r.mutex.Lock()
	catalogs := r.catalogs
	names := make(map[string]struct{}, len(r.cache))

	for name := range r.cache {
		names[name] = struct{}{}
	}
	r.mutex.Unlock()

	for _, list := range catalogs {
		for _, name := range list(ctx) {
			names[name] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(names))
}

// StaticLoader returns a loader and catalog that resolve exactly libs.
func StaticLoader(libs ...*Library) (LoaderFunc, CatalogFunc) {
	byName := make(map[string]*Library, len(libs))
	for _, lib := range libs {
		byName[lib.Name()] = lib
	}

	load := func(_ context.Context, name string) (*Library, error) {
		return byName[name], nil
	}

	list := func(context.Context) []string {
		return slices.Sorted(maps.Keys(byName))
	}

	return load, list
}

// Suggest returns up to three of candidates that resemble name, best match
// first.
//
// A candidate resembles name when either is a fuzzy subsequence of the
// other, or when it is within a third of the length of name in edit
// distance. Closer edit distance ranks first.
func Suggest(name string, candidates []string) []string {
	if name == "" || len(candidates) == 0 {
		return nil
	}

	type ranked struct {
		str  string
		dist int
	}

	var (
		seen  = make(map[string]bool)
		found []ranked
	)

	keep := func(c string) {
		if c == name || seen[c] {
			return
		}

		seen[c] = true
		found = append(found, ranked{c, levenshtein.ComputeDistance(name, c)})
	}

	for _, m := range fuzzy.Find(name, candidates) {
		keep(m.Str)
	}

	limit := max(1, utf8.RuneCountInString(name)/3)

	for _, c := range candidates {
		if len(fuzzy.Find(c, []string{name})) > 0 ||
			levenshtein.ComputeDistance(name, c) <= limit {
			keep(c)
		}
	}

	slices.SortStableFunc(found, func(a, b ranked) int { return a.dist - b.dist })

	out := make([]string, 0, min(len(found), maxSuggestions))
	for _, r := range found[:min(len(found), maxSuggestions)] {
		out = append(out, r.str)
	}

	return out
}
