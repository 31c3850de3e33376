package lang

import (
	"slices"

	"github.com/ardnew/synth/log"
)

// DefaultMaxDepth is the default bound on block nesting, both when parsing
// and when rendering.
const DefaultMaxDepth = 100

// Option configures parsing and rendering.
type Option func(options) options

type options struct {
	loaders  []LoaderFunc
	catalogs []CatalogFunc
	registry *Registry
	preload  []string
	builtins bool
	maxDepth int
	logger   log.Logger
}

func makeOptions(opts ...Option) options {
	o := options{
		builtins: true,
		maxDepth: DefaultMaxDepth,
	}

	for _, opt := range opts {
		o = opt(o)
	}

	return o
}

// WithLoaders appends loaders to the library resolution chain.
func WithLoaders(loaders ...LoaderFunc) Option {
	return func(o options) options {
		o.loaders = append(slices.Clone(o.loaders), loaders...)

		return o
	}
}

// WithCatalogs appends sources of known library names, used to suggest
// alternatives when a library cannot be resolved.
func WithCatalogs(catalogs ...CatalogFunc) Option {
	return func(o options) options {
		o.catalogs = append(slices.Clone(o.catalogs), catalogs...)

		return o
	}
}

// WithLibraries makes libs resolvable by name.
func WithLibraries(libs ...*Library) Option {
	load, list := StaticLoader(libs...)

	return func(o options) options {
		o.loaders = append(slices.Clone(o.loaders), load)
		o.catalogs = append(slices.Clone(o.catalogs), list)

		return o
	}
}

// WithRegistry resolves libraries with r instead of a registry built from
// the configured loaders and catalogs, which are then ignored. Libraries
// resolved through r stay cached in it.
func WithRegistry(r *Registry) Option {
	return func(o options) options {
		o.registry = r

		return o
	}
}

// WithPreload loads every tag and filter of the named libraries before the
// first byte of source, as if the template began with a load directive.
func WithPreload(names ...string) Option {
	return func(o options) options {
		o.preload = append(slices.Clone(o.preload), names...)

		return o
	}
}

// WithBuiltins controls whether the builtins library is in scope from the
// start of the source. It is enabled by default.
func WithBuiltins(enable bool) Option {
	return func(o options) options {
		o.builtins = enable

		return o
	}
}

// WithMaxDepth bounds block nesting. Values less than 1 select
// [DefaultMaxDepth].
func WithMaxDepth(depth int) Option {
	return func(o options) options {
		if depth < 1 {
			depth = DefaultMaxDepth
		}

		o.maxDepth = depth

		return o
	}
}

// WithLogger sets the logger that receives trace records of parsing and
// rendering.
func WithLogger(logger log.Logger) Option {
	return func(o options) options {
		o.logger = logger

		return o
	}
}

func (o options) newRegistry() *Registry {
	if o.registry != nil {
		return o.registry
	}

	load, list := StaticLoader(Builtins())

	return NewRegistry(append(slices.Clone(o.loaders), load)...).
		AddCatalog(append(slices.Clone(o.catalogs), list)...)
}
