// Package library provides the standard tag and filter libraries that
// templates can load by name, beyond the builtins that are always in scope.
//
//	{% load codecs %}{% encode 'base64' %}...{% endencode %}
//	{% load expr from expr %}{% expr 'price * qty' %}
//	{% load pathprefix from paths %}{% pathprefix PATH '/opt/bin' %}
//	{{ config|yaml }}
package library

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/ardnew/synth/lang"
)

var catalog = map[string]func() (*lang.Library, error){
	CodecsName: sync.OnceValues(codecs),
	ExprName:   sync.OnceValues(exprs),
	PathsName:  sync.OnceValues(paths),
	SerialName: sync.OnceValues(serial),
}

// Names returns the names of the standard libraries in sorted order.
func Names() []string { return slices.Sorted(maps.Keys(catalog)) }

// Get returns the standard library called name.
func Get(name string) (*lang.Library, bool) {
	build, ok := catalog[name]
	if !ok {
		return nil, false
	}

	lib, err := build()
	if err != nil {
		// The standard libraries are static; a failure is a programming error.
		panic(err)
	}

	return lib, true
}

// Loader resolves the standard libraries. Unknown names are left for the
// next loader in the chain.
func Loader() lang.LoaderFunc {
	return func(_ context.Context, name string) (*lang.Library, error) {
		lib, _ := Get(name)

		return lib, nil
	}
}

// Catalog lists the standard libraries.
func Catalog() lang.CatalogFunc {
	return func(context.Context) []string { return Names() }
}

// Options makes the standard libraries resolvable by a template.
func Options() []lang.Option {
	return []lang.Option{lang.WithLoaders(Loader()), lang.WithCatalogs(Catalog())}
}
