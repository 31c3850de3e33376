package lang

import (
	"log/slog"
	"maps"
	"slices"
)

// FilterFunc transforms a value at a substitution site.
// Most filters are unary; args holds the optional ":arg" operand.
type FilterFunc func(v Value, args ...Value) (Value, error)

// Library is a named, immutable bundle of tags and filters.
type Library struct {
	name    string
	tags    map[string]*TagDescriptor
	filters map[string]FilterFunc
}

// LibraryOption configures a [Library] under construction.
type LibraryOption func(*Library) error

// WithTag adds the tag name to a library.
func WithTag(name string, desc *TagDescriptor) LibraryOption {
	return func(l *Library) error {
		if name == "" {
			return ErrInvalidLibrary.With(
				slog.String("library", l.name),
				slog.String("reason", "empty tag name"),
			)
		}

		if _, ok := l.tags[name]; ok {
			return ErrInvalidLibrary.With(
				slog.String("library", l.name),
				slog.String("tag", name),
				slog.String("reason", "duplicate tag"),
			)
		}

		if err := validateTag(name, desc); err != nil {
			return err.With(slog.String("library", l.name))
		}

		l.tags[name] = desc

		return nil
	}
}

// WithFilter adds the filter name to a library.
func WithFilter(name string, fn FilterFunc) LibraryOption {
	return func(l *Library) error {
		switch {
		case name == "":
			return ErrInvalidLibrary.With(
				slog.String("library", l.name),
				slog.String("reason", "empty filter name"),
			)

		case fn == nil:
			return ErrInvalidLibrary.With(
				slog.String("library", l.name),
				slog.String("filter", name),
				slog.String("reason", "nil filter"),
			)
		}

		if _, ok := l.filters[name]; ok {
			return ErrInvalidLibrary.With(
				slog.String("library", l.name),
				slog.String("filter", name),
				slog.String("reason", "duplicate filter"),
			)
		}

		l.filters[name] = fn

		return nil
	}
}

// NewLibrary constructs a validated library.
func NewLibrary(name string, opts ...LibraryOption) (*Library, error) {
	if name == "" {
		return nil, ErrInvalidLibrary.With(slog.String("reason", "empty library name"))
	}

	l := &Library{
		name:    name,
		tags:    make(map[string]*TagDescriptor),
		filters: make(map[string]FilterFunc),
	}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	// Delimiters of one tag must not shadow another tag of the same library,
	// or the parser could not tell an opener from a delimiter.
	for tag, desc := range l.tags {
		for _, d := range slices.Concat(desc.Middles, desc.Lasts) {
			if _, ok := l.tags[d]; ok {
				return nil, ErrInvalidLibrary.With(
					slog.String("library", name),
					slog.String("tag", tag),
					slog.String("delimiter", d),
					slog.String("reason", "delimiter shadows a tag"),
				)
			}
		}
	}

	return l, nil
}

// MustLibrary is like [NewLibrary] but panics on error.
// It is intended for libraries declared in package variables.
func MustLibrary(name string, opts ...LibraryOption) *Library {
	l, err := NewLibrary(name, opts...)
	if err != nil {
		panic(err)
	}

	return l
}

func validateTag(name string, desc *TagDescriptor) *Error {
	fail := func(reason string) *Error {
		return ErrInvalidLibrary.With(
			slog.String("tag", name),
			slog.String("reason", reason),
		)
	}

	if desc == nil {
		return fail("nil descriptor")
	}

	switch desc.Kind {
	case TagPure:
		if desc.Pure == nil {
			return fail("pure tag without pure handler")
		}

		if len(desc.Middles) > 0 || len(desc.Lasts) > 0 {
			return fail("pure tag with delimiters")
		}

		return nil

	case TagBlock:
		if desc.Block == nil {
			return fail("block tag without block handler")
		}

	default:
		return fail("unknown tag kind")
	}

	if len(desc.Middles) > 0 && len(desc.Lasts) == 0 {
		return fail("middle delimiters without a terminal")
	}

	seen := make(map[string]bool, len(desc.Middles)+len(desc.Lasts))

	for _, d := range slices.Concat(desc.Middles, desc.Lasts) {
		switch {
		case d == "":
			return fail("empty delimiter name")

		case d == name:
			return fail("delimiter repeats the tag name")

		case seen[d]:
			return fail("delimiter " + d + " declared twice")
		}

		seen[d] = true
	}

	return nil
}

// Name returns the library name.
func (l *Library) Name() string { return l.name }

// Tag returns the descriptor of the named tag.
func (l *Library) Tag(name string) (*TagDescriptor, bool) {
	d, ok := l.tags[name]

	return d, ok
}

// Filter returns the named filter.
func (l *Library) Filter(name string) (FilterFunc, bool) {
	f, ok := l.filters[name]

	return f, ok
}

// TagNames returns the tag names in sorted order.
func (l *Library) TagNames() []string {
	return slices.Sorted(maps.Keys(l.tags))
}

// FilterNames returns the filter names in sorted order.
func (l *Library) FilterNames() []string {
	return slices.Sorted(maps.Keys(l.filters))
}
