package lang

import (
	"log/slog"
	"maps"
	"slices"
)

// scope is the set of tags and filters visible at a point in the source.
//
// A scope is never mutated once a node refers to it; each load directive
// derives a new scope from the previous one.
type scope struct {
	tags      map[string]*TagDescriptor
	owners    map[string]string // tag name -> library name
	filters   map[string]FilterFunc
	libraries []string
}

func newScope() *scope {
	return &scope{
		tags:    make(map[string]*TagDescriptor),
		owners:  make(map[string]string),
		filters: make(map[string]FilterFunc),
	}
}

func (s *scope) clone() *scope {
	return &scope{
		tags:      maps.Clone(s.tags),
		owners:    maps.Clone(s.owners),
		filters:   maps.Clone(s.filters),
		libraries: slices.Clone(s.libraries),
	}
}

func (s *scope) noteLibrary(name string) {
	if !slices.Contains(s.libraries, name) {
		s.libraries = append(s.libraries, name)
	}
}

// withLibrary returns a scope binding every tag and filter of lib.
func (s *scope) withLibrary(lib *Library) *scope {
	n := s.clone()

	for name, desc := range lib.tags {
		n.tags[name] = desc
		n.owners[name] = lib.name
	}

	maps.Copy(n.filters, lib.filters)
	n.noteLibrary(lib.name)

	return n
}

// withNames returns a scope binding the named tags and filters of lib.
// A name may refer to a tag, a filter, or both.
func (s *scope) withNames(lib *Library, names []piece) (*scope, error) {
	n := s.clone()

	for _, p := range names {
		desc, isTag := lib.tags[p.text]
		fn, isFilter := lib.filters[p.text]

		if !isTag && !isFilter {
			return nil, ErrTagNotFound.WithPosition(p.pos).With(
				slog.String("name", p.text),
				slog.String("library", lib.name),
			).With(suggestAttr(p.text, slices.Concat(lib.TagNames(), lib.FilterNames()))...)
		}

		if isTag {
			n.tags[p.text] = desc
			n.owners[p.text] = lib.name
		}

		if isFilter {
			n.filters[p.text] = fn
		}
	}

	n.noteLibrary(lib.name)

	return n, nil
}

func (s *scope) tag(name string) (*TagDescriptor, bool) {
	d, ok := s.tags[name]

	return d, ok
}

func (s *scope) filter(name string) (FilterFunc, bool) {
	f, ok := s.filters[name]

	return f, ok
}

// delimiterOf returns the name of a visible tag that declares name as one of
// its middle or terminal delimiters.
func (s *scope) delimiterOf(name string) (string, bool) {
	for _, tag := range slices.Sorted(maps.Keys(s.tags)) {
		d := s.tags[tag]
		if d.isMiddle(name) || d.isLast(name) {
			return tag, true
		}
	}

	return "", false
}

func (s *scope) tagNames() []string { return slices.Sorted(maps.Keys(s.tags)) }

func (s *scope) filterNames() []string { return slices.Sorted(maps.Keys(s.filters)) }

func (s *scope) tagNotFound(name string, pos Position) *Error {
	return ErrTagNotFound.WithPosition(pos).
		With(slog.String("tag", name)).
		With(suggestAttr(name, s.tagNames())...)
}

func (s *scope) filterNotFound(name string, pos Position) *Error {
	return ErrFilterNotFound.WithPosition(pos).
		With(slog.String("filter", name)).
		With(suggestAttr(name, s.filterNames())...)
}

func suggestAttr(name string, candidates []string) []slog.Attr {
	alt := Suggest(name, candidates)
	if len(alt) == 0 {
		return nil
	}

	return []slog.Attr{slog.Any("suggestions", alt)}
}
