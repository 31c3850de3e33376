// Package store persists user-defined tag and filter libraries in SQLite.
//
// Every entry of a stored library is an expr-lang expression. A tag is
// pure: its arguments are bound to args. A filter binds the filtered value
// to value and its optional argument to args.
//
//	st, _ := store.Open(ctx, "libs.db")
//	_ = st.Define(ctx, store.Definition{
//		Library: "math", Name: "double", Kind: store.KindFilter,
//		Source: "value * 2",
//	})
//	out, _ := lang.Render(ctx, `{% load math %}{{ 21|double }}`, nil,
//		lang.WithLoaders(st.Loader()))
package store

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/ardnew/synth/library"
	"github.com/ardnew/synth/log"
)

// Kind selects whether a definition is a tag or a filter.
type Kind string

const (
	KindTag    Kind = "tag"
	KindFilter Kind = "filter"
)

// Definition is one stored tag or filter.
type Definition struct {
	Library string `json:"library" yaml:"library"`
	Name    string `json:"name"    yaml:"name"`
	Kind    Kind   `json:"kind"    yaml:"kind"`
	Source  string `json:"source"  yaml:"source"`
	Doc     string `json:"doc"     yaml:"doc,omitempty"`
}

const schema = `
CREATE TABLE IF NOT EXISTS definitions (
	library TEXT NOT NULL,
	name    TEXT NOT NULL,
	kind    TEXT NOT NULL CHECK(kind IN ('tag', 'filter')),
	source  TEXT NOT NULL,
	doc     TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (library, kind, name)
);
`

// Store is a SQLite database of libraries. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger log.Logger
}

// Option configures a [Store].
type Option func(*Store)

// WithLogger sets the logger that receives store activity.
func WithLogger(logger log.Logger) Option {
	return func(s *Store) { s.logger = logger.Component("store") }
}

// Open opens or creates the store at dsn, a file path or SQLite URI.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, ErrOpen.Wrap(err).With(slog.String("dsn", dsn))
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()

		return nil, ErrOpen.Wrap(err).With(slog.String("dsn", dsn))
	}

	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}

	s.logger.DebugContext(ctx, "store opened",
		slog.String("dsn", dsn),
		slog.String("driver", Driver),
	)

	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Define adds d to the store, replacing any entry of the same library, kind,
// and name. The source must compile.
func (s *Store) Define(ctx context.Context, d Definition) error {
	if err := d.validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO definitions (library, name, kind, source, doc)
		 VALUES (?, ?, ?, ?, ?)`,
		d.Library, d.Name, string(d.Kind), d.Source, d.Doc,
	)
	if err != nil {
		return ErrQuery.Wrap(err).With(slog.String("library", d.Library))
	}

	s.logger.DebugContext(ctx, "definition stored",
		slog.String("library", d.Library),
		slog.String("name", d.Name),
		slog.String("kind", string(d.Kind)),
	)

	return nil
}

func (d Definition) validate() error {
	invalid := func(reason string) error {
		return ErrInvalidDefinition.With(
			slog.String("library", d.Library),
			slog.String("name", d.Name),
			slog.String("reason", reason),
		)
	}

	switch {
	case d.Library == "":
		return invalid("empty library name")

	case d.Name == "":
		return invalid("empty name")

	case d.Kind != KindTag && d.Kind != KindFilter:
		return invalid("kind must be tag or filter")

	case d.Source == "":
		return invalid("empty source")
	}

	if _, err := library.Compile(d.Source); err != nil {
		return ErrInvalidDefinition.Wrap(err).With(
			slog.String("library", d.Library),
			slog.String("name", d.Name),
		)
	}

	return nil
}

// Remove deletes the named entries of lib, or the whole library when no
// names are given. It returns the number of entries removed.
func (s *Store) Remove(ctx context.Context, lib string, names ...string) (int64, error) {
	var removed int64

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, ErrQuery.Wrap(err)
	}
	defer func() { _ = tx.Rollback() }()

	del := func(query string, args ...any) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return ErrQuery.Wrap(err).With(slog.String("library", lib))
		}

		n, _ := res.RowsAffected()
		removed += n

		return nil
	}

	if len(names) == 0 {
		err = del(`DELETE FROM definitions WHERE library = ?`, lib)
	}

	for _, name := range names {
		if err = del(`DELETE FROM definitions WHERE library = ? AND name = ?`, lib, name); err != nil {
			break
		}
	}

	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, ErrQuery.Wrap(err)
	}

	return removed, nil
}

// Libraries returns the names of the stored libraries in sorted order.
func (s *Store) Libraries(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT library FROM definitions ORDER BY library`)
	if err != nil {
		return nil, ErrQuery.Wrap(err)
	}
	defer func() { _ = rows.Close() }()

	var names []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, ErrQuery.Wrap(err)
		}

		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, ErrQuery.Wrap(err)
	}

	return names, nil
}

// Definitions returns the entries of lib ordered by kind and name.
func (s *Store) Definitions(ctx context.Context, lib string) ([]Definition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT library, name, kind, source, doc FROM definitions
		 WHERE library = ? ORDER BY kind, name`, lib)
	if err != nil {
		return nil, ErrQuery.Wrap(err).With(slog.String("library", lib))
	}
	defer func() { _ = rows.Close() }()

	var defs []Definition

	for rows.Next() {
		var (
			d    Definition
			kind string
		)

		if err := rows.Scan(&d.Library, &d.Name, &kind, &d.Source, &d.Doc); err != nil {
			return nil, ErrQuery.Wrap(err).With(slog.String("library", lib))
		}

		d.Kind = Kind(kind)
		defs = append(defs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, ErrQuery.Wrap(err).With(slog.String("library", lib))
	}

	return defs, nil
}
