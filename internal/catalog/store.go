package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store keeps catalogs of any number of domains in one SQLite file.
type Store struct {
	db *sql.DB
}

// DomainRef identifies a stored catalog.
type DomainRef struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	ExportedAt time.Time `json:"exported_at"`
}

// Open creates or opens the catalog database at path. ":memory:" works
// for throwaway stores.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog %s: %w", path, err)
	}
	// One connection: foreign_keys is per connection and :memory: databases
	// are per connection too.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("executing %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying catalog schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save writes cat, replacing any earlier export of the same domain.
func (s *Store) Save(ctx context.Context, cat *Catalog) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	id := cat.DomainID.String()
	exec := func(query string, args ...any) {
		if err != nil {
			return
		}
		if _, e := tx.ExecContext(ctx, query, args...); e != nil {
			err = fmt.Errorf("saving catalog %s: %w", cat.DomainName, e)
		}
	}

	exec(`DELETE FROM domains WHERE id = ?`, id)
	exec(`INSERT INTO domains (id, name, exported_at) VALUES (?, ?, ?)`,
		id, cat.DomainName, time.Now().UTC().Format(time.RFC3339Nano))
	for i, t := range cat.Types {
		exec(`INSERT INTO types (domain_id, position, name, shape, slots) VALUES (?, ?, ?, ?, ?)`,
			id, i, t.Name, t.Shape, strings.Join(t.Slots, ","))
	}
	for i, c := range cat.Conversions {
		exec(`INSERT INTO conversions (domain_id, position, source, target, is_cast) VALUES (?, ?, ?, ?, ?)`,
			id, i, c.Source, c.Target, c.Cast)
	}
	for i, c := range cat.Coercions {
		exec(`INSERT INTO coercions (domain_id, position, type_a, type_b, rule) VALUES (?, ?, ?, ?, ?)`,
			id, i, c.A, c.B, c.Rule)
	}
	for i, op := range cat.Operators {
		exec(`INSERT INTO operators (domain_id, position, id, arity, fallback) VALUES (?, ?, ?, ?, ?)`,
			id, i, op.ID, op.Arity, op.Fallback)
		for j, impl := range op.Impls {
			exec(`INSERT INTO operator_impls (domain_id, operator_id, arity, position, kind, left_type, right_type)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				id, op.ID, op.Arity, j, impl.Kind, impl.Left, impl.Right)
		}
	}
	for i, f := range cat.Functions {
		exec(`INSERT INTO functions (domain_id, position, name, arity, fixed_arity) VALUES (?, ?, ?, ?, ?)`,
			id, i, f.Name, f.Arity, f.FixedArity)
		for j, sig := range f.Signatures {
			exec(`INSERT INTO function_variants (domain_id, function, position, signature) VALUES (?, ?, ?, ?)`,
				id, f.Name, j, sig)
		}
	}
	if err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Domains lists the stored catalogs, most recent export first.
func (s *Store) Domains(ctx context.Context) ([]DomainRef, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, exported_at FROM domains ORDER BY exported_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing domains: %w", err)
	}
	defer rows.Close()

	var out []DomainRef
	for rows.Next() {
		var id, name, at string
		if err := rows.Scan(&id, &name, &at); err != nil {
			return nil, err
		}
		ref := DomainRef{Name: name}
		if ref.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("domain id %q: %w", id, err)
		}
		if ref.ExportedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("domain %s export time: %w", id, err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// Load reads the catalog of one domain back.
func (s *Store) Load(ctx context.Context, id uuid.UUID) (*Catalog, error) {
	key := id.String()
	cat := &Catalog{DomainID: id}
	err := s.db.QueryRowContext(ctx, `SELECT name FROM domains WHERE id = ?`, key).Scan(&cat.DomainName)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no catalog for domain %s", id)
	}
	if err != nil {
		return nil, err
	}

	err = s.each(ctx, `SELECT name, shape, slots FROM types WHERE domain_id = ? ORDER BY position`,
		func(rows *sql.Rows) error {
			var t Type
			var slots string
			if err := rows.Scan(&t.Name, &t.Shape, &slots); err != nil {
				return err
			}
			if slots != "" {
				t.Slots = strings.Split(slots, ",")
			}
			cat.Types = append(cat.Types, t)
			return nil
		}, key)
	if err != nil {
		return nil, err
	}

	err = s.each(ctx, `SELECT source, target, is_cast FROM conversions WHERE domain_id = ? ORDER BY position`,
		func(rows *sql.Rows) error {
			var c Conversion
			if err := rows.Scan(&c.Source, &c.Target, &c.Cast); err != nil {
				return err
			}
			cat.Conversions = append(cat.Conversions, c)
			return nil
		}, key)
	if err != nil {
		return nil, err
	}

	err = s.each(ctx, `SELECT type_a, type_b, rule FROM coercions WHERE domain_id = ? ORDER BY position`,
		func(rows *sql.Rows) error {
			var c Coercion
			if err := rows.Scan(&c.A, &c.B, &c.Rule); err != nil {
				return err
			}
			cat.Coercions = append(cat.Coercions, c)
			return nil
		}, key)
	if err != nil {
		return nil, err
	}

	err = s.each(ctx, `SELECT id, arity, fallback FROM operators WHERE domain_id = ? ORDER BY position`,
		func(rows *sql.Rows) error {
			var op Operator
			if err := rows.Scan(&op.ID, &op.Arity, &op.Fallback); err != nil {
				return err
			}
			cat.Operators = append(cat.Operators, op)
			return nil
		}, key)
	if err != nil {
		return nil, err
	}
	for i := range cat.Operators {
		op := &cat.Operators[i]
		err = s.each(ctx, `SELECT kind, left_type, right_type FROM operator_impls
			WHERE domain_id = ? AND operator_id = ? AND arity = ? ORDER BY position`,
			func(rows *sql.Rows) error {
				var impl Impl
				if err := rows.Scan(&impl.Kind, &impl.Left, &impl.Right); err != nil {
					return err
				}
				op.Impls = append(op.Impls, impl)
				return nil
			}, key, op.ID, op.Arity)
		if err != nil {
			return nil, err
		}
	}

	err = s.each(ctx, `SELECT name, arity, fixed_arity FROM functions WHERE domain_id = ? ORDER BY position`,
		func(rows *sql.Rows) error {
			var f Function
			if err := rows.Scan(&f.Name, &f.Arity, &f.FixedArity); err != nil {
				return err
			}
			cat.Functions = append(cat.Functions, f)
			return nil
		}, key)
	if err != nil {
		return nil, err
	}
	for i := range cat.Functions {
		f := &cat.Functions[i]
		err = s.each(ctx, `SELECT signature FROM function_variants
			WHERE domain_id = ? AND function = ? ORDER BY position`,
			func(rows *sql.Rows) error {
				var sig string
				if err := rows.Scan(&sig); err != nil {
					return err
				}
				f.Signatures = append(f.Signatures, sig)
				return nil
			}, key, f.Name)
		if err != nil {
			return nil, err
		}
	}
	return cat, nil
}

func (s *Store) each(ctx context.Context, query string, scan func(*sql.Rows) error, args ...any) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("loading catalog: %w", err)
		}
	}
	return rows.Err()
}
