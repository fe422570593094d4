package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/registry"
)

const uniqueViolation = "23505"

type TableStore struct {
	pool *pgxpool.Pool
}

func NewTableStore(pool *pgxpool.Pool) *TableStore {
	return &TableStore{pool: pool}
}

func (s *TableStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate creates every registered table and its indexes.
func (s *TableStore) Migrate(ctx context.Context) error {
	for _, d := range registry.All() {
		stmts := append([]string{CreateTableSQL(d)}, CreateIndexSQL(d)...)
		for _, stmt := range stmts {
			if _, err := s.pool.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("postgres migrate %s: %w", d.Collection, err)
			}
		}
	}
	return nil
}

func (s *TableStore) Insert(ctx context.Context, d *registry.Descriptor, doc domain.Document) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	sql, args := insertSQL(d, doc)
	if _, err := s.pool.Exec(ctx, sql, args...); err != nil {
		return translate(d, "insert", err)
	}
	return nil
}

func (s *TableStore) Get(ctx context.Context, d *registry.Descriptor, id string) (domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", columns(d), ident(d.Collection), ident(domain.FieldID))
	rows, err := s.pool.Query(ctx, sql, id)
	if err != nil {
		return nil, translate(d, "get", err)
	}
	docs, err := collect(d, rows)
	if err != nil {
		return nil, translate(d, "get", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%s %s: %w", d.Entity, id, domain.ErrNotFound)
	}
	return docs[0], nil
}

func (s *TableStore) Find(ctx context.Context, d *registry.Descriptor, q domain.Query) ([]domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	sql, args, err := findSQL(d, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(d, "find", err)
	}
	docs, err := collect(d, rows)
	if err != nil {
		return nil, translate(d, "find", err)
	}
	return docs, nil
}

func (s *TableStore) Count(ctx context.Context, d *registry.Descriptor, conds []domain.Condition) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	w, args, err := where(d, conds, nil)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+ident(d.Collection)+w, args...).Scan(&n); err != nil {
		return 0, translate(d, "count", err)
	}
	return n, nil
}

func (s *TableStore) Exists(ctx context.Context, d *registry.Descriptor, field string, value any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	w, args, err := where(d, []domain.Condition{domain.Eq(field, value)}, nil)
	if err != nil {
		return false, err
	}
	var ok bool
	sql := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s%s)", ident(d.Collection), w)
	if err := s.pool.QueryRow(ctx, sql, args...).Scan(&ok); err != nil {
		return false, translate(d, "exists", err)
	}
	return ok, nil
}

func (s *TableStore) Update(ctx context.Context, d *registry.Descriptor, id string, changes domain.Document) (domain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	sql, args := updateSQL(d, id, changes)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(d, "update", err)
	}
	docs, err := collect(d, rows)
	if err != nil {
		return nil, translate(d, "update", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%s %s: %w", d.Entity, id, domain.ErrNotFound)
	}
	return docs[0], nil
}

func (s *TableStore) Delete(ctx context.Context, d *registry.Descriptor, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = $1", ident(d.Collection), ident(domain.FieldID)), id)
	if err != nil {
		return translate(d, "delete", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", d.Entity, id, domain.ErrNotFound)
	}
	return nil
}

// sortedFields returns the schema fields present in doc in a stable order.
func sortedFields(d *registry.Descriptor, doc domain.Document) []string {
	names := make([]string, 0, len(doc))
	for k := range doc {
		if d.HasField(k) {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

func insertSQL(d *registry.Descriptor, doc domain.Document) (string, []any) {
	names := sortedFields(d, doc)
	cols := make([]string, len(names))
	ph := make([]string, len(names))
	args := make([]any, len(names))
	for i, n := range names {
		cols[i] = ident(n)
		ph[i] = fmt.Sprintf("$%d", i+1)
		args[i] = doc[n]
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ident(d.Collection), strings.Join(cols, ", "), strings.Join(ph, ", ")), args
}

func updateSQL(d *registry.Descriptor, id string, changes domain.Document) (string, []any) {
	var sets []string
	var args []any
	for _, n := range sortedFields(d, changes) {
		if n == domain.FieldID {
			continue
		}
		args = append(args, changes[n])
		sets = append(sets, fmt.Sprintf("%s = $%d", ident(n), len(args)))
	}
	args = append(args, id)
	idArg := fmt.Sprintf("$%d", len(args))
	if len(sets) == 0 {
		// no-op update still returns the row
		sets = append(sets, ident(domain.FieldID)+" = "+ident(domain.FieldID))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s RETURNING %s",
		ident(d.Collection), strings.Join(sets, ", "), ident(domain.FieldID), idArg, columns(d)), args
}

func findSQL(d *registry.Descriptor, q domain.Query) (string, []any, error) {
	w, args, err := where(d, q.Conditions, nil)
	if err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s ASC NULLS FIRST, %s ASC",
		columns(d), ident(d.Collection), w, ident(domain.FieldCreatedDate), ident(domain.FieldID))
	if q.Offset > 0 {
		args = append(args, q.Offset)
		sql += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return sql, args, nil
}

func collect(d *registry.Descriptor, rows pgx.Rows) ([]domain.Document, error) {
	defer rows.Close()

	out := []domain.Document{}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		doc := make(domain.Document, len(d.Fields))
		for i, f := range d.Fields {
			doc[f.Name] = normalise(vals[i])
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func normalise(v any) any {
	switch x := v.(type) {
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	case time.Time:
		return x.UTC()
	}
	return v
}

// translate maps driver errors onto the domain taxonomy.
func translate(d *registry.Descriptor, op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		for _, f := range d.UniqueFields() {
			if pgErr.ConstraintName == constraintName(d, f) {
				return domain.NewValidationError(f, "already exists")
			}
		}
		return domain.NewValidationError(domain.FieldID, "already exists")
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", d.Entity, domain.ErrNotFound)
	}
	return domain.Upstream("postgres "+op+" "+string(d.Entity), err)
}
