// Package memory is a process-local TableStore used by tests and by
// STORE_DRIVER=memory for local development.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/registry"
)

type Store struct {
	mu     sync.RWMutex
	tables map[registry.Entity]map[string]domain.Document
}

func NewStore() *Store {
	return &Store{tables: make(map[registry.Entity]map[string]domain.Document)}
}

func (s *Store) table(e registry.Entity) map[string]domain.Document {
	t, ok := s.tables[e]
	if !ok {
		t = make(map[string]domain.Document)
		s.tables[e] = t
	}
	return t
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Insert(_ context.Context, d *registry.Descriptor, doc domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(d.Entity)
	id := doc.ID()
	if _, ok := t[id]; ok {
		return domain.NewValidationError(domain.FieldID, "already exists")
	}
	if err := checkUnique(t, d, doc, ""); err != nil {
		return err
	}
	t[id] = doc.Clone()
	return nil
}

func (s *Store) Get(_ context.Context, d *registry.Descriptor, id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.tables[d.Entity][id]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", d.Entity, id, domain.ErrNotFound)
	}
	return doc.Clone(), nil
}

func (s *Store) Find(_ context.Context, d *registry.Descriptor, q domain.Query) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.match(d.Entity, q.Conditions)
	sort.Slice(rows, func(i, j int) bool {
		ti, tj := rows[i].Time(domain.FieldCreatedDate), rows[j].Time(domain.FieldCreatedDate)
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return rows[i].ID() < rows[j].ID()
	})

	if q.Offset >= len(rows) {
		return []domain.Document{}, nil
	}
	rows = rows[q.Offset:]
	if q.Limit > 0 && q.Limit < len(rows) {
		rows = rows[:q.Limit]
	}
	out := make([]domain.Document, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out, nil
}

func (s *Store) Count(_ context.Context, d *registry.Descriptor, conds []domain.Condition) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.match(d.Entity, conds))), nil
}

func (s *Store) Exists(_ context.Context, d *registry.Descriptor, field string, value any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.match(d.Entity, []domain.Condition{domain.Eq(field, value)})) > 0, nil
}

func (s *Store) Update(_ context.Context, d *registry.Descriptor, id string, changes domain.Document) (domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(d.Entity)
	cur, ok := t[id]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", d.Entity, id, domain.ErrNotFound)
	}
	next := cur.Clone()
	for k, v := range changes {
		next[k] = v
	}
	if err := checkUnique(t, d, next, id); err != nil {
		return nil, err
	}
	t[id] = next
	return next.Clone(), nil
}

func (s *Store) Delete(_ context.Context, d *registry.Descriptor, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.table(d.Entity)
	if _, ok := t[id]; !ok {
		return fmt.Errorf("%s %s: %w", d.Entity, id, domain.ErrNotFound)
	}
	delete(t, id)
	return nil
}

func (s *Store) match(e registry.Entity, conds []domain.Condition) []domain.Document {
	var out []domain.Document
	for _, doc := range s.tables[e] {
		if matchAll(doc, conds) {
			out = append(out, doc)
		}
	}
	return out
}

func checkUnique(t map[string]domain.Document, d *registry.Descriptor, doc domain.Document, self string) error {
	for _, f := range d.UniqueFields() {
		v, ok := doc[f]
		if !ok || v == nil || f == domain.FieldID {
			continue
		}
		for id, other := range t {
			if id != self && equal(other[f], v) {
				return domain.NewValidationError(f, "already exists")
			}
		}
	}
	return nil
}

func matchAll(doc domain.Document, conds []domain.Condition) bool {
	for _, c := range conds {
		if !matches(doc[c.Field], c) {
			return false
		}
	}
	return true
}

func matches(v any, c domain.Condition) bool {
	switch c.Op {
	case domain.OpEq:
		return equal(v, c.Value)
	case domain.OpNe:
		return !equal(v, c.Value)
	case domain.OpIn:
		vals, _ := c.Value.([]any)
		for _, want := range vals {
			if equal(v, want) {
				return true
			}
		}
		return false
	case domain.OpIContains:
		s, ok := v.(string)
		want, _ := c.Value.(string)
		return ok && strings.Contains(strings.ToLower(s), strings.ToLower(want))
	case domain.OpIsNull:
		want, _ := c.Value.(bool)
		return (v == nil) == want
	case domain.OpGt, domain.OpGte, domain.OpLt, domain.OpLte:
		n, ok := compare(v, c.Value)
		if !ok {
			return false
		}
		switch c.Op {
		case domain.OpGt:
			return n > 0
		case domain.OpGte:
			return n >= 0
		case domain.OpLt:
			return n < 0
		default:
			return n <= 0
		}
	}
	return false
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ab, ok := a.([]byte); ok {
		bb, ok := b.([]byte)
		return ok && bytes.Equal(ab, bb)
	}
	if n, ok := compare(a, b); ok {
		return n == 0
	}
	return a == b
}

// compare orders two normalised values of the same kind. Integers and
// decimals compare with each other.
func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	case bool:
		y, ok := b.(bool)
		if !ok || x != y {
			return 1, ok
		}
		return 0, true
	}
	x, ok := number(a)
	if !ok {
		return 0, false
	}
	y, ok := number(b)
	if !ok {
		return 0, false
	}
	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	}
	return 0, true
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
