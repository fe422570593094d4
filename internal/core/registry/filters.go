package registry

import (
	"sort"
	"strings"

	"github.com/tablehub/backend/internal/core/domain"
)

const lookupSep = "__"

var lookups = map[string]domain.Op{
	"eq":        domain.OpEq,
	"exact":     domain.OpEq,
	"ne":        domain.OpNe,
	"in":        domain.OpIn,
	"icontains": domain.OpIContains,
	"gt":        domain.OpGt,
	"gte":       domain.OpGte,
	"lt":        domain.OpLt,
	"lte":       domain.OpLte,
	"isnull":    domain.OpIsNull,
}

// ParseFilters turns caller supplied filters into conditions against the
// schema. Keys are field names with an optional lookup suffix, e.g.
// "price__gte". Any key or value the schema cannot apply yields a
// *domain.FilterError.
func (d *Descriptor) ParseFilters(raw map[string]any) ([]domain.Condition, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]domain.Condition, 0, len(keys))
	for _, key := range keys {
		c, err := d.parseFilter(key, raw[key])
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return conds, nil
}

func (d *Descriptor) parseFilter(key string, value any) (domain.Condition, error) {
	name, op := key, domain.OpEq
	if i := strings.LastIndex(key, lookupSep); i > 0 {
		suffix := key[i+len(lookupSep):]
		o, ok := lookups[strings.ToLower(suffix)]
		if !ok {
			return domain.Condition{}, &domain.FilterError{Key: key, Reason: "unsupported lookup " + suffix}
		}
		name, op = key[:i], o
	}

	f, ok := d.Field(name)
	if !ok {
		return domain.Condition{}, &domain.FilterError{Key: key, Reason: "unknown field"}
	}

	switch op {
	case domain.OpIsNull:
		b, err := Field{Name: name, Kind: KindBool}.Coerce(value)
		if err != nil || b == nil {
			return domain.Condition{}, &domain.FilterError{Key: key, Reason: "isnull expects a boolean"}
		}
		return domain.Condition{Field: name, Op: op, Value: b}, nil

	case domain.OpIn:
		items, ok := value.([]any)
		if !ok {
			s, isStr := value.(string)
			if !isStr {
				return domain.Condition{}, &domain.FilterError{Key: key, Reason: "in expects a list"}
			}
			for _, part := range strings.Split(s, ",") {
				items = append(items, strings.TrimSpace(part))
			}
		}
		vals := make([]any, 0, len(items))
		for _, it := range items {
			v, err := f.Coerce(it)
			if err != nil {
				return domain.Condition{}, &domain.FilterError{Key: key, Reason: err.Error()}
			}
			vals = append(vals, v)
		}
		return domain.Condition{Field: name, Op: op, Value: vals}, nil

	case domain.OpIContains:
		if f.Kind != KindString && f.Kind != KindText {
			return domain.Condition{}, &domain.FilterError{Key: key, Reason: "icontains applies to text fields"}
		}
		s, ok := value.(string)
		if !ok {
			return domain.Condition{}, &domain.FilterError{Key: key, Reason: "icontains expects a string"}
		}
		return domain.Condition{Field: name, Op: op, Value: s}, nil

	case domain.OpGt, domain.OpGte, domain.OpLt, domain.OpLte:
		if !f.Kind.Comparable() {
			return domain.Condition{}, &domain.FilterError{Key: key, Reason: "ordering not supported for " + f.Kind.String()}
		}
	}

	if f.Kind == KindBytes {
		return domain.Condition{}, &domain.FilterError{Key: key, Reason: "binary fields cannot be filtered"}
	}
	v, err := f.Coerce(value)
	if err != nil {
		return domain.Condition{}, &domain.FilterError{Key: key, Reason: err.Error()}
	}
	if v == nil && op != domain.OpEq && op != domain.OpNe {
		return domain.Condition{}, &domain.FilterError{Key: key, Reason: "null is only valid for equality"}
	}
	return domain.Condition{Field: name, Op: op, Value: v}, nil
}

// HasCondition reports whether any condition targets field.
func HasCondition(conds []domain.Condition, field string) bool {
	for _, c := range conds {
		if c.Field == field {
			return true
		}
	}
	return false
}

// Decode validates and normalises a write payload. Unknown or server managed
// fields are reported per field; the returned document holds only writable
// schema fields.
func (d *Descriptor) Decode(payload map[string]any) (domain.Document, error) {
	verr := &domain.ValidationError{}
	doc := make(domain.Document, len(payload))
	for k, v := range payload {
		f, ok := d.Field(k)
		switch {
		case !ok:
			verr.Add(k, "unknown field")
			continue
		case !f.Writable():
			verr.Add(k, "field is read-only")
			continue
		}
		cv, err := f.Coerce(v)
		if err != nil {
			verr.Add(k, err.Error())
			continue
		}
		doc[k] = cv
	}
	if !verr.Empty() {
		return nil, verr
	}
	return doc, nil
}
