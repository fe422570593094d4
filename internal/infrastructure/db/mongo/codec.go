package mongo

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/registry"
)

func key(field string) string {
	if field == domain.FieldID {
		return "_id"
	}
	return field
}

func encode(doc domain.Document) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[key(k)] = v
	}
	return out
}

// decode maps a raw BSON document back to normalised values of the schema.
func decode(d *registry.Descriptor, raw bson.M) domain.Document {
	doc := make(domain.Document, len(raw))
	for k, v := range raw {
		if k == "_id" {
			k = domain.FieldID
		}
		doc[k] = normalise(v)
	}
	for _, f := range d.Fields {
		if _, ok := doc[f.Name]; !ok {
			doc[f.Name] = nil
		}
	}
	return doc
}

func normalise(v any) any {
	switch x := v.(type) {
	case primitive.DateTime:
		return x.Time().UTC()
	case time.Time:
		return x.UTC()
	case primitive.Binary:
		return x.Data
	case int32:
		return int64(x)
	case int:
		return int64(x)
	case primitive.Null:
		return nil
	}
	return v
}

// filter translates a conjunction of conditions into a query document.
func filter(conds []domain.Condition) bson.D {
	if len(conds) == 0 {
		return bson.D{}
	}
	clauses := make(bson.A, 0, len(conds))
	for _, c := range conds {
		clauses = append(clauses, clause(c))
	}
	if len(clauses) == 1 {
		return clauses[0].(bson.D)
	}
	return bson.D{{Key: "$and", Value: clauses}}
}

func clause(c domain.Condition) bson.D {
	k := key(c.Field)
	switch c.Op {
	case domain.OpNe:
		return bson.D{{Key: k, Value: bson.D{{Key: "$ne", Value: c.Value}}}}
	case domain.OpIn:
		vals, _ := c.Value.([]any)
		if vals == nil {
			vals = []any{}
		}
		return bson.D{{Key: k, Value: bson.D{{Key: "$in", Value: vals}}}}
	case domain.OpIContains:
		s, _ := c.Value.(string)
		return bson.D{{Key: k, Value: primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}}}
	case domain.OpGt, domain.OpGte, domain.OpLt, domain.OpLte:
		return bson.D{{Key: k, Value: bson.D{{Key: "$" + string(c.Op), Value: c.Value}}}}
	case domain.OpIsNull:
		if want, _ := c.Value.(bool); want {
			return bson.D{{Key: k, Value: nil}}
		}
		return bson.D{{Key: k, Value: bson.D{{Key: "$ne", Value: nil}}}}
	}
	return bson.D{{Key: k, Value: c.Value}}
}
