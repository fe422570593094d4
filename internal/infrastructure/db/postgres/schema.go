package postgres

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/registry"
)

var columnTypes = map[registry.Kind]string{
	registry.KindString:  "TEXT",
	registry.KindText:    "TEXT",
	registry.KindBool:    "BOOLEAN",
	registry.KindInt:     "BIGINT",
	registry.KindDecimal: "DOUBLE PRECISION",
	registry.KindTime:    "TIMESTAMPTZ",
	registry.KindRef:     "TEXT",
	registry.KindBytes:   "BYTEA",
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// constraintName follows the PostgreSQL default for UNIQUE column constraints.
func constraintName(d *registry.Descriptor, field string) string {
	return d.Collection + "_" + field + "_key"
}

// CreateTableSQL returns the DDL of d's table.
func CreateTableSQL(d *registry.Descriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", ident(d.Collection))
	for i, f := range d.Fields {
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, "\t%s %s", ident(f.Name), columnTypes[f.Kind])
		switch {
		case f.Name == domain.FieldID:
			b.WriteString(" PRIMARY KEY")
		case f.Unique:
			fmt.Fprintf(&b, " CONSTRAINT %s UNIQUE", ident(constraintName(d, f.Name)))
		}
	}
	b.WriteString("\n)")
	return b.String()
}

// CreateIndexSQL returns the ordering and ownership indexes of d's table.
func CreateIndexSQL(d *registry.Descriptor) []string {
	stmts := []string{fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s, %s)",
		ident(d.Collection+"_created_idx"), ident(d.Collection),
		ident(domain.FieldCreatedDate), ident(domain.FieldID))}
	if d.Owner != nil {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
			ident(d.Collection+"_owner_idx"), ident(d.Collection), ident(d.Owner.Field)))
	}
	return stmts
}

func columns(d *registry.Descriptor) string {
	cols := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		cols[i] = ident(f.Name)
	}
	return strings.Join(cols, ", ")
}

// where renders conds as a WHERE clause with positional arguments starting
// after the len(args) already bound.
func where(d *registry.Descriptor, conds []domain.Condition, args []any) (string, []any, error) {
	if len(conds) == 0 {
		return "", args, nil
	}
	parts := make([]string, 0, len(conds))
	bind := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, c := range conds {
		if !d.HasField(c.Field) {
			return "", nil, &domain.FilterError{Key: c.Field, Reason: "unknown field"}
		}
		col := ident(c.Field)
		switch c.Op {
		case domain.OpEq:
			if c.Value == nil {
				parts = append(parts, col+" IS NULL")
			} else {
				parts = append(parts, col+" = "+bind(c.Value))
			}
		case domain.OpNe:
			if c.Value == nil {
				parts = append(parts, col+" IS NOT NULL")
			} else {
				parts = append(parts, col+" IS DISTINCT FROM "+bind(c.Value))
			}
		case domain.OpIn:
			vals, _ := c.Value.([]any)
			if len(vals) == 0 {
				parts = append(parts, "FALSE")
				continue
			}
			ph := make([]string, len(vals))
			for i, v := range vals {
				ph[i] = bind(v)
			}
			parts = append(parts, col+" IN ("+strings.Join(ph, ", ")+")")
		case domain.OpIContains:
			s, _ := c.Value.(string)
			parts = append(parts, col+" ILIKE "+bind("%"+likeEscaper.Replace(s)+"%"))
		case domain.OpGt:
			parts = append(parts, col+" > "+bind(c.Value))
		case domain.OpGte:
			parts = append(parts, col+" >= "+bind(c.Value))
		case domain.OpLt:
			parts = append(parts, col+" < "+bind(c.Value))
		case domain.OpLte:
			parts = append(parts, col+" <= "+bind(c.Value))
		case domain.OpIsNull:
			if want, _ := c.Value.(bool); want {
				parts = append(parts, col+" IS NULL")
			} else {
				parts = append(parts, col+" IS NOT NULL")
			}
		default:
			return "", nil, &domain.FilterError{Key: c.Field, Reason: "unsupported operator " + string(c.Op)}
		}
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
