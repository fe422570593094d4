package domain

// Op is a comparison operator understood by every table store.
type Op string

const (
	OpEq        Op = "eq"
	OpNe        Op = "ne"
	OpIn        Op = "in"
	OpIContains Op = "icontains"
	OpGt        Op = "gt"
	OpGte       Op = "gte"
	OpLt        Op = "lt"
	OpLte       Op = "lte"
	OpIsNull    Op = "isnull"
)

// Condition restricts a query on a single field. For OpIn the value is a
// []any of normalised values; for OpIsNull it is a bool.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Eq is shorthand for an equality condition.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

// Query is a conjunction of conditions plus an offset/limit window.
// A zero Limit returns every matching row.
type Query struct {
	Conditions []Condition
	Offset     int
	Limit      int
}
