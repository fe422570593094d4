package domain

import "time"

// Common field names shared by every registered entity.
const (
	FieldID               = "id"
	FieldCreatedDate      = "createdDate"
	FieldLastModifiedDate = "lastModifiedDate"
	FieldCreatedByID      = "createdById"
	FieldLastModifiedByID = "lastModifiedById"
	FieldIsActive         = "isActive"
)

// Document is a single stored row keyed by field name. Values are normalised
// by the registry: string, bool, int64, float64, time.Time, []byte or nil.
type Document map[string]any

// ID returns the primary key of the row.
func (d Document) ID() string { return d.String(FieldID) }

// String returns the string value of field, or "" if absent or not a string.
func (d Document) String(field string) string {
	s, _ := d[field].(string)
	return s
}

// Bool returns the boolean value of field.
func (d Document) Bool(field string) bool {
	b, _ := d[field].(bool)
	return b
}

// Time returns the time value of field.
func (d Document) Time(field string) time.Time {
	t, _ := d[field].(time.Time)
	return t
}

// Clone returns a shallow copy safe to mutate at the top level.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
