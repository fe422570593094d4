// Package registry is the closed catalogue of entities the backend exposes.
// Each entity maps to a Descriptor carrying its field schema, identifier
// prefix, ownership relation and delete mode. Adding an entity means adding a
// descriptor here and a row to the access policy table; no endpoint code.
package registry

import (
	"fmt"
	"strings"

	"github.com/tablehub/backend/internal/core/domain"
)

// Entity is the lowercase tag naming a registered entity.
type Entity string

const (
	User         Entity = "user"
	Profile      Entity = "profile"
	Login        Entity = "login"
	Session      Entity = "session"
	BankCard     Entity = "bankcard"
	Product      Entity = "product"
	ProductItem  Entity = "productitem"
	PriceBook    Entity = "pricebook"
	ShoppingCart Entity = "shoppingcart"
	Case         Entity = "case"
	Notification Entity = "notification"
	RecordType   Entity = "recordtype"
	Address      Entity = "address"
)

// Kind is the storage type of a field.
type Kind int

const (
	KindString Kind = iota
	KindText
	KindBool
	KindInt
	KindDecimal
	KindTime
	KindRef
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDecimal:
		return "decimal"
	case KindTime:
		return "time"
	case KindRef:
		return "ref"
	case KindBytes:
		return "bytes"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field describes one column of an entity.
type Field struct {
	Name   string
	Kind   Kind
	Ref    Entity // target entity for KindRef
	Unique bool
}

// Owner locates the identity that owns a row. When Via is set the owner is
// one hop away: Field references a row of Via whose ViaField is the owner.
type Owner struct {
	Field    string
	Via      Entity
	ViaField string
}

// Transitive reports whether ownership is resolved through a parent row.
func (o Owner) Transitive() bool { return o.Via != "" }

// DeleteMode selects physical removal or flagging isActive=false.
type DeleteMode int

const (
	HardDelete DeleteMode = iota
	SoftDelete
)

// Descriptor is the schema of a registered entity.
type Descriptor struct {
	Entity     Entity
	Prefix     string
	Collection string
	Fields     []Field
	Owner      *Owner
	Shared     bool
	Delete     DeleteMode

	byName map[string]Field
}

// Field looks up a field by exact name.
func (d *Descriptor) Field(name string) (Field, bool) {
	f, ok := d.byName[name]
	return f, ok
}

// HasField reports whether name belongs to the schema.
func (d *Descriptor) HasField(name string) bool {
	_, ok := d.byName[name]
	return ok
}

// SoftDeletable reports whether the entity carries the isActive flag.
func (d *Descriptor) SoftDeletable() bool {
	return d.HasField(domain.FieldIsActive)
}

// UniqueFields returns the names of fields with a uniqueness constraint.
func (d *Descriptor) UniqueFields() []string {
	var out []string
	for _, f := range d.Fields {
		if f.Unique {
			out = append(out, f.Name)
		}
	}
	return out
}

// FieldNames returns the schema's field names in declaration order.
func (d *Descriptor) FieldNames() []string {
	out := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		out[i] = f.Name
	}
	return out
}

var descriptors = map[Entity]*Descriptor{}

func register(d *Descriptor) {
	fields := make([]Field, 0, len(d.Fields)+5)
	fields = append(fields, Field{Name: domain.FieldID, Kind: KindString, Unique: true})
	fields = append(fields, d.Fields...)
	fields = append(fields,
		Field{Name: domain.FieldCreatedDate, Kind: KindTime},
		Field{Name: domain.FieldLastModifiedDate, Kind: KindTime},
		Field{Name: domain.FieldCreatedByID, Kind: KindRef, Ref: User},
		Field{Name: domain.FieldLastModifiedByID, Kind: KindRef, Ref: User},
	)
	d.Fields = fields
	d.byName = make(map[string]Field, len(fields))
	for _, f := range fields {
		d.byName[f.Name] = f
	}
	if d.Collection == "" {
		d.Collection = string(d.Entity)
	}
	descriptors[d.Entity] = d
}

// Resolve maps a case-insensitive entity name to its descriptor.
func Resolve(name string) (*Descriptor, error) {
	d, ok := descriptors[Entity(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEntity, name)
	}
	return d, nil
}

// MustGet returns the descriptor of a known entity tag and panics otherwise.
func MustGet(e Entity) *Descriptor {
	d, ok := descriptors[e]
	if !ok {
		panic("registry: unregistered entity " + string(e))
	}
	return d
}

// All returns every descriptor in a stable order.
func All() []*Descriptor {
	out := make([]*Descriptor, 0, len(order))
	for _, e := range order {
		out = append(out, descriptors[e])
	}
	return out
}
