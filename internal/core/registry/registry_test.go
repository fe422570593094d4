package registry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablehub/backend/internal/core/domain"
)

func TestResolve_CaseInsensitive(t *testing.T) {
	for _, name := range []string{"ShoppingCart", "shoppingcart", " SHOPPINGCART "} {
		d, err := Resolve(name)
		require.NoError(t, err, name)
		assert.Equal(t, ShoppingCart, d.Entity)
	}
}

func TestResolve_Unknown(t *testing.T) {
	_, err := Resolve("orders")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownEntity))
}

func TestAll_ClosedSet(t *testing.T) {
	all := All()
	require.Len(t, all, 13)

	prefixes := map[string]bool{}
	for _, d := range all {
		assert.Len(t, d.Prefix, 3, d.Entity)
		assert.False(t, prefixes[d.Prefix], "duplicate prefix %s", d.Prefix)
		prefixes[d.Prefix] = true

		for _, f := range []string{domain.FieldID, domain.FieldCreatedDate, domain.FieldLastModifiedDate,
			domain.FieldCreatedByID, domain.FieldLastModifiedByID} {
			assert.True(t, d.HasField(f), "%s missing %s", d.Entity, f)
		}
	}
}

func TestDescriptor_UniqueFields(t *testing.T) {
	assert.ElementsMatch(t, []string{"email", "username"}, MustGet(User).UniqueFields())
	assert.Equal(t, []string{"name"}, MustGet(Profile).UniqueFields())
	assert.Equal(t, []string{"code"}, MustGet(Session).UniqueFields())
}

func TestDescriptor_Ownership(t *testing.T) {
	item := MustGet(ProductItem)
	require.NotNil(t, item.Owner)
	assert.True(t, item.Owner.Transitive())
	assert.Equal(t, ShoppingCart, item.Owner.Via)

	for _, e := range []Entity{Product, PriceBook, RecordType} {
		d := MustGet(e)
		assert.True(t, d.Shared, e)
		assert.Nil(t, d.Owner, e)
	}

	assert.False(t, MustGet(Notification).SoftDeletable())
	assert.Equal(t, SoftDelete, MustGet(Address).Delete)
	assert.Equal(t, HardDelete, MustGet(Case).Delete)
}

func TestParseFilters(t *testing.T) {
	d := MustGet(PriceBook)

	conds, err := d.ParseFilters(map[string]any{
		"price__gte": 10.0,
		"productId":  "PRD-0000abcd",
		"isActive":   "true",
	})
	require.NoError(t, err)
	require.Len(t, conds, 3)

	// sorted by key
	assert.Equal(t, domain.Condition{Field: "isActive", Op: domain.OpEq, Value: true}, conds[0])
	assert.Equal(t, domain.Condition{Field: "price", Op: domain.OpGte, Value: 10.0}, conds[1])
	assert.Equal(t, domain.Condition{Field: "productId", Op: domain.OpEq, Value: "PRD-0000abcd"}, conds[2])
}

func TestParseFilters_In(t *testing.T) {
	d := MustGet(ProductItem)

	conds, err := d.ParseFilters(map[string]any{"quantity__in": []any{1.0, 2.0}})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, conds[0].Value)

	conds, err = d.ParseFilters(map[string]any{"id__in": "ITM-1, ITM-2"})
	require.NoError(t, err)
	assert.Equal(t, []any{"ITM-1", "ITM-2"}, conds[0].Value)
}

func TestParseFilters_Rejects(t *testing.T) {
	d := MustGet(Product)
	cases := map[string]map[string]any{
		"unknown field":  {"colour": "red"},
		"unknown lookup": {"name__regex": ".*"},
		"bad bool":       {"isActive": "maybe"},
		"icontains bool": {"isActive__icontains": "t"},
		"isnull value":   {"name__isnull": "x"},
		"ordering bool":  {"isActive__gt": true},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := d.ParseFilters(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidFilter))
			var fe *domain.FilterError
			require.True(t, errors.As(err, &fe))
		})
	}
}

func TestCoerce(t *testing.T) {
	ts, err := Field{Name: "t", Kind: KindTime}.Coerce("2024-03-01T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), ts)

	b, err := Field{Name: "image", Kind: KindBytes}.Coerce("aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), b)

	_, err = Field{Name: "quantity", Kind: KindInt}.Coerce(1.5)
	assert.Error(t, err)

	v, err := Field{Name: "name", Kind: KindString}.Coerce(nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDecode(t *testing.T) {
	d := MustGet(Case)

	doc, err := d.Decode(map[string]any{"subject": "Broken", "accountId": "USR-00000001"})
	require.NoError(t, err)
	assert.Equal(t, "Broken", doc.String("subject"))

	_, err = d.Decode(map[string]any{"id": "CAS-1", "createdById": "x", "nope": 1})
	require.Error(t, err)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "id")
	assert.Contains(t, verr.Fields, "createdById")
	assert.Contains(t, verr.Fields, "nope")
}
