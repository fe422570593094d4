package postgres

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/registry"
)

func TestCreateTableSQL(t *testing.T) {
	sql := CreateTableSQL(registry.MustGet(registry.User))

	assert.True(t, strings.HasPrefix(sql, `CREATE TABLE IF NOT EXISTS "user" (`))
	assert.Contains(t, sql, `"id" TEXT PRIMARY KEY`)
	assert.Contains(t, sql, `"email" TEXT CONSTRAINT "user_email_key" UNIQUE`)
	assert.Contains(t, sql, `"isActive" BOOLEAN`)
	assert.Contains(t, sql, `"createdDate" TIMESTAMPTZ`)

	sql = CreateTableSQL(registry.MustGet(registry.Notification))
	assert.Contains(t, sql, `"image" BYTEA`)

	assert.Len(t, CreateIndexSQL(registry.MustGet(registry.Product)), 1)
	assert.Len(t, CreateIndexSQL(registry.MustGet(registry.ProductItem)), 2)
}

func TestFindSQL(t *testing.T) {
	d := registry.MustGet(registry.PriceBook)
	sql, args, err := findSQL(d, domain.Query{
		Conditions: []domain.Condition{
			{Field: "price", Op: domain.OpGte, Value: 10.0},
			domain.Eq(domain.FieldIsActive, true),
			domain.Eq("discount", nil),
		},
		Offset: 20,
		Limit:  10,
	})
	require.NoError(t, err)
	assert.Contains(t, sql, `FROM "pricebook" WHERE "price" >= $1 AND "isActive" = $2 AND "discount" IS NULL`)
	assert.True(t, strings.HasSuffix(sql, `ORDER BY "createdDate" ASC NULLS FIRST, "id" ASC OFFSET $3 LIMIT $4`))
	assert.Equal(t, []any{10.0, true, 20, 10}, args)
}

func TestWhere_Operators(t *testing.T) {
	d := registry.MustGet(registry.ProductItem)

	w, args, err := where(d, []domain.Condition{
		{Field: "shoppingCartId", Op: domain.OpIn, Value: []any{"CRT-1", "CRT-2"}},
		{Field: "productId", Op: domain.OpNe, Value: "PRD-1"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, ` WHERE "shoppingCartId" IN ($1, $2) AND "productId" IS DISTINCT FROM $3`, w)
	assert.Equal(t, []any{"CRT-1", "CRT-2", "PRD-1"}, args)

	w, _, err = where(d, []domain.Condition{{Field: "shoppingCartId", Op: domain.OpIn, Value: []any{}}}, nil)
	require.NoError(t, err)
	assert.Equal(t, " WHERE FALSE", w)

	w, args, err = where(registry.MustGet(registry.Product), []domain.Condition{{Field: "name", Op: domain.OpIContains, Value: "50%_off"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, ` WHERE "name" ILIKE $1`, w)
	assert.Equal(t, []any{`%50\%\_off%`}, args)

	_, _, err = where(d, []domain.Condition{domain.Eq(`x"; DROP TABLE`, 1)}, nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidFilter))
}

func TestInsertAndUpdateSQL(t *testing.T) {
	d := registry.MustGet(registry.ShoppingCart)

	sql, args := insertSQL(d, domain.Document{domain.FieldID: "CRT-1", "userId": "USR-1", "bogus": 1})
	assert.Equal(t, `INSERT INTO "shoppingcart" ("id", "userId") VALUES ($1, $2)`, sql)
	assert.Equal(t, []any{"CRT-1", "USR-1"}, args)

	sql, args = updateSQL(d, "CRT-1", domain.Document{domain.FieldIsActive: false})
	assert.True(t, strings.HasPrefix(sql, `UPDATE "shoppingcart" SET "isActive" = $1 WHERE "id" = $2 RETURNING `))
	assert.Equal(t, []any{false, "CRT-1"}, args)
}

func TestTranslate(t *testing.T) {
	d := registry.MustGet(registry.User)

	err := translate(d, "insert", &pgconn.PgError{Code: uniqueViolation, ConstraintName: "user_username_key"})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "username")

	err = translate(d, "get", errors.New("connection reset"))
	assert.True(t, errors.Is(err, domain.ErrUpstream))
}
