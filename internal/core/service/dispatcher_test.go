package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/policy"
	"github.com/tablehub/backend/internal/core/ports"
	"github.com/tablehub/backend/internal/core/registry"
)

func TestTableService_List_RoleGate(t *testing.T) {
	f := newFixture(t)
	svc := f.tables()

	page, err := svc.List(context.Background(), admin, "user", ports.ListInput{})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Count)

	_, err = svc.List(context.Background(), alice, "user", ports.ListInput{})
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))

	_, err = svc.List(context.Background(), admin, "profile", ports.ListInput{})
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))

	_, err = svc.List(context.Background(), root, "Profile", ports.ListInput{})
	assert.NoError(t, err)
}

func TestTableService_List_Pagination(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 25; i++ {
		f.seed(t, registry.Product, domain.Document{"name": fmt.Sprintf("product %02d", i)})
	}
	svc := f.tables()
	ctx := context.Background()

	p1, err := svc.List(ctx, domain.AnonymousActor(), "product", ports.ListInput{Page: 1})
	require.NoError(t, err)
	assert.Len(t, p1.Items, 10)
	assert.EqualValues(t, 25, p1.Count)
	assert.True(t, p1.HasNext)
	assert.False(t, p1.HasPrev)
	assert.Equal(t, "product 00", p1.Items[0]["name"])

	p3, err := svc.List(ctx, domain.AnonymousActor(), "product", ports.ListInput{Page: 3})
	require.NoError(t, err)
	assert.Len(t, p3.Items, 5)
	assert.False(t, p3.HasNext)
	assert.True(t, p3.HasPrev)
	assert.Equal(t, "product 24", p3.Items[4]["name"])

	_, err = svc.List(ctx, domain.AnonymousActor(), "product", ports.ListInput{Page: 4})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestTableService_List_EmptyFirstPage(t *testing.T) {
	f := newFixture(t)
	page, err := f.tables().List(context.Background(), alice, "address", ports.ListInput{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasNext)
}

func TestTableService_SoftDeleted(t *testing.T) {
	f := newFixture(t)
	live := f.seed(t, registry.Product, domain.Document{"name": "live"})
	gone := f.seed(t, registry.Product, domain.Document{"name": "gone", domain.FieldIsActive: false})
	svc := f.tables()
	ctx := context.Background()

	page, err := svc.List(ctx, alice, "product", ports.ListInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{live.ID()}, ids(page.Items))

	page, err = svc.List(ctx, alice, "product", ports.ListInput{Filters: map[string]any{"isActive": false}})
	require.NoError(t, err)
	assert.Equal(t, []string{gone.ID()}, ids(page.Items))

	doc, err := svc.Detail(ctx, alice, "product", gone.ID())
	require.NoError(t, err)
	assert.Equal(t, false, doc[domain.FieldIsActive])
}

func TestTableService_OwnerScopeNotOverridable(t *testing.T) {
	f := newFixture(t)
	mine := f.seed(t, registry.ShoppingCart, domain.Document{"userId": alice.UserID})
	f.seed(t, registry.ShoppingCart, domain.Document{"userId": bob.UserID})
	svc := f.tables()
	ctx := context.Background()

	page, err := svc.List(ctx, alice, "shoppingcart", ports.ListInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{mine.ID()}, ids(page.Items))

	page, err = svc.List(ctx, alice, "shoppingcart", ports.ListInput{Filters: map[string]any{"userId": bob.UserID}})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = svc.List(ctx, admin, "shoppingcart", ports.ListInput{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestTableService_TransitiveOwner(t *testing.T) {
	f := newFixture(t)
	cartA := f.seed(t, registry.ShoppingCart, domain.Document{"userId": alice.UserID})
	cartB := f.seed(t, registry.ShoppingCart, domain.Document{"userId": bob.UserID})
	item := f.seed(t, registry.ProductItem, domain.Document{"shoppingCartId": cartA.ID(), "quantity": int64(1)})
	other := f.seed(t, registry.ProductItem, domain.Document{"shoppingCartId": cartB.ID(), "quantity": int64(2)})
	svc := f.tables()
	ctx := context.Background()

	page, err := svc.List(ctx, alice, "productitem", ports.ListInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{item.ID()}, ids(page.Items))

	_, err = svc.Detail(ctx, alice, "productitem", other.ID())
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))

	_, err = svc.Detail(ctx, alice, "productitem", item.ID())
	assert.NoError(t, err)
}

func TestTableService_Detail(t *testing.T) {
	f := newFixture(t)
	addr := f.seed(t, registry.Address, domain.Document{"userId": bob.UserID, "city": "Lyon"})
	svc := f.tables()
	ctx := context.Background()

	_, err := svc.Detail(ctx, alice, "address", addr.ID())
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))

	doc, err := svc.Detail(ctx, admin, "address", addr.ID())
	require.NoError(t, err)
	assert.Equal(t, "Lyon", doc["city"])

	_, err = svc.Detail(ctx, alice, "address", "ADR-ffffffff")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	// refused by role before the row is looked up
	_, err = svc.Detail(ctx, alice, "profile", "PRF-ffffffff")
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
}

func TestTableService_CaseModerator(t *testing.T) {
	f := newFixture(t)
	c := f.seed(t, registry.Case, domain.Document{"accountId": alice.UserID, "subject": "help"})
	svc := f.tables()

	doc, err := svc.Detail(context.Background(), mod, "case", c.ID())
	require.NoError(t, err)
	assert.Equal(t, "help", doc["subject"])

	_, err = svc.Detail(context.Background(), bob, "case", c.ID())
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
}

func TestTableService_Redaction(t *testing.T) {
	f := newFixture(t)
	card := f.seed(t, registry.BankCard, domain.Document{"userId": alice.UserID, "cardNumber": "$2a$hash", "cvv": "$2a$hash", "cardLast4": "4242"})
	svc := f.tables()

	doc, err := svc.Detail(context.Background(), alice, "bankcard", card.ID())
	require.NoError(t, err)
	assert.Equal(t, policy.Mask, doc["cardNumber"])
	assert.Equal(t, policy.Mask, doc["cvv"])
	assert.Equal(t, "4242", doc["cardLast4"])

	// admins are not owners of bank cards
	page, err := svc.List(context.Background(), admin, "bankcard", ports.ListInput{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestTableService_Errors(t *testing.T) {
	f := newFixture(t)
	svc := f.tables()
	ctx := context.Background()

	_, err := svc.List(ctx, admin, "orders", ports.ListInput{})
	assert.True(t, errors.Is(err, domain.ErrUnknownEntity))

	_, err = svc.Detail(ctx, admin, "orders", "X")
	assert.True(t, errors.Is(err, domain.ErrUnknownEntity))

	_, err = svc.List(ctx, admin, "product", ports.ListInput{Filters: map[string]any{"colour": "red"}})
	assert.True(t, errors.Is(err, domain.ErrInvalidFilter))
}
