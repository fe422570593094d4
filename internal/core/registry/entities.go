package registry

import "github.com/tablehub/backend/internal/core/domain"

var order = []Entity{
	User, Profile, Login, Session, BankCard, Product, ProductItem,
	PriceBook, ShoppingCart, Case, Notification, RecordType, Address,
}

var isActive = Field{Name: domain.FieldIsActive, Kind: KindBool}

func init() {
	register(&Descriptor{
		Entity: User,
		Prefix: "USR",
		Fields: []Field{
			{Name: "firstName", Kind: KindString},
			{Name: "lastName", Kind: KindString},
			{Name: "name", Kind: KindString},
			{Name: "email", Kind: KindString, Unique: true},
			{Name: "username", Kind: KindString, Unique: true},
			{Name: "profileId", Kind: KindRef, Ref: Profile},
			isActive,
		},
	})
	register(&Descriptor{
		Entity: Profile,
		Prefix: "PRF",
		Fields: []Field{
			{Name: "name", Kind: KindString, Unique: true},
		},
	})
	register(&Descriptor{
		Entity: Login,
		Prefix: "LGN",
		Fields: []Field{
			{Name: "userId", Kind: KindRef, Ref: User},
			{Name: "token1", Kind: KindString},
			{Name: "token2", Kind: KindString},
			isActive,
		},
		Owner: &Owner{Field: "userId"},
	})
	register(&Descriptor{
		Entity: Session,
		Prefix: "SES",
		Fields: []Field{
			{Name: "code", Kind: KindString, Unique: true},
			{Name: "action", Kind: KindString},
			isActive,
		},
		Owner: &Owner{Field: domain.FieldCreatedByID},
	})
	register(&Descriptor{
		Entity: BankCard,
		Prefix: "CRD",
		Fields: []Field{
			{Name: "userId", Kind: KindRef, Ref: User},
			{Name: "cardNumber", Kind: KindString},
			{Name: "cardLast4", Kind: KindString},
			{Name: "expiryDate", Kind: KindString},
			{Name: "cvv", Kind: KindString},
			{Name: "cardHolderName", Kind: KindString},
			isActive,
		},
		Owner:  &Owner{Field: "userId"},
		Delete: SoftDelete,
	})
	register(&Descriptor{
		Entity: Product,
		Prefix: "PRD",
		Fields: []Field{
			{Name: "name", Kind: KindString},
			{Name: "description", Kind: KindText},
			isActive,
		},
		Shared: true,
	})
	register(&Descriptor{
		Entity: PriceBook,
		Prefix: "PRC",
		Fields: []Field{
			{Name: "productId", Kind: KindRef, Ref: Product},
			{Name: "price", Kind: KindDecimal},
			{Name: "discount", Kind: KindDecimal},
			isActive,
		},
		Shared: true,
	})
	register(&Descriptor{
		Entity: ProductItem,
		Prefix: "ITM",
		Fields: []Field{
			{Name: "productId", Kind: KindRef, Ref: Product},
			{Name: "shoppingCartId", Kind: KindRef, Ref: ShoppingCart},
			{Name: "quantity", Kind: KindInt},
			isActive,
		},
		Owner:  &Owner{Field: "shoppingCartId", Via: ShoppingCart, ViaField: "userId"},
		Delete: SoftDelete,
	})
	register(&Descriptor{
		Entity: ShoppingCart,
		Prefix: "CRT",
		Fields: []Field{
			{Name: "userId", Kind: KindRef, Ref: User},
			isActive,
		},
		Owner:  &Owner{Field: "userId"},
		Delete: SoftDelete,
	})
	register(&Descriptor{
		Entity:     Case,
		Prefix:     "CAS",
		Collection: "cases",
		Fields: []Field{
			{Name: "accountId", Kind: KindRef, Ref: User},
			{Name: "subject", Kind: KindString},
			{Name: "description", Kind: KindText},
			{Name: "status", Kind: KindString},
			isActive,
		},
		Owner: &Owner{Field: "accountId"},
	})
	register(&Descriptor{
		Entity: Notification,
		Prefix: "NTF",
		Fields: []Field{
			{Name: "message", Kind: KindText},
			{Name: "image", Kind: KindBytes},
			{Name: "receiver", Kind: KindRef, Ref: User},
			{Name: "isRead", Kind: KindBool},
		},
		Owner: &Owner{Field: "receiver"},
	})
	register(&Descriptor{
		Entity: RecordType,
		Prefix: "RTY",
		Fields: []Field{
			{Name: "name", Kind: KindString},
			{Name: "description", Kind: KindText},
			isActive,
		},
		Shared: true,
	})
	register(&Descriptor{
		Entity: Address,
		Prefix: "ADR",
		Fields: []Field{
			{Name: "userId", Kind: KindRef, Ref: User},
			{Name: "street", Kind: KindString},
			{Name: "city", Kind: KindString},
			{Name: "state", Kind: KindString},
			{Name: "postalCode", Kind: KindString},
			{Name: "country", Kind: KindString},
			isActive,
		},
		Owner:  &Owner{Field: "userId"},
		Delete: SoftDelete,
	})
}
