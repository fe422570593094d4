package handler

import "github.com/tablehub/backend/internal/core/registry"

// Create-time request shapes. They only gate the payload; the stored row is
// decoded from the raw body against the registry schema, so every field here
// must use the same JSON name as its registry field.

type createProfileRequest struct {
	Name string `json:"name" validate:"required,max=20"`
}

type createProductRequest struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description" validate:"required"`
}

type createPriceBookRequest struct {
	ProductID string   `json:"productId" validate:"required,max=20"`
	Price     *float64 `json:"price"     validate:"required,gte=0,lt=100000000"`
	Discount  *float64 `json:"discount"  validate:"omitempty,gte=0,lte=100"`
}

type createProductItemRequest struct {
	ProductID      string `json:"productId"      validate:"required,max=20"`
	ShoppingCartID string `json:"shoppingCartId" validate:"required,max=20"`
	Quantity       *int64 `json:"quantity"       validate:"omitempty,gte=1"`
}

type createShoppingCartRequest struct {
	UserID string `json:"userId" validate:"omitempty,max=20"`
}

type createCaseRequest struct {
	AccountID   string `json:"accountId"   validate:"omitempty,max=20"`
	Subject     string `json:"subject"     validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
	Status      string `json:"status"      validate:"omitempty,max=50"`
}

type createBankCardRequest struct {
	UserID         string `json:"userId"         validate:"omitempty,max=20"`
	CardNumber     string `json:"cardNumber"     validate:"required"`
	ExpiryDate     string `json:"expiryDate"     validate:"required,len=5"`
	CVV            string `json:"cvv"            validate:"required,numeric,min=3,max=4"`
	CardHolderName string `json:"cardHolderName" validate:"required,max=100"`
}

type createNotificationRequest struct {
	Message  string `json:"message"  validate:"required"`
	Image    string `json:"image"    validate:"omitempty,base64"`
	Receiver string `json:"receiver" validate:"required,max=20"`
}

type createRecordTypeRequest struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty"`
}

type createAddressRequest struct {
	UserID     string `json:"userId"     validate:"omitempty,max=20"`
	Street     string `json:"street"     validate:"required,max=255"`
	City       string `json:"city"       validate:"required,max=100"`
	State      string `json:"state"      validate:"required,max=100"`
	PostalCode string `json:"postalCode" validate:"required,max=20"`
	Country    string `json:"country"    validate:"required,max=100"`
}

// createSchemas returns a fresh request value per entity.
var createSchemas = map[registry.Entity]func() any{
	registry.Profile:      func() any { return new(createProfileRequest) },
	registry.Product:      func() any { return new(createProductRequest) },
	registry.PriceBook:    func() any { return new(createPriceBookRequest) },
	registry.ProductItem:  func() any { return new(createProductItemRequest) },
	registry.ShoppingCart: func() any { return new(createShoppingCartRequest) },
	registry.Case:         func() any { return new(createCaseRequest) },
	registry.BankCard:     func() any { return new(createBankCardRequest) },
	registry.Notification: func() any { return new(createNotificationRequest) },
	registry.RecordType:   func() any { return new(createRecordTypeRequest) },
	registry.Address:      func() any { return new(createAddressRequest) },
}
