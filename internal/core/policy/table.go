package policy

import (
	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/registry"
)

var (
	public     = Rule{Public: true}
	adminOnly  = Rule{Elevated: domain.RoleAdmin}
	ownerAdmin = Rule{Owner: true, Elevated: domain.RoleAdmin}
	ownerMod   = Rule{Owner: true, Elevated: domain.RoleModerator}
	ownerOnly  = Rule{Owner: true}
)

func uniform(r Rule) map[Action]Rule {
	return map[Action]Rule{Read: r, Create: r, Update: r, Delete: r}
}

func catalog() map[Action]Rule {
	return map[Action]Rule{Read: public, Create: adminOnly, Update: adminOnly, Delete: adminOnly}
}

// Entities absent from the table (profile, login, session) fall back to the
// zero Rule and are SUPER-ADMIN only.
var table = map[registry.Entity]map[Action]Rule{
	registry.User:         uniform(adminOnly),
	registry.ShoppingCart: uniform(ownerAdmin),
	registry.ProductItem:  uniform(ownerAdmin),
	registry.Address:      uniform(ownerAdmin),
	registry.BankCard:     uniform(ownerOnly),
	registry.Notification: uniform(ownerAdmin),
	registry.Case:         {Read: ownerMod, Create: ownerMod, Update: ownerMod, Delete: adminOnly},
	registry.Product:      catalog(),
	registry.PriceBook:    catalog(),
	registry.RecordType:   catalog(),
}

var redactions = map[registry.Entity][]string{
	registry.BankCard: {"cardNumber", "cvv"},
	registry.Login:    {"token1", "token2"},
}

// Redactions returns the fields masked on reads of entity.
func Redactions(entity registry.Entity) []string {
	return redactions[entity]
}
