package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/registry"
	"github.com/tablehub/backend/internal/infrastructure/db/memory"
	"github.com/tablehub/backend/pkg/secret"
)

func init() {
	secret.Cost = bcrypt.MinCost
}

var (
	alice = domain.Actor{UserID: "USR-0000000a", Username: "alice", Role: domain.RoleUser}
	bob   = domain.Actor{UserID: "USR-0000000b", Username: "bob", Role: domain.RoleUser}
	mod   = domain.Actor{UserID: "USR-0000000c", Username: "mod", Role: domain.RoleModerator}
	admin = domain.Actor{UserID: "USR-0000000d", Username: "admin", Role: domain.RoleAdmin}
	root  = domain.Actor{UserID: "USR-0000000e", Username: "root", Role: domain.RoleSuperAdmin}
)

type fixture struct {
	store *memory.Store
	seq   int
	base  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(), base: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	for _, a := range []domain.Actor{alice, bob, mod, admin, root} {
		f.seed(t, registry.User, domain.Document{
			domain.FieldID:       a.UserID,
			"username":           a.Username,
			"email":              a.Username + "@example.com",
			domain.FieldIsActive: true,
		})
	}
	return f
}

// seed inserts doc with a generated id when none is set and a strictly
// increasing createdDate.
func (f *fixture) seed(t *testing.T, e registry.Entity, doc domain.Document) domain.Document {
	t.Helper()
	d := registry.MustGet(e)
	f.seq++
	if doc.ID() == "" {
		doc[domain.FieldID] = fmt.Sprintf("%s-%08x", d.Prefix, f.seq)
	}
	if d.SoftDeletable() {
		if _, ok := doc[domain.FieldIsActive]; !ok {
			doc[domain.FieldIsActive] = true
		}
	}
	doc[domain.FieldCreatedDate] = f.base.Add(time.Duration(f.seq) * time.Second)
	require.NoError(t, f.store.Insert(context.Background(), d, doc))
	return doc
}

func (f *fixture) tables() *TableService {
	return NewTableService(f.store, zerolog.Nop())
}

func (f *fixture) records() *RecordService {
	return NewRecordService(f.store, NewIDGenerator(f.store), zerolog.Nop())
}

func ids(rows []domain.Document) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID()
	}
	return out
}
