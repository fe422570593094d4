package domain

// Actor is the authenticated caller an operation runs on behalf of.
// The zero value is an anonymous guest.
type Actor struct {
	UserID   string
	Username string
	Role     Role
}

// AnonymousActor returns the actor used for requests without credentials.
func AnonymousActor() Actor {
	return Actor{Role: RoleGuest}
}

// Authenticated reports whether the actor maps to a stored identity.
func (a Actor) Authenticated() bool {
	return a.UserID != ""
}

// Owns reports whether ownerID designates the actor.
func (a Actor) Owns(ownerID string) bool {
	return a.Authenticated() && ownerID == a.UserID
}

// AuditID is the value written to createdById / lastModifiedById. Anonymous
// actors stamp nil.
func (a Actor) AuditID() any {
	if !a.Authenticated() {
		return nil
	}
	return a.UserID
}
