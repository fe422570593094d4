package domain

import (
	"strings"
	"time"
)

// User models an identity. Role is resolved from the referenced profile.
type User struct {
	ID        string
	FirstName string
	LastName  string
	Name      string
	Email     string
	Username  string
	ProfileID string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName derives the stored name from first and last name.
func DisplayName(first, last string) string {
	return strings.TrimSpace(first) + " " + strings.ToUpper(strings.TrimSpace(last))
}

// DefaultUsername returns the local part of email.
func DefaultUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// Document converts u to its stored representation without audit fields.
func (u User) Document() Document {
	doc := Document{
		FieldID:       u.ID,
		"firstName":   u.FirstName,
		"lastName":    u.LastName,
		"name":        u.Name,
		"email":       u.Email,
		"username":    u.Username,
		"profileId":   nil,
		FieldIsActive: u.IsActive,
	}
	if u.ProfileID != "" {
		doc["profileId"] = u.ProfileID
	}
	return doc
}

// UserFromDocument reads a stored user row.
func UserFromDocument(d Document) User {
	return User{
		ID:        d.ID(),
		FirstName: d.String("firstName"),
		LastName:  d.String("lastName"),
		Name:      d.String("name"),
		Email:     d.String("email"),
		Username:  d.String("username"),
		ProfileID: d.String("profileId"),
		IsActive:  d.Bool(FieldIsActive),
		CreatedAt: d.Time(FieldCreatedDate),
		UpdatedAt: d.Time(FieldLastModifiedDate),
	}
}

// Profile binds a role name to identities.
type Profile struct {
	ID   string
	Name Role
}

// ProfileFromDocument reads a stored profile row. Unknown names degrade to GUEST.
func ProfileFromDocument(d Document) Profile {
	role, ok := ParseRole(d.String("name"))
	if !ok {
		role = RoleGuest
	}
	return Profile{ID: d.ID(), Name: role}
}

// Login holds the two salted secrets of an identity: token1 is derived from
// email+password, token2 from username+password.
type Login struct {
	ID       string
	UserID   string
	Token1   string
	Token2   string
	IsActive bool
}

func (l Login) Document() Document {
	return Document{
		FieldID:       l.ID,
		"userId":      l.UserID,
		"token1":      l.Token1,
		"token2":      l.Token2,
		FieldIsActive: l.IsActive,
	}
}

func LoginFromDocument(d Document) Login {
	return Login{
		ID:       d.ID(),
		UserID:   d.String("userId"),
		Token1:   d.String("token1"),
		Token2:   d.String("token2"),
		IsActive: d.Bool(FieldIsActive),
	}
}

// Session is a one-time handshake record identified by a short code.
type Session struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Action      string    `json:"action"`
	IsActive    bool      `json:"isActive"`
	CreatedDate time.Time `json:"createdDate"`
}

func SessionFromDocument(d Document) Session {
	return Session{
		ID:          d.ID(),
		Code:        d.String("code"),
		Action:      d.String("action"),
		IsActive:    d.Bool(FieldIsActive),
		CreatedDate: d.Time(FieldCreatedDate),
	}
}
