package service

import (
	"strings"

	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/registry"
	"github.com/tablehub/backend/pkg/secret"
)

// DefaultCaseStatus is assigned to cases created without a status.
const DefaultCaseStatus = "New"

// hook adjusts a decoded payload before it is written. creating is false on
// updates, where doc holds only the changed fields.
type hook func(doc domain.Document, creating bool) error

var hooks = map[registry.Entity]hook{
	registry.BankCard:     bankCardHook,
	registry.Notification: notificationHook,
	registry.Case:         caseHook,
	registry.Profile:      profileHook,
}

func applyHooks(d *registry.Descriptor, doc domain.Document, creating bool) error {
	if creating && d.SoftDeletable() {
		if v, ok := doc[domain.FieldIsActive]; !ok || v == nil {
			doc[domain.FieldIsActive] = true
		}
	}
	if h, ok := hooks[d.Entity]; ok {
		return h(doc, creating)
	}
	return nil
}

func bankCardHook(doc domain.Document, creating bool) error {
	verr := &domain.ValidationError{}
	if _, ok := doc["cardLast4"]; ok {
		verr.Add("cardLast4", "field is read-only")
	}

	if v, ok := doc["cardNumber"]; ok {
		number := digits(asString(v))
		if len(number) < 12 || len(number) > 19 {
			verr.Add("cardNumber", "must contain 12 to 19 digits")
		} else {
			h, err := secret.Hash(number)
			if err != nil {
				return err
			}
			doc["cardNumber"] = h
			doc["cardLast4"] = number[len(number)-4:]
		}
	} else if creating {
		verr.Add("cardNumber", "is required")
	}

	if v, ok := doc["cvv"]; ok {
		cvv := digits(asString(v))
		if len(cvv) < 3 || len(cvv) > 4 {
			verr.Add("cvv", "must contain 3 or 4 digits")
		} else {
			h, err := secret.Hash(cvv)
			if err != nil {
				return err
			}
			doc["cvv"] = h
		}
	}

	if !verr.Empty() {
		return verr
	}
	return nil
}

func notificationHook(doc domain.Document, creating bool) error {
	if creating {
		doc["isRead"] = false
	}
	return nil
}

func caseHook(doc domain.Document, creating bool) error {
	if creating && asString(doc["status"]) == "" {
		doc["status"] = DefaultCaseStatus
	}
	return nil
}

func profileHook(doc domain.Document, creating bool) error {
	v, ok := doc["name"]
	if !ok {
		if creating {
			return domain.NewValidationError("name", "is required")
		}
		return nil
	}
	role, valid := domain.ParseRole(asString(v))
	if !valid {
		return domain.NewValidationError("name", "must be one of SUPER-ADMIN, ADMIN, MODERATOR, USER, GUEST")
	}
	doc["name"] = role.String()
	return nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// digits strips spaces and dashes from s. Any other non-digit yields "".
func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
		default:
			return ""
		}
	}
	return b.String()
}
