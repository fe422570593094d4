package registry

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tablehub/backend/internal/core/domain"
)

// Coerce converts a decoded JSON value into the normalised Go type of the
// field kind. nil passes through for every kind.
func (f Field) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Kind {
	case KindString, KindText, KindRef:
		switch x := v.(type) {
		case string:
			return x, nil
		case json.Number:
			return x.String(), nil
		}
	case KindBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(x))
			if err == nil {
				return b, nil
			}
		}
	case KindInt:
		switch x := v.(type) {
		case int:
			return int64(x), nil
		case int32:
			return int64(x), nil
		case int64:
			return x, nil
		case float64:
			if x == math.Trunc(x) && !math.IsInf(x, 0) {
				return int64(x), nil
			}
		case json.Number:
			if n, err := x.Int64(); err == nil {
				return n, nil
			}
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
				return n, nil
			}
		}
	case KindDecimal:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int:
			return float64(x), nil
		case int64:
			return float64(x), nil
		case json.Number:
			if n, err := x.Float64(); err == nil {
				return n, nil
			}
		case string:
			if n, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
				return n, nil
			}
		}
	case KindTime:
		switch x := v.(type) {
		case time.Time:
			return x.UTC(), nil
		case string:
			if t, err := parseTime(x); err == nil {
				return t, nil
			}
		}
	case KindBytes:
		switch x := v.(type) {
		case []byte:
			return x, nil
		case string:
			if b, err := base64.StdEncoding.DecodeString(x); err == nil {
				return b, nil
			}
		}
	}
	return nil, fmt.Errorf("expected %s value for %q", f.Kind, f.Name)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}

// Writable reports whether callers may set the field directly. The primary
// key and audit fields are server managed.
func (f Field) Writable() bool {
	switch f.Name {
	case domain.FieldID, domain.FieldCreatedDate, domain.FieldLastModifiedDate,
		domain.FieldCreatedByID, domain.FieldLastModifiedByID:
		return false
	}
	return true
}

// Comparable reports whether ordering operators apply to the kind.
func (k Kind) Comparable() bool {
	switch k {
	case KindInt, KindDecimal, KindTime, KindString:
		return true
	}
	return false
}
