package pages

import (
	"fmt"
	"math"
	"strconv"
)

// Identifier names a page. It is one of *Page, ID or Permalink.
type Identifier interface {
	isIdentifier()
}

// ID identifies a page by numeric id.
type ID int64

// Permalink identifies a page by its permalink.
type Permalink string

func (*Page) isIdentifier()     {}
func (ID) isIdentifier()        {}
func (Permalink) isIdentifier() {}

// ParseIdentifier interprets raw as an id when it is an integer and as a
// permalink otherwise.
func ParseIdentifier(raw string) Identifier {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ID(n)
	}
	return Permalink(raw)
}

// IdentifierOf converts a dynamically typed value into an Identifier.
// Supported inputs are *Page, Page, the Identifier variants, Go integer
// types and strings.
func IdentifierOf(v interface{}) (Identifier, error) {
	switch t := v.(type) {
	case *Page:
		if t == nil {
			return nil, &IdentifierTypeError{Value: v}
		}
		return t, nil
	case Page:
		return &t, nil
	case ID:
		return t, nil
	case Permalink:
		return t, nil
	case int:
		return ID(t), nil
	case int8:
		return ID(t), nil
	case int16:
		return ID(t), nil
	case int32:
		return ID(t), nil
	case int64:
		return ID(t), nil
	case uint:
		return unsignedID(uint64(t))
	case uint8:
		return ID(t), nil
	case uint16:
		return ID(t), nil
	case uint32:
		return ID(t), nil
	case uint64:
		return unsignedID(t)
	case string:
		return ParseIdentifier(t), nil
	default:
		return nil, &IdentifierTypeError{Value: v}
	}
}

// unsignedID converts an unsigned id. Ids beyond int64 cannot be assigned
// by any store, so they name no page.
func unsignedID(n uint64) (Identifier, error) {
	if n > math.MaxInt64 {
		return nil, fmt.Errorf("page id %d out of range: %w", n, ErrPageNotFound)
	}
	return ID(n), nil
}
