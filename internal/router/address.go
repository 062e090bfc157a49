package router

import (
	"fmt"
	"unicode/utf8"

	"github.com/EnMasseProject/enmasse/internal/entity"
)

// mobilePrefix marks a mobile address in the router address table.
const mobilePrefix = 'M'

// CleanAddress strips the address-table prefix from an owning address: the
// mobile marker plus the distribution-class character when the address
// starts with 'M', otherwise the class character alone. nil stays nil, and
// so does any value that is not a string. Prefixes are cut at character
// boundaries, never inside a multi-byte character.
func CleanAddress(v any) any {
	addr, ok := v.(string)
	if !ok {
		return nil
	}
	if addr == "" {
		return addr
	}
	r, size := utf8.DecodeRuneInString(addr)
	rest := addr[size:]
	if r == mobilePrefix && rest != "" {
		_, size = utf8.DecodeRuneInString(rest)
		rest = rest[size:]
	}
	return rest
}

// ContainerLookup returns a transform mapping a link's connectionId to the
// container of the connection with that identity, or nil if none matches.
// The connections table is scanned on every call. Keys are compared by their
// printed form, so an integer connectionId matches a string identity with
// the same digits.
func ContainerLookup(connections *entity.Table) func(any) any {
	idIdx, hasID := connections.Index(attrIdentity)
	containerIdx, hasContainer := connections.Index(AttrContainer)
	return func(connectionID any) any {
		if !hasID || !hasContainer || connectionID == nil {
			return nil
		}
		for i := 0; i < connections.Len(); i++ {
			values := connections.Row(i).Values()
			if sameKey(values[idIdx], connectionID) {
				return values[containerIdx]
			}
		}
		return nil
	}
}

// sameKey compares join keys by their printed form, so an integer
// connectionId matches a string identity with the same digits.
func sameKey(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as == bs
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
