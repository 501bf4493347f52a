// Package address implements the telegram-to-meter selection engine:
// Address/AddressExpression parsing and matching, and the identity-append
// policy used when a template instantiates a concrete meter. Grounded on original_source/src/address.cc.
package address

import (
	"fmt"
	"strings"
)

// AnyMfct, AnyVersion and AnyType are the wildcard sentinel values stored in
// an AddressExpression field that was never constrained.
const (
	AnyMfct    uint16 = 0xffff
	AnyVersion byte   = 0xff
	AnyType    byte   = 0xff
)

// Address is a concrete identity extracted from a telegram's DLL/ELL/TPL
// layers. Immutable once constructed.
type Address struct {
	ID      string
	Mfct    uint16
	Version byte
	Type    byte
}

// String renders the canonical text form, the same shape AddressExpression
// uses for its constrained fields.
func (a Address) String() string {
	var b strings.Builder
	b.WriteString(a.ID)
	if a.Mfct != AnyMfct {
		b.WriteString(".M=" + ManufacturerFlag(a.Mfct))
	}
	if a.Version != AnyVersion {
		fmt.Fprintf(&b, ".V=%02x", a.Version)
	}
	if a.Type != AnyType {
		fmt.Fprintf(&b, ".T=%02x", a.Type)
	}
	return b.String()
}

// ConcatAddresses renders a comma-separated list, mirroring Address::concat.
func ConcatAddresses(addresses []Address) string {
	parts := make([]string, len(addresses))
	for i, a := range addresses {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

// IdentityMode governs how much of a telegram's address is copied into an
// expression list when a template instantiates a meter.
type IdentityMode int

const (
	IdentityID IdentityMode = iota
	IdentityIDMfct
	IdentityFull
	IdentityNone
	IdentityInvalid
)

func (m IdentityMode) String() string {
	switch m {
	case IdentityID:
		return "id"
	case IdentityIDMfct:
		return "id-mfct"
	case IdentityFull:
		return "full"
	case IdentityNone:
		return "none"
	default:
		return "invalid"
	}
}

// ParseIdentityMode resolves the textual form used in meter config lines.
func ParseIdentityMode(s string) IdentityMode {
	switch s {
	case "id":
		return IdentityID
	case "id-mfct":
		return IdentityIDMfct
	case "full":
		return IdentityFull
	case "none":
		return IdentityNone
	default:
		return IdentityInvalid
	}
}

// ManufacturerFlag unpacks a 15-bit manufacturer code back into its
// three-letter form, the inverse of FlagToManufacturer.
func ManufacturerFlag(m uint16) string {
	a := byte((m>>10)&0x1f) + 64
	b := byte((m>>5)&0x1f) + 64
	c := byte(m&0x1f) + 64
	return string([]byte{a, b, c})
}
