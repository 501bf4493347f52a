package address

import (
	"strconv"
	"strings"

	"github.com/travnick/wmbusmeters/internal/binutil"
	"github.com/travnick/wmbusmeters/internal/errs"
)

// AddressExpression is a pattern matching zero or more Addresses.
type AddressExpression struct {
	ID          string
	HasWildcard bool
	MbusPrimary bool
	Mfct        uint16
	Version     byte
	Type        byte
	FilterOut   bool
	Required    bool
}

// String renders the canonical text form understood by ParseExpression.
func (e AddressExpression) String() string {
	var b strings.Builder
	if e.FilterOut {
		b.WriteByte('!')
	}
	b.WriteString(e.ID)
	if e.Mfct != AnyMfct {
		b.WriteString(".M=" + ManufacturerFlag(e.Mfct))
	}
	if e.Version != AnyVersion {
		b.WriteString(".V=")
		b.WriteString(hexByte(e.Version))
	}
	if e.Type != AnyType {
		b.WriteString(".T=")
		b.WriteString(hexByte(e.Type))
	}
	return b.String()
}

func hexByte(b byte) string {
	const hexDigits = "0123456789abcdef"
	return string([]byte{hexDigits[b>>4], hexDigits[b&0xf]})
}

// ConcatExpressions renders a comma-separated list of expressions.
func ConcatExpressions(exprs []AddressExpression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ",")
}

// ParseExpression parses one address expression of the form
// `['!']id['.M='flag]['.V='hex]['.T='hex]`, where id is an 8-hex id
// (optionally wildcarded with a trailing `*`), a `p0`..`p250` primary
// station, or a 16-hex libmbus secondary address shorthand.
func ParseExpression(in string) (AddressExpression, error) {
	if in == "" {
		return AddressExpression{}, errs.New(errs.KindParseError, "empty address expression")
	}

	e := AddressExpression{Mfct: AnyMfct, Version: AnyVersion, Type: AnyType}
	s := in
	if len(s) > 1 && s[0] == '!' {
		e.FilterOut = true
		s = s[1:]
		if len(s) > 1 && s[0] == '!' {
			return AddressExpression{}, errs.New(errs.KindParseError, "double negation in %q", in)
		}
	}
	if s == "" {
		return AddressExpression{}, errs.New(errs.KindParseError, "address expression %q has no body", in)
	}

	parts := strings.Split(s, ".")
	id := parts[0]

	hasWildcard, validID := isValidMatchExpression(id)
	if !validID {
		primaryNr, ok := parsePrimaryStation(id)
		if !ok {
			return AddressExpression{}, errs.New(errs.KindParseError, "invalid address expression %q", in)
		}
		_ = primaryNr
		e.MbusPrimary = true
	}
	e.HasWildcard = hasWildcard
	e.ID = id

	if len(parts) == 1 && len(id) == 16 {
		return parseLibmbusSecondary(e, id, in)
	}

	for _, part := range parts[1:] {
		if err := applyFlag(&e, part, in); err != nil {
			return AddressExpression{}, err
		}
	}

	return e, nil
}

func parsePrimaryStation(id string) (int, bool) {
	if len(id) < 2 || id[0] != 'p' {
		return 0, false
	}
	for _, c := range id[1:] {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(id[1:])
	if err != nil || v < 0 || v > 250 {
		return 0, false
	}
	return v, true
}

func parseLibmbusSecondary(e AddressExpression, id, in string) (AddressExpression, error) {
	mfctHex := id[8:12]
	versionHex := id[12:14]
	typeHex := id[14:16]
	e.ID = id[0:8]
	e.HasWildcard = false

	mfctBytes, err := binutil.Hex2Bin(mfctHex)
	if err != nil || len(mfctBytes) != 2 {
		return AddressExpression{}, errs.New(errs.KindParseError, "invalid manufacturer in secondary address %q", in)
	}
	e.Mfct = uint16(mfctBytes[1])<<8 | uint16(mfctBytes[0])

	versionBytes, err := binutil.Hex2Bin(versionHex)
	if err != nil || len(versionBytes) != 1 {
		return AddressExpression{}, errs.New(errs.KindParseError, "invalid version in secondary address %q", in)
	}
	e.Version = versionBytes[0]

	typeBytes, err := binutil.Hex2Bin(typeHex)
	if err != nil || len(typeBytes) != 1 {
		return AddressExpression{}, errs.New(errs.KindParseError, "invalid type in secondary address %q", in)
	}
	e.Type = typeBytes[0]

	return e, nil
}

func applyFlag(e *AddressExpression, part, in string) error {
	switch len(part) {
	case 4: // V=xy or T=xy
		if part[1] != '=' {
			return errs.New(errs.KindParseError, "malformed flag %q in %q", part, in)
		}
		data, err := binutil.Hex2Bin(part[2:])
		if err != nil || len(data) != 1 {
			return errs.New(errs.KindParseError, "malformed flag %q in %q", part, in)
		}
		switch part[0] {
		case 'V':
			e.Version = data[0]
		case 'T':
			e.Type = data[0]
		default:
			return errs.New(errs.KindParseError, "unknown flag %q in %q", part, in)
		}
	case 5: // M=xyz, three letters
		if part[1] != '=' || part[0] != 'M' {
			return errs.New(errs.KindParseError, "malformed flag %q in %q", part, in)
		}
		mfct, err := FlagToManufacturer(part[2:])
		if err != nil {
			return err
		}
		e.Mfct = mfct
	case 6: // M=abcd, explicit little-endian hex mfct
		if part[1] != '=' || part[0] != 'M' {
			return errs.New(errs.KindParseError, "malformed flag %q in %q", part, in)
		}
		data, err := binutil.Hex2Bin(part[2:])
		if err != nil || len(data) != 2 {
			return errs.New(errs.KindParseError, "malformed flag %q in %q", part, in)
		}
		e.Mfct = uint16(data[1])<<8 | uint16(data[0])
	default:
		return errs.New(errs.KindParseError, "malformed flag %q in %q", part, in)
	}
	return nil
}

// isValidMatchExpression checks the id portion against the bcd/hex-id or
// libmbus-secondary-address grammar, reporting whether it used a trailing
// wildcard.
func isValidMatchExpression(id string) (hasWildcard, ok bool) {
	if id == "" {
		return false, false
	}
	rest := id
	count := 0
	for len(rest) > 0 && isHexDigit(rest[0]) {
		rest = rest[1:]
		count++
	}
	if rest == "" && count == 16 {
		return false, true
	}
	wildcardUsed := false
	if len(rest) > 0 && rest[0] == '*' {
		rest = rest[1:]
		wildcardUsed = true
	}
	if rest != "" {
		return false, false
	}
	if !wildcardUsed {
		return false, count == 8
	}
	return true, count <= 7
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

// FlagToManufacturer packs a three upper-case-letter manufacturer flag into
// its 15-bit code.
func FlagToManufacturer(s string) (uint16, error) {
	if len(s) != 3 {
		return 0, errs.New(errs.KindParseError, "manufacturer flag must be 3 letters, got %q", s)
	}
	for _, c := range []byte(s) {
		if c < 'A' || c > 'Z' {
			return 0, errs.New(errs.KindParseError, "manufacturer flag letters must be A-Z, got %q", s)
		}
	}
	return uint16(s[0]-64)<<10 | uint16(s[1]-64)<<5 | uint16(s[2]-64), nil
}

// Match reports whether this expression matches the given concrete address
// fields.
func (e AddressExpression) Match(id string, mfct uint16, version, typ byte) bool {
	if e.Mfct != AnyMfct && e.Mfct != mfct {
		return false
	}
	if e.Version != AnyVersion && e.Version != version {
		return false
	}
	if e.Type != AnyType && e.Type != typ {
		return false
	}
	return doesIDMatchExpression(id, e.ID)
}

// doesIDMatchExpression walks id and match in lockstep until match hits a
// `*`, then requires id to be fully consumed too when no wildcard was used.
func doesIDMatchExpression(id, match string) bool {
	if id == "" {
		return false
	}
	canMatch := true
	for len(id) > 0 && len(match) > 0 && match[0] != '*' {
		if id[0] != match[0] {
			canMatch = false
			break
		}
		id = id[1:]
		match = match[1:]
	}
	wildcardUsed := false
	if len(match) > 0 && match[0] == '*' {
		wildcardUsed = true
		match = match[1:]
	}
	if canMatch {
		if wildcardUsed {
			canMatch = match == ""
		} else {
			canMatch = match == "" && id == ""
		}
	}
	return canMatch
}

// TrimToIdentity narrows e in place to the identity-append policy for mode,
// so a freshly instantiated meter routes only the telegrams that produced it.
func (e *AddressExpression) TrimToIdentity(mode IdentityMode, a Address) {
	switch mode {
	case IdentityFull:
		e.ID, e.Mfct, e.Version, e.Type = a.ID, a.Mfct, a.Version, a.Type
		e.Required = true
	case IdentityIDMfct:
		e.ID, e.Mfct, e.Version, e.Type = a.ID, a.Mfct, AnyVersion, AnyType
		e.Required = true
	case IdentityID:
		e.ID, e.Mfct, e.Version, e.Type = a.ID, AnyMfct, AnyVersion, AnyType
		e.Required = true
	}
}
