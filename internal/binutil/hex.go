// Package binutil holds the low-level binary primitives shared by every
// parsing layer: hex codec, EN 13757 CRC-16, SLIP framing and AES
// ECB/CBC/CMAC, factored into standalone, independently testable
// functions rather than living inline in the parsing/crypto code that uses
// them.
package binutil

import (
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/travnick/wmbusmeters/internal/errs"
)

// Bin2Hex lower-cases and hex-encodes a byte slice.
func Bin2Hex(b []byte) string {
	return hex.EncodeToString(b)
}

// Hex2Bin decodes a hex string after stripping whitespace and the
// occasional '|' or '_' separators some telegram dumps use.
func Hex2Bin(s string) ([]byte, error) {
	clean := StripSeparators(s)
	if strings.HasPrefix(clean, "0X") || strings.HasPrefix(clean, "0x") {
		clean = clean[2:]
	}
	if len(clean)%2 != 0 {
		return nil, errs.New(errs.KindParseError, "hex string must contain an even number of digits, got %d", len(clean))
	}
	decoded := make([]byte, len(clean)/2)
	if _, err := hex.Decode(decoded, []byte(clean)); err != nil {
		return nil, errs.Wrap(errs.KindParseError, err, "invalid hex digits")
	}
	return decoded, nil
}

// StripSeparators removes whitespace and the '|'/'_' visual separators that
// commonly appear in pasted telegram dumps.
func StripSeparators(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '|' || r == '_' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
