// Package dvparser implements the DIF/VIF walker that turns a telegram
// body into an ordered map of DVEntry records. The DIF/DIFE bit
// accumulation generalizes a single-file parser into full VIFE chains,
// BCD/date/LVAR decoding and the extension VIF tables a minimal parser
// would otherwise leave out.
package dvparser

import "github.com/travnick/wmbusmeters/internal/errs"

// dataLength returns the byte count for the DIF low nibble's length/type
// code. Ported from wmbus.LengthForDIF; -1 marks the variable-length (LVAR,
// 0x0D) and selection-for-readout (0x08) codes that need their own
// handling, and the special 0x0F code reports 0.
func dataLength(lowNibble byte) (int, bool) {
	switch lowNibble {
	case 0x00:
		return 0, true
	case 0x01:
		return 1, true
	case 0x02:
		return 2, true
	case 0x03:
		return 3, true
	case 0x04:
		return 4, true
	case 0x05:
		return 4, true // 32-bit real, stored as 4 raw bytes
	case 0x06:
		return 6, true
	case 0x07:
		return 8, true
	case 0x08:
		return -1, true // selection for readout, no data
	case 0x09:
		return 1, true
	case 0x0A:
		return 2, true
	case 0x0B:
		return 3, true
	case 0x0C:
		return 4, true
	case 0x0D:
		return -1, true // LVAR, length is data-driven
	case 0x0E:
		return 6, true
	case 0x0F:
		return 0, true // special/manufacturer marker, not data
	default:
		return 0, false
	}
}

// isBCD reports whether the DIF low nibble denotes a BCD-encoded value
// (0x9..0xE.2).
func isBCD(lowNibble byte) bool {
	return lowNibble >= 0x09 && lowNibble <= 0x0E
}

// difChain walks the DIF byte and its DIFE extension chain, accumulating
// storage/tariff/subunit bits right to left.
type difChain struct {
	DIF     byte
	DIFE    []byte
	Storage uint32
	Tariff  uint32
	Subunit uint32
}

func readDIFChain(payload []byte, i *int) (difChain, error) {
	if *i >= len(payload) {
		return difChain{}, errs.New(errs.KindParseError, "unexpected end of payload reading DIF")
	}
	dif := payload[*i]
	*i++

	c := difChain{DIF: dif}
	c.Storage = uint32((dif >> 6) & 0x01)

	hasDIFE := dif&0x80 != 0
	difenr := 0
	for hasDIFE {
		if *i >= len(payload) {
			return difChain{}, errs.New(errs.KindParseError, "unexpected end of payload reading DIFE")
		}
		dife := payload[*i]
		*i++
		c.DIFE = append(c.DIFE, dife)
		c.Subunit |= uint32((dife>>6)&0x01) << difenr
		c.Tariff |= uint32((dife>>4)&0x03) << (difenr * 2)
		c.Storage |= uint32(dife&0x0F) << (1 + difenr*4)
		hasDIFE = dife&0x80 != 0
		difenr++
	}
	return c, nil
}
