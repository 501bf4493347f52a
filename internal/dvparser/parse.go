package dvparser

import (
	"math"
	"strings"

	"github.com/travnick/wmbusmeters/internal/binutil"
	"github.com/travnick/wmbusmeters/internal/errs"
)

// Parse walks payload from its start and returns every DVEntry it can
// decode. On a truncated chain, unknown VIF, or LVAR overflow it stops and
// returns the entries parsed so far alongside the error, rather than
// discarding a partially decoded telegram.
func Parse(payload []byte) (*Entries, error) {
	entries := newEntries()
	i := 0
	for i < len(payload) {
		b := payload[i]
		if b == 0x2F { // idle filler
			i++
			continue
		}
		if b == 0x0F || b == 0x1F { // manufacturer-specific data to end of frame
			break
		}

		startOffset := i
		chain, err := readDIFChain(payload, &i)
		if err != nil {
			return entries, err
		}

		vifKeyBytes, vifByte, vifeBytes, combinables, err := readVIFChain(payload, &i)
		if err != nil {
			return entries, err
		}

		keyBytes := append([]byte{chain.DIF}, chain.DIFE...)
		keyBytes = append(keyBytes, vifKeyBytes...)
		key := strings.ToUpper(binutil.Bin2Hex(keyBytes))

		entry := DVEntry{
			Offset:          startOffset,
			MeasurementType: functionField(chain.DIF),
			StorageNr:       chain.Storage,
			TariffNr:        chain.Tariff,
			SubunitNr:       chain.Subunit,
			Combinables:     combinables,
		}

		lowNibble := chain.DIF & 0x0F
		length, ok := dataLength(lowNibble)
		if !ok {
			return entries, nil
		}

		row := resolveVIF(vifByte, vifeBytes)
		entry.Quantity = row.Quantity
		entry.Unit = row.Unit
		entry.VIFRange = row.Range
		if row.Range == RangeNone {
			return entries, errs.New(errs.KindParseError, "unknown VIF 0x%02X", vifByte)
		}

		switch {
		case length == -1 && lowNibble == 0x0D: // LVAR
			raw, hexVal, err := decodeLVAR(payload, &i)
			if err != nil {
				return entries, err
			}
			entry.RawHex = hexVal
			entry.HasText = true
			entry.Text = hexVal
			_ = raw
		case length == -1: // selection-for-readout (0x08), no data bytes
			entry.RawHex = ""
		case length == 0:
			entry.RawHex = ""
		default:
			if i+length > len(payload) {
				return entries, nil
			}
			data := payload[i : i+length]
			i += length
			entry.RawHex = binutil.Bin2Hex(data)

			switch {
			case row.Kind == KindDate:
				t, derr := decodeDate(data)
				if derr != nil {
					return entries, derr
				}
				entry.HasTime = true
				entry.Time = t
			case row.Kind == KindDateTime:
				t, invalid, derr := decodeDateTime(data)
				if derr != nil {
					return entries, derr
				}
				entry.HasTime = true
				entry.Time = t
				entry.TimeIsIV = invalid
			case isBCD(lowNibble):
				v, derr := decodeBCD(data)
				if derr != nil {
					return entries, derr
				}
				entry.Numeric = float64(v) * math.Pow10(row.Exp)
			default:
				v := decodeInt(data)
				entry.Numeric = float64(v) * math.Pow10(row.Exp)
			}
		}

		entries.insert(key, entry)
	}
	return entries, nil
}

// readVIFChain reads the VIF byte and its VIFE extension chain, returning
// the bytes consumed (for the DV key), the raw VIF byte (extension bit
// included, so resolveVIF can tell an FB/FD selector from a base-table
// code), the VIFE bytes themselves, and the set of VIFCombinable modifiers
// observed. When the VIF is an FB/FD extension selector, its first VIFE
// byte is also the extension-table row index and is excluded from the
// combinable scan — the combinable table and the extension tables assign
// different meanings to the same low-7-bit codes.
func readVIFChain(payload []byte, i *int) ([]byte, byte, []byte, map[VIFCombinable]bool, error) {
	if *i >= len(payload) {
		return nil, 0, nil, nil, errDVTruncated("VIF")
	}
	vifByte := payload[*i]
	*i++
	consumed := []byte{vifByte}
	extended := isExtensionSelector(vifByte)

	var vifeBytes []byte
	combinables := make(map[VIFCombinable]bool)
	hasVIFE := vifByte&0x80 != 0
	for hasVIFE {
		if *i >= len(payload) {
			return nil, 0, nil, nil, errDVTruncated("VIFE")
		}
		vife := payload[*i]
		*i++
		consumed = append(consumed, vife)
		isTableRow := extended && len(vifeBytes) == 0
		vifeBytes = append(vifeBytes, vife)
		if !isTableRow {
			if c, ok := vifeCombinables[vife&0x7F]; ok {
				combinables[c] = true
			}
		}
		hasVIFE = vife&0x80 != 0
	}

	return consumed, vifByte, vifeBytes, combinables, nil
}

func errDVTruncated(what string) error {
	return errs.New(errs.KindParseError, "unexpected end of payload reading %s", what)
}
