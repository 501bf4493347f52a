// Package telegram parses a raw wM-Bus frame's DLL/ELL/AFL/TPL layers into
// a Telegram, collects every layer's Address, and (via Decrypt) removes
// AES-CTR/CBC encryption from the body so the remaining bytes are a plain
// DIF/VIF record stream for internal/dvparser. Generalizes a short-TPL-only
// header parse into the full DLL/ELL/AFL/TPL wire format.
package telegram

import (
	"encoding/binary"
	"fmt"

	"github.com/travnick/wmbusmeters/internal/address"
	"github.com/travnick/wmbusmeters/internal/errs"
	"github.com/travnick/wmbusmeters/internal/translate"
)

// Telegram is a parsed frame header plus the still-possibly-encrypted
// payload bytes that follow it.
type Telegram struct {
	Raw          []byte
	Length       byte
	Control      byte
	Manufacturer uint16
	MeterID      [4]byte
	Version      byte
	DeviceType   byte
	AccessNumber byte
	Status       byte
	StatusFlags  map[string]bool

	// Addresses holds the DLL Address first, then the TPL Address when a
	// TPL header is present (a short TPL header repeats the DLL Address).
	// ELL headers add no Address. The last element is the telegram's
	// canonical identity.
	Addresses []address.Address

	ELL ELLInfo
	AFL AFLInfo
	TPL TPLInfo

	// Payload is the remaining frame bytes after every header layer has
	// been consumed. Decrypt mutates this in place.
	Payload []byte
}

// ELLInfo describes an Extended Link Layer header, present when the DLL's
// CI byte selects one of the ELL control-information codes.
type ELLInfo struct {
	Present   bool
	CI        byte
	CommAddr  [4]byte // ELL-II encrypted variants carry their own M/A
	SessionNr uint32  // counter used to build the AES-CTR counter block
	Encrypted bool
}

// AFLInfo describes an Authentication/Fragmentation Layer header, present
// when the DLL (or ELL) CI byte is 0x90.
type AFLInfo struct {
	Present          bool
	FragmentControl  uint16
	MessageControl   byte
	MessageCounter   uint32
	KeyInfo          uint16
	MAC              []byte
	ProtectedPayload []byte // the bytes the MAC was computed over
}

// TPLInfo describes a Transport Layer header, short or long form.
type TPLInfo struct {
	Present         bool
	Long            bool
	AccessField     byte
	StatusField     byte
	Config          uint16
	SecurityMode    byte
	EncryptedBlocks int
}

const (
	ciELLShort          = 0x8C
	ciELLShortEncrypted = 0x8D
	ciELLLong           = 0x8E
	ciELLLongEncrypted  = 0x8F
	ciAFL               = 0x90
	ciTPLShort          = 0x7A
	ciTPLLong           = 0x72
	ciTPLNoHeader       = 0x78
)

// Parse extracts every recognized header layer from raw, leaving whatever
// bytes remain (still encrypted, if the telegram is) in Telegram.Payload.
func Parse(raw []byte) (*Telegram, error) {
	if len(raw) < 10 {
		return nil, errs.New(errs.KindParseError, "telegram too short: %d bytes", len(raw))
	}
	length := raw[0]
	if int(length)+1 != len(raw) {
		return nil, errs.New(errs.KindParseError, "declared length %d does not match actual length %d", length, len(raw))
	}

	t := &Telegram{
		Raw:          raw,
		Length:       length,
		Control:      raw[1],
		Manufacturer: binary.LittleEndian.Uint16(raw[2:4]),
	}
	copy(t.MeterID[:], raw[4:8])
	t.Version = raw[8]
	t.DeviceType = raw[9]

	dllAddr := address.Address{
		ID:      t.MeterIDString(),
		Mfct:    t.Manufacturer,
		Version: t.Version,
		Type:    t.DeviceType,
	}
	t.Addresses = append(t.Addresses, dllAddr)

	if len(raw) < 11 {
		return nil, errs.New(errs.KindParseError, "telegram missing CI byte")
	}
	ci := raw[10]
	cursor := 11

	if isELLCI(ci) {
		ell, consumed, err := parseELL(raw, cursor, ci)
		if err != nil {
			return nil, err
		}
		t.ELL = ell
		cursor += consumed
		if cursor >= len(raw) {
			return nil, errs.New(errs.KindParseError, "telegram ends inside ELL header")
		}
		ci = raw[cursor]
		cursor++
	}

	if ci == ciAFL {
		afl, consumed, err := parseAFL(raw, cursor)
		if err != nil {
			return nil, err
		}
		t.AFL = afl
		cursor += consumed
		if cursor >= len(raw) {
			return nil, errs.New(errs.KindParseError, "telegram ends inside AFL header")
		}
		t.AFL.ProtectedPayload = append([]byte(nil), raw[cursor:]...)
		ci = raw[cursor]
		cursor++
	}

	switch ci {
	case ciTPLShort:
		tpl, consumed, err := parseShortTPL(raw, cursor)
		if err != nil {
			return nil, err
		}
		t.TPL = tpl
		cursor += consumed
		t.AccessNumber = tpl.AccessField
		t.Status = tpl.StatusField
		t.StatusFlags = decodeStatusFlags(tpl.StatusField)
		t.Addresses = append(t.Addresses, dllAddr)
	case ciTPLLong:
		tpl, addr, consumed, err := parseLongTPL(raw, cursor)
		if err != nil {
			return nil, err
		}
		t.TPL = tpl
		cursor += consumed
		t.AccessNumber = tpl.AccessField
		t.Status = tpl.StatusField
		t.StatusFlags = decodeStatusFlags(tpl.StatusField)
		t.Addresses = append(t.Addresses, addr)
	case ciTPLNoHeader:
		t.StatusFlags = map[string]bool{}
	default:
		// Manufacturer-specific or bare CI: no TPL header, remaining
		// bytes are the application payload as-is.
		t.StatusFlags = map[string]bool{}
	}

	if cursor > len(raw) {
		return nil, errs.New(errs.KindParseError, "payload offset %d exceeds telegram length %d", cursor, len(raw))
	}
	t.Payload = raw[cursor:]
	return t, nil
}

// MeterIDString returns the EN 13757 display format (MSB first).
func (t Telegram) MeterIDString() string {
	return fmt.Sprintf("%02X%02X%02X%02X", t.MeterID[3], t.MeterID[2], t.MeterID[1], t.MeterID[0])
}

// CanonicalAddress returns the telegram's identity: the last element of
// Addresses, "the TPL-layer address, if present, is the final
// element and the canonical identity".
func (t Telegram) CanonicalAddress() address.Address {
	return t.Addresses[len(t.Addresses)-1]
}

// StatusLabel renders the TPL status byte as a space-joined set of
// human-readable alarm/error labels, for display and log output. Use
// StatusFlags instead when a caller needs to branch on a specific flag.
func (t Telegram) StatusLabel() string {
	return translate.StandardStatusLookup.Translate(t.Status)
}

var statusFlagDefs = []struct {
	mask byte
	key  string
}{
	{0x80, "status_empty_pipe"},
	{0x40, "status_reverse_flow"},
	{0x20, "status_freezing"},
	{0x10, "status_temp_alarm"},
	{0x08, "status_perm_alarm"},
	{0x04, "status_battery_alarm"},
	{0x02, "status_hw_alarm"},
}

func decodeStatusFlags(status byte) map[string]bool {
	flags := make(map[string]bool)
	for _, def := range statusFlagDefs {
		if status&def.mask != 0 {
			flags[def.key] = true
		}
	}
	return flags
}

func isELLCI(ci byte) bool {
	switch ci {
	case ciELLShort, ciELLShortEncrypted, ciELLLong, ciELLLongEncrypted:
		return true
	default:
		return false
	}
}

// parseELL reads the Extended Link Layer header starting at offset. The
// short form carries CC, ACC and a 4-byte session counter; the long form
// additionally carries the communication address.
func parseELL(raw []byte, offset int, ci byte) (ELLInfo, int, error) {
	ell := ELLInfo{Present: true, CI: ci, Encrypted: ci == ciELLShortEncrypted || ci == ciELLLongEncrypted}
	switch ci {
	case ciELLShort, ciELLShortEncrypted:
		if len(raw) < offset+5 {
			return ELLInfo{}, 0, errs.New(errs.KindParseError, "short ELL header truncated")
		}
		// CC (1) + ACC (1) + SN (4, little-endian session counter)
		ell.SessionNr = binary.LittleEndian.Uint32(raw[offset+1 : offset+5])
		return ell, 5, nil
	case ciELLLong, ciELLLongEncrypted:
		if len(raw) < offset+13 {
			return ELLInfo{}, 0, errs.New(errs.KindParseError, "long ELL header truncated")
		}
		copy(ell.CommAddr[:], raw[offset+1:offset+5])
		ell.SessionNr = binary.LittleEndian.Uint32(raw[offset+9 : offset+13])
		return ell, 13, nil
	default:
		return ELLInfo{}, 0, errs.New(errs.KindParseError, "unrecognized ELL CI 0x%02X", ci)
	}
}

// parseAFL reads the Authentication/Fragmentation Layer header:
// length, fragmentation control, message control, counter, key info and a
// MAC whose size is carried in the message-control byte's low nibble (in
// 4-byte units, 0 meaning "no MAC").
func parseAFL(raw []byte, offset int) (AFLInfo, int, error) {
	if len(raw) < offset+4 {
		return AFLInfo{}, 0, errs.New(errs.KindParseError, "AFL header truncated")
	}
	aflLen := int(raw[offset])
	fcl := binary.LittleEndian.Uint16(raw[offset+1 : offset+3])
	mcl := raw[offset+3]
	cursor := offset + 4

	afl := AFLInfo{Present: true, FragmentControl: fcl, MessageControl: mcl}

	if mcl&0x80 != 0 { // message counter present
		if len(raw) < cursor+4 {
			return AFLInfo{}, 0, errs.New(errs.KindParseError, "AFL message counter truncated")
		}
		afl.MessageCounter = binary.LittleEndian.Uint32(raw[cursor : cursor+4])
		cursor += 4
	}
	if mcl&0x40 != 0 { // key info present
		if len(raw) < cursor+2 {
			return AFLInfo{}, 0, errs.New(errs.KindParseError, "AFL key info truncated")
		}
		afl.KeyInfo = binary.LittleEndian.Uint16(raw[cursor : cursor+2])
		cursor += 2
	}
	macLen := int(mcl&0x0F) * 4
	if macLen > 0 {
		if len(raw) < cursor+macLen {
			return AFLInfo{}, 0, errs.New(errs.KindParseError, "AFL MAC truncated")
		}
		afl.MAC = append([]byte(nil), raw[cursor:cursor+macLen]...)
		cursor += macLen
	}

	consumed := cursor - offset
	if aflLen > 0 && aflLen+1 != consumed {
		// AFLL counts itself; tolerate a mismatch by trusting what we
		// actually parsed rather than the advertised length.
	}
	return afl, consumed, nil
}

func parseShortTPL(data []byte, offset int) (TPLInfo, int, error) {
	if len(data) < offset+4 {
		return TPLInfo{}, 0, errs.New(errs.KindParseError, "short TPL header truncated")
	}
	tpl := TPLInfo{
		Present:     true,
		AccessField: data[offset],
		StatusField: data[offset+1],
	}
	cfg := binary.LittleEndian.Uint16(data[offset+2 : offset+4])
	tpl.Config = cfg
	tpl.SecurityMode = byte((cfg >> 8) & 0x1F)
	if tpl.SecurityMode == 5 || tpl.SecurityMode == 7 || tpl.SecurityMode == 13 {
		tpl.EncryptedBlocks = int((cfg >> 4) & 0x0F)
	}
	return tpl, 4, nil
}

// parseLongTPL reads the long-frame TPL header, which repeats the
// manufacturer/ID/version/type fields and so carries its own Address,
// distinct from (but usually equal to) the DLL's.
func parseLongTPL(data []byte, offset int) (TPLInfo, address.Address, int, error) {
	if len(data) < offset+12 {
		return TPLInfo{}, address.Address{}, 0, errs.New(errs.KindParseError, "long TPL header truncated")
	}
	var id [4]byte
	copy(id[:], data[offset:offset+4])
	mfct := binary.LittleEndian.Uint16(data[offset+4 : offset+6])
	version := data[offset+6]
	devType := data[offset+7]
	tpl := TPLInfo{
		Present:     true,
		Long:        true,
		AccessField: data[offset+8],
		StatusField: data[offset+9],
	}
	cfg := binary.LittleEndian.Uint16(data[offset+10 : offset+12])
	tpl.Config = cfg
	tpl.SecurityMode = byte((cfg >> 8) & 0x1F)
	if tpl.SecurityMode == 5 || tpl.SecurityMode == 7 || tpl.SecurityMode == 13 {
		tpl.EncryptedBlocks = int((cfg >> 4) & 0x0F)
	}
	addr := address.Address{
		ID:      fmt.Sprintf("%02X%02X%02X%02X", id[3], id[2], id[1], id[0]),
		Mfct:    mfct,
		Version: version,
		Type:    devType,
	}
	return tpl, addr, 12, nil
}
