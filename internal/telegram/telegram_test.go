package telegram

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/travnick/wmbusmeters/internal/binutil"
	"github.com/travnick/wmbusmeters/internal/testutil"
)

func decodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestParseShortTPLHeader(t *testing.T) {
	raw := decodeHex(t, "4E44B4098686868613077AF00040052F2F0C1366380000046D27287E2A0F150E00000000C10000D10000E60000FD00000C01002F0100410100540100680100890000A00000B30000002F2F2F2F2F2F")
	tg, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, uint16(0x09B4), tg.Manufacturer)
	require.Equal(t, "86868686", tg.MeterIDString())
	require.True(t, tg.TPL.Present)
	require.EqualValues(t, 5, tg.TPL.SecurityMode)
	require.Equal(t, 4, tg.TPL.EncryptedBlocks)
	require.Len(t, tg.Addresses, 2)
	require.Equal(t, tg.Addresses[0], tg.CanonicalAddress())
}

func TestParseGoldenFixtureFromTestdata(t *testing.T) {
	raw := decodeHex(t, testutil.LoadHex(t, "bmt_water_meter.hex"))
	tg, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, uint16(0x09B4), tg.Manufacturer)
	require.EqualValues(t, 5, tg.TPL.SecurityMode)
}

func TestStatusLabelDecodesAlarmBits(t *testing.T) {
	raw := []byte{0x00, 0x44, 0xB4, 0x09, 0x86, 0x86, 0x86, 0x86, 0x13, 0x07, 0x7A,
		0xF0, 0x84, 0x00, 0x00} // status 0x84: EMPTY_PIPE | BATTERY_ALARM
	raw[0] = byte(len(raw) - 1)
	tg, err := Parse(raw)
	require.NoError(t, err)
	require.Contains(t, tg.StatusLabel(), "EMPTY_PIPE")
	require.Contains(t, tg.StatusLabel(), "BATTERY_ALARM")
}

func TestStatusLabelOKWhenNoBitsSet(t *testing.T) {
	raw := []byte{0x00, 0x44, 0xB4, 0x09, 0x86, 0x86, 0x86, 0x86, 0x13, 0x07, 0x7A,
		0xF0, 0x00, 0x00, 0x00}
	raw[0] = byte(len(raw) - 1)
	tg, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "OK", tg.StatusLabel())
}

func TestDecryptSkipsWhenSecurityModeZero(t *testing.T) {
	// L C M(2) ID(4) V DT CI AccessField Status Config(2), then payload.
	raw := []byte{0x11, 0x44, 0xB4, 0x09, 0x86, 0x86, 0x86, 0x86, 0x13, 0x07, 0x7A,
		0xF0, 0x00, 0x00, 0x00, // short TPL, security mode 0
		0x0B, 0x13, 0x56, 0x34, 0x12}
	raw[0] = byte(len(raw) - 1)
	tg, err := Parse(raw)
	require.NoError(t, err)
	require.EqualValues(t, 0, tg.TPL.SecurityMode)

	before := append([]byte(nil), tg.Payload...)
	require.NoError(t, Decrypt(tg, nil))
	require.Equal(t, before, tg.Payload)
}

func TestDecryptTPLMode5RoundTrip(t *testing.T) {
	key := []byte("0123456789ABCDEF")
	plaintext := decodeHex(t, "0B135634120000000000000000000000") // 16 bytes, pad to 32
	plaintext = append(plaintext, make([]byte, 32-len(plaintext))...)

	header := []byte{0x00, 0x44, 0xB4, 0x09, 0x86, 0x86, 0x86, 0x86, 0x13, 0x07, 0x7A,
		0xF0, 0x00, 0x20, 0x05} // security mode 5, 2 encrypted blocks

	iv := make([]byte, 16)
	iv[0], iv[1] = header[2], header[3]
	copy(iv[2:6], header[4:8])
	iv[6], iv[7] = header[8], header[9]
	for i := 8; i < 16; i++ {
		iv[i] = header[11]
	}

	ciphertext, err := binutil.AESCBCEncrypt(plaintext, key, iv)
	require.NoError(t, err)

	raw := append(append([]byte{}, header...), ciphertext...)
	raw[0] = byte(len(raw) - 1)

	tg, err := Parse(raw)
	require.NoError(t, err)
	require.EqualValues(t, 5, tg.TPL.SecurityMode)
	require.Equal(t, 2, tg.TPL.EncryptedBlocks)

	require.NoError(t, Decrypt(tg, key))
	require.Equal(t, plaintext, tg.Payload)
}

func TestDecryptRequiresKey(t *testing.T) {
	header := []byte{0x00, 0x44, 0xB4, 0x09, 0x86, 0x86, 0x86, 0x86, 0x13, 0x07, 0x7A,
		0xF0, 0x00, 0x10, 0x05}
	raw := append(append([]byte{}, header...), make([]byte, 16)...)
	raw[0] = byte(len(raw) - 1)
	tg, err := Parse(raw)
	require.NoError(t, err)

	err = Decrypt(tg, nil)
	require.Error(t, err)
}
