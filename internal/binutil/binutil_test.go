package binutil

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHexRoundTrip(t *testing.T) {
	cases := []string{"01fd1f01", "EE449ACE01000080230700", ""}
	for _, c := range cases {
		b, err := Hex2Bin(c)
		require.NoError(t, err)
		require.Equal(t, lower(c), Bin2Hex(b))
	}
}

func lower(s string) string {
	b, _ := hex.DecodeString(s)
	return hex.EncodeToString(b)
}

func TestHex2BinOddLength(t *testing.T) {
	_, err := Hex2Bin("ABC")
	require.Error(t, err)
}

func TestHex2BinStripsSeparators(t *testing.T) {
	b, err := Hex2Bin(" |4E44_B409 86868686| ")
	require.NoError(t, err)
	require.Len(t, b, 8)
}

func TestCRC16EN13757Vectors(t *testing.T) {
	cases := []struct {
		hex  string
		want uint16
	}{
		{"01FD1F01", 0xCC22},
		{"01FD1F00", 0xF147},
		{"EE449ACE010000802307", 0xAABC},
	}
	for _, c := range cases {
		data, err := hex.DecodeString(c.hex)
		require.NoError(t, err)
		require.Equal(t, c.want, CRC16EN13757(data), "input %s", c.hex)
	}
}

func TestCRC16EN13757ASCIICheckValue(t *testing.T) {
	require.Equal(t, uint16(0xC2B7), CRC16EN13757([]byte("123456789")))
}

func TestSlipRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		{0x01, 0x02, 0x03},
		{0xC0, 0xDB, 0xC0, 0xDB},
		{0xFF, 0x00, 0xC0},
	}
	for _, c := range cases {
		framed := AddSlipFraming(c)
		got, n := RemoveSlipFraming(framed)
		require.Equal(t, len(framed), n)
		require.Equal(t, c, got)
	}
}

func TestSlipIncompleteFrame(t *testing.T) {
	_, n := RemoveSlipFraming([]byte{0xC0, 0x01, 0x02})
	require.Equal(t, 0, n)
}

func TestAESCBCRoundTrip(t *testing.T) {
	key := make([]byte, 16)
	iv := make([]byte, 16)
	for i := range key {
		key[i] = byte(i)
	}
	plaintext := []byte("0123456789ABCDEF0123456789ABCDEF")[:32]
	ciphertext, err := AESCBCEncrypt(plaintext, key, iv)
	require.NoError(t, err)
	decrypted, err := AESCBCDecrypt(ciphertext, key, iv)
	require.NoError(t, err)
	require.Equal(t, plaintext, decrypted)
}

func TestAESCMACVectors(t *testing.T) {
	key, err := hex.DecodeString("2B7E1516" + "28AED2A6" + "ABF71588" + "09CF4F3C")
	require.NoError(t, err)

	mac, err := AESCMAC(key, nil)
	require.NoError(t, err)
	require.Equal(t, "bb1d6929e95937287fa37d129b756746", hex.EncodeToString(mac))

	msg, err := hex.DecodeString("6BC1BEE22E409F96E93D7E117393172A")
	require.NoError(t, err)
	mac, err = AESCMAC(key, msg)
	require.NoError(t, err)
	require.Equal(t, "070a16b46b4d4144f79bdd9dd04a287c", hex.EncodeToString(mac))
}
