package address

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseExpressionPlainID(t *testing.T) {
	e, err := ParseExpression("12345678")
	require.NoError(t, err)
	require.Equal(t, "12345678", e.ID)
	require.False(t, e.HasWildcard)
	require.Equal(t, AnyMfct, e.Mfct)
}

func TestParseExpressionWithFlags(t *testing.T) {
	e, err := ParseExpression("12345678.M=PII.V=01.T=1b")
	require.NoError(t, err)
	require.Equal(t, "12345678", e.ID)
	mfct, err := FlagToManufacturer("PII")
	require.NoError(t, err)
	require.Equal(t, mfct, e.Mfct)
	require.Equal(t, byte(0x01), e.Version)
	require.Equal(t, byte(0x1b), e.Type)
}

func TestParseExpressionWildcard(t *testing.T) {
	e, err := ParseExpression("12*")
	require.NoError(t, err)
	require.True(t, e.HasWildcard)
	require.Equal(t, "12*", e.ID)
}

func TestParseExpressionFilterOut(t *testing.T) {
	e, err := ParseExpression("!12345678")
	require.NoError(t, err)
	require.True(t, e.FilterOut)
	require.Equal(t, "12345678", e.ID)
}

func TestParseExpressionDoubleNegationRejected(t *testing.T) {
	_, err := ParseExpression("!!12345678")
	require.Error(t, err)
}

func TestParseExpressionPrimaryStation(t *testing.T) {
	e, err := ParseExpression("p42")
	require.NoError(t, err)
	require.True(t, e.MbusPrimary)
	require.Equal(t, "p42", e.ID)

	_, err = ParseExpression("p251")
	require.Error(t, err)
}

func TestParseExpressionLibmbusSecondary(t *testing.T) {
	e, err := ParseExpression("100002842941011B")
	require.NoError(t, err)
	require.Equal(t, "10000284", e.ID)
	require.False(t, e.HasWildcard)
}

func TestParseExpressionEmptyRejected(t *testing.T) {
	_, err := ParseExpression("")
	require.Error(t, err)
}

func TestManufacturerFlagRoundTrip(t *testing.T) {
	m, err := FlagToManufacturer("ABB")
	require.NoError(t, err)
	require.Equal(t, "ABB", ManufacturerFlag(m))
}

func TestFlagToManufacturerRejectsLowerCase(t *testing.T) {
	_, err := FlagToManufacturer("abb")
	require.Error(t, err)
}

func TestIsValidSequence(t *testing.T) {
	require.True(t, IsValidSequence("12345678,!22*"))
	require.False(t, IsValidSequence(""))
	require.False(t, IsValidSequence("**"))
}

func TestSplitSequenceExpandsAnyID(t *testing.T) {
	got := SplitSequenceAtCommas("ANYID, 12345678")
	require.Equal(t, []string{"*", "12345678"}, got)
}

func TestMatchTelegramFilterOutScenario(t *testing.T) {
	// "*,!1*.V=1b" over two telegram addresses,
	// one of which matches the filter-out rule, rejects the whole telegram.
	exprs, err := ParseSequence("*,!1*.V=1b")
	require.NoError(t, err)

	mfctKAM, err := FlagToManufacturer("KAM")
	require.NoError(t, err)
	mfctXXX, err := FlagToManufacturer("XXX")
	require.NoError(t, err)

	addresses := []Address{
		{ID: "11111111", Mfct: mfctKAM, Version: 0x1b, Type: 0x16},
		{ID: "22222222", Mfct: mfctXXX, Version: 0xaa, Type: 0x99},
	}

	matched, _ := MatchTelegram(addresses, exprs)
	require.False(t, matched)
}

func TestMatchTelegramPlainWildcardAccepts(t *testing.T) {
	exprs, err := ParseSequence("12*")
	require.NoError(t, err)
	matched, usedWildcard := MatchTelegram([]Address{{ID: "12345678", Mfct: AnyMfct, Version: AnyVersion, Type: AnyType}}, exprs)
	require.True(t, matched)
	require.True(t, usedWildcard)
}

func TestMatchTelegramExactNoWildcard(t *testing.T) {
	exprs, err := ParseSequence("12345678")
	require.NoError(t, err)
	matched, usedWildcard := MatchTelegram([]Address{{ID: "12345678"}}, exprs)
	require.True(t, matched)
	require.False(t, usedWildcard)
}

func TestTrimToIdentityModes(t *testing.T) {
	a := Address{ID: "12345678", Mfct: 0x1234, Version: 0x01, Type: 0x02}

	e := AddressExpression{}
	e.TrimToIdentity(IdentityID, a)
	require.Equal(t, "12345678", e.ID)
	require.Equal(t, AnyMfct, e.Mfct)
	require.True(t, e.Required)

	e = AddressExpression{}
	e.TrimToIdentity(IdentityIDMfct, a)
	require.Equal(t, uint16(0x1234), e.Mfct)
	require.Equal(t, AnyVersion, e.Version)

	e = AddressExpression{}
	e.TrimToIdentity(IdentityFull, a)
	require.Equal(t, byte(0x01), e.Version)
	require.Equal(t, byte(0x02), e.Type)
}

func TestParseIdentityModeRoundTrip(t *testing.T) {
	modes := []IdentityMode{IdentityID, IdentityIDMfct, IdentityFull, IdentityNone}
	for _, m := range modes {
		require.Equal(t, m, ParseIdentityMode(m.String()))
	}
}
