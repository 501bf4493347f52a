package stdinreader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadDecodesHexLines(t *testing.T) {
	input := "# comment\n\n0B1356341200\nDEADBEEF\n"
	var frames [][]byte
	err := Read(strings.NewReader(input), func(f []byte) error {
		frames = append(frames, f)
		return nil
	}, nil)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	require.Equal(t, []byte{0x0B, 0x13, 0x56, 0x34, 0x12, 0x00}, frames[0])
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, frames[1])
}

func TestReadReportsMalformedLineWithoutAborting(t *testing.T) {
	input := "zzz\nDEADBEEF\n"
	var frames [][]byte
	var errs int
	err := Read(strings.NewReader(input), func(f []byte) error {
		frames = append(frames, f)
		return nil
	}, func(line string, err error) {
		errs++
	})
	require.NoError(t, err)
	require.Equal(t, 1, errs)
	require.Len(t, frames, 1)
}
