// Package stdinreader implements a minimal stand-in for a physical
// serial/TCP transport: a line-oriented hex frame reader so
// cmd/wmbus-analyze's `listen` subcommand has something to drive the meter
// manager with. Reduced to exactly what that needs; it never decodes
// telegram contents itself.
package stdinreader

import (
	"bufio"
	"io"
	"strings"

	"github.com/travnick/wmbusmeters/internal/binutil"
	"github.com/travnick/wmbusmeters/internal/errs"
)

// FrameFunc receives one decoded telegram frame.
type FrameFunc func(frame []byte) error

// Read scans r line by line, decoding each non-blank, non-comment line as a
// hex-encoded telegram and passing it to onFrame. A malformed line is
// reported through onError (if non-nil) and skipped rather than aborting
// the whole stream, so one bad paste doesn't kill a listen session.
func Read(r io.Reader, onFrame FrameFunc, onError func(line string, err error)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		frame, err := binutil.Hex2Bin(line)
		if err != nil {
			if onError != nil {
				onError(line, errs.Wrap(errs.KindParseError, err, "decoding hex frame"))
			}
			continue
		}
		if err := onFrame(frame); err != nil {
			return err
		}
	}
	return scanner.Err()
}
