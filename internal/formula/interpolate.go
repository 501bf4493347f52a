package formula

import (
	"strconv"
	"strings"

	"github.com/travnick/wmbusmeters/internal/errs"
)

// Interpolate substitutes every `{expr}` substring in template with the
// result of building and evaluating expr as a formula. Text outside
// `{...}` passes through unchanged, byte for byte. Each `{...}` run is
// parsed and type-checked independently, against the same resolver used
// for a plain formula.
func Interpolate(template string, resolver Resolver, ctx EvalContext) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(template) {
		open := strings.IndexByte(template[i:], '{')
		if open < 0 {
			out.WriteString(template[i:])
			break
		}
		out.WriteString(template[i : i+open])
		exprStart := i + open + 1
		close := strings.IndexByte(template[exprStart:], '}')
		if close < 0 {
			return "", errs.New(errs.KindParseError, "unterminated '{' in interpolation template").WithSpan(i+open, len(template))
		}
		exprSrc := template[exprStart : exprStart+close]
		f, err := Build(exprSrc, resolver)
		if err != nil {
			return "", err
		}
		v, err := f.Evaluate(ctx)
		if err != nil {
			return "", err
		}
		out.WriteString(formatInterpolated(v))
		i = exprStart + close + 1
	}
	return out.String(), nil
}

func formatInterpolated(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
