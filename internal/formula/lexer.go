package formula

import (
	"strconv"
	"strings"
	"time"

	"github.com/travnick/wmbusmeters/internal/errs"
)

// lexer turns a formula's source text into a flat token slice, consumed by
// the parser through an index cursor.
type lexer struct {
	src  []rune
	pos  int
	toks []Token
}

// Lex tokenizes src, returning every token including a trailing TokEOF.
func Lex(src string) ([]Token, error) {
	l := &lexer{src: []rune(src)}
	for {
		l.skipSpace()
		if l.pos >= len(l.src) {
			l.toks = append(l.toks, Token{Kind: TokEOF, Start: l.pos, End: l.pos})
			return l.toks, nil
		}
		if err := l.lexOne(); err != nil {
			return nil, err
		}
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t' || l.src[l.pos] == '\n') {
		l.pos++
	}
}

func (l *lexer) lexOne() error {
	start := l.pos
	c := l.src[l.pos]
	switch {
	case c == '+':
		l.pos++
		l.emit(TokPlus, "+", start)
	case c == '-':
		l.pos++
		l.emit(TokMinus, "-", start)
	case c == '*':
		l.pos++
		l.emit(TokStar, "*", start)
	case c == '/':
		l.pos++
		l.emit(TokSlash, "/", start)
	case c == '(':
		l.pos++
		l.emit(TokLParen, "(", start)
	case c == ')':
		l.pos++
		l.emit(TokRParen, ")", start)
	case c == '\'':
		return l.lexDateTime(start)
	case c >= '0' && c <= '9' || c == '.':
		return l.lexNumber(start)
	case isIdentStart(c):
		l.lexIdent(start)
	default:
		return errs.New(errs.KindParseError, "unexpected character %q in formula", string(c)).WithSpan(start, start+1)
	}
	return nil
}

func (l *lexer) emit(kind TokenKind, text string, start int) {
	l.toks = append(l.toks, Token{Kind: kind, Text: text, Start: start, End: l.pos})
}

func isIdentStart(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c rune) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (l *lexer) lexIdent(start int) {
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	text := string(l.src[start:l.pos])
	l.toks = append(l.toks, Token{Kind: TokIdent, Text: text, Start: start, End: l.pos})
}

func (l *lexer) lexNumber(start int) error {
	for l.pos < len(l.src) && (l.src[l.pos] >= '0' && l.src[l.pos] <= '9' || l.src[l.pos] == '.') {
		l.pos++
	}
	numText := string(l.src[start:l.pos])
	v, err := strconv.ParseFloat(numText, 64)
	if err != nil {
		return errs.New(errs.KindParseError, "invalid number %q", numText).WithSpan(start, l.pos)
	}
	suffixStart := l.pos
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	suffix := string(l.src[suffixStart:l.pos])
	l.toks = append(l.toks, Token{Kind: TokNumber, Text: numText, Number: v, Suffix: suffix, Start: start, End: l.pos})
	return nil
}

// lexDateTime reads a quoted 'YYYY-MM-DD[ HH:MM[:SS]]' literal.
func (l *lexer) lexDateTime(start int) error {
	l.pos++ // opening quote
	contentStart := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != '\'' {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return errs.New(errs.KindParseError, "unterminated date/time literal").WithSpan(start, l.pos)
	}
	content := string(l.src[contentStart:l.pos])
	l.pos++ // closing quote

	t, err := parseDateTimeLiteral(content)
	if err != nil {
		return errs.New(errs.KindParseError, "invalid date/time literal %q: %v", content, err).WithSpan(start, l.pos)
	}
	l.toks = append(l.toks, Token{Kind: TokDateTime, Text: content, Seconds: t.Unix(), Start: start, End: l.pos})
	return nil
}

var dateTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDateTimeLiteral(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
