// Package lexer turns expression source text into a token stream.
package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pumped-fn/reaxpr/value"
)

// Error is returned for any character or literal that matches no lexical
// rule.
type Error struct {
	Message string
	Pos     int
}

func (e *Error) Error() string { return e.Message }

var (
	isWhitespace [128]bool
	isIdentStart [128]bool
	isIdentPart  [128]bool
	isDigit      [128]bool
)

func init() {
	for i := 0; i < 128; i++ {
		ch := byte(i)
		isWhitespace[i] = ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v'
		isDigit[i] = ch >= '0' && ch <= '9'
		isIdentStart[i] = (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch == '$'
		isIdentPart[i] = isIdentStart[i] || isDigit[i]
	}
}

func classWhitespace(r rune) bool {
	if r == ' ' {
		return true
	}
	return r < 128 && isWhitespace[r]
}

// Lex scans the full source text into a finite token stream.
func Lex(text string) ([]Token, error) {
	l := &lexer{src: text}
	var tokens []Token
	for {
		l.skipWhitespace()
		if l.done() {
			break
		}
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) done() bool { return l.pos >= len(l.src) }

func (l *lexer) peek() byte {
	if l.done() {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekAt(offset int) byte {
	p := l.pos + offset
	if p >= len(l.src) {
		return 0
	}
	return l.src[p]
}

func (l *lexer) skipWhitespace() {
	for !l.done() {
		r := rune(l.peek())
		if r >= 0x80 {
			// only U+00A0 counts among non-ASCII whitespace
			if strings.HasPrefix(l.src[l.pos:], "\u00a0") {
				l.pos += len("\u00a0")
				continue
			}
			break
		}
		if !classWhitespace(r) {
			break
		}
		l.pos++
	}
}

func (l *lexer) next() (Token, error) {
	start := l.pos
	ch := l.peek()

	switch {
	case isDigit[ch] || (ch == '.' && isDigit[l.peekAt(1)]):
		return l.readNumber(start)
	case ch == '\'' || ch == '"':
		return l.readString(start, ch)
	case isIdentStart[ch]:
		return l.readIdentifier(start)
	case strings.IndexByte(punctuation, ch) >= 0:
		l.pos++
		return Token{Text: string(ch), Pos: start}, nil
	}

	if tok, ok := l.tryOperator(start); ok {
		return tok, nil
	}

	return Token{}, &Error{
		Message: fmt.Sprintf("Unexpected character %q", rune(ch)),
		Pos:     start,
	}
}

func (l *lexer) tryOperator(start int) (Token, bool) {
	for _, op := range operators3 {
		if strings.HasPrefix(l.src[l.pos:], op) {
			l.pos += len(op)
			return Token{Text: op, Pos: start}, true
		}
	}
	for _, op := range operators2 {
		if strings.HasPrefix(l.src[l.pos:], op) {
			l.pos += len(op)
			return Token{Text: op, Pos: start}, true
		}
	}
	ch := l.peek()
	if strings.IndexByte(operators1, ch) >= 0 {
		l.pos++
		return Token{Text: string(ch), Pos: start}, true
	}
	return Token{}, false
}

func (l *lexer) readIdentifier(start int) (Token, error) {
	for !l.done() && isIdentPart[l.peek()] {
		l.pos++
	}
	text := l.src[start:l.pos]
	return Token{Text: text, Identifier: true, Pos: start}, nil
}

func (l *lexer) readNumber(start int) (Token, error) {
	for !l.done() && isDigit[l.peek()] {
		l.pos++
	}
	if !l.done() && l.peek() == '.' && isDigit[l.peekAt(1)] {
		l.pos++
		for !l.done() && isDigit[l.peek()] {
			l.pos++
		}
	}
	if !l.done() && (l.peek() == 'e' || l.peek() == 'E') {
		save := l.pos
		l.pos++
		if !l.done() && (l.peek() == '+' || l.peek() == '-') {
			l.pos++
		}
		if l.done() || !isDigit[l.peek()] {
			return Token{}, &Error{Message: "Invalid exponent", Pos: save}
		}
		for !l.done() && isDigit[l.peek()] {
			l.pos++
		}
	}
	text := l.src[start:l.pos]
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Token{}, &Error{Message: fmt.Sprintf("Invalid number %q", text), Pos: start}
	}
	return Token{Text: text, Value: value.Number(n), HasValue: true, Pos: start}, nil
}

var stringEscapes = map[byte]byte{
	'n':  '\n',
	'f':  '\f',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
	'\'': '\'',
	'"':  '"',
}

func (l *lexer) readString(start int, quote byte) (Token, error) {
	l.pos++ // opening quote
	var b strings.Builder
	for {
		if l.done() {
			return Token{}, &Error{Message: "Unterminated string", Pos: start}
		}
		ch := l.peek()
		if ch == quote {
			l.pos++
			break
		}
		if ch == '\\' {
			l.pos++
			if l.done() {
				return Token{}, &Error{Message: "Unterminated string escape", Pos: start}
			}
			esc := l.peek()
			if esc == 'u' {
				if l.pos+5 > len(l.src) {
					return Token{}, &Error{Message: "Invalid unicode escape", Pos: l.pos}
				}
				hex := l.src[l.pos+1 : l.pos+5]
				r, err := parseHex4(hex)
				if err != nil {
					return Token{}, &Error{Message: "Invalid unicode escape", Pos: l.pos}
				}
				b.WriteRune(r)
				l.pos += 5
				continue
			}
			if repl, ok := stringEscapes[esc]; ok {
				b.WriteByte(repl)
			} else {
				// unrecognised escapes pass the character through
				b.WriteByte(esc)
			}
			l.pos++
			continue
		}
		b.WriteByte(ch)
		l.pos++
	}
	text := l.src[start:l.pos]
	return Token{Text: text, Value: value.String(b.String()), HasValue: true, Pos: start}, nil
}

func parseHex4(s string) (rune, error) {
	var r rune
	for _, c := range s {
		var d rune
		switch {
		case c >= '0' && c <= '9':
			d = c - '0'
		case c >= 'a' && c <= 'f':
			d = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			d = c - 'A' + 10
		default:
			return 0, fmt.Errorf("bad hex digit %q", c)
		}
		r = r*16 + d
	}
	return r, nil
}
