// Package lexer turns puffin source text into a token stream.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rafibayer/puffin/internal/token"
	"github.com/rafibayer/puffin/internal/util"
)

type Lexer struct {
	input        string
	position     int  // current byte position (start of current rune)
	readPosition int  // next byte position (start of next rune)
	ch           rune // current rune under examination; 0 means EOF
}

func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// LineAndColumn reports the 1-based source position of a token offset,
// for error messages.
func (l *Lexer) LineAndColumn(pos int) (line, column int) {
	return util.LineAndColumn(l.input, pos)
}

func (l *Lexer) NextToken() token.Token {
	l.skipWhitespace()

	var tok token.Token
	switch l.ch {
	case '=':
		tok = l.compound(token.ASSIGN, '=', token.EQ)
	case '+':
		tok = l.compound(token.PLUS, '=', token.PLUS_ASSIGN)
	case '-':
		tok = l.compound(token.MINUS, '=', token.MINUS_ASSIGN)
	case '*':
		tok = l.compound(token.ASTERISK, '=', token.ASTERISK_ASSIGN)
	case '/':
		tok = l.compound(token.SLASH, '=', token.SLASH_ASSIGN)
	case '%':
		tok = l.compound(token.PERCENT, '=', token.PERCENT_ASSIGN)
	case '!':
		tok = l.compound(token.BANG, '=', token.NOT_EQ)
	case '<':
		tok = l.compound(token.LT, '=', token.LT_EQ)
	case '>':
		tok = l.compound(token.GT, '=', token.GT_EQ)
	case '&':
		tok = l.compound(token.ILLEGAL, '&', token.LOGICAL_AND)
	case '|':
		tok = l.compound(token.ILLEGAL, '|', token.LOGICAL_OR)
	case '.':
		tok = newToken(token.PERIOD, l.ch, l.position)
	case ',':
		tok = newToken(token.COMMA, l.ch, l.position)
	case ';':
		tok = newToken(token.SEMICOLON, l.ch, l.position)
	case ':':
		tok = newToken(token.COLON, l.ch, l.position)
	case '(':
		tok = newToken(token.LPAREN, l.ch, l.position)
	case ')':
		tok = newToken(token.RPAREN, l.ch, l.position)
	case '{':
		tok = newToken(token.LBRACE, l.ch, l.position)
	case '}':
		tok = newToken(token.RBRACE, l.ch, l.position)
	case '[':
		tok = newToken(token.LBRACKET, l.ch, l.position)
	case ']':
		tok = newToken(token.RBRACKET, l.ch, l.position)
	case '"':
		return l.readString()
	case 0:
		tok = token.Token{Type: token.EOF, Literal: "", Position: l.position}
	default:
		if isLetter(l.ch) {
			return l.readIdentifier()
		}
		if isDigit(l.ch) {
			return l.readNumber()
		}
		tok = newToken(token.ILLEGAL, l.ch, l.position)
	}

	l.readChar()
	return tok
}

// compound emits a two-rune token when the next rune matches ch1,
// otherwise the single-rune token t.
func (l *Lexer) compound(t token.TokenType, ch1 rune, t1 token.TokenType) token.Token {
	start := l.position
	if l.peekChar() == ch1 {
		first := l.ch
		l.readChar()
		return token.Token{Type: t1, Literal: string(first) + string(l.ch), Position: start}
	}
	return newToken(t, l.ch, start)
}

func (l *Lexer) skipWhitespace() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n':
			l.readChar()
		case l.ch == '#':
			l.skipToLineEnd()
		case l.ch == '/' && l.peekChar() == '/':
			l.skipToLineEnd()
		default:
			return
		}
	}
}

func (l *Lexer) skipToLineEnd() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// readChar advances by one UTF-8 rune, updating byte positions.
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) readIdentifier() token.Token {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	literal := l.input[start:l.position]
	return token.Token{Type: token.LookupIdent(literal), Literal: literal, Position: start}
}

func (l *Lexer) readNumber() token.Token {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return token.Token{Type: token.NUMBER, Literal: l.input[start:l.position], Position: start}
}

func (l *Lexer) readString() token.Token {
	start := l.position
	var out strings.Builder
	for {
		l.readChar()
		switch l.ch {
		case '"':
			l.readChar()
			return token.Token{Type: token.STRING, Literal: out.String(), Position: start}
		case 0:
			return token.Token{Type: token.ILLEGAL, Literal: out.String(), Position: start}
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				out.WriteRune('\n')
			case 't':
				out.WriteRune('\t')
			case '"':
				out.WriteRune('"')
			case '\\':
				out.WriteRune('\\')
			default:
				out.WriteRune(l.ch)
			}
		default:
			out.WriteRune(l.ch)
		}
	}
}

func newToken(tokenType token.TokenType, ch rune, position int) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch), Position: position}
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}
