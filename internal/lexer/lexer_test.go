package lexer

import (
	"testing"

	"github.com/rafibayer/puffin/internal/token"
)

func TestNextToken(t *testing.T) {
	input := `count = 5;
fact = fn(n) {
	if (n <= 1) { return 1; }
	return n * fact(n - 1);
};
msg = "hi\n";
ok = count >= 1 && count != 0 || !flag;
arr = [3]; arr[0] = 1.5;
s = {x: 1}; s.x += 2;
for (i in arr) { total -= i; }
`

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.IDENT, "count"},
		{token.ASSIGN, "="},
		{token.NUMBER, "5"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "fact"},
		{token.ASSIGN, "="},
		{token.FUNCTION, "fn"},
		{token.LPAREN, "("},
		{token.IDENT, "n"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IF, "if"},
		{token.LPAREN, "("},
		{token.IDENT, "n"},
		{token.LT_EQ, "<="},
		{token.NUMBER, "1"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RETURN, "return"},
		{token.NUMBER, "1"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.RETURN, "return"},
		{token.IDENT, "n"},
		{token.ASTERISK, "*"},
		{token.IDENT, "fact"},
		{token.LPAREN, "("},
		{token.IDENT, "n"},
		{token.MINUS, "-"},
		{token.NUMBER, "1"},
		{token.RPAREN, ")"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "msg"},
		{token.ASSIGN, "="},
		{token.STRING, "hi\n"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "ok"},
		{token.ASSIGN, "="},
		{token.IDENT, "count"},
		{token.GT_EQ, ">="},
		{token.NUMBER, "1"},
		{token.LOGICAL_AND, "&&"},
		{token.IDENT, "count"},
		{token.NOT_EQ, "!="},
		{token.NUMBER, "0"},
		{token.LOGICAL_OR, "||"},
		{token.BANG, "!"},
		{token.IDENT, "flag"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "arr"},
		{token.ASSIGN, "="},
		{token.LBRACKET, "["},
		{token.NUMBER, "3"},
		{token.RBRACKET, "]"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "arr"},
		{token.LBRACKET, "["},
		{token.NUMBER, "0"},
		{token.RBRACKET, "]"},
		{token.ASSIGN, "="},
		{token.NUMBER, "1.5"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "s"},
		{token.ASSIGN, "="},
		{token.LBRACE, "{"},
		{token.IDENT, "x"},
		{token.COLON, ":"},
		{token.NUMBER, "1"},
		{token.RBRACE, "}"},
		{token.SEMICOLON, ";"},
		{token.IDENT, "s"},
		{token.PERIOD, "."},
		{token.IDENT, "x"},
		{token.PLUS_ASSIGN, "+="},
		{token.NUMBER, "2"},
		{token.SEMICOLON, ";"},
		{token.FOR, "for"},
		{token.LPAREN, "("},
		{token.IDENT, "i"},
		{token.IN, "in"},
		{token.IDENT, "arr"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IDENT, "total"},
		{token.MINUS_ASSIGN, "-="},
		{token.IDENT, "i"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - wrong token type. expected=%q, got=%q (literal %q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - wrong literal. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestComments(t *testing.T) {
	input := `a = 1; // trailing
# full line
b = 2;`

	want := []token.TokenType{
		token.IDENT, token.ASSIGN, token.NUMBER, token.SEMICOLON,
		token.IDENT, token.ASSIGN, token.NUMBER, token.SEMICOLON,
		token.EOF,
	}

	l := New(input)
	for i, w := range want {
		tok := l.NextToken()
		if tok.Type != w {
			t.Fatalf("tokens[%d] - expected=%q, got=%q", i, w, tok.Type)
		}
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`"never closed`)
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL token, got %q", tok.Type)
	}
}
