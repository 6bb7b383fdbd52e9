package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	IDENT  = "IDENT"  // fib, arr, x, y, ...
	NUMBER = "NUMBER" // 1343456, 13.5
	STRING = "STRING" // "foobar"

	// Operators
	ASSIGN   = "="
	PLUS     = "+"
	MINUS    = "-"
	BANG     = "!"
	ASTERISK = "*"
	SLASH    = "/"
	PERCENT  = "%"

	PLUS_ASSIGN     = "+="
	MINUS_ASSIGN    = "-="
	ASTERISK_ASSIGN = "*="
	SLASH_ASSIGN    = "/="
	PERCENT_ASSIGN  = "%="

	LT    = "<"
	LT_EQ = "<="
	GT    = ">"
	GT_EQ = ">="

	LOGICAL_AND = "&&"
	LOGICAL_OR  = "||"

	EQ     = "=="
	NOT_EQ = "!="

	// Delimiters
	PERIOD    = "."
	COMMA     = ","
	SEMICOLON = ";"
	COLON     = ":"

	LPAREN   = "("
	RPAREN   = ")"
	LBRACE   = "{"
	RBRACE   = "}"
	LBRACKET = "["
	RBRACKET = "]"

	// Keywords
	FUNCTION = "FUNCTION"
	NULL     = "NULL"
	IF       = "IF"
	ELSE     = "ELSE"
	WHILE    = "WHILE"
	FOR      = "FOR"
	IN       = "IN"
	RETURN   = "RETURN"
)

type Token struct {
	Type     TokenType
	Literal  string
	Position int // the src index of the token
}

var keywords = map[string]TokenType{
	"fn":     FUNCTION,
	"null":   NULL,
	"if":     IF,
	"else":   ELSE,
	"while":  WHILE,
	"for":    FOR,
	"in":     IN,
	"return": RETURN,
}

// LookupIdent returns the keyword token type for ident, or IDENT for a
// plain name. true/false are not keywords; they are protected builtin
// constants seeded into the global environment.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}
