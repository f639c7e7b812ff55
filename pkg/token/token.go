// Package token defines the token kinds produced by the MiniSQL lexer.
package token

import "fmt"

// Kind represents the kind of a lexical token.
type Kind int32

const (
	// Special tokens
	EOF Kind = iota
	ILLEGAL

	// Literals
	IDENT  // identifier
	INT    // 123
	FLOAT  // 45.67
	STRING // 'hello' or "hello"

	// Operators
	PLUS  // +
	MINUS // -
	STAR  // *
	SLASH // /
	EQ    // =
	NE    // !=
	LT    // <
	LE    // <=
	GT    // >
	GE    // >=

	// Punctuation
	COMMA     // ,
	LPAREN    // (
	RPAREN    // )
	SEMICOLON // ;

	// Keywords (alphabetical)
	AND
	ASC
	BY
	DELETE
	DESC
	FROM
	INSERT
	INTO
	LIKE
	OR
	ORDER
	SELECT
	SET
	UPDATE
	VALUES
	WHERE
)

// String returns a human-readable representation of the token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", k)
}

var kindNames = map[Kind]string{
	EOF:     "end of input",
	ILLEGAL: "ILLEGAL",

	IDENT:  "identifier",
	INT:    "integer",
	FLOAT:  "float",
	STRING: "string",

	PLUS:  "+",
	MINUS: "-",
	STAR:  "*",
	SLASH: "/",
	EQ:    "=",
	NE:    "!=",
	LT:    "<",
	LE:    "<=",
	GT:    ">",
	GE:    ">=",

	COMMA:     ",",
	LPAREN:    "(",
	RPAREN:    ")",
	SEMICOLON: ";",

	AND:    "AND",
	ASC:    "ASC",
	BY:     "BY",
	DELETE: "DELETE",
	DESC:   "DESC",
	FROM:   "FROM",
	INSERT: "INSERT",
	INTO:   "INTO",
	LIKE:   "LIKE",
	OR:     "OR",
	ORDER:  "ORDER",
	SELECT: "SELECT",
	SET:    "SET",
	UPDATE: "UPDATE",
	VALUES: "VALUES",
	WHERE:  "WHERE",
}

// keywords maps lowercase keyword strings to their token kinds.
var keywords = map[string]Kind{
	"and":    AND,
	"asc":    ASC,
	"by":     BY,
	"delete": DELETE,
	"desc":   DESC,
	"from":   FROM,
	"insert": INSERT,
	"into":   INTO,
	"like":   LIKE,
	"or":     OR,
	"order":  ORDER,
	"select": SELECT,
	"set":    SET,
	"update": UPDATE,
	"values": VALUES,
	"where":  WHERE,
}

// Lookup returns the keyword kind for a lowercase identifier, or IDENT.
func Lookup(lower string) Kind {
	if k, ok := keywords[lower]; ok {
		return k
	}
	return IDENT
}

// Keywords returns every keyword in upper case, in declaration order.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for k := AND; k <= WHERE; k++ {
		out = append(out, kindNames[k])
	}
	return out
}

// IsKeyword returns true if the kind is a keyword.
func IsKeyword(k Kind) bool {
	return k >= AND && k <= WHERE
}

// IsComparison returns true for the comparison operators, LIKE included.
func IsComparison(k Kind) bool {
	return (k >= EQ && k <= GE) || k == LIKE
}

// Token is a lexical token: a kind and a half-open byte range [Begin, End)
// into the source text.
type Token struct {
	Kind  Kind
	Begin int
	End   int
}

// Text returns the source text covered by the token.
func (t Token) Text(src string) string {
	return src[t.Begin:t.End]
}
