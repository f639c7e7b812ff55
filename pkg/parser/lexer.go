package parser

import (
	"github.com/leapstack-labs/minisql/pkg/diag"
	"github.com/leapstack-labs/minisql/pkg/token"
)

// Lexer tokenizes MiniSQL input in a single left-to-right pass.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// Lex converts text into a token stream. The stream ends with an EOF token
// unless a '#' comment cut lexing short, in which case the tokens collected
// before the '#' are returned as they are.
func Lex(text string) ([]token.Token, *diag.Diagnostic) {
	l := NewLexer(text)
	var toks []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Kind == token.ILLEGAL {
			// '#' comment marker
			return toks, nil
		}
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks, nil
		}
	}
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.input)
}

// NextToken returns the next token. A '#' is reported as ILLEGAL so Lex
// can stop; every other malformed input is returned as a diagnostic.
func (l *Lexer) NextToken() (token.Token, *diag.Diagnostic) {
	l.skipWhitespace()

	start := l.pos
	if l.atEnd() {
		return token.Token{Kind: token.EOF, Begin: len(l.input), End: len(l.input)}, nil
	}

	var kind token.Kind
	switch l.ch {
	case '#':
		return token.Token{Kind: token.ILLEGAL, Begin: start, End: start + 1}, nil
	case '+':
		kind = token.PLUS
	case '-':
		kind = token.MINUS
	case '*':
		kind = token.STAR
	case '/':
		kind = token.SLASH
	case '=':
		kind = token.EQ
	case ',':
		kind = token.COMMA
	case '(':
		kind = token.LPAREN
	case ')':
		kind = token.RPAREN
	case ';':
		kind = token.SEMICOLON
	case '<':
		kind = token.LT
		if l.peekChar() == '=' {
			l.readChar()
			kind = token.LE
		}
	case '>':
		kind = token.GT
		if l.peekChar() == '=' {
			l.readChar()
			kind = token.GE
		}
	case '!':
		if l.peekChar() != '=' {
			return token.Token{}, l.errorAt(start, "unexpected character '!', expected '!='")
		}
		l.readChar()
		kind = token.NE
	case '\'', '"':
		return l.readString()
	case '.':
		if !isDigit(l.peekChar()) {
			return token.Token{}, l.errorAt(start, "expected digit after '.'")
		}
		return l.readNumber()
	default:
		switch {
		case isLetter(l.ch) || l.ch == '_':
			return l.readIdentifier(), nil
		case isDigit(l.ch):
			return l.readNumber()
		default:
			return token.Token{}, l.errorAt(start, "unexpected character %q", rune(l.ch))
		}
	}

	l.readChar()
	return token.Token{Kind: kind, Begin: start, End: l.pos}, nil
}

func (l *Lexer) errorAt(pos int, format string, args ...any) *diag.Diagnostic {
	d := diag.Errorf(diag.Span{Begin: pos, End: pos + 1}, format, args...)
	return &d
}

// skipWhitespace skips spaces, tabs and newlines.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// readString reads a single- or double-quoted string literal. The token
// covers the quotes; a backslash escapes the next character.
func (l *Lexer) readString() (token.Token, *diag.Diagnostic) {
	start := l.pos
	quote := l.ch
	l.readChar() // skip opening quote
	for !l.atEnd() {
		switch l.ch {
		case '\\':
			l.readChar()
			if l.atEnd() {
				return token.Token{}, l.errorAt(start, ErrUnterminatedString)
			}
		case quote:
			l.readChar() // skip closing quote
			return token.Token{Kind: token.STRING, Begin: start, End: l.pos}, nil
		}
		l.readChar()
	}
	return token.Token{}, l.errorAt(start, ErrUnterminatedString)
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier() token.Token {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	return token.Token{Kind: token.Lookup(lower(l.input[start:l.pos])), Begin: start, End: l.pos}
}

// readNumber reads an integer or a decimal float. Exponents are not part
// of the language.
func (l *Lexer) readNumber() (token.Token, *diag.Diagnostic) {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch != '.' {
		return token.Token{Kind: token.INT, Begin: start, End: l.pos}, nil
	}
	if !isDigit(l.peekChar()) {
		return token.Token{}, l.errorAt(l.pos, "expected digit after '.'")
	}
	l.readChar() // skip '.'
	for isDigit(l.ch) {
		l.readChar()
	}
	return token.Token{Kind: token.FLOAT, Begin: start, End: l.pos}, nil
}

// unquote strips the quotes of a STRING token. Backslashes stay in the
// value; LIKE gives them their meaning.
func unquote(text string) string {
	return text[1 : len(text)-1]
}

func isLetter(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// lower ASCII-lowercases s; keywords are ASCII.
func lower(s string) string {
	for i := 0; i < len(s); i++ {
		if 'A' <= s[i] && s[i] <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if 'A' <= b[j] && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}
