package parser

// Common error messages
const (
	ErrUnexpectedToken    = "unexpected %s, expected %s"
	ErrUnterminatedString = "unterminated string literal"
	ErrExpectedStatement  = "expected SELECT, INSERT, UPDATE or DELETE, found %s"
	ErrExpectedExpression = "expected expression, found %s"
	ErrMissingSemicolon   = "missing ';' after statement"
	ErrEmptyValueList     = "empty value list"
	ErrUnmatchedParen     = "unmatched '(', found %s"
	ErrIntOutOfRange      = "integer literal %s out of range"
)
