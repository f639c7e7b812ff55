package token

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"select", SELECT},
		{"where", WHERE},
		{"like", LIKE},
		{"math", IDENT},
		{"selects", IDENT},
		{"group", IDENT},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Lookup(tt.in))
		})
	}
}

func TestKeywords(t *testing.T) {
	kws := Keywords()
	assert.Len(t, kws, 16)
	assert.Equal(t, "AND", kws[0])
	assert.Equal(t, "WHERE", kws[len(kws)-1])
	for _, kw := range kws {
		assert.True(t, IsKeyword(Lookup(strings.ToLower(kw))), kw)
	}
}

func TestKindPredicates(t *testing.T) {
	assert.True(t, IsComparison(EQ))
	assert.True(t, IsComparison(GE))
	assert.True(t, IsComparison(LIKE))
	assert.False(t, IsComparison(PLUS))
	assert.False(t, IsKeyword(IDENT))
	assert.Equal(t, "<=", LE.String())
	assert.Equal(t, "TOKEN(999)", Kind(999).String())
}

func TestTokenText(t *testing.T) {
	src := "SELECT name"
	tok := Token{Kind: IDENT, Begin: 7, End: 11}
	assert.Equal(t, "name", tok.Text(src))
}

