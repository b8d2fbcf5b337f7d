package mysqlparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tokens, err := Tokenize("-- lead\nUPDATE `users` SET name = 'drop me' WHERE id = 1;")
	require.NoError(t, err)

	var words, literals []string
	for _, token := range tokens {
		if token.Word {
			words = append(words, token.Text)
		}
		if token.Literal {
			literals = append(literals, token.Text)
		}
	}
	assert.Equal(t, []string{"UPDATE", "SET", "name", "WHERE", "id"}, words)
	assert.Equal(t, []string{"'drop me'"}, literals)
}

func TestBlankLiterals(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "string literals",
			text: "ALTER TABLE t ADD c INT COMMENT 'drop x', ADD d CHAR(1) DEFAULT \"y\";",
			want: "ALTER TABLE t ADD c INT COMMENT '', ADD d CHAR(1) DEFAULT '';",
		},
		{
			name: "comments",
			text: "ALTER TABLE t /* drop x */ ADD c INT;",
			want: "ALTER TABLE t   ADD c INT;",
		},
		{
			name: "identifiers are kept",
			text: "ALTER TABLE `t` ADD `c` INT;",
			want: "ALTER TABLE `t` ADD `c` INT;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BlankLiterals(tt.text))
		})
	}
}
