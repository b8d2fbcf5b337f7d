package mysqlparser

import (
	"regexp"
	"strings"

	"github.com/antlr4-go/antlr/v4"
	parser "github.com/gedhean/mysql-parser"
	"github.com/pkg/errors"
)

var wordRe = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

// Token is one default channel token of a statement.
type Token struct {
	Text string
	// Word is set for keywords and unquoted identifiers.
	Word bool
	// Literal is set for quoted string literals.
	Literal bool
}

// Tokenize returns the default channel tokens of text. Comments and
// whitespace are dropped. On a lexer error the tokens recovered so far are
// returned together with the error.
func Tokenize(text string) ([]Token, error) {
	all, err := lex(text)
	var tokens []Token
	for _, token := range all {
		if token.GetChannel() != antlr.TokenDefaultChannel {
			continue
		}
		tokens = append(tokens, newToken(token.GetText()))
	}
	return tokens, err
}

// BlankLiterals returns text with every string literal replaced by '' and
// every comment by a space. Text that does not lex is returned unchanged.
func BlankLiterals(text string) string {
	all, err := lex(text)
	if err != nil {
		return text
	}
	var b strings.Builder
	for _, token := range all {
		switch {
		case token.GetChannel() == antlr.TokenDefaultChannel:
			if newToken(token.GetText()).Literal {
				b.WriteString("''")
			} else {
				b.WriteString(token.GetText())
			}
		case token.GetTokenType() == parser.MySQLLexerWHITESPACE:
			b.WriteString(token.GetText())
		default:
			b.WriteString(" ")
		}
	}
	return b.String()
}

func lex(text string) ([]antlr.Token, error) {
	lexer := parser.NewMySQLLexer(antlr.NewInputStream(text))
	listener := &ParseErrorListener{Statement: text}
	lexer.RemoveErrorListeners()
	lexer.AddErrorListener(listener)

	stream := antlr.NewCommonTokenStream(lexer, antlr.TokenDefaultChannel)
	stream.Fill()

	var tokens []antlr.Token
	for _, token := range stream.GetAllTokens() {
		if token.GetTokenType() == antlr.TokenEOF {
			break
		}
		tokens = append(tokens, token)
	}
	if listener.Err != nil {
		return tokens, errors.Wrap(listener.Err, "failed to tokenize statement")
	}
	return tokens, nil
}

func newToken(text string) Token {
	return Token{
		Text:    text,
		Word:    wordRe.MatchString(text),
		Literal: strings.HasSuffix(text, "'") || strings.HasPrefix(text, `"`),
	}
}
