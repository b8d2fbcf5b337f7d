package mysqlparser

import (
	"strings"

	"github.com/antlr4-go/antlr/v4"
	parser "github.com/gedhean/mysql-parser"
	"github.com/pkg/errors"

	"github.com/nsxbet/ddl-validator/pkg/types"
)

// SingleSQL is one statement of a script.
type SingleSQL struct {
	// Text is the statement as written, trimmed, including its terminator if any.
	Text string
	// Stripped is Text with comments replaced by a single space.
	Stripped string
	// BaseLine is the zero based line of the statement's first token in the script.
	BaseLine int
	Start    *types.Position
	Empty    bool
}

// SplitSQL splits a script on unquoted semicolons and drops empty statements.
//
// Quoted strings and identifiers are single lexer tokens, so a semicolon inside
// them never splits. Comments live on the hidden channel and are removed from
// Stripped.
func SplitSQL(script string) ([]SingleSQL, error) {
	lexer := parser.NewMySQLLexer(antlr.NewInputStream(script))
	listener := &ParseErrorListener{Statement: script}
	lexer.RemoveErrorListeners()
	lexer.AddErrorListener(listener)

	stream := antlr.NewCommonTokenStream(lexer, antlr.TokenDefaultChannel)
	stream.Fill()
	if listener.Err != nil {
		return nil, errors.Wrap(listener.Err, "failed to tokenize script")
	}

	var result []SingleSQL
	tokens := stream.GetAllTokens()
	start := 0
	for i, token := range tokens {
		if token.GetTokenType() == antlr.TokenEOF {
			if sql := buildSingleSQL(tokens[start:i]); !sql.Empty {
				result = append(result, sql)
			}
			break
		}
		if token.GetChannel() == antlr.TokenDefaultChannel && token.GetTokenType() == parser.MySQLLexerSEMICOLON_SYMBOL {
			if sql := buildSingleSQL(tokens[start : i+1]); !sql.Empty {
				result = append(result, sql)
			}
			start = i + 1
		}
	}
	return result, nil
}

// StripComments returns the statements of script with comments removed, one per line.
func StripComments(script string) (string, error) {
	list, err := SplitSQL(script)
	if err != nil {
		return "", err
	}
	var parts []string
	for _, sql := range list {
		parts = append(parts, sql.Stripped)
	}
	return strings.Join(parts, "\n"), nil
}

func buildSingleSQL(tokens []antlr.Token) SingleSQL {
	var text, stripped strings.Builder
	first := -1
	for i, token := range tokens {
		text.WriteString(token.GetText())
		switch {
		case token.GetChannel() == antlr.TokenDefaultChannel:
			if first < 0 {
				first = i
			}
			stripped.WriteString(token.GetText())
		case token.GetTokenType() == parser.MySQLLexerWHITESPACE:
			stripped.WriteString(token.GetText())
		default:
			// Comment.
			stripped.WriteString(" ")
		}
	}

	sql := SingleSQL{
		Text:     strings.TrimSpace(text.String()),
		Stripped: strings.TrimSpace(stripped.String()),
		Empty:    isEmpty(tokens),
	}
	if first >= 0 {
		// From antlr4, the line is ONE based, and the column is ZERO based.
		sql.BaseLine = tokens[first].GetLine() - 1
		sql.Start = &types.Position{
			Line:   int32(tokens[first].GetLine() - 1),
			Column: int32(tokens[first].GetColumn()),
		}
	}
	return sql
}

func isEmpty(tokens []antlr.Token) bool {
	for _, token := range tokens {
		if token.GetChannel() == antlr.TokenDefaultChannel &&
			token.GetTokenType() != parser.MySQLLexerSEMICOLON_SYMBOL &&
			token.GetTokenType() != antlr.TokenEOF {
			return false
		}
	}
	return true
}
