package mysqlparser

import (
	"github.com/antlr4-go/antlr/v4"
	parser "github.com/gedhean/mysql-parser"
)

// ParseStatement runs the MySQL grammar over a single statement and returns
// the first lexer or parser error, or nil when the statement is well formed.
func ParseStatement(statement string) *SyntaxError {
	lexer := parser.NewMySQLLexer(antlr.NewInputStream(statement))
	stream := antlr.NewCommonTokenStream(lexer, antlr.TokenDefaultChannel)
	p := parser.NewMySQLParser(stream)

	lexerErrorListener := &ParseErrorListener{Statement: statement}
	lexer.RemoveErrorListeners()
	lexer.AddErrorListener(lexerErrorListener)

	parserErrorListener := &ParseErrorListener{Statement: statement}
	p.RemoveErrorListeners()
	p.AddErrorListener(parserErrorListener)

	p.BuildParseTrees = false
	p.Script()

	if lexerErrorListener.Err != nil {
		return lexerErrorListener.Err
	}
	return parserErrorListener.Err
}
